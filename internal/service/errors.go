package service

import "errors"

var (
	// ErrInvalidInput is returned for calculator parameters outside their domain
	ErrInvalidInput = errors.New("invalid input")
	// ErrCapabilityUnavailable means the host has no speech support; degrade to text
	ErrCapabilityUnavailable = errors.New("voice capability unavailable")
	// ErrPermissionDenied means microphone access was refused
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrIntakeFailure means the lead could not be handed off; the profile is kept
	ErrIntakeFailure = errors.New("lead intake failed")
	// ErrSessionNotFound is returned for unknown session ids
	ErrSessionNotFound = errors.New("session not found")
	// ErrListingNotFound is returned for unknown listing ids
	ErrListingNotFound = errors.New("listing not found")
)

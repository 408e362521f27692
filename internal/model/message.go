package model

import "time"

// Sender identifies who authored a message
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single transcript entry. Messages are never mutated once appended.
type Message struct {
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState is the dialogue turn state
type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateAwaitingResponse SessionState = "awaiting_response"
)

// TurnKind selects the simulated thinking-delay window
type TurnKind string

const (
	TurnTyped TurnKind = "typed"
	TurnQuick TurnKind = "quick"
	TurnVoice TurnKind = "voice"
)

// Session event types delivered to subscribers
const (
	EventMessage = "message"
	EventState   = "state"
	EventProfile = "profile"
)

// SessionEvent notifies subscribers of a session change
type SessionEvent struct {
	Type    string       `json:"type"`
	State   SessionState `json:"state,omitempty"`
	Message *Message     `json:"message,omitempty"`
	Profile *LeadProfile `json:"profile,omitempty"`
}

package voice

import (
	"fmt"

	"concierge/internal/service"
)

// Recognition error codes reported by the speech host
const (
	CodeNoSpeech     = "no-speech"
	CodeAudioCapture = "audio-capture"
	CodeNotAllowed   = "not-allowed"
	CodeNetwork      = "network"
)

// User-visible notices appended to the transcript
const (
	UnsupportedNotice        = "Voice recognition isn't supported in your current browser. For the best voice experience, please use Chrome, Safari, or Edge. You can continue using text chat!"
	StartFailedNotice        = "Unable to start voice recognition. Please check your microphone permissions."
	PermissionRequiredNotice = "Microphone access is required for voice chat. Please grant permission and try again."
)

// RecognitionError is a failure reported by the host while listening
type RecognitionError struct {
	Code string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("speech recognition error: %s", e.Code)
}

// Unwrap maps not-allowed onto the permission sentinel
func (e *RecognitionError) Unwrap() error {
	if e.Code == CodeNotAllowed {
		return service.ErrPermissionDenied
	}
	return nil
}

// ErrorNotice returns the transcript notice for a recognition error code
func ErrorNotice(code string) string {
	notice := "Voice recognition error. "
	switch code {
	case CodeNoSpeech:
		return notice + "No speech detected. Try again."
	case CodeAudioCapture:
		return notice + "Microphone not accessible."
	case CodeNotAllowed:
		return notice + "Microphone permission denied."
	case CodeNetwork:
		return notice + "Network error occurred."
	default:
		return notice + "Please try again."
	}
}

package voice

import "context"

// Transcript is one recognition result. A result carrying Err ends the
// listening attempt.
type Transcript struct {
	Text    string
	IsFinal bool
	Err     error
}

// Bridge is the speech host: recognition in, synthesis out.
// Unavailability is reported by Available, not by errors.
type Bridge interface {
	Available() bool
	// StartListening begins recognition. The stream is closed when
	// recognition ends for any reason.
	StartListening(ctx context.Context) (<-chan Transcript, error)
	Stop() error
	// Speak starts synthesis. The returned channel is closed when the
	// utterance finishes or is cancelled.
	Speak(ctx context.Context, text string) (<-chan struct{}, error)
	CancelSpeech() error
}

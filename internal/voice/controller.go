package voice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"concierge/internal/metrics"
	"concierge/internal/model"
	"concierge/internal/service"
)

// State is the voice state machine. Listening and Speaking are mutually exclusive.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateSpeaking  State = "speaking"
)

// Status lines shown next to the microphone control
const (
	StatusReady       = "Click to speak"
	StatusListening   = "Listening... Speak now"
	StatusSpeaking    = "Speaking..."
	StatusProcessing  = "Processing..."
	StatusError       = "Voice error occurred"
	StatusUnsupported = "Voice not supported in this browser"
)

// Turner is the dialogue session a controller feeds
type Turner interface {
	Submit(text string, kind model.TurnKind) (<-chan model.Message, error)
	Notify(content string)
}

// StatusFunc observes state and status-line changes
type StatusFunc func(state State, status string)

// Option customizes a Controller
type Option func(*Controller)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records recognition errors
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithStatus registers a status observer. It is called with the controller lock held
// and must not call back into the controller.
func WithStatus(fn StatusFunc) Option {
	return func(c *Controller) {
		c.onStatus = fn
	}
}

// Controller drives a Bridge for one session: final transcripts become voice
// turns and the replies are spoken.
type Controller struct {
	bridge  Bridge
	session Turner
	logger  *slog.Logger
	metrics *metrics.Metrics

	onStatus StatusFunc

	mu    sync.Mutex
	state State
	// gen changes on every listen, speak and background; stale goroutines compare it
	gen uint64
}

// NewController creates an idle controller
func NewController(bridge Bridge, session Turner, opts ...Option) *Controller {
	c := &Controller{
		bridge:  bridge,
		session: session,
		logger:  slog.Default(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current voice state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Toggle stops listening when listening and starts otherwise
func (c *Controller) Toggle(ctx context.Context) error {
	if c.State() == StateListening {
		return c.StopListening()
	}
	return c.Listen(ctx)
}

// Listen starts recognition, cancelling any speech in progress. Without host
// support it appends a text-chat notice and returns ErrCapabilityUnavailable.
func (c *Controller) Listen(ctx context.Context) error {
	if !c.bridge.Available() {
		c.mu.Lock()
		c.setLocked(StateIdle, StatusUnsupported)
		c.mu.Unlock()
		c.session.Notify(UnsupportedNotice)
		return service.ErrCapabilityUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateListening:
		return nil
	case StateSpeaking:
		if err := c.bridge.CancelSpeech(); err != nil {
			c.logger.Warn("failed to cancel speech", "error", err)
		}
		c.setLocked(StateIdle, StatusReady)
	}

	stream, err := c.bridge.StartListening(ctx)
	if err != nil {
		c.setLocked(StateIdle, StatusError)
		if errors.Is(err, service.ErrPermissionDenied) {
			c.session.Notify(PermissionRequiredNotice)
		} else {
			c.session.Notify(StartFailedNotice)
		}
		c.logger.Warn("failed to start recognition", "error", err)
		return err
	}

	c.gen++
	c.setLocked(StateListening, StatusListening)
	go c.consume(ctx, c.gen, stream)
	return nil
}

// StopListening ends recognition; a pending final transcript may still arrive
func (c *Controller) StopListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateListening {
		return nil
	}
	c.setLocked(StateIdle, StatusReady)
	return c.bridge.Stop()
}

// Speak reads text aloud, ending recognition first. A request while already
// speaking is ignored.
func (c *Controller) Speak(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speakLocked(ctx, text)
}

func (c *Controller) speakLocked(ctx context.Context, text string) error {
	if c.state == StateSpeaking || !c.bridge.Available() {
		return nil
	}
	if c.state == StateListening {
		if err := c.bridge.Stop(); err != nil {
			c.logger.Warn("failed to stop recognition", "error", err)
		}
	}

	done, err := c.bridge.Speak(ctx, PrepareForSpeech(text))
	if err != nil {
		c.setLocked(StateIdle, StatusError)
		return err
	}
	c.gen++
	gen := c.gen
	c.setLocked(StateSpeaking, StatusSpeaking)

	go func() {
		select {
		case <-done:
		case <-ctx.Done():
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen && c.state == StateSpeaking {
			c.setLocked(StateIdle, StatusReady)
		}
	}()
	return nil
}

// CancelSpeech stops any utterance in progress
func (c *Controller) CancelSpeech() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSpeaking {
		return nil
	}
	c.gen++
	c.setLocked(StateIdle, StatusReady)
	return c.bridge.CancelSpeech()
}

// Background forces Idle immediately when the host is hidden. Replies that
// arrive afterwards are not spoken.
func (c *Controller) Background() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	switch c.state {
	case StateListening:
		if err := c.bridge.Stop(); err != nil {
			c.logger.Warn("failed to stop recognition", "error", err)
		}
	case StateSpeaking:
		if err := c.bridge.CancelSpeech(); err != nil {
			c.logger.Warn("failed to cancel speech", "error", err)
		}
	}
	c.setLocked(StateIdle, StatusReady)
}

func (c *Controller) consume(ctx context.Context, gen uint64, stream <-chan Transcript) {
	for t := range stream {
		if t.Err != nil {
			c.fail(gen, t.Err)
			continue
		}
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		if !t.IsFinal {
			c.status(gen, `"`+text+`"`)
			continue
		}
		c.submit(ctx, gen, text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.state == StateListening {
		c.setLocked(StateIdle, StatusReady)
	}
}

func (c *Controller) submit(ctx context.Context, gen uint64, text string) {
	reply, err := c.session.Submit(text, model.TurnVoice)
	if err != nil {
		c.logger.Warn("voice turn rejected", "error", err)
		return
	}
	if reply == nil {
		return
	}
	c.status(gen, StatusProcessing)

	go func() {
		msg, ok := <-reply
		if !ok {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		// a new listen or a background since this turn began wins over the reply
		if c.gen != gen {
			return
		}
		if err := c.speakLocked(ctx, msg.Content); err != nil {
			c.logger.Warn("failed to speak reply", "error", err)
		}
	}()
}

func (c *Controller) fail(gen uint64, err error) {
	code := "unknown"
	var recErr *RecognitionError
	if errors.As(err, &recErr) {
		code = recErr.Code
	}
	c.metrics.VoiceError(code)
	c.logger.Warn("speech recognition error", "code", code)

	c.mu.Lock()
	if c.gen == gen && c.state == StateListening {
		c.setLocked(StateIdle, StatusError)
	}
	c.mu.Unlock()
	c.session.Notify(ErrorNotice(code))
}

func (c *Controller) status(gen uint64, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.setLocked(c.state, status)
	}
}

func (c *Controller) setLocked(state State, status string) {
	c.state = state
	if c.onStatus != nil {
		c.onStatus(state, status)
	}
}

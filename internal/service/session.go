package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"concierge/internal/config"
	"concierge/internal/metrics"
	"concierge/internal/model"
)

// ErrTurnInProgress is returned when a message arrives while a reply is pending
var ErrTurnInProgress = errors.New("a reply is already pending")

// subscriberBuffer bounds each subscriber channel; slow readers lose events
const subscriberBuffer = 32

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dialogue holds the collaborators shared by every session
type dialogue struct {
	classifier *IntentClassifier
	extractor  *LeadExtractor
	profiles   *ProfileStore
	intake     LeadIntake
	rand       RandSource
	delays     map[model.TurnKind]config.DelayWindow
	sleep      Sleeper
	now        func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func (d *dialogue) delayFor(kind model.TurnKind) time.Duration {
	window, ok := d.delays[kind]
	if !ok {
		window = d.delays[model.TurnTyped]
	}
	ms := float64(window.MinMs) + d.rand.Float64()*float64(window.SpanMs)
	return time.Duration(ms * float64(time.Millisecond))
}

// Session is one visitor conversation. Only one turn is processed at a time;
// the transcript is append-only until Reset.
type Session struct {
	id        string
	visitorID string
	page      string
	d         *dialogue
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       model.SessionState
	transcript  []model.Message
	profile     model.LeadProfile
	profileRev  uint64 // bumped whenever a turn updates profile
	turn        uint64
	cancelTurn  context.CancelFunc
	subscribers map[int]chan model.SessionEvent
	nextSub     int

	leadMu sync.Mutex
}

func newSession(id, visitorID, page string, profile model.LeadProfile, d *dialogue) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          id,
		visitorID:   visitorID,
		page:        page,
		d:           d,
		logger:      d.logger.With("session_id", id, "visitor_id", visitorID),
		ctx:         ctx,
		cancel:      cancel,
		state:       model.StateIdle,
		profile:     profile,
		subscribers: make(map[int]chan model.SessionEvent),
	}
	s.transcript = append(s.transcript, model.Message{
		Content:   d.classifier.Greeting(),
		Sender:    model.SenderBot,
		Timestamp: d.now(),
	})
	return s
}

func (s *Session) ID() string        { return s.id }
func (s *Session) VisitorID() string { return s.visitorID }
func (s *Session) Page() string      { return s.page }

// State returns the current turn state
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the messages in order
func (s *Session) Transcript() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.transcript...)
}

// Profile returns a copy of the current lead profile
func (s *Session) Profile() model.LeadProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Submit records a user turn and schedules the reply after a randomized
// delay chosen by kind. The returned channel yields the bot message once and
// is then closed; it is closed without a value if the turn is abandoned by
// Reset or Close. Blank text is ignored and yields a nil channel and nil error.
// Text arriving while a reply is pending fails with ErrTurnInProgress.
func (s *Session) Submit(text string, kind model.TurnKind) (<-chan model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.d.metrics.TurnRejected("empty")
		return nil, nil
	}

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if s.state == model.StateAwaitingResponse {
		s.mu.Unlock()
		s.d.metrics.TurnRejected("busy")
		return nil, ErrTurnInProgress
	}

	msg := model.Message{Content: text, Sender: model.SenderUser, Timestamp: s.d.now()}
	s.transcript = append(s.transcript, msg)
	s.state = model.StateAwaitingResponse
	s.turn++
	turn := s.turn
	turnCtx, cancel := context.WithCancel(s.ctx)
	s.cancelTurn = cancel
	delay := s.d.delayFor(kind)

	s.emitLocked(model.SessionEvent{Type: model.EventMessage, Message: &msg})
	s.emitLocked(model.SessionEvent{Type: model.EventState, State: s.state})
	s.mu.Unlock()

	s.logger.Debug("turn accepted", "kind", kind, "delay_ms", delay.Milliseconds())

	reply := make(chan model.Message, 1)
	go s.respond(turnCtx, turn, text, delay, reply)
	return reply, nil
}

func (s *Session) respond(ctx context.Context, turn uint64, text string, delay time.Duration, reply chan<- model.Message) {
	defer close(reply)

	if err := s.d.sleep(ctx, delay); err != nil {
		return
	}

	result := s.d.classifier.Parse(text)

	s.mu.Lock()
	if s.turn != turn || s.state != model.StateAwaitingResponse {
		s.mu.Unlock()
		return
	}

	profile := s.d.extractor.Extract(text, s.profile)
	s.profile = profile
	s.profileRev++
	if err := s.d.profiles.Save(ctx, s.visitorID, profile); err != nil {
		s.logger.Warn("failed to persist lead profile", "error", err)
	}

	msg := model.Message{Content: result.Response, Sender: model.SenderBot, Timestamp: s.d.now()}
	s.transcript = append(s.transcript, msg)
	s.state = model.StateIdle
	if s.cancelTurn != nil {
		s.cancelTurn()
		s.cancelTurn = nil
	}

	snapshot := profile.Clone()
	s.emitLocked(model.SessionEvent{Type: model.EventMessage, Message: &msg})
	s.emitLocked(model.SessionEvent{Type: model.EventProfile, Profile: &snapshot})
	s.emitLocked(model.SessionEvent{Type: model.EventState, State: s.state})
	s.mu.Unlock()

	s.d.metrics.IntentClassified(string(result.Category))
	s.logger.Info("turn answered", "category", result.Category)

	reply <- msg
}

// Notify appends a bot notice outside the turn cycle, such as a voice error
func (s *Session) Notify(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := model.Message{Content: content, Sender: model.SenderBot, Timestamp: s.d.now()}
	s.transcript = append(s.transcript, msg)
	s.emitLocked(model.SessionEvent{Type: model.EventMessage, Message: &msg})
}

// Reset clears the transcript and abandons any pending reply.
// The lead profile is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelTurn != nil {
		s.cancelTurn()
		s.cancelTurn = nil
	}
	s.turn++
	s.transcript = nil
	s.state = model.StateIdle
	s.emitLocked(model.SessionEvent{Type: model.EventState, State: s.state})
}

// SubmitLead merges overrides onto the profile and hands the result to the
// lead intake. On success the submitted values are cleared from the profile
// and the submission id returned; values a turn observed while the intake was
// running are kept. On failure the profile is left unchanged and the error
// wraps ErrIntakeFailure.
func (s *Session) SubmitLead(ctx context.Context, overrides model.LeadOverrides) (string, error) {
	s.leadMu.Lock()
	defer s.leadMu.Unlock()

	s.mu.Lock()
	merged := s.profile.Clone()
	rev := s.profileRev
	s.mu.Unlock()
	merged.Merge(overrides)

	submission := model.LeadSubmission{
		ID:          uuid.NewString(),
		LeadProfile: merged,
		LeadContact: overrides.LeadContact,
		Source:      model.LeadSourceChat,
		VisitorID:   s.visitorID,
		SubmittedAt: s.d.now(),
	}

	if err := s.d.intake.SubmitLead(ctx, submission); err != nil {
		s.d.metrics.LeadSubmitted(false)
		s.logger.Warn("lead submission failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrIntakeFailure, err)
	}
	s.d.metrics.LeadSubmitted(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := model.LeadProfile{}
	if s.profileRev != rev {
		remaining = s.profile.Without(merged)
	}
	if remaining.IsEmpty() {
		remaining = model.LeadProfile{}
		if err := s.d.profiles.Clear(ctx, s.visitorID); err != nil {
			s.logger.Warn("failed to clear stored lead profile", "error", err)
		}
	} else if err := s.d.profiles.Save(ctx, s.visitorID, remaining); err != nil {
		s.logger.Warn("failed to persist lead profile", "error", err)
	}
	s.profile = remaining
	snapshot := remaining.Clone()
	s.emitLocked(model.SessionEvent{Type: model.EventProfile, Profile: &snapshot})

	s.logger.Info("lead submitted", "submission_id", submission.ID)
	return submission.ID, nil
}

// Subscribe returns a channel of session events and a function that
// unsubscribes. The channel is closed on unsubscribe or Close.
func (s *Session) Subscribe() (<-chan model.SessionEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan model.SessionEvent, subscriberBuffer)
	if s.ctx.Err() != nil {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// emitLocked delivers ev to subscribers without blocking. Caller holds s.mu.
func (s *Session) emitLocked(ev model.SessionEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close abandons any pending reply and closes every subscriber
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.cancelTurn = nil
	s.state = model.StateIdle
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

package service

import (
	"context"
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

// SessionOption customizes a SessionManager
type SessionOption func(*dialogue)

// WithRand sets the random source used for delays
func WithRand(r RandSource) SessionOption {
	return func(d *dialogue) {
		if r != nil {
			d.rand = syncRand(r)
		}
	}
}

// WithSleeper replaces the delay implementation
func WithSleeper(sleep Sleeper) SessionOption {
	return func(d *dialogue) {
		if sleep != nil {
			d.sleep = sleep
		}
	}
}

// WithClock replaces the wall clock used for message timestamps
func WithClock(now func() time.Time) SessionOption {
	return func(d *dialogue) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) SessionOption {
	return func(d *dialogue) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.Metrics) SessionOption {
	return func(d *dialogue) {
		d.metrics = m
	}
}

// SessionManager creates and tracks dialogue sessions by id
type SessionManager struct {
	d *dialogue

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager wires the dialogue collaborators
func NewSessionManager(
	classifier *IntentClassifier,
	extractor *LeadExtractor,
	profiles *ProfileStore,
	intake LeadIntake,
	chat config.ChatConfig,
	opts ...SessionOption,
) *SessionManager {
	d := &dialogue{
		classifier: classifier,
		extractor:  extractor,
		profiles:   profiles,
		intake:     intake,
		rand:       NewTimeSeededRand(),
		delays: map[model.TurnKind]config.DelayWindow{
			model.TurnTyped: chat.TypedDelay,
			model.TurnQuick: chat.QuickDelay,
			model.TurnVoice: chat.VoiceDelay,
		},
		sleep:  contextSleep,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return &SessionManager{d: d, sessions: make(map[string]*Session)}
}

// Create opens a session, restoring the visitor's stored profile
func (m *SessionManager) Create(ctx context.Context, visitorID, page string) (*Session, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		visitorID = uuid.NewString()
	}

	profile, err := m.d.profiles.Load(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore lead profile: %w", err)
	}

	s := newSession(uuid.NewString(), visitorID, page, profile, m.d)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.logger.Info("session created", "page", page, "restored_profile", !profile.IsEmpty())
	return s, nil
}

// Get returns the session or ErrSessionNotFound
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets a session
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// Count returns the number of open sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll closes every session
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}

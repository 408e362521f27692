package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"concierge/internal/config"
	"concierge/internal/model"
	"concierge/internal/storage"
)

var testChatConfig = config.ChatConfig{
	TypedDelay: config.DelayWindow{MinMs: 1000, SpanMs: 2000},
	QuickDelay: config.DelayWindow{MinMs: 800, SpanMs: 1200},
	VoiceDelay: config.DelayWindow{MinMs: 1000, SpanMs: 1500},
}

// recordingIntake captures submissions and fails when err is set. When hold
// is set each call signals entered and waits for hold to close.
type recordingIntake struct {
	mu      sync.Mutex
	err     error
	leads   []model.LeadSubmission
	entered chan struct{}
	hold    chan struct{}
}

func (r *recordingIntake) SubmitLead(_ context.Context, lead model.LeadSubmission) error {
	if r.hold != nil {
		r.entered <- struct{}{}
		<-r.hold
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.leads = append(r.leads, lead)
	return nil
}

// recordingSleeper returns immediately and remembers requested delays
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

type sessionFixture struct {
	manager *SessionManager
	kv      *storage.MemoryStore
	intake  *recordingIntake
	sleeper *recordingSleeper
}

func newSessionFixture(t *testing.T, opts ...SessionOption) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		kv:      storage.NewMemoryStore(),
		intake:  &recordingIntake{},
		sleeper: &recordingSleeper{},
	}
	base := []SessionOption{
		WithRand(fixedRand(0.5)),
		WithSleeper(f.sleeper.sleep),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }),
	}
	f.manager = NewSessionManager(
		NewIntentClassifier(fixedRand(0)),
		&LeadExtractor{now: func() time.Time { return time.Unix(1000, 0) }},
		NewProfileStore(f.kv, ""),
		f.intake,
		testChatConfig,
		append(base, opts...)...,
	)
	return f
}

func (f *sessionFixture) newSession(t *testing.T) *Session {
	t.Helper()
	s, err := f.manager.Create(context.Background(), "visitor-1", "home")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return s
}

func awaitReply(t *testing.T, ch <-chan model.Message) model.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("reply channel closed without a message")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
	return model.Message{}
}

func TestSession_StartsWithGreeting(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)

	transcript := s.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(transcript))
	}
	if transcript[0].Sender != model.SenderBot || transcript[0].Content != ResponsesFor(model.CategoryGreeting)[0] {
		t.Errorf("unexpected welcome message %+v", transcript[0])
	}
	if s.State() != model.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
}

func TestSession_SubmitIgnoresBlankText(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		ch, err := s.Submit(text, model.TurnTyped)
		if ch != nil || err != nil {
			t.Errorf("Submit(%q) = %v, %v; want nil, nil", text, ch, err)
		}
	}
	if n := len(s.Transcript()); n != 1 {
		t.Errorf("transcript length = %d, want 1", n)
	}
}

func TestSession_SubmitProducesReplyAndProfile(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)

	text := "I'm looking for a 4 bedroom house in Mosman with a pool and a $15 million budget"
	ch, err := s.Submit(text, model.TurnTyped)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	reply := awaitReply(t, ch)

	// the "$" marker hits the price rule first
	if reply.Sender != model.SenderBot || reply.Content != ResponsesFor(model.CategoryPrice)[0] {
		t.Errorf("reply = %+v", reply)
	}

	transcript := s.Transcript()
	if len(transcript) != 3 {
		t.Fatalf("transcript length = %d, want 3", len(transcript))
	}
	if transcript[1].Sender != model.SenderUser || transcript[1].Content != text {
		t.Errorf("user message = %+v", transcript[1])
	}
	if s.State() != model.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}

	profile := s.Profile()
	if profile.Budget == nil || *profile.Budget != 15_000_000 {
		t.Errorf("budget = %v", profile.Budget)
	}

	stored, err := NewProfileStore(f.kv, "").Load(context.Background(), "visitor-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(stored, profile) {
		t.Errorf("stored profile = %+v, want %+v", stored, profile)
	}
}

func TestSession_DelayWindows(t *testing.T) {
	tests := []struct {
		kind model.TurnKind
		want time.Duration
	}{
		{model.TurnTyped, 2000 * time.Millisecond},
		{model.TurnQuick, 1400 * time.Millisecond},
		{model.TurnVoice, 1750 * time.Millisecond},
		{model.TurnKind("unknown"), 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			f := newSessionFixture(t)
			s := f.newSession(t)
			ch, err := s.Submit("hello", tt.kind)
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			awaitReply(t, ch)

			f.sleeper.mu.Lock()
			defer f.sleeper.mu.Unlock()
			if len(f.sleeper.delays) != 1 || f.sleeper.delays[0] != tt.want {
				t.Errorf("delays = %v, want [%v]", f.sleeper.delays, tt.want)
			}
		})
	}
}

func gatedSleeper(gate <-chan struct{}) Sleeper {
	return func(ctx context.Context, _ time.Duration) error {
		select {
		case <-gate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func TestSession_RejectsSubmitWhileAwaiting(t *testing.T) {
	gate := make(chan struct{})
	f := newSessionFixture(t, WithSleeper(gatedSleeper(gate)))
	s := f.newSession(t)

	ch, err := s.Submit("hello", model.TurnTyped)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if s.State() != model.StateAwaitingResponse {
		t.Fatalf("state = %s, want awaiting_response", s.State())
	}

	if _, err := s.Submit("another", model.TurnTyped); !errors.Is(err, ErrTurnInProgress) {
		t.Fatalf("second Submit() error = %v, want ErrTurnInProgress", err)
	}
	if n := len(s.Transcript()); n != 2 {
		t.Errorf("transcript length = %d, want 2", n)
	}

	close(gate)
	awaitReply(t, ch)

	if _, err := s.Submit("after", model.TurnTyped); err != nil {
		t.Errorf("Submit() after reply error = %v", err)
	}
}

func TestSession_ResetKeepsProfile(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)

	ch, _ := s.Submit("3 bedroom apartment", model.TurnQuick)
	awaitReply(t, ch)
	before := s.Profile()

	s.Reset()

	if n := len(s.Transcript()); n != 0 {
		t.Errorf("transcript length after reset = %d, want 0", n)
	}
	if !reflect.DeepEqual(s.Profile(), before) {
		t.Errorf("profile changed by reset: %+v -> %+v", before, s.Profile())
	}
}

func TestSession_ResetAbandonsPendingReply(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	f := newSessionFixture(t, WithSleeper(gatedSleeper(gate)))
	s := f.newSession(t)

	ch, _ := s.Submit("hello", model.TurnTyped)
	s.Reset()

	select {
	case msg, ok := <-ch:
		if ok {
			t.Errorf("received reply %+v after reset", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reply channel not closed after reset")
	}
	if s.State() != model.StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	if n := len(s.Transcript()); n != 0 {
		t.Errorf("transcript length = %d, want 0", n)
	}
}

func TestSession_SubmitLeadSuccess(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)

	ch, _ := s.Submit("penthouse in Double Bay with a gym", model.TurnTyped)
	awaitReply(t, ch)

	beds := 3
	id, err := s.SubmitLead(context.Background(), model.LeadOverrides{
		Bedrooms:               &beds,
		PreferredNeighborhoods: []string{"double bay", "mosman"},
		LeadContact:            model.LeadContact{Name: "Ada", Email: "ada@example.com"},
	})
	if err != nil {
		t.Fatalf("SubmitLead() error = %v", err)
	}
	if id == "" {
		t.Error("expected submission id")
	}

	if len(f.intake.leads) != 1 {
		t.Fatalf("intake received %d leads, want 1", len(f.intake.leads))
	}
	lead := f.intake.leads[0]
	if lead.Source != model.LeadSourceChat || lead.VisitorID != "visitor-1" || lead.ID != id {
		t.Errorf("unexpected submission metadata %+v", lead)
	}
	if lead.Bedrooms == nil || *lead.Bedrooms != 3 {
		t.Errorf("bedrooms override not applied: %v", lead.Bedrooms)
	}
	if !reflect.DeepEqual(lead.PreferredNeighborhoods, []string{"double bay", "mosman"}) {
		t.Errorf("neighborhoods = %v", lead.PreferredNeighborhoods)
	}
	if lead.PropertyType == nil || *lead.PropertyType != "penthouse" {
		t.Errorf("property type = %v", lead.PropertyType)
	}
	if lead.Name != "Ada" {
		t.Errorf("contact not carried: %+v", lead.LeadContact)
	}

	if !s.Profile().IsEmpty() {
		t.Errorf("profile not cleared: %+v", s.Profile())
	}
	if _, err := f.kv.Get(context.Background(), "leadProfile:visitor-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stored profile not removed: %v", err)
	}
}

func TestSession_SubmitLeadFailureKeepsProfile(t *testing.T) {
	f := newSessionFixture(t)
	f.intake.err = errors.New("backend down")
	s := f.newSession(t)

	ch, _ := s.Submit("a mansion in Vaucluse", model.TurnTyped)
	awaitReply(t, ch)
	before := s.Profile()

	budget := 1.0
	_, err := s.SubmitLead(context.Background(), model.LeadOverrides{Budget: &budget})
	if !errors.Is(err, ErrIntakeFailure) {
		t.Fatalf("SubmitLead() error = %v, want ErrIntakeFailure", err)
	}
	if !reflect.DeepEqual(s.Profile(), before) {
		t.Errorf("profile changed after failed submission: %+v", s.Profile())
	}
	if _, err := f.kv.Get(context.Background(), "leadProfile:visitor-1"); err != nil {
		t.Errorf("stored profile lost: %v", err)
	}
}

func TestSession_SubmitLeadKeepsSignalsObservedDuringIntake(t *testing.T) {
	f := newSessionFixture(t)
	f.intake.entered = make(chan struct{}, 1)
	f.intake.hold = make(chan struct{})
	s := f.newSession(t)

	ch, _ := s.Submit("a house in Mosman", model.TurnTyped)
	awaitReply(t, ch)

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := s.SubmitLead(context.Background(), model.LeadOverrides{})
		done <- result{id, err}
	}()

	select {
	case <-f.intake.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("intake never called")
	}
	ch, err := s.Submit("also Vaucluse with a wine cellar", model.TurnTyped)
	if err != nil {
		t.Fatalf("Submit() during intake error = %v", err)
	}
	awaitReply(t, ch)
	close(f.intake.hold)

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SubmitLead did not return")
	}
	if res.err != nil {
		t.Fatalf("SubmitLead() error = %v", res.err)
	}

	lead := f.intake.leads[0]
	if !reflect.DeepEqual(lead.PreferredNeighborhoods, []string{"mosman"}) || len(lead.DesiredFeatures) != 0 {
		t.Errorf("submission = %v %v, want [mosman] []", lead.PreferredNeighborhoods, lead.DesiredFeatures)
	}

	got := s.Profile()
	if !reflect.DeepEqual(got.PreferredNeighborhoods, []string{"vaucluse"}) {
		t.Errorf("neighborhoods = %v, want [vaucluse]", got.PreferredNeighborhoods)
	}
	if !reflect.DeepEqual(got.DesiredFeatures, []string{"wine cellar"}) {
		t.Errorf("features = %v, want [wine cellar]", got.DesiredFeatures)
	}
	if got.PropertyType != nil {
		t.Errorf("submitted property type kept: %v", *got.PropertyType)
	}

	stored, err := NewProfileStore(f.kv, "").Load(context.Background(), "visitor-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(stored, got) {
		t.Errorf("stored profile = %+v, want %+v", stored, got)
	}
}

func TestSession_SubscribeReceivesEvents(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	ch, _ := s.Submit("hello", model.TurnTyped)
	awaitReply(t, ch)

	var types []string
	for len(types) < 5 {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", types)
		}
	}
	want := []string{model.EventMessage, model.EventState, model.EventMessage, model.EventProfile, model.EventState}
	if !reflect.DeepEqual(types, want) {
		t.Errorf("events = %v, want %v", types, want)
	}
}

func TestSession_NotifyAppendsBotMessage(t *testing.T) {
	f := newSessionFixture(t)
	s := f.newSession(t)
	s.Notify("Voice recognition error. No speech detected. Try again.")
	s.Notify("  ")

	transcript := s.Transcript()
	if len(transcript) != 2 || transcript[1].Sender != model.SenderBot {
		t.Errorf("transcript = %+v", transcript)
	}
}

func TestSessionManager(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	beds := 5
	if err := NewProfileStore(f.kv, "").Save(ctx, "returning", model.LeadProfile{Bedrooms: &beds}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s, err := f.manager.Create(ctx, "returning", "listings")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p := s.Profile(); p.Bedrooms == nil || *p.Bedrooms != 5 {
		t.Errorf("profile not restored: %+v", p)
	}

	got, err := f.manager.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if _, err := f.manager.Get("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(unknown) error = %v", err)
	}

	anon, err := f.manager.Create(ctx, "", "home")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if anon.VisitorID() == "" {
		t.Error("expected generated visitor id")
	}

	if err := f.manager.Delete(s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Submit("hello", model.TurnTyped); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Submit on closed session error = %v", err)
	}
	if f.manager.Count() != 1 {
		t.Errorf("Count() = %d, want 1", f.manager.Count())
	}
}

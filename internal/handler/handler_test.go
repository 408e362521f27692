package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"concierge/internal/catalog"
	"concierge/internal/config"
	"concierge/internal/model"
	"concierge/internal/service"
	"concierge/internal/storage"
	"concierge/internal/voice"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type stubIntake struct {
	mu    sync.Mutex
	err   error
	leads []model.LeadSubmission
}

func (s *stubIntake) SubmitLead(_ context.Context, lead model.LeadSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.leads = append(s.leads, lead)
	return nil
}

type testServer struct {
	router   *gin.Engine
	sessions *service.SessionManager
	intake   *stubIntake
}

func instantSleep(context.Context, time.Duration) error { return nil }

func blockingSleep(ctx context.Context, _ time.Duration) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestServer(t *testing.T, sleep service.Sleeper, voiceEnabled bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cat, err := catalog.NewSeedCatalog()
	if err != nil {
		t.Fatalf("NewSeedCatalog() error = %v", err)
	}
	calculator := service.NewMortgageCalculator(config.MortgageConfig{
		DefaultDownPaymentPercent: 20,
		DefaultInterestRate:       6.5,
		DefaultLoanTermYears:      30,
		InsuranceRate:             0.0035,
	})
	listings := service.NewListingService(cat, service.NewDefaultRanker(), calculator,
		config.CatalogConfig{DefaultLimit: 20, MaxLimit: 100, SimilarLimit: 3, FeaturedMax: 6}, nil)

	intake := &stubIntake{}
	sessions := service.NewSessionManager(
		service.NewIntentClassifier(service.NewRandSource(1)),
		service.NewLeadExtractor(),
		service.NewProfileStore(storage.NewMemoryStore(), service.DefaultProfileKey),
		intake,
		config.ChatConfig{},
		service.WithSleeper(sleep),
	)
	t.Cleanup(sessions.CloseAll)

	handlers := &Handlers{
		Listings:   NewListingHandler(listings),
		Embeddings: NewEmbeddingHandler(listings),
		Sessions:   NewSessionHandler(sessions, listings, 2*time.Second),
		Leads:      NewLeadHandler(sessions),
		Voice:      NewVoiceHandler(sessions, voiceEnabled, "en-AU", nil, nil),
	}
	router := gin.New()
	handlers.Register(router.Group("/api/v1"))

	return &testServer{router: router, sessions: sessions, intake: intake}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func (s *testServer) createSession(t *testing.T) model.SessionResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sessions", model.CreateSessionRequest{VisitorID: "visitor-1", Page: "/listings.html"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body %s", w.Code, w.Body.String())
	}
	return decode[model.SessionResponse](t, w)
}

func TestListListings(t *testing.T) {
	s := newTestServer(t, instantSleep, false)

	tests := []struct {
		name    string
		path    string
		status  int
		total   int
		firstID int64
	}{
		{"bedrooms sorted by price", "/api/v1/listings?bedrooms=6&sort=price-asc", http.StatusOK, 5, 7},
		{"features and neighborhood", "/api/v1/listings?features=Wine%20Cellar,Pool&neighborhood=mosman", http.StatusOK, 1, 5},
		{"newest first", "/api/v1/listings?sort=newest&limit=1", http.StatusOK, 8, 6},
		{"invalid sort", "/api/v1/listings?sort=cheapest", http.StatusBadRequest, 0, 0},
		{"invalid bedrooms", "/api/v1/listings?bedrooms=many", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			resp := decode[model.ListingsResponse](t, w)
			if resp.Total != tt.total {
				t.Errorf("total = %d, want %d", resp.Total, tt.total)
			}
			if len(resp.Results) == 0 || resp.Results[0].ID != tt.firstID {
				t.Errorf("first result = %+v, want id %d", resp.Results, tt.firstID)
			}
		})
	}
}

func TestGetListing(t *testing.T) {
	s := newTestServer(t, instantSleep, false)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/listings/1", http.StatusOK},
		{"/api/v1/listings/99", http.StatusNotFound},
		{"/api/v1/listings/abc", http.StatusBadRequest},
		{"/api/v1/listings/1/similar", http.StatusOK},
		{"/api/v1/listings/99/similar", http.StatusNotFound},
		{"/api/v1/listings/featured", http.StatusOK},
		{"/api/v1/neighborhoods", http.StatusOK},
		{"/api/v1/neighborhoods/double-bay/listings", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if w := s.do(t, http.MethodGet, tt.path, nil); w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}

	w := s.do(t, http.MethodGet, "/api/v1/listings/1", nil)
	if p := decode[model.PropertyRecord](t, w); p.Address != "15 Wolseley Road, Point Piper, NSW 2027" {
		t.Errorf("address = %q", p.Address)
	}
}

func TestListingMortgage(t *testing.T) {
	s := newTestServer(t, instantSleep, false)

	w := s.do(t, http.MethodGet, "/api/v1/listings/1/mortgage?rate=0&term=30", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[model.ListingMortgageResponse](t, w)
	if resp.PropertyID != 1 || resp.Input.Price != 28_500_000 || resp.Input.DownPaymentPercent != 20 {
		t.Errorf("input = %+v", resp.Input)
	}
	want := 22_800_000.0 / 360
	if math.Abs(resp.Quote.MonthlyPrincipalInterest-want) > 1e-6 {
		t.Errorf("monthly P&I = %f, want %f", resp.Quote.MonthlyPrincipalInterest, want)
	}

	if w := s.do(t, http.MethodGet, "/api/v1/listings/1/mortgage?down_payment_percent=150", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid down payment status = %d, want 400", w.Code)
	}
}

func TestMortgageQuote(t *testing.T) {
	s := newTestServer(t, instantSleep, false)

	w := s.do(t, http.MethodPost, "/api/v1/mortgage/quote", model.MortgageInput{
		Price: 20_000_000, DownPaymentPercent: 100, AnnualInterestRatePercent: 6.5, LoanTermYears: 30,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if q := decode[model.MortgageQuote](t, w); q.LoanAmount != 0 || q.MonthlyPrincipalInterest != 0 {
		t.Errorf("quote = %+v, want zero loan", q)
	}

	w = s.do(t, http.MethodPost, "/api/v1/mortgage/quote", model.MortgageInput{LoanTermYears: 30})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero price status = %d, want 400", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/v1/mortgage/quote", model.MortgageInput{
		Price: 1_000_000, DownPaymentPercent: 20, AnnualInterestRatePercent: 5000, LoanTermYears: 1000,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("overflowing quote status = %d, want 400 (body %q)", w.Code, w.Body.String())
	}
}

func TestEmbeddingsBatch(t *testing.T) {
	s := newTestServer(t, instantSleep, false)

	valid := model.EmbeddingBatchRequest{Embeddings: []model.EmbeddingItem{
		{PropertyID: 1, Embedding: make([]float32, catalog.VectorDimensions)},
	}}
	if w := s.do(t, http.MethodPost, "/api/v1/embeddings/batch", valid); w.Code != http.StatusServiceUnavailable {
		t.Errorf("memory catalog status = %d, want 503", w.Code)
	}

	wrong := model.EmbeddingBatchRequest{Embeddings: []model.EmbeddingItem{
		{PropertyID: 1, Embedding: []float32{1, 2}},
	}}
	w := s.do(t, http.MethodPost, "/api/v1/embeddings/batch", wrong)
	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong dimensions status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "index 0") {
		t.Errorf("body = %s, want index in message", w.Body.String())
	}

	if w := s.do(t, http.MethodPost, "/api/v1/embeddings/rebuild", model.EmbeddingRebuildRequest{}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("rebuild on memory catalog status = %d, want 503", w.Code)
	}
}

func TestSessionConversation(t *testing.T) {
	s := newTestServer(t, instantSleep, false)
	created := s.createSession(t)

	if len(created.Transcript) != 1 || created.Transcript[0].Sender != model.SenderBot {
		t.Fatalf("transcript = %+v, want one greeting", created.Transcript)
	}
	if created.Suggestions[0] != "Show me waterfront properties" {
		t.Errorf("suggestions = %q", created.Suggestions)
	}

	path := "/api/v1/sessions/" + created.ID
	w := s.do(t, http.MethodPost, path+"/messages", model.SendMessageRequest{Text: "Show me waterfront homes"})
	if w.Code != http.StatusOK {
		t.Fatalf("send status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[model.SendMessageResponse](t, w)
	if !resp.Accepted || resp.Reply == nil {
		t.Fatalf("response = %+v, want reply", resp)
	}
	if want := service.ResponsesFor(model.CategoryWaterfront)[0]; resp.Reply.Content != want {
		t.Errorf("reply = %q, want waterfront response", resp.Reply.Content)
	}

	w = s.do(t, http.MethodPost, path+"/messages", model.SendMessageRequest{
		Text: "I'm looking for a 4 bedroom house in Mosman with a pool and a $15 million budget",
		Kind: model.TurnQuick,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send status = %d", w.Code)
	}

	profile := decode[model.LeadProfile](t, s.do(t, http.MethodGet, path+"/profile", nil))
	if profile.Budget == nil || *profile.Budget != 15_000_000 || profile.Bedrooms == nil || *profile.Bedrooms != 4 {
		t.Errorf("profile = %+v", profile)
	}

	w = s.do(t, http.MethodGet, path+"/recommendations?limit=3", nil)
	recs := decode[model.RecommendationsResponse](t, w)
	if len(recs.Results) != 3 || recs.Profile.Budget == nil {
		t.Errorf("recommendations = %+v", recs)
	}

	got := decode[model.SessionResponse](t, s.do(t, http.MethodGet, path, nil))
	if len(got.Transcript) != 5 || got.State != model.StateIdle {
		t.Errorf("transcript len = %d, state = %s", len(got.Transcript), got.State)
	}
}

func TestSendMessageValidation(t *testing.T) {
	s := newTestServer(t, instantSleep, false)
	path := "/api/v1/sessions/" + s.createSession(t).ID + "/messages"

	if w := s.do(t, http.MethodPost, path, model.SendMessageRequest{Text: "hi", Kind: "shouted"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid kind status = %d, want 400", w.Code)
	}

	w := s.do(t, http.MethodPost, path, model.SendMessageRequest{Text: "   "})
	if w.Code != http.StatusOK {
		t.Fatalf("blank status = %d", w.Code)
	}
	if resp := decode[model.SendMessageResponse](t, w); resp.Accepted {
		t.Error("blank message should not be accepted")
	}

	if w := s.do(t, http.MethodPost, "/api/v1/sessions/missing/messages", model.SendMessageRequest{Text: "hi"}); w.Code != http.StatusNotFound {
		t.Errorf("missing session status = %d, want 404", w.Code)
	}
}

func TestSendMessageWhileAwaitingReply(t *testing.T) {
	s := newTestServer(t, blockingSleep, false)
	path := "/api/v1/sessions/" + s.createSession(t).ID

	w := s.do(t, http.MethodPost, path+"/messages", model.SendMessageRequest{Text: "first", Async: true})
	if w.Code != http.StatusAccepted {
		t.Fatalf("async status = %d, want 202", w.Code)
	}
	if resp := decode[model.SendMessageResponse](t, w); resp.State != model.StateAwaitingResponse {
		t.Errorf("state = %s, want awaiting_response", resp.State)
	}

	if w := s.do(t, http.MethodPost, path+"/messages", model.SendMessageRequest{Text: "second"}); w.Code != http.StatusConflict {
		t.Errorf("second status = %d, want 409", w.Code)
	}

	w = s.do(t, http.MethodPost, path+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}
	if resp := decode[model.SessionResponse](t, w); len(resp.Transcript) != 0 || resp.State != model.StateIdle {
		t.Errorf("after reset = %+v", resp)
	}
}

func TestListingPrompt(t *testing.T) {
	s := newTestServer(t, instantSleep, false)
	path := "/api/v1/sessions/" + s.createSession(t).ID

	w := s.do(t, http.MethodPost, path+"/prompts", model.ListingPromptRequest{ListingID: 5, Action: service.ActionScheduleViewing})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	got := decode[model.SessionResponse](t, s.do(t, http.MethodGet, path, nil))
	if len(got.Transcript) != 3 {
		t.Fatalf("transcript = %+v", got.Transcript)
	}
	if want := "I'd like to schedule a viewing for the property at 156 Spit Road, Mosman, NSW 2088"; got.Transcript[1].Content != want {
		t.Errorf("prompt = %q, want %q", got.Transcript[1].Content, want)
	}

	if w := s.do(t, http.MethodPost, path+"/prompts", model.ListingPromptRequest{ListingID: 5, Action: "buy_now"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown action status = %d, want 400", w.Code)
	}
	if w := s.do(t, http.MethodPost, path+"/prompts", model.ListingPromptRequest{ListingID: 99, Action: service.ActionRequestInfo}); w.Code != http.StatusNotFound {
		t.Errorf("unknown listing status = %d, want 404", w.Code)
	}
}

func TestSubmitLead(t *testing.T) {
	s := newTestServer(t, instantSleep, false)
	path := "/api/v1/sessions/" + s.createSession(t).ID

	s.do(t, http.MethodPost, path+"/messages", model.SendMessageRequest{Text: "Anything in Mosman with a pool?"})

	s.intake.err = errors.New("intake down")
	w := s.do(t, http.MethodPost, path+"/lead", model.LeadOverrides{LeadContact: model.LeadContact{Email: "a@example.com"}})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("failed intake status = %d, want 502", w.Code)
	}
	if profile := decode[model.LeadProfile](t, s.do(t, http.MethodGet, path+"/profile", nil)); profile.IsEmpty() {
		t.Error("profile should be kept after a failed submission")
	}

	s.intake.err = nil
	w = s.do(t, http.MethodPost, path+"/lead", model.LeadOverrides{LeadContact: model.LeadContact{Email: "a@example.com"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decode[model.LeadResponse](t, w)
	if !resp.Success || resp.SubmissionID == "" {
		t.Errorf("response = %+v", resp)
	}
	if len(s.intake.leads) != 1 {
		t.Fatalf("leads = %d, want 1", len(s.intake.leads))
	}
	lead := s.intake.leads[0]
	if lead.Source != model.LeadSourceChat || lead.Email != "a@example.com" || len(lead.PreferredNeighborhoods) != 1 {
		t.Errorf("lead = %+v", lead)
	}
	if profile := decode[model.LeadProfile](t, s.do(t, http.MethodGet, path+"/profile", nil)); !profile.IsEmpty() {
		t.Errorf("profile = %+v, want cleared", profile)
	}
}

func TestSuggestions(t *testing.T) {
	s := newTestServer(t, instantSleep, false)

	w := s.do(t, http.MethodGet, "/api/v1/chat/suggestions?page=/listing-details.html", nil)
	resp := decode[struct {
		Suggestions []string `json:"suggestions"`
	}](t, w)
	if len(resp.Suggestions) != 4 || resp.Suggestions[0] != "Schedule a tour of this property" {
		t.Errorf("suggestions = %q", resp.Suggestions)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, instantSleep, false)
	path := "/api/v1/sessions/" + s.createSession(t).ID

	if w := s.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if w := s.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestVoiceDisabled(t *testing.T) {
	s := newTestServer(t, instantSleep, false)
	path := "/api/v1/sessions/" + s.createSession(t).ID + "/voice"
	if w := s.do(t, http.MethodGet, path, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestVoiceRoundTrip(t *testing.T) {
	s := newTestServer(t, instantSleep, true)
	session := s.createSession(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + session.ID + "/voice"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	send := func(f voice.Frame) {
		if err := conn.WriteJSON(f); err != nil {
			t.Fatalf("WriteJSON() error = %v", err)
		}
	}
	readUntil := func(frameType string) voice.Frame {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for {
			var f voice.Frame
			if err := conn.ReadJSON(&f); err != nil {
				t.Fatalf("waiting for %s: %v", frameType, err)
			}
			if f.Type == frameType {
				return f
			}
		}
	}

	send(voice.Frame{Type: voice.HostCapabilities, Recognition: true, Synthesis: true})
	// capabilities and toggle are processed in order on the same read loop
	send(voice.Frame{Type: voice.HostToggle})
	if f := readUntil(voice.CommandListen); f.Lang != "en-AU" {
		t.Errorf("listen lang = %q", f.Lang)
	}

	send(voice.Frame{Type: voice.HostTranscript, Text: "Show me waterfront homes", IsFinal: true})
	spoken := readUntil(voice.CommandSpeak)
	if want := voice.PrepareForSpeech(service.ResponsesFor(model.CategoryWaterfront)[0]); spoken.Text != want {
		t.Errorf("spoken = %q, want %q", spoken.Text, want)
	}

	live, err := s.sessions.Get(session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	transcript := live.Transcript()
	if len(transcript) != 3 || transcript[1].Content != "Show me waterfront homes" {
		t.Errorf("transcript = %+v", transcript)
	}
}

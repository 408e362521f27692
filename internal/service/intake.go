package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"concierge/internal/model"
)

// LeadIntake accepts a merged lead submission. A nil error means the lead
// was accepted and the caller may clear its local profile.
type LeadIntake interface {
	SubmitLead(ctx context.Context, lead model.LeadSubmission) error
}

// HTTPLeadIntake posts submissions as JSON to a lead-intake endpoint
type HTTPLeadIntake struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewHTTPLeadIntake creates an intake client for endpoint
func NewHTTPLeadIntake(endpoint string, opts ...func(*HTTPLeadIntake)) *HTTPLeadIntake {
	c := &HTTPLeadIntake{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout overrides the request timeout
func WithTimeout(timeout time.Duration) func(*HTTPLeadIntake) {
	return func(c *HTTPLeadIntake) {
		if timeout > 0 {
			c.HTTPClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying client
func WithHTTPClient(client *http.Client) func(*HTTPLeadIntake) {
	return func(c *HTTPLeadIntake) {
		if client != nil {
			c.HTTPClient = client
		}
	}
}

// SubmitLead posts the lead; any non-2xx status is a failure
func (c *HTTPLeadIntake) SubmitLead(ctx context.Context, lead model.LeadSubmission) error {
	if c == nil || strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("lead intake endpoint is not set")
	}

	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("lead intake non-2xx: %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// LogLeadIntake accepts every lead and only logs it
type LogLeadIntake struct {
	logger *slog.Logger
}

// NewLogLeadIntake creates a logging intake
func NewLogLeadIntake(logger *slog.Logger) *LogLeadIntake {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogLeadIntake{logger: logger}
}

func (l *LogLeadIntake) SubmitLead(_ context.Context, lead model.LeadSubmission) error {
	l.logger.Info("lead received",
		"id", lead.ID,
		"visitor_id", lead.VisitorID,
		"source", lead.Source,
		"neighborhoods", lead.PreferredNeighborhoods,
		"features", lead.DesiredFeatures,
	)
	return nil
}

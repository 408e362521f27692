package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"concierge/internal/model"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// LeadRepository stores submitted leads in PostgreSQL or SQLite
type LeadRepository struct {
	db     *sqlx.DB
	ownsDB bool
}

// leadRow is the flattened table representation of a submission
type leadRow struct {
	ID                     string          `db:"id"`
	VisitorID              string          `db:"visitor_id"`
	Source                 string          `db:"source"`
	Name                   string          `db:"name"`
	Email                  string          `db:"email"`
	Phone                  string          `db:"phone"`
	Message                string          `db:"message"`
	PropertyID             *int64          `db:"property_id"`
	Budget                 *float64        `db:"budget"`
	Bedrooms               *int            `db:"bedrooms"`
	PropertyType           *string         `db:"property_type"`
	PreferredNeighborhoods model.JSONArray `db:"preferred_neighborhoods"`
	DesiredFeatures        model.JSONArray `db:"desired_features"`
	ProfileUpdatedAt       int64           `db:"profile_updated_at"`
	SubmittedAt            int64           `db:"submitted_at"` // unix milliseconds
}

func toLeadRow(l model.LeadSubmission) leadRow {
	return leadRow{
		ID:                     l.ID,
		VisitorID:              l.VisitorID,
		Source:                 l.Source,
		Name:                   l.Name,
		Email:                  l.Email,
		Phone:                  l.Phone,
		Message:                l.Message,
		PropertyID:             l.PropertyID,
		Budget:                 l.Budget,
		Bedrooms:               l.Bedrooms,
		PropertyType:           l.PropertyType,
		PreferredNeighborhoods: model.JSONArray(l.PreferredNeighborhoods),
		DesiredFeatures:        model.JSONArray(l.DesiredFeatures),
		ProfileUpdatedAt:       l.LastUpdated,
		SubmittedAt:            l.SubmittedAt.UnixMilli(),
	}
}

func (r leadRow) toSubmission() model.LeadSubmission {
	return model.LeadSubmission{
		ID: r.ID,
		LeadProfile: model.LeadProfile{
			Budget:                 r.Budget,
			Bedrooms:               r.Bedrooms,
			PreferredNeighborhoods: []string(r.PreferredNeighborhoods),
			PropertyType:           r.PropertyType,
			DesiredFeatures:        []string(r.DesiredFeatures),
			LastUpdated:            r.ProfileUpdatedAt,
		},
		LeadContact: model.LeadContact{
			Name:       r.Name,
			Email:      r.Email,
			Phone:      r.Phone,
			Message:    r.Message,
			PropertyID: r.PropertyID,
		},
		Source:      r.Source,
		VisitorID:   r.VisitorID,
		SubmittedAt: time.UnixMilli(r.SubmittedAt).UTC(),
	}
}

// NewLeadRepository opens driver ("postgres" or "sqlite") at dsn and creates
// the leads table
func NewLeadRepository(ctx context.Context, driver, dsn string) (*LeadRepository, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported lead database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open lead database: %w", err)
	}
	if driver == "sqlite" {
		// a single connection keeps :memory: databases alive and serializes writes
		db.SetMaxOpenConns(1)
	}

	repo := &LeadRepository{db: db, ownsDB: true}
	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewLeadRepositoryWithDB uses an existing connection, such as the catalog
// pool. The caller keeps ownership of db; Close leaves it open.
func NewLeadRepositoryWithDB(ctx context.Context, db *sqlx.DB) (*LeadRepository, error) {
	repo := &LeadRepository{db: db}
	if err := repo.migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *LeadRepository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id                      TEXT PRIMARY KEY,
			visitor_id              TEXT NOT NULL DEFAULT '',
			source                  TEXT NOT NULL,
			name                    TEXT NOT NULL DEFAULT '',
			email                   TEXT NOT NULL DEFAULT '',
			phone                   TEXT NOT NULL DEFAULT '',
			message                 TEXT NOT NULL DEFAULT '',
			property_id             BIGINT,
			budget                  DOUBLE PRECISION,
			bedrooms                INTEGER,
			property_type           TEXT,
			preferred_neighborhoods TEXT,
			desired_features        TEXT,
			profile_updated_at      BIGINT NOT NULL DEFAULT 0,
			submitted_at            BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_visitor_id ON leads(visitor_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate leads table: %w", err)
		}
	}
	return nil
}

// SubmitLead stores the submission; it satisfies the lead intake contract
func (r *LeadRepository) SubmitLead(ctx context.Context, lead model.LeadSubmission) error {
	if lead.ID == "" {
		return errors.New("lead id is empty")
	}
	if lead.SubmittedAt.IsZero() {
		lead.SubmittedAt = time.Now()
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO leads (
			id, visitor_id, source, name, email, phone, message, property_id,
			budget, bedrooms, property_type, preferred_neighborhoods, desired_features,
			profile_updated_at, submitted_at
		) VALUES (
			:id, :visitor_id, :source, :name, :email, :phone, :message, :property_id,
			:budget, :bedrooms, :property_type, :preferred_neighborhoods, :desired_features,
			:profile_updated_at, :submitted_at
		)`, toLeadRow(lead))
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

// GetLead returns a stored submission, or nil when absent
func (r *LeadRepository) GetLead(ctx context.Context, id string) (*model.LeadSubmission, error) {
	var row leadRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT * FROM leads WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	lead := row.toSubmission()
	return &lead, nil
}

// CountByVisitor returns how many leads a visitor has submitted
func (r *LeadRepository) CountByVisitor(ctx context.Context, visitorID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM leads WHERE visitor_id = ?`), visitorID); err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return n, nil
}

// Close closes the database connection if the repository opened it
func (r *LeadRepository) Close() error {
	if !r.ownsDB {
		return nil
	}
	return r.db.Close()
}

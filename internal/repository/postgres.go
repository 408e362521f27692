package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"concierge/internal/catalog"
	"concierge/internal/model"
	"concierge/internal/utils"
)

// propertyColumns lists every selected column. The embedding is left out and
// fetched separately where needed.
const propertyColumns = `
	id, title, address, price, bedrooms, bathrooms, parking, sqft, sqm,
	property_type, year_built, days_on_market, status, featured, new_to_market,
	images, neighborhood, suburb, description, features, hoa_fees, property_tax,
	latitude, longitude,
	agent_name AS "agent.name", agent_phone AS "agent.phone", agent_email AS "agent.email"`

// PostgresCatalog serves the listing catalog from PostgreSQL with pgvector
type PostgresCatalog struct {
	db *sqlx.DB
}

// NewPostgresCatalog connects to PostgreSQL and verifies the connection
func NewPostgresCatalog(dsn string, maxConn, maxIdleConn int) (*PostgresCatalog, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute) // Shorter lifetime to avoid stale connections
	db.SetConnMaxIdleTime(2 * time.Minute) // Close idle connections sooner

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresCatalog{db: db}, nil
}

// NewPostgresCatalogWithDB wraps an open connection
func NewPostgresCatalogWithDB(db *sqlx.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// DB exposes the connection so other repositories can share the pool
func (r *PostgresCatalog) DB() *sqlx.DB {
	return r.db
}

// Close closes the database connection
func (r *PostgresCatalog) Close() error {
	return r.db.Close()
}

// buildFilter translates criteria into WHERE conditions with $n placeholders
func buildFilter(c model.ListingCriteria) (string, []interface{}) {
	whereClauses := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if c.PriceMin != nil && *c.PriceMin > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *c.PriceMin)
		argIndex++
	}
	if c.PriceMax != nil && *c.PriceMax > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *c.PriceMax)
		argIndex++
	}
	if c.MinBedrooms != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("bedrooms >= $%d", argIndex))
		args = append(args, *c.MinBedrooms)
		argIndex++
	}
	if c.MinBathrooms != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("bathrooms >= $%d", argIndex))
		args = append(args, *c.MinBathrooms)
		argIndex++
	}
	if t := activeFilter(c.PropertyType); t != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("lower(property_type) = lower($%d)", argIndex))
		args = append(args, t)
		argIndex++
	}
	if n := activeFilter(c.Neighborhood); n != "" {
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(suburb = $%d OR lower(regexp_replace(neighborhood, '\\s+', '-', 'g')) = $%d)", argIndex, argIndex))
		args = append(args, strings.ToLower(n))
		argIndex++
	}
	// JSONB features filtering, every feature required
	if len(c.Features) > 0 {
		featureConds, featureParams, newIndex := utils.BuildFeatureQuery(c.Features, argIndex)
		whereClauses = append(whereClauses, featureConds...)
		args = append(args, featureParams...)
		argIndex = newIndex
	}
	if c.NewToMarket {
		whereClauses = append(whereClauses, "new_to_market = true")
	}

	return strings.Join(whereClauses, " AND "), args
}

func activeFilter(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// FindByID retrieves a single listing by its ID
func (r *PostgresCatalog) FindByID(ctx context.Context, id int64) (*model.PropertyRecord, error) {
	var p model.PropertyRecord
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &p, nil
}

// Filter returns listings matching criteria in id order
func (r *PostgresCatalog) Filter(ctx context.Context, criteria model.ListingCriteria) ([]model.PropertyRecord, error) {
	whereClause, args := buildFilter(criteria)
	query := fmt.Sprintf(`SELECT %s FROM properties WHERE %s ORDER BY id`, propertyColumns, whereClause)

	listings := []model.PropertyRecord{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

// ByNeighborhood returns listings in the neighborhood slug
func (r *PostgresCatalog) ByNeighborhood(ctx context.Context, slug string) ([]model.PropertyRecord, error) {
	return r.Filter(ctx, model.ListingCriteria{Neighborhood: &slug})
}

// Neighborhoods returns every neighborhood summary
func (r *PostgresCatalog) Neighborhoods(ctx context.Context) ([]model.Neighborhood, error) {
	neighborhoods := []model.Neighborhood{}
	query := `
		SELECT name, slug, description, image, average_price, property_count, highlights
		FROM neighborhoods
		ORDER BY position, name
	`
	if err := r.db.SelectContext(ctx, &neighborhoods, query); err != nil {
		return nil, fmt.Errorf("failed to fetch neighborhoods: %w", err)
	}
	return neighborhoods, nil
}

// Featured returns up to limit featured listings
func (r *PostgresCatalog) Featured(ctx context.Context, limit int) ([]model.PropertyRecord, error) {
	if limit <= 0 {
		limit = catalog.DefaultFeaturedLimit
	}
	listings := []model.PropertyRecord{}
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE featured = true ORDER BY id LIMIT $1`
	if err := r.db.SelectContext(ctx, &listings, query, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch featured listings: %w", err)
	}
	return listings, nil
}

// Similar returns listings in the same suburb or within the price band,
// ordered by cosine distance between feature vectors
func (r *PostgresCatalog) Similar(ctx context.Context, id int64, limit int) ([]model.PropertyRecord, error) {
	ref, err := r.FindByID(ctx, id)
	if err != nil || ref == nil {
		return nil, err
	}
	if limit <= 0 {
		limit = catalog.DefaultSimilarLimit
	}

	vec, err := r.embedding(ctx, id)
	if err != nil {
		return nil, err
	}
	if vec == nil {
		computed := catalog.FeatureVector(*ref)
		vec = &computed
	}

	query := `SELECT ` + propertyColumns + `
		FROM properties
		WHERE id <> $1
		  AND (suburb = $2 OR abs(price - $3::float8) / NULLIF($3::float8, 0) < 0.3)
		ORDER BY embedding <=> $4 NULLS LAST, id
		LIMIT $5`

	listings := []model.PropertyRecord{}
	if err := r.db.SelectContext(ctx, &listings, query, id, ref.Suburb, ref.Price, *vec, limit); err != nil {
		return nil, fmt.Errorf("failed to fetch similar listings: %w", err)
	}
	return listings, nil
}

// embedding loads the stored vector for a listing, nil when unset
func (r *PostgresCatalog) embedding(ctx context.Context, id int64) (*pgvector.Vector, error) {
	var vec pgvector.Vector
	err := r.db.GetContext(ctx, &vec, `SELECT embedding FROM properties WHERE id = $1 AND embedding IS NOT NULL`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load embedding: %w", err)
	}
	return &vec, nil
}

// UpdateEmbedding updates the feature vector for a listing
func (r *PostgresCatalog) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, vec, id); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	return nil
}

// BatchUpdateEmbeddings updates embeddings for multiple listings
func (r *PostgresCatalog) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to start transaction: %v", err))
		return success, errs
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE properties SET embedding = $1, updated_at = NOW() WHERE id = $2`)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
		return success, errs
	}
	defer stmt.Close()

	for _, item := range items {
		if len(item.Embedding) != catalog.VectorDimensions {
			errs = append(errs, fmt.Sprintf("property_id %d: expected %d dimensions, got %d",
				item.PropertyID, catalog.VectorDimensions, len(item.Embedding)))
			continue
		}
		vec := pgvector.NewVector(item.Embedding)
		if _, err := stmt.ExecContext(ctx, vec, item.PropertyID); err != nil {
			errs = append(errs, fmt.Sprintf("property_id %d: %v", item.PropertyID, err))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		errs = append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
		return 0, errs
	}

	return success, errs
}

// Ensure PostgresCatalog implements Catalog
var _ catalog.Catalog = (*PostgresCatalog)(nil)

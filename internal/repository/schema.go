package repository

import (
	"context"
	"fmt"

	"concierge/internal/catalog"
	"concierge/internal/model"
)

// catalogSchema creates the catalog tables. Safe to run repeatedly.
var catalogSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS properties (
		id             BIGINT PRIMARY KEY,
		title          TEXT NOT NULL,
		address        TEXT NOT NULL,
		price          DOUBLE PRECISION NOT NULL,
		bedrooms       INTEGER NOT NULL DEFAULT 0,
		bathrooms      INTEGER NOT NULL DEFAULT 0,
		parking        INTEGER NOT NULL DEFAULT 0,
		sqft           DOUBLE PRECISION NOT NULL DEFAULT 0,
		sqm            DOUBLE PRECISION NOT NULL DEFAULT 0,
		property_type  TEXT NOT NULL,
		year_built     INTEGER NOT NULL DEFAULT 0,
		days_on_market INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL DEFAULT 'For Sale',
		featured       BOOLEAN NOT NULL DEFAULT false,
		new_to_market  BOOLEAN NOT NULL DEFAULT false,
		images         JSONB NOT NULL DEFAULT '[]',
		neighborhood   TEXT NOT NULL,
		suburb         TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		features       JSONB NOT NULL DEFAULT '[]',
		hoa_fees       DOUBLE PRECISION NOT NULL DEFAULT 0,
		property_tax   DOUBLE PRECISION NOT NULL DEFAULT 0,
		latitude       DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
		agent_name     TEXT NOT NULL DEFAULT '',
		agent_phone    TEXT NOT NULL DEFAULT '',
		agent_email    TEXT NOT NULL DEFAULT '',
		embedding      vector(%d),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, catalog.VectorDimensions),
	`CREATE INDEX IF NOT EXISTS idx_properties_suburb ON properties(suburb)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price)`,
	`CREATE TABLE IF NOT EXISTS neighborhoods (
		slug           TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		image          TEXT NOT NULL DEFAULT '',
		average_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
		property_count INTEGER NOT NULL DEFAULT 0,
		highlights     JSONB NOT NULL DEFAULT '[]',
		position       INTEGER NOT NULL DEFAULT 0
	)`,
}

// Migrate creates the catalog schema
func (r *PostgresCatalog) Migrate(ctx context.Context) error {
	for _, stmt := range catalogSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate catalog schema: %w", err)
		}
	}
	return nil
}

// Seed upserts listings and neighborhoods, computing feature vectors for
// listings that have none
func (r *PostgresCatalog) Seed(ctx context.Context, properties []model.PropertyRecord, neighborhoods []model.Neighborhood) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range properties {
		if len(p.Embedding.Slice()) == 0 {
			p.Embedding = catalog.FeatureVector(p)
		}
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO properties (
				id, title, address, price, bedrooms, bathrooms, parking, sqft, sqm,
				property_type, year_built, days_on_market, status, featured, new_to_market,
				images, neighborhood, suburb, description, features, hoa_fees, property_tax,
				latitude, longitude, agent_name, agent_phone, agent_email, embedding
			) VALUES (
				:id, :title, :address, :price, :bedrooms, :bathrooms, :parking, :sqft, :sqm,
				:property_type, :year_built, :days_on_market, :status, :featured, :new_to_market,
				:images, :neighborhood, :suburb, :description, :features, :hoa_fees, :property_tax,
				:latitude, :longitude, :agent.name, :agent.phone, :agent.email, :embedding
			)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title, address = EXCLUDED.address, price = EXCLUDED.price,
				bedrooms = EXCLUDED.bedrooms, bathrooms = EXCLUDED.bathrooms,
				days_on_market = EXCLUDED.days_on_market, status = EXCLUDED.status,
				featured = EXCLUDED.featured, new_to_market = EXCLUDED.new_to_market,
				features = EXCLUDED.features, embedding = EXCLUDED.embedding, updated_at = NOW()
		`, p)
		if err != nil {
			return fmt.Errorf("failed to seed property %d: %w", p.ID, err)
		}
	}

	for i, n := range neighborhoods {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO neighborhoods (slug, name, description, image, average_price, property_count, highlights, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description,
				average_price = EXCLUDED.average_price, property_count = EXCLUDED.property_count,
				highlights = EXCLUDED.highlights, position = EXCLUDED.position
		`, n.Slug, n.Name, n.Description, n.Image, n.AveragePrice, n.PropertyCount, n.Highlights, i)
		if err != nil {
			return fmt.Errorf("failed to seed neighborhood %s: %w", n.Slug, err)
		}
	}

	return tx.Commit()
}

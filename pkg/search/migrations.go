package search

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/parkside-crm/searchd/pkg/observability"
)

// migration is one named, idempotent DDL step. Steps are applied in order
// and tracked in schema_migrations so reruns are safe.
type migration struct {
	name string
	sql  string
}

var migrations = []migration{
	{
		name: "enable_pg_trgm",
		sql:  `CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	},
	{
		name: "create_people",
		sql: `CREATE TABLE IF NOT EXISTS people (
			id               BIGSERIAL PRIMARY KEY,
			normalized_phone TEXT,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_contacts",
		sql: `CREATE TABLE IF NOT EXISTS contacts (
			id          BIGSERIAL PRIMARY KEY,
			agency_id   BIGINT NOT NULL,
			person_id   BIGINT REFERENCES people (id),
			last_name   TEXT,
			first_name  TEXT,
			middle_name TEXT,
			email       TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_users",
		sql: `CREATE TABLE IF NOT EXISTS users (
			id        BIGSERIAL PRIMARY KEY,
			email     TEXT NOT NULL,
			person_id BIGINT REFERENCES people (id)
		)`,
	},
	{
		name: "create_user_profiles",
		sql: `CREATE TABLE IF NOT EXISTS user_profiles (
			id          BIGSERIAL PRIMARY KEY,
			user_id     BIGINT NOT NULL REFERENCES users (id),
			last_name   TEXT,
			first_name  TEXT,
			middle_name TEXT
		)`,
	},
	{
		name: "create_listings",
		sql: `CREATE TABLE IF NOT EXISTS listings (
			id         BIGSERIAL PRIMARY KEY,
			agency_id  BIGINT NOT NULL,
			title      TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_listing_locations",
		sql: `CREATE TABLE IF NOT EXISTS listing_locations (
			id           BIGSERIAL PRIMARY KEY,
			listing_id   BIGINT NOT NULL REFERENCES listings (id),
			country      TEXT,
			region       TEXT,
			city         TEXT,
			street       TEXT,
			house_number TEXT
		)`,
	},
	{
		name: "create_listing_owners",
		sql: `CREATE TABLE IF NOT EXISTS listing_owners (
			id         BIGSERIAL PRIMARY KEY,
			listing_id BIGINT NOT NULL REFERENCES listings (id),
			contact_id BIGINT NOT NULL REFERENCES contacts (id)
		)`,
	},
	{
		name: "create_purchase_inquiries",
		sql: `CREATE TABLE IF NOT EXISTS purchase_inquiries (
			id         BIGSERIAL PRIMARY KEY,
			agency_id  BIGINT NOT NULL,
			contact_id BIGINT REFERENCES contacts (id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_categories",
		sql: `CREATE TABLE IF NOT EXISTS categories (
			id    BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL
		)`,
	},
	{
		name: "create_characteristics",
		sql: `CREATE TABLE IF NOT EXISTS characteristics (
			id    BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL
		)`,
	},
	{
		name: "create_search_history",
		sql: `CREATE TABLE IF NOT EXISTS search_history (
			id                 BIGSERIAL PRIMARY KEY,
			entity             TEXT NOT NULL,
			query              TEXT NOT NULL,
			result_count       INTEGER NOT NULL DEFAULT 0,
			search_duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		name: "create_search_suggestions",
		sql: `CREATE MATERIALIZED VIEW IF NOT EXISTS search_suggestions AS
			SELECT query,
			       count(*)        AS search_count,
			       max(created_at) AS last_searched_at
			FROM search_history
			GROUP BY query`,
	},
	{
		// CONCURRENTLY refresh requires a unique index on the view
		name: "index_search_suggestions_query",
		sql:  `CREATE UNIQUE INDEX IF NOT EXISTS search_suggestions_query_idx ON search_suggestions (query)`,
	},
	{
		name: "index_listings_title_trgm",
		sql:  `CREATE INDEX IF NOT EXISTS listings_title_trgm_idx ON listings USING gin (title gin_trgm_ops)`,
	},
	{
		name: "index_contacts_full_name_trgm",
		sql: `CREATE INDEX IF NOT EXISTS contacts_full_name_trgm_idx ON contacts
			USING gin ((coalesce(last_name, '') || ' ' || coalesce(first_name, '') || ' ' || coalesce(middle_name, '')) gin_trgm_ops)`,
	},
	{
		name: "index_contacts_email_trgm",
		sql:  `CREATE INDEX IF NOT EXISTS contacts_email_trgm_idx ON contacts USING gin (email gin_trgm_ops)`,
	},
	{
		name: "index_user_profiles_full_name_trgm",
		sql: `CREATE INDEX IF NOT EXISTS user_profiles_full_name_trgm_idx ON user_profiles
			USING gin ((coalesce(last_name, '') || ' ' || coalesce(first_name, '') || ' ' || coalesce(middle_name, '')) gin_trgm_ops)`,
	},
	{
		name: "index_users_email_trgm",
		sql:  `CREATE INDEX IF NOT EXISTS users_email_trgm_idx ON users USING gin (email gin_trgm_ops)`,
	},
	{
		name: "index_people_normalized_phone_trgm",
		sql:  `CREATE INDEX IF NOT EXISTS people_normalized_phone_trgm_idx ON people USING gin (normalized_phone gin_trgm_ops)`,
	},
	{
		name: "index_listing_locations_address_trgm",
		sql: `CREATE INDEX IF NOT EXISTS listing_locations_address_trgm_idx ON listing_locations
			USING gin ((coalesce(country, '') || ' ' || coalesce(region, '') || ' ' || coalesce(city, '') || ' ' || coalesce(street, '') || ' ' || coalesce(house_number, '')) gin_trgm_ops)`,
	},
	{
		name: "index_categories_title_trgm",
		sql:  `CREATE INDEX IF NOT EXISTS categories_title_trgm_idx ON categories USING gin (title gin_trgm_ops)`,
	},
	{
		name: "index_characteristics_title_trgm",
		sql:  `CREATE INDEX IF NOT EXISTS characteristics_title_trgm_idx ON characteristics USING gin (title gin_trgm_ops)`,
	},
}

// RunMigrations applies the schema steps that have not been applied yet.
// Every statement is idempotent, but the tracking table keeps startup logs
// quiet and makes the applied set inspectable.
func RunMigrations(ctx context.Context, db *sql.DB, logger *observability.Logger) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, m.name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", m.name, err)
		}
		if applied {
			continue
		}

		if _, err := db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("applying migration %s: %w", m.name, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1)`, m.name,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", m.name, err)
		}

		logger.WithField("migration", m.name).Info("migration applied")
	}

	return nil
}

//go:build integration

package search

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/parkside-crm/searchd/pkg/observability"
	"github.com/parkside-crm/searchd/pkg/rel"
)

func setupDatabase(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("searchd_test"),
		tcpostgres.WithUsername("searchd"),
		tcpostgres.WithPassword("searchd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := observability.NewLogger(observability.WarnLevel, &bytes.Buffer{})
	require.NoError(t, RunMigrations(ctx, db, logger))

	seed(t, db)
	return db
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()

	statements := []string{
		`INSERT INTO people (id, normalized_phone) VALUES
			(1, '77001234567'),
			(2, '77009999999'),
			(3, NULL)`,
		`INSERT INTO contacts (id, agency_id, person_id, last_name, first_name, middle_name, email) VALUES
			(1, 1, 1, 'Petrov', 'Ivan', 'Sergeevich', 'petrov@example.com'),
			(2, 1, 2, 'Smirnova', 'Anna', NULL, 'smirnova@example.com'),
			(3, 2, 3, 'Petrov', 'Nikolai', NULL, 'np@example.com'),
			(4, 1, NULL, 'Kuznetsov', 'Oleg', NULL, NULL)`,
		`INSERT INTO users (id, email, person_id) VALUES
			(1, 'ivan.petrov@agency.example', 1),
			(2, 'anna@agency.example', 2)`,
		`INSERT INTO user_profiles (id, user_id, last_name, first_name, middle_name) VALUES
			(1, 1, 'Petrov', 'Ivan', 'Sergeevich'),
			(2, 2, 'Smirnova', 'Anna', NULL)`,
		`INSERT INTO listings (id, agency_id, title) VALUES
			(1, 1, 'Lakeside house with pier'),
			(2, 1, 'Downtown penthouse'),
			(3, 1, 'Suburban cottage'),
			(4, 1, 'Country estate'),
			(5, 1, 'Studio apartment'),
			(6, 2, 'Lakeside villa')`,
		`INSERT INTO listing_locations (id, listing_id, country, region, city, street, house_number) VALUES
			(1, 1, 'Kazakhstan', 'Almaty Region', 'Almaty', 'Abay Avenue', '15'),
			(2, 2, 'Kazakhstan', NULL, 'Astana', 'Mangilik El', '20')`,
		`INSERT INTO listing_owners (id, listing_id, contact_id) VALUES
			(1, 1, 1),
			(2, 1, 2),
			(3, 1, 4),
			(4, 2, 2)`,
		`INSERT INTO purchase_inquiries (id, agency_id, contact_id) VALUES
			(1, 1, 1),
			(2, 1, 2),
			(3, 2, 3)`,
		`INSERT INTO categories (id, title) VALUES (1, 'Penthouse'), (2, 'Cottage')`,
	}

	for _, statement := range statements {
		_, err := db.Exec(statement)
		require.NoError(t, err, statement)
	}
}

func newIntegrationService(maxResults int) *QueryService {
	logger := observability.NewLogger(observability.WarnLevel, &bytes.Buffer{})
	return NewQueryService(Config{
		Provider:       "postgres",
		QueryMaxLength: 256,
		MaxResults:     maxResults,
	}, NewRegistry(), logger, nil)
}

func searchIDs(t *testing.T, db *sql.DB, service *QueryService, entity EntityKey, query string, sctx Context, limit int) []int64 {
	t.Helper()

	collection, err := BaseCollection(entity, sctx)
	require.NoError(t, err)

	result, err := service.Search(context.Background(), entity, collection, query, sctx, limit)
	require.NoError(t, err)

	rows, err := result.Query(context.Background(), db, result.Table()+".id")
	require.NoError(t, err)
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func TestIntegrationSearch(t *testing.T) {
	db := setupDatabase(t)
	service := newIntegrationService(500)
	tenant := NewContext("1", "")

	t.Run("listings by title substring", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListings, "lakeside", tenant, 0)
		assert.ElementsMatch(t, []int64{1}, ids)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityPurchaseInquiries, "  PETROV  ", tenant, 0)
		assert.ElementsMatch(t, []int64{1}, ids)
	})

	t.Run("multi-owner listing appears once", func(t *testing.T) {
		// Listing 1 has three owners; the owner join must not duplicate it
		ids := searchIDs(t, db, service, EntityListings, "Lakeside house", tenant, 0)
		assert.Equal(t, []int64{1}, ids)
	})

	t.Run("owner search by formatted phone", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListingOwners, "+7 (700) 123-45-67", Context{}, 0)
		assert.ElementsMatch(t, []int64{1}, ids)
	})

	t.Run("listing search by owner name", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListings, "Smirnova", tenant, 0)
		assert.ElementsMatch(t, []int64{1, 2}, ids)
	})

	t.Run("listing search by address", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListings, "Almaty Abay", tenant, 0)
		assert.ElementsMatch(t, []int64{1}, ids)
	})

	t.Run("tenant isolation on listings", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListings, "lakeside", NewContext("2", ""), 0)
		assert.ElementsMatch(t, []int64{6}, ids)
	})

	t.Run("blank query returns all tenant rows", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListings, "   ", tenant, 0)
		assert.Len(t, ids, 5)
	})

	t.Run("limit caps results", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityListings, "", tenant, 2)
		assert.Len(t, ids, 2)
	})

	t.Run("max results clamps oversized limit", func(t *testing.T) {
		capped := newIntegrationService(3)
		ids := searchIDs(t, db, capped, EntityListings, "", tenant, 100)
		assert.Len(t, ids, 3)
	})

	t.Run("agency user contact fields guarded by tenant", func(t *testing.T) {
		// User 1's person has contact rows only in agency 1; searching from
		// agency 2 by contact email must not match, account email still does
		ids := searchIDs(t, db, service, EntityAgencyUsers, "petrov@example.com", NewContext("2", ""), 0)
		assert.Empty(t, ids)

		ids = searchIDs(t, db, service, EntityAgencyUsers, "ivan.petrov@agency.example", NewContext("2", ""), 0)
		assert.ElementsMatch(t, []int64{1}, ids)
	})

	t.Run("categories by id rendered as text", func(t *testing.T) {
		ids := searchIDs(t, db, service, EntityCategories, "2", Context{}, 0)
		assert.Contains(t, ids, int64(2))
	})
}

func TestIntegrationSuggestions(t *testing.T) {
	db := setupDatabase(t)

	logger := observability.NewLogger(observability.WarnLevel, &bytes.Buffer{})
	service, err := NewSuggestionService(db, nil, logger, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, service.Record(ctx, EntityListings, "lakeside", 1, 5*time.Millisecond))
	require.NoError(t, service.Record(ctx, EntityListings, "lakeside", 1, 4*time.Millisecond))
	require.NoError(t, service.Record(ctx, EntityListings, "lake villa", 0, 3*time.Millisecond))

	require.NoError(t, service.Refresh(ctx))

	suggestions, err := service.Suggestions(ctx, "lake", 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"lakeside", "lake villa"}, suggestions)
}

func TestIntegrationCollectionExecutesDirectly(t *testing.T) {
	db := setupDatabase(t)

	collection := rel.New(TableListings).
		Where(rel.Eq{Expr: rel.Column{Table: TableListings, Name: "agency_id"}, Value: "1"}).
		Limit(2)

	rows, err := collection.Query(context.Background(), db, "listings.id")
	require.NoError(t, err)
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 2, count)
}

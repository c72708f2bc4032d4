package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *DatabaseConnection {
	t.Helper()
	if testing.Short() {
		t.Skip("skip integration: -short")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("videos_test"),
		postgres.WithUsername("videos_test"),
		postgres.WithPassword("videos_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skip integration: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	dbc, err := NewDatabaseConnection(ctx, pool)
	require.NoError(t, err)
	t.Cleanup(dbc.Close)

	require.NoError(t, dbc.Migrate(ctx))
	version, err := dbc.SchemaVersion(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, version)

	// A second run is a no-op.
	require.NoError(t, dbc.Migrate(ctx))
	return dbc
}

func upsert(t *testing.T, dbc *DatabaseConnection, arg *UpsertVideoParams) *Video {
	t.Helper()
	var out *Video
	err := dbc.InTx(context.Background(), func(q Querier) error {
		v, err := q.UpsertVideo(context.Background(), arg)
		out = v
		return err
	})
	require.NoError(t, err)
	return out
}

func TestVideoQueries_Postgres(t *testing.T) {
	dbc := setupTestDB(t)
	ctx := context.Background()
	published := time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC)
	processed := time.Date(2025, 7, 17, 12, 30, 15, 0, time.UTC)

	t.Run("upsert keeps id and overwrites fields", func(t *testing.T) {
		desc := "D1"
		first := upsert(t, dbc, &UpsertVideoParams{
			VideoID: "same", Title: "T1", Description: &desc,
			PublishedAt: published, ViewCount: 2, LikeCount: 3, ProcessedAt: processed,
		})
		require.NotZero(t, first.ID)
		require.Equal(t, published, first.PublishedAt)
		require.Equal(t, processed, first.ProcessedAt)

		later := processed.Add(time.Hour)
		second := upsert(t, dbc, &UpsertVideoParams{
			VideoID: "same", Title: "T2", Description: nil,
			PublishedAt: published, ViewCount: 10, LikeCount: 5, ProcessedAt: later,
		})
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, "T2", second.Title)
		require.Nil(t, second.Description)
		require.EqualValues(t, 10, second.ViewCount)
		require.EqualValues(t, 5, second.LikeCount)
		require.Equal(t, later, second.ProcessedAt)

		var count int
		require.NoError(t, dbc.QueryRow(ctx, `SELECT count(*) FROM video WHERE video_id = 'same'`).Scan(&count))
		require.Equal(t, 1, count)
	})

	t.Run("list filters by thresholds", func(t *testing.T) {
		upsert(t, dbc, &UpsertVideoParams{VideoID: "v1", Title: "A", PublishedAt: published, ViewCount: 1, LikeCount: 0, ProcessedAt: processed})
		upsert(t, dbc, &UpsertVideoParams{VideoID: "v2", Title: "B", PublishedAt: published, ViewCount: 100, LikeCount: 0, ProcessedAt: processed})
		upsert(t, dbc, &UpsertVideoParams{VideoID: "v3", Title: "C", PublishedAt: published, ViewCount: 500, LikeCount: 40, ProcessedAt: processed})

		rows, err := dbc.Queries(ctx).ListVideos(ctx, &ListVideosParams{MinViews: 50})
		require.NoError(t, err)
		ids := videoIDs(rows)
		require.Contains(t, ids, "v2")
		require.Contains(t, ids, "v3")
		require.NotContains(t, ids, "v1")

		rows, err = dbc.Queries(ctx).ListVideos(ctx, &ListVideosParams{MinViews: 50, MinLikes: 10})
		require.NoError(t, err)
		require.Equal(t, []string{"v3"}, videoIDs(rows))
	})

	t.Run("failed transaction leaves no row", func(t *testing.T) {
		err := dbc.InTx(ctx, func(q Querier) error {
			if _, err := q.UpsertVideo(ctx, &UpsertVideoParams{VideoID: "ghost", Title: "G", PublishedAt: published, ProcessedAt: processed}); err != nil {
				return err
			}
			return fmt.Errorf("abort")
		})
		require.Error(t, err)

		var count int
		require.NoError(t, dbc.QueryRow(ctx, `SELECT count(*) FROM video WHERE video_id = 'ghost'`).Scan(&count))
		require.Zero(t, count)
	})

	t.Run("negative counts violate constraints", func(t *testing.T) {
		err := dbc.InTx(ctx, func(q Querier) error {
			_, err := q.UpsertVideo(ctx, &UpsertVideoParams{VideoID: "neg", Title: "N", PublishedAt: published, ViewCount: -1, ProcessedAt: processed})
			return err
		})
		require.Error(t, err)
	})

	t.Run("concurrent upserts of one id produce one row", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = dbc.InTx(ctx, func(q Querier) error {
					_, err := q.UpsertVideo(ctx, &UpsertVideoParams{
						VideoID: "race", Title: fmt.Sprintf("T%d", i), PublishedAt: published,
						ViewCount: int64(i), LikeCount: int64(i), ProcessedAt: processed,
					})
					return err
				})
			}()
		}
		wg.Wait()

		var count int
		require.NoError(t, dbc.QueryRow(ctx, `SELECT count(*) FROM video WHERE video_id = 'race'`).Scan(&count))
		require.Equal(t, 1, count)
	})
}

func videoIDs(rows []*Video) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.VideoID)
	}
	sort.Strings(ids)
	return ids
}

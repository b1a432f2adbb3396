//go:build cgo

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openTestStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestRateLimitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	state, err := store.GetRateLimit(ctx, "api.github.com")
	require.NoError(t, err)
	require.Nil(t, state)

	until := time.Now().Add(time.Minute).UTC().Truncate(time.Second)
	want := &core.RateLimitState{
		RequestCount: 7,
		WindowStart:  time.Now().UTC().Truncate(time.Second),
		BackoffUntil: &until,
	}
	require.NoError(t, store.UpdateRateLimit(ctx, "api.github.com", want))

	got, err := store.GetRateLimit(ctx, "api.github.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, 7, got.RequestCount)
	require.Equal(t, want.WindowStart, got.WindowStart)
	require.NotNil(t, got.BackoffUntil)
	require.Equal(t, until, *got.BackoffUntil)

	entries, err := store.ListRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "api.github.com", entries[0].Endpoint)

	affected, err := store.ResetRateLimits(ctx, RateLimitQuery{Endpoint: "api.github.com"})
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
}

func TestInsightCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	entry, err := store.GetInsightCache(ctx, "octo/hello", "productivity-analysis", "gpt-4o-mini", "https://api.openai.com/v1", "2026-07")
	require.NoError(t, err)
	require.Nil(t, entry)

	require.NoError(t, store.SetInsightCache(ctx, "octo/hello", "productivity-analysis", "gpt-4o-mini", "https://api.openai.com/v1", "2026-07", `{"summary":"steady"}`, time.Hour))

	entry, err = store.GetInsightCache(ctx, "octo/hello", "productivity-analysis", "gpt-4o-mini", "https://api.openai.com/v1", "2026-07")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.JSONEq(t, `{"summary":"steady"}`, entry.ResponseJSON)

	// Different period key misses.
	entry, err = store.GetInsightCache(ctx, "octo/hello", "productivity-analysis", "gpt-4o-mini", "https://api.openai.com/v1", "2026-08")
	require.NoError(t, err)
	require.Nil(t, entry)
}

func TestReportHistory(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	period := core.Period{
		Start: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(map[string]any{"commits": 42})
	require.NoError(t, err)

	record := ReportRecord{
		ID:         "r-1",
		Repo:       "octo/hello",
		Author:     "alice",
		Period:     period,
		ReportJSON: string(body),
	}
	require.NoError(t, store.SaveReport(ctx, record))

	records, err := store.ListReports(ctx, "octo/hello", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "alice", records[0].Author)
	require.Equal(t, period, records[0].Period)

	got, err := store.GetReport(ctx, "r-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.JSONEq(t, string(body), got.ReportJSON)

	pruned, err := store.PruneReports(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, pruned)

	records, err = store.ListReports(ctx, "", 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

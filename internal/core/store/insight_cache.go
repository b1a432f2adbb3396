package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// InsightCacheEntry captures a cached insight response.
type InsightCacheEntry struct {
	ResponseJSON string
	ExpiresAt    time.Time
}

// GetInsightCache returns a cached insight response if present and not
// expired. The period key identifies the analysis window, e.g.
// "2026-07-01:2026-07-31".
func (s *Store) GetInsightCache(ctx context.Context, repo, promptSlug, model, baseURL, periodKey string) (*InsightCacheEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx,
		`SELECT response_json, expires_at FROM insight_cache
		 WHERE repo = ? AND prompt_slug = ? AND model = ? AND base_url = ? AND period_key = ?`,
		repo, promptSlug, model, baseURL, periodKey,
	)

	var (
		response string
		expires  int64
	)
	if err := row.Scan(&response, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	expiresAt := time.Unix(expires, 0).UTC()
	if time.Now().UTC().After(expiresAt) {
		return nil, nil
	}

	return &InsightCacheEntry{ResponseJSON: response, ExpiresAt: expiresAt}, nil
}

// SetInsightCache stores an insight response with TTL.
func (s *Store) SetInsightCache(ctx context.Context, repo, promptSlug, model, baseURL, periodKey, responseJSON string, ttl time.Duration) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 {
		return nil
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO insight_cache (repo, prompt_slug, model, base_url, period_key, response_json, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(repo, prompt_slug, model, base_url, period_key)
		 DO UPDATE SET response_json = excluded.response_json,
		               created_at = excluded.created_at,
		               expires_at = excluded.expires_at`,
		repo, promptSlug, model, baseURL, periodKey, responseJSON, now.Unix(), expiresAt.Unix(),
	)
	return err
}

// PruneInsightCache removes expired insight responses.
func (s *Store) PruneInsightCache(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM insight_cache WHERE expires_at < ?`, time.Now().UTC().Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

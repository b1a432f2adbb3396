package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devpulse/devpulse/internal/core"
)

// ReportRecord is one saved report history row. ReportJSON holds the full
// serialized metrics body.
type ReportRecord struct {
	ID         string
	Repo       string
	Author     string
	Period     core.Period
	ReportJSON string
	CreatedAt  time.Time
}

// SaveReport appends a report to the history.
func (s *Store) SaveReport(ctx context.Context, record ReportRecord) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if record.ID == "" || record.Repo == "" {
		return errors.New("report id and repo are required")
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO reports (id, repo, author, period_start, period_end, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			report_json = excluded.report_json,
			created_at = excluded.created_at
	`, record.ID, record.Repo, record.Author,
		record.Period.Start.UTC().Unix(), record.Period.End.UTC().Unix(),
		record.ReportJSON, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// ListReports returns saved reports, newest first. An empty repo lists all.
func (s *Store) ListReports(ctx context.Context, repo string, limit int) ([]ReportRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, repo, COALESCE(author, ''), period_start, period_end, report_json, created_at
		FROM reports`
	args := []any{}
	if repo != "" {
		query += ` WHERE repo = ?`
		args = append(args, repo)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	var records []ReportRecord
	for rows.Next() {
		var (
			record      ReportRecord
			periodStart int64
			periodEnd   int64
			createdAt   int64
		)
		if err := rows.Scan(&record.ID, &record.Repo, &record.Author, &periodStart, &periodEnd, &record.ReportJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reports: %w", err)
		}
		record.Period = core.Period{
			Start: time.Unix(periodStart, 0).UTC(),
			End:   time.Unix(periodEnd, 0).UTC(),
		}
		record.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return records, nil
}

// GetReport returns one saved report by id.
func (s *Store) GetReport(ctx context.Context, id string) (*ReportRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, repo, COALESCE(author, ''), period_start, period_end, report_json, created_at
		FROM reports
		WHERE id = ?
	`, id)

	var (
		record      ReportRecord
		periodStart int64
		periodEnd   int64
		createdAt   int64
	)
	if err := row.Scan(&record.ID, &record.Repo, &record.Author, &periodStart, &periodEnd, &record.ReportJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	record.Period = core.Period{
		Start: time.Unix(periodStart, 0).UTC(),
		End:   time.Unix(periodEnd, 0).UTC(),
	}
	record.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &record, nil
}

// PruneReports deletes saved reports older than the cutoff and returns the
// number removed.
func (s *Store) PruneReports(ctx context.Context, olderThan time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM reports WHERE created_at < ?`, olderThan.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	return result.RowsAffected()
}

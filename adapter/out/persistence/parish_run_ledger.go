// Package persistence implements the PostgreSQL adapters.
package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
)

// RunLedgerAdapter records batch run summaries in PostgreSQL.
type RunLedgerAdapter struct {
	db *sqlx.DB
}

var _ out.RunLedger = (*RunLedgerAdapter)(nil)

func NewRunLedgerAdapter(db *sqlx.DB) *RunLedgerAdapter {
	return &RunLedgerAdapter{db: db}
}

type runRow struct {
	ID               int64          `db:"id"`
	RunID            string         `db:"run_id"`
	Status           string         `db:"status"`
	Processed        int            `db:"processed"`
	Replied          int            `db:"replied"`
	Filtered         int            `db:"filtered"`
	ValidationFailed int            `db:"validation_failed"`
	Errors           int            `db:"errors"`
	DryRun           bool           `db:"dry_run"`
	DryRunCount      int            `db:"dry_run_count"`
	FilterReasons    pq.StringArray `db:"filter_reasons"`
	StartedAt        time.Time      `db:"started_at"`
	FinishedAt       time.Time      `db:"finished_at"`
}

func (r *runRow) toDomain() domain.RunSummary {
	return domain.RunSummary{
		RunID:            r.RunID,
		Status:           r.Status,
		Processed:        r.Processed,
		Replied:          r.Replied,
		Filtered:         r.Filtered,
		ValidationFailed: r.ValidationFailed,
		Errors:           r.Errors,
		DryRun:           r.DryRun,
		DryRunCount:      r.DryRunCount,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
	}
}

func (a *RunLedgerAdapter) RecordRun(ctx context.Context, s *domain.RunSummary) error {
	query := `
		INSERT INTO processing_runs
			(run_id, status, processed, replied, filtered, validation_failed, errors, dry_run, dry_run_count, filter_reasons, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := a.db.ExecContext(ctx, query,
		s.RunID, s.Status, s.Processed, s.Replied, s.Filtered, s.ValidationFailed,
		s.Errors, s.DryRun, s.DryRunCount, filterReasons(s.Outcomes), s.StartedAt, s.FinishedAt)
	if err != nil {
		return apperr.DatabaseError("record run", err)
	}
	return nil
}

// filterReasons collects the distinct reasons of screened-out messages,
// a cheap signal for tuning the filter lists.
func filterReasons(outcomes []domain.ThreadOutcome) pq.StringArray {
	seen := map[string]bool{}
	for _, o := range outcomes {
		if (o.State == domain.StateFiltered || o.State == domain.StateNoReply) && o.Reason != "" {
			seen[o.Reason] = true
		}
	}
	reasons := make(pq.StringArray, 0, len(seen))
	for r := range seen {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

func (a *RunLedgerAdapter) LastRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `
		SELECT id, run_id, status, processed, replied, filtered, validation_failed, errors,
		       dry_run, dry_run_count, filter_reasons, started_at, finished_at
		FROM processing_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	var rows []runRow
	if err := a.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, apperr.DatabaseError("list runs", err)
	}

	runs := make([]domain.RunSummary, 0, len(rows))
	for i := range rows {
		runs = append(runs, rows[i].toDomain())
	}
	return runs, nil
}

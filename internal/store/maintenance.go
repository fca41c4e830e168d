package store

import (
	"context"
	"fmt"

	"github.com/amitkr/jobmail/internal/model"
	"github.com/amitkr/jobmail/internal/status"
)

// BackfillApplications rebuilds the applications table from the emails
// table's legacy flat fields: every email gets exactly one application row
// with its status normalized. Existing application rows are discarded.
// Returns the number of rows inserted.
func (s *SQLiteStore) BackfillApplications(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning backfill: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM applications"); err != nil {
		return 0, fmt.Errorf("clearing applications: %w", err)
	}

	var emails []model.EmailRow
	err = tx.SelectContext(ctx, &emails,
		`SELECT id, COALESCE(company, '') AS company, COALESCE(job_title, '') AS job_title,
		        COALESCE(status, '') AS status, COALESCE(parsed_date, '') AS parsed_date,
		        COALESCE(reason, '') AS reason, COALESCE(error, '') AS error
		 FROM emails`)
	if err != nil {
		return 0, fmt.Errorf("reading emails: %w", err)
	}

	for _, e := range emails {
		app := model.ApplicationRow{
			EmailID:    e.ID,
			Company:    e.Company,
			JobTitle:   e.JobTitle,
			Status:     status.Normalize(e.Status),
			ParsedDate: e.ParsedDate,
			Reason:     e.Reason,
			Error:      e.Error,
		}
		if _, err := tx.NamedExecContext(ctx, insertApplicationSQL, app); err != nil {
			return 0, fmt.Errorf("inserting application for %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing backfill: %w", err)
	}
	return len(emails), nil
}

// NormalizeStatuses rewrites every stored status to its canonical value, in
// both the emails and applications tables. Returns the number of rows whose
// status actually changed.
func (s *SQLiteStore) NormalizeStatuses(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning normalize: %w", err)
	}
	defer tx.Rollback()

	changed := 0
	for _, table := range []string{"emails", "applications"} {
		type statusRow struct {
			ID     string `db:"id"`
			Status string `db:"status"`
		}
		var rows []statusRow
		q := fmt.Sprintf("SELECT id, COALESCE(status, '') AS status FROM %s", table)
		if err := tx.SelectContext(ctx, &rows, q); err != nil {
			return 0, fmt.Errorf("reading %s statuses: %w", table, err)
		}

		update := fmt.Sprintf("UPDATE %s SET status = ? WHERE id = ?", table)
		for _, row := range rows {
			normalized := status.Normalize(row.Status).String()
			if normalized == row.Status {
				continue
			}
			if _, err := tx.ExecContext(ctx, update, normalized, row.ID); err != nil {
				return 0, fmt.Errorf("updating %s status: %w", table, err)
			}
			changed++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing normalize: %w", err)
	}
	return changed, nil
}

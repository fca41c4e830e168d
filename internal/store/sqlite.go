package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/amitkr/jobmail/internal/model"
	"github.com/amitkr/jobmail/internal/status"
)

// schema creates the durable tables. Column additions for later versions are
// applied separately in migrate so existing databases upgrade in place.
const schema = `
CREATE TABLE IF NOT EXISTS emails (
    id TEXT PRIMARY KEY,
    email_num INTEGER,
    subject TEXT,
    sender TEXT,
    date_email TEXT,
    date_email_iso TEXT,
    company TEXT,
    job_title TEXT,
    status TEXT,
    parsed_date TEXT,
    reason TEXT,
    error TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS applications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email_id TEXT NOT NULL,
    company TEXT,
    job_title TEXT,
    status TEXT,
    parsed_date TEXT,
    reason TEXT,
    error TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY(email_id) REFERENCES emails(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_applications_email_id ON applications(email_id);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
`

// SQLiteStore persists emails and their derived applications. SQLite is a
// single-writer engine, so every write path runs under one process-wide lock.
type SQLiteStore struct {
	db *sqlx.DB
	mu sync.Mutex // serializes all writers
}

// NewSQLiteStore opens (or creates) the database at dbPath, enables foreign
// keys, and brings the schema up to date.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates missing tables and adds columns introduced after the first
// schema version without touching existing data.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}

	// date_email_iso arrived after the first deployments; older databases
	// need the column added by hand.
	cols := map[string]bool{}
	rows, err := s.db.Query("PRAGMA table_info(emails)")
	if err != nil {
		return fmt.Errorf("reading emails schema: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("reading emails schema: %w", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading emails schema: %w", err)
	}

	if !cols["date_email_iso"] {
		if _, err := s.db.Exec("ALTER TABLE emails ADD COLUMN date_email_iso TEXT"); err != nil {
			return fmt.Errorf("adding date_email_iso column: %w", err)
		}
	}
	return nil
}

// HasEmail returns true if the given message id has already been stored.
func (s *SQLiteStore) HasEmail(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM emails WHERE id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking email %s: %w", id, err)
	}
	return true, nil
}

const upsertEmailSQL = `
INSERT INTO emails
    (id, email_num, subject, sender, date_email, date_email_iso,
     company, job_title, status, parsed_date, reason, error)
VALUES
    (:id, :email_num, :subject, :sender, :date_email, :date_email_iso,
     :company, :job_title, :status, :parsed_date, :reason, :error)
ON CONFLICT(id) DO UPDATE SET
    email_num=excluded.email_num,
    subject=excluded.subject,
    sender=excluded.sender,
    date_email=excluded.date_email,
    date_email_iso=excluded.date_email_iso,
    company=excluded.company,
    job_title=excluded.job_title,
    status=excluded.status,
    parsed_date=excluded.parsed_date,
    reason=excluded.reason,
    error=excluded.error
`

const insertApplicationSQL = `
INSERT INTO applications
    (email_id, company, job_title, status, parsed_date, reason, error)
VALUES
    (:email_id, :company, :job_title, :status, :parsed_date, :reason, :error)
`

// UpsertBatch writes a batch of emails with their freshly extracted
// applications in one transaction: each email row is inserted or fully
// overwritten, its old application rows are deleted, and the new set is
// inserted. An email with no extracted mentions gets exactly one application
// synthesized from its flat fields, preserving the legacy single-application
// shape. Either the whole batch commits or none of it does.
func (s *SQLiteStore) UpsertBatch(ctx context.Context, batch []model.EmailRow) error {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range batch {
		if _, err := tx.NamedExecContext(ctx, upsertEmailSQL, row); err != nil {
			return fmt.Errorf("upserting email %s: %w", row.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM applications WHERE email_id = ?", row.ID); err != nil {
			return fmt.Errorf("clearing applications for %s: %w", row.ID, err)
		}

		apps := row.Applications
		if len(apps) == 0 {
			apps = []model.ApplicationRow{{
				EmailID:    row.ID,
				Company:    row.Company,
				JobTitle:   row.JobTitle,
				Status:     status.Normalize(row.Status),
				ParsedDate: row.ParsedDate,
				Reason:     row.Reason,
				Error:      row.Error,
			}}
		}
		for _, app := range apps {
			app.EmailID = row.ID
			if _, err := tx.NamedExecContext(ctx, insertApplicationSQL, app); err != nil {
				return fmt.Errorf("inserting application for %s: %w", row.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

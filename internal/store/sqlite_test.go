package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/amitkr/jobmail/internal/model"
	"github.com/amitkr/jobmail/internal/status"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func emailRow(id, company, title string, st status.Status) model.EmailRow {
	return model.EmailRow{
		ID:           id,
		EmailNum:     1,
		Subject:      "Application update",
		Sender:       "hr@" + company + ".com",
		DateEmail:    "Tue, 05 Mar 2024 10:30:00 -0500",
		DateEmailISO: "2024-03-05",
		Company:      company,
		JobTitle:     title,
		Status:       st.String(),
		Applications: []model.ApplicationRow{{
			Company:  company,
			JobTitle: title,
			Status:   st,
		}},
	}
}

func countRows(t *testing.T, s *SQLiteStore, table string) int {
	t.Helper()
	var n int
	if err := s.db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestUpsertBatch_InsertsEmailAndApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row := emailRow("m1", "Acme", "Engineer", status.Applied)
	if err := s.UpsertBatch(ctx, []model.EmailRow{row}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	if got := countRows(t, s, "emails"); got != 1 {
		t.Errorf("emails = %d, want 1", got)
	}
	if got := countRows(t, s, "applications"); got != 1 {
		t.Errorf("applications = %d, want 1", got)
	}

	var app model.ApplicationRow
	if err := s.db.Get(&app,
		"SELECT email_id, company, job_title, status FROM applications WHERE email_id = ?", "m1"); err != nil {
		t.Fatalf("reading application: %v", err)
	}
	if app.Company != "Acme" || app.Status != status.Applied {
		t.Errorf("unexpected application: %+v", app)
	}
}

func TestUpsertBatch_RerunReplacesApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := emailRow("m1", "Acme", "Engineer", status.Applied)
	if err := s.UpsertBatch(ctx, []model.EmailRow{first}); err != nil {
		t.Fatalf("first UpsertBatch: %v", err)
	}

	second := emailRow("m1", "Acme", "Engineer", status.Interview)
	second.Applications = []model.ApplicationRow{
		{Company: "Acme", JobTitle: "Engineer", Status: status.Interview},
		{Company: "Acme", JobTitle: "SRE", Status: status.Applied},
	}
	if err := s.UpsertBatch(ctx, []model.EmailRow{second}); err != nil {
		t.Fatalf("second UpsertBatch: %v", err)
	}

	if got := countRows(t, s, "emails"); got != 1 {
		t.Errorf("emails = %d, want 1 after upsert", got)
	}
	if got := countRows(t, s, "applications"); got != 2 {
		t.Errorf("applications = %d, want 2 (old row replaced)", got)
	}

	var st string
	if err := s.db.Get(&st, "SELECT status FROM emails WHERE id = ?", "m1"); err != nil {
		t.Fatalf("reading email: %v", err)
	}
	if st != "interview" {
		t.Errorf("email status = %q, want interview", st)
	}
}

func TestUpsertBatch_IdempotentRerun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row := emailRow("m1", "Acme", "Engineer", status.Applied)
	for i := 0; i < 2; i++ {
		if err := s.UpsertBatch(ctx, []model.EmailRow{row}); err != nil {
			t.Fatalf("UpsertBatch run %d: %v", i, err)
		}
	}

	if got := countRows(t, s, "emails"); got != 1 {
		t.Errorf("emails = %d, want 1", got)
	}
	if got := countRows(t, s, "applications"); got != 1 {
		t.Errorf("applications = %d, want 1", got)
	}
}

func TestUpsertBatch_SynthesizesApplicationFromFlatFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	row := model.EmailRow{
		ID:       "m1",
		Subject:  "Thanks for applying",
		Company:  "Globex",
		JobTitle: "Analyst",
		Status:   "Application Submitted",
	}
	if err := s.UpsertBatch(ctx, []model.EmailRow{row}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	var app model.ApplicationRow
	if err := s.db.Get(&app,
		"SELECT email_id, company, status FROM applications WHERE email_id = ?", "m1"); err != nil {
		t.Fatalf("reading application: %v", err)
	}
	if app.Company != "Globex" {
		t.Errorf("Company = %q", app.Company)
	}
	if app.Status != status.Applied {
		t.Errorf("Status = %q, want normalized applied", app.Status)
	}
}

func TestUpsertBatch_EmptyBatchIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("UpsertBatch(nil): %v", err)
	}
}

func TestHasEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	found, err := s.HasEmail(ctx, "m1")
	if err != nil {
		t.Fatalf("HasEmail: %v", err)
	}
	if found {
		t.Error("HasEmail = true for unseen id")
	}

	if err := s.UpsertBatch(ctx, []model.EmailRow{emailRow("m1", "Acme", "Engineer", status.Applied)}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	found, err = s.HasEmail(ctx, "m1")
	if err != nil {
		t.Fatalf("HasEmail: %v", err)
	}
	if !found {
		t.Error("HasEmail = false for stored id")
	}
}

func TestCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertBatch(ctx, []model.EmailRow{emailRow("m1", "Acme", "Engineer", status.Applied)}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	if _, err := s.db.Exec("DELETE FROM emails WHERE id = ?", "m1"); err != nil {
		t.Fatalf("deleting email: %v", err)
	}
	if got := countRows(t, s, "applications"); got != 0 {
		t.Errorf("applications = %d, want 0 after cascade", got)
	}
}

func TestMigrate_AddsDateEmailISOToLegacySchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.db")

	// Build a pre-migration database lacking date_email_iso.
	legacy, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	stmts := []string{
		"DROP TABLE applications",
		"DROP TABLE emails",
		`CREATE TABLE emails (
			id TEXT PRIMARY KEY, email_num INTEGER, subject TEXT, sender TEXT,
			date_email TEXT, company TEXT, job_title TEXT, status TEXT,
			parsed_date TEXT, reason TEXT, error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		"INSERT INTO emails (id, subject, status) VALUES ('old1', 'legacy row', 'applied')",
	}
	for _, stmt := range stmts {
		if _, err := legacy.db.Exec(stmt); err != nil {
			t.Fatalf("preparing legacy schema: %v", err)
		}
	}
	legacy.Close()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening legacy db: %v", err)
	}
	defer s.Close()

	var iso sql.NullString
	if err := s.db.Get(&iso, "SELECT date_email_iso FROM emails WHERE id = 'old1'"); err != nil {
		t.Fatalf("date_email_iso column missing after migrate: %v", err)
	}
	if iso.Valid {
		t.Errorf("date_email_iso = %q, want NULL for legacy row", iso.String)
	}
}

package store

import (
	"context"
	"testing"

	"github.com/amitkr/jobmail/internal/model"
	"github.com/amitkr/jobmail/internal/status"
)

func TestBackfillApplications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.EmailRow{
		{
			ID: "m1", Company: "Acme", JobTitle: "Engineer", Status: "Application Submitted",
			Applications: []model.ApplicationRow{
				{Company: "Acme", JobTitle: "Engineer", Status: status.Applied},
				{Company: "Acme", JobTitle: "SRE", Status: status.Applied},
			},
		},
		{ID: "m2", Company: "Globex", JobTitle: "Analyst", Status: "interview scheduled"},
	}
	if err := s.UpsertBatch(ctx, rows); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if got := countRows(t, s, "applications"); got != 3 {
		t.Fatalf("applications = %d before backfill, want 3", got)
	}

	n, err := s.BackfillApplications(ctx)
	if err != nil {
		t.Fatalf("BackfillApplications: %v", err)
	}
	if n != 2 {
		t.Errorf("backfilled = %d, want 2 (one per email)", n)
	}
	if got := countRows(t, s, "applications"); got != 2 {
		t.Errorf("applications = %d after backfill, want 2", got)
	}

	var st string
	if err := s.db.Get(&st,
		"SELECT status FROM applications WHERE email_id = ?", "m2"); err != nil {
		t.Fatalf("reading backfilled row: %v", err)
	}
	if st != "interview" {
		t.Errorf("status = %q, want normalized interview", st)
	}
}

func TestNormalizeStatuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertBatch(ctx, []model.EmailRow{
		{ID: "m1", Company: "Acme", Status: "applied"},
	}); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	// Write raw, non-canonical statuses directly, as legacy rows would have.
	if _, err := s.db.Exec("UPDATE emails SET status = 'Interview Scheduled' WHERE id = 'm1'"); err != nil {
		t.Fatalf("seeding raw status: %v", err)
	}
	if _, err := s.db.Exec("UPDATE applications SET status = 'Declined' WHERE email_id = 'm1'"); err != nil {
		t.Fatalf("seeding raw status: %v", err)
	}

	changed, err := s.NormalizeStatuses(ctx)
	if err != nil {
		t.Fatalf("NormalizeStatuses: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	var emailStatus, appStatus string
	if err := s.db.Get(&emailStatus, "SELECT status FROM emails WHERE id = 'm1'"); err != nil {
		t.Fatalf("reading email status: %v", err)
	}
	if err := s.db.Get(&appStatus, "SELECT status FROM applications WHERE email_id = 'm1'"); err != nil {
		t.Fatalf("reading application status: %v", err)
	}
	if emailStatus != "interview" {
		t.Errorf("email status = %q, want interview", emailStatus)
	}
	if appStatus != "rejected" {
		t.Errorf("application status = %q, want rejected", appStatus)
	}

	// A second pass finds nothing left to change.
	changed, err = s.NormalizeStatuses(ctx)
	if err != nil {
		t.Fatalf("second NormalizeStatuses: %v", err)
	}
	if changed != 0 {
		t.Errorf("second pass changed = %d, want 0", changed)
	}
}

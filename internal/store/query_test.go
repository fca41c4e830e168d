package store

import (
	"context"
	"testing"

	"github.com/amitkr/jobmail/internal/model"
	"github.com/amitkr/jobmail/internal/status"
)

// seedReportData inserts a small, known set of applications across statuses
// and dates.
func seedReportData(t *testing.T, s *SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	rows := []model.EmailRow{
		{
			ID: "m1", Subject: "applied", DateEmailISO: "2024-01-10",
			Company: "Acme", JobTitle: "Engineer", Status: "applied",
			Applications: []model.ApplicationRow{
				{Company: "Acme", JobTitle: "Engineer", Status: status.Applied},
			},
		},
		{
			ID: "m2", Subject: "interview", DateEmailISO: "2024-02-20",
			Company: "Globex", JobTitle: "Analyst", Status: "interview",
			Applications: []model.ApplicationRow{
				{Company: "Globex", JobTitle: "Analyst", Status: status.Interview},
			},
		},
		{
			ID: "m3", Subject: "rejected", DateEmailISO: "2024-03-05",
			Company: "Initech", JobTitle: "Developer", Status: "rejected",
			Applications: []model.ApplicationRow{
				{Company: "Initech", JobTitle: "Developer", Status: status.Rejected},
			},
		},
		{
			ID: "m4", Subject: "unknown status", DateEmailISO: "2024-03-10",
			Company: "Umbrella", JobTitle: "Researcher", Status: "unknown",
			Applications: []model.ApplicationRow{
				{Company: "Umbrella", JobTitle: "Researcher", Status: status.Unknown},
			},
		},
		{
			// Both company and title blank: never shown in reports.
			ID: "m5", Subject: "noise", DateEmailISO: "2024-03-15",
			Applications: []model.ApplicationRow{
				{Company: "", JobTitle: "", Status: status.Unknown},
			},
		},
	}
	if err := s.UpsertBatch(ctx, rows); err != nil {
		t.Fatalf("seeding: %v", err)
	}
}

func TestListApplications_DefaultSortNewestFirst(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	views, total, err := s.ListApplications(context.Background(), ApplicationFilter{})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4 (blank row dropped)", total)
	}
	if len(views) != 4 {
		t.Fatalf("got %d rows, want 4", len(views))
	}
	if views[0].Company != "Umbrella" || views[3].Company != "Acme" {
		t.Errorf("unexpected order: %s .. %s", views[0].Company, views[3].Company)
	}
}

func TestListApplications_StatusFilter(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	views, total, err := s.ListApplications(context.Background(), ApplicationFilter{Status: "interview"})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if total != 1 || len(views) != 1 {
		t.Fatalf("total = %d, rows = %d, want 1/1", total, len(views))
	}
	if views[0].Company != "Globex" {
		t.Errorf("Company = %q, want Globex", views[0].Company)
	}
}

func TestListApplications_ExcludeStatuses(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	_, total, err := s.ListApplications(context.Background(),
		ApplicationFilter{Exclude: []string{"rejected", "unknown"}})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2 (applied + interview)", total)
	}
}

func TestListApplications_HideUnknown(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	views, total, err := s.ListApplications(context.Background(), ApplicationFilter{HideUnknown: true})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	for _, v := range views {
		if v.Status == "unknown" {
			t.Errorf("unknown status leaked: %+v", v)
		}
	}
}

func TestListApplications_SortByCompany(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	views, _, err := s.ListApplications(context.Background(), ApplicationFilter{Sort: "company"})
	if err != nil {
		t.Fatalf("ListApplications: %v", err)
	}
	if views[0].Company != "Acme" {
		t.Errorf("first company = %q, want Acme", views[0].Company)
	}
}

func TestListApplications_Pagination(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	page1, total, err := s.ListApplications(context.Background(), ApplicationFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 4 || len(page1) != 4 {
		t.Errorf("page 1: total = %d, rows = %d", total, len(page1))
	}

	page2, total, err := s.ListApplications(context.Background(), ApplicationFilter{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if total != 4 {
		t.Errorf("page 2 total = %d, want 4", total)
	}
	if len(page2) != 0 {
		t.Errorf("page 2 rows = %d, want 0", len(page2))
	}
}

func TestFilterNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   ApplicationFilter
		page int
		size int
	}{
		{"zero values", ApplicationFilter{}, 1, 50},
		{"tiny page size clamped up", ApplicationFilter{PageSize: 3}, 1, 10},
		{"huge page size clamped down", ApplicationFilter{PageSize: 9999}, 1, 200},
		{"negative page", ApplicationFilter{Page: -2}, 1, 50},
		{"in range untouched", ApplicationFilter{Page: 3, PageSize: 25}, 3, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.normalized()
			if got.Page != tt.page || got.PageSize != tt.size {
				t.Errorf("normalized() = page %d size %d, want %d/%d",
					got.Page, got.PageSize, tt.page, tt.size)
			}
		})
	}
}

func TestStatusCounts(t *testing.T) {
	s := newTestStore(t)
	seedReportData(t, s)

	counts, err := s.StatusCounts(context.Background(), ApplicationFilter{})
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}

	byStatus := map[string]int{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	want := map[string]int{"applied": 1, "interview": 1, "rejected": 1, "unknown": 1}
	for st, n := range want {
		if byStatus[st] != n {
			t.Errorf("count[%s] = %d, want %d", st, byStatus[st], n)
		}
	}
}

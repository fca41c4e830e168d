package store

import (
	"context"
	"fmt"
	"strings"
)

// ApplicationView is one row of the report: an application joined with its
// email's dates.
type ApplicationView struct {
	Company      string `db:"company" json:"company"`
	JobTitle     string `db:"job_title" json:"job_title"`
	Status       string `db:"status" json:"status"`
	DateEmail    string `db:"date_email" json:"date_email"`
	DateEmailISO string `db:"date_email_iso" json:"date_email_iso"`
}

// StatusCount is one bucket of the per-status summary.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// ApplicationFilter selects and orders report rows. Zero values mean no
// filtering; PageSize is clamped to [10, 200].
type ApplicationFilter struct {
	Status      string   // keep only this canonical status
	Exclude     []string // drop these canonical statuses
	HideUnknown bool
	Sort        string // "date" (default), "company", or "status"
	Page        int    // 1-based
	PageSize    int
}

// Blank-status and blank-text columns read as "unknown" so filters behave the
// same for legacy rows that predate normalization.
const (
	statusExpr  = "COALESCE(NULLIF(a.status, ''), 'unknown')"
	companyExpr = "COALESCE(NULLIF(TRIM(a.company), ''), 'unknown')"
	titleExpr   = "COALESCE(NULLIF(TRIM(a.job_title), ''), 'unknown')"
)

func (f ApplicationFilter) normalized() ApplicationFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = 50
	}
	if f.PageSize < 10 {
		f.PageSize = 10
	}
	if f.PageSize > 200 {
		f.PageSize = 200
	}
	return f
}

// whereClause builds the WHERE fragment and its parameters. Rows where both
// company and title are blank are always dropped: they carry no information.
func (f ApplicationFilter) whereClause() (string, []any) {
	clauses := []string{
		fmt.Sprintf("NOT (%s = 'unknown' AND %s = 'unknown')", companyExpr, titleExpr),
	}
	var params []any

	if f.Status != "" {
		clauses = append(clauses, statusExpr+" = ?")
		params = append(params, f.Status)
	}
	if len(f.Exclude) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Exclude)), ",")
		clauses = append(clauses, fmt.Sprintf("%s NOT IN (%s)", statusExpr, placeholders))
		for _, s := range f.Exclude {
			params = append(params, s)
		}
	}
	if f.HideUnknown {
		clauses = append(clauses, statusExpr+" <> 'unknown'")
	}

	return "WHERE " + strings.Join(clauses, " AND "), params
}

func (f ApplicationFilter) orderBy() string {
	switch f.Sort {
	case "company":
		return "a.company COLLATE NOCASE ASC, e.date_email_iso DESC"
	case "status":
		return statusExpr + " ASC, e.date_email_iso DESC"
	default:
		return "e.date_email_iso DESC"
	}
}

// ListApplications returns one page of report rows plus the total row count
// for the filter.
func (s *SQLiteStore) ListApplications(ctx context.Context, f ApplicationFilter) ([]ApplicationView, int, error) {
	f = f.normalized()
	where, params := f.whereClause()

	var total int
	countSQL := fmt.Sprintf(
		"SELECT COUNT(*) FROM applications a JOIN emails e ON a.email_id = e.id %s", where)
	if err := s.db.GetContext(ctx, &total, countSQL, params...); err != nil {
		return nil, 0, fmt.Errorf("counting applications: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	listSQL := fmt.Sprintf(
		`SELECT a.company, a.job_title, %s AS status,
		        COALESCE(e.date_email, '') AS date_email,
		        COALESCE(e.date_email_iso, '') AS date_email_iso
		 FROM applications a JOIN emails e ON a.email_id = e.id
		 %s ORDER BY %s LIMIT ? OFFSET ?`,
		statusExpr, where, f.orderBy())

	var views []ApplicationView
	args := append(params, f.PageSize, offset)
	if err := s.db.SelectContext(ctx, &views, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("listing applications: %w", err)
	}
	return views, total, nil
}

// StatusCounts returns the number of applications per canonical status under
// the same filter as ListApplications.
func (s *SQLiteStore) StatusCounts(ctx context.Context, f ApplicationFilter) ([]StatusCount, error) {
	f = f.normalized()
	where, params := f.whereClause()

	countSQL := fmt.Sprintf(
		`SELECT %s AS status, COUNT(*) AS count
		 FROM applications a JOIN emails e ON a.email_id = e.id
		 %s GROUP BY 1 ORDER BY 2 DESC`,
		statusExpr, where)

	var counts []StatusCount
	if err := s.db.SelectContext(ctx, &counts, countSQL, params...); err != nil {
		return nil, fmt.Errorf("counting statuses: %w", err)
	}
	return counts, nil
}

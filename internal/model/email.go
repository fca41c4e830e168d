package model

import (
	"context"

	"github.com/amitkr/jobmail/internal/status"
)

// Message is a single fetched mail message, trimmed to what the pipeline needs.
type Message struct {
	ID       string // provider message id, stable and unique
	Subject  string
	Sender   string
	Date     string // raw Date header
	DateISO  string // normalized ISO-8601 date, empty when unparseable
	Body     string // plain-text body snippet, already truncated
	Platform string // ATS hint derived from the sender domain, may be empty
}

// EmailRow is one row of the emails table plus its derived applications.
// The flat company/job_title/status columns mirror the first extracted job
// mention for backward compatibility; the applications table is canonical.
type EmailRow struct {
	ID           string `db:"id"`
	EmailNum     int    `db:"email_num"`
	Subject      string `db:"subject"`
	Sender       string `db:"sender"`
	DateEmail    string `db:"date_email"`
	DateEmailISO string `db:"date_email_iso"`
	Company      string `db:"company"`
	JobTitle     string `db:"job_title"`
	Status       string `db:"status"`
	ParsedDate   string `db:"parsed_date"`
	Reason       string `db:"reason"`
	Error        string `db:"error"`
	CreatedAt    string `db:"created_at"`

	Applications []ApplicationRow `db:"-"`
}

// ApplicationRow is one extracted job mention tied to an email.
type ApplicationRow struct {
	ID         int64         `db:"id"`
	EmailID    string        `db:"email_id"`
	Company    string        `db:"company"`
	JobTitle   string        `db:"job_title"`
	Status     status.Status `db:"status"`
	ParsedDate string        `db:"parsed_date"`
	Reason     string        `db:"reason"`
	Error      string        `db:"error"`
	CreatedAt  string        `db:"created_at"`
}

// MailSource lists candidate messages from the mail provider. Implementations
// page through the provider's cursor-based listing; an empty returned token
// means the result set is exhausted.
type MailSource interface {
	ListMessages(ctx context.Context, query, pageToken string, maxTotal int) ([]Message, string, error)
}

// EmailStore persists extraction results and answers duplicate checks.
type EmailStore interface {
	HasEmail(ctx context.Context, id string) (bool, error)
	UpsertBatch(ctx context.Context, rows []EmailRow) error
}

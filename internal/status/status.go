package status

import "strings"

// Status is the canonical application status stored in the database.
type Status string

const (
	Applied   Status = "applied"
	Interview Status = "interview"
	Offer     Status = "offer"
	Rejected  Status = "rejected"
	Unknown   Status = "unknown"
)

// All lists every canonical status in display order.
var All = []Status{Applied, Interview, Offer, Rejected, Unknown}

// synonyms maps the raw status variants the extractor produces to their
// canonical bucket. Keys are lowercase and trimmed; canonical values map to
// themselves so Normalize is idempotent.
var synonyms = map[string]Status{
	"applied":               Applied,
	"applied for":           Applied,
	"application received":  Applied,
	"application submitted": Applied,
	"submitted":             Applied,
	"interview":             Interview,
	"interview invite":      Interview,
	"interview scheduled":   Interview,
	"scheduled interview":   Interview,
	"offer":                 Offer,
	"rejected":              Rejected,
	"rejection":             Rejected,
	"declined":              Rejected,
	"not selected":          Rejected,
	"other":                 Unknown,
	"unknown":               Unknown,
}

// Normalize maps a free-text status to its canonical value. Matching is
// case-insensitive and whitespace-trimmed; anything unrecognized (including
// the empty string) becomes Unknown. Never fails.
func Normalize(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := synonyms[s]; ok {
		return canonical
	}
	return Unknown
}

func (s Status) String() string { return string(s) }

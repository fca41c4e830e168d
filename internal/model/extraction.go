package model

import "context"

// JobMention is one (company, title, status, date) tuple extracted from an
// email. An email can carry zero or more mentions.
type JobMention struct {
	Company  string `json:"company"`
	JobTitle string `json:"job_title"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

// ExtractionResult is the validated outcome of one LLM extraction. Extraction
// never fails upward: parse and provider failures are folded into a result
// with Relevant=false and the error recorded.
type ExtractionResult struct {
	Relevant bool
	Reason   string
	Jobs     []JobMention
	Error    string
}

// JobExtractor classifies a message and extracts its job mentions.
type JobExtractor interface {
	Extract(ctx context.Context, msg Message) ExtractionResult
}

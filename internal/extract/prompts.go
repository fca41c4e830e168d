package extract

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/job_extraction.md
var jobExtractionPromptRaw string

// JobExtractionTemplate is the parsed prompt template for email extraction.
// Parsed once at package init; reused on every Extract call.
var JobExtractionTemplate = template.Must(template.New("job_extraction").Parse(jobExtractionPromptRaw))

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/amitkr/jobmail/internal/model"
)

// parseFailedReason marks results where the model output carried no usable
// JSON object or the provider gave up entirely.
const parseFailedReason = "Parsing failed"

// Extractor classifies an email and pulls its job mentions through an LLM.
// Extract never returns an error: every failure mode degrades to a well-formed
// result with Relevant=false and the cause recorded.
type Extractor struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewExtractor creates an extractor using the given provider and prompt
// template (usually JobExtractionTemplate).
func NewExtractor(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *Extractor {
	return &Extractor{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// rawResult is the JSON shape the model is asked to emit. The flat
// company/job_title/status fields accept older single-record responses.
type rawResult struct {
	Relevant bool     `json:"relevant"`
	Reason   string   `json:"reason"`
	Jobs     []rawJob `json:"jobs"`
	Company  string   `json:"company"`
	JobTitle string   `json:"job_title"`
	Status   string   `json:"status"`
	Date     string   `json:"date"`
	Error    string   `json:"error"`
}

type rawJob struct {
	Company  string `json:"company"`
	JobTitle string `json:"job_title"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

// Extract renders the prompt for msg, invokes the model, and parses the
// response into an ExtractionResult.
func (e *Extractor) Extract(ctx context.Context, msg model.Message) model.ExtractionResult {
	var promptBuf bytes.Buffer
	err := e.tmpl.Execute(&promptBuf, struct {
		Subject  string
		Body     string
		Platform string
	}{
		Subject:  msg.Subject,
		Body:     msg.Body,
		Platform: msg.Platform,
	})
	if err != nil {
		return failureResult(fmt.Errorf("render prompt: %w", err))
	}

	start := time.Now()
	raw, err := e.provider.Complete(ctx, promptBuf.String())
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Warn("llm completion failed",
			"id", msg.ID,
			"model", providerModel(e.provider),
			"elapsed", elapsed,
			"error", err,
		)
		return failureResult(err)
	}

	result, err := parseResult(raw)
	if err != nil {
		e.logger.Warn("could not parse JSON from llm output",
			"id", msg.ID,
			"model", providerModel(e.provider),
			"elapsed", elapsed,
			"error", err,
		)
		return failureResult(err)
	}

	e.logger.Debug("extraction complete",
		"id", msg.ID,
		"model", providerModel(e.provider),
		"elapsed", elapsed,
		"relevant", result.Relevant,
		"jobs", len(result.Jobs),
	)
	return result
}

// parseResult recovers the first top-level JSON object from the raw model
// output (bounded by the first '{' and the last '}') and coerces it into an
// ExtractionResult.
func parseResult(raw string) (model.ExtractionResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return model.ExtractionResult{}, fmt.Errorf("no JSON object in response")
	}

	var rr rawResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rr); err != nil {
		return model.ExtractionResult{}, fmt.Errorf("unmarshal extraction JSON: %w", err)
	}

	result := model.ExtractionResult{
		Relevant: rr.Relevant,
		Reason:   rr.Reason,
		Error:    rr.Error,
	}
	for _, j := range rr.Jobs {
		result.Jobs = append(result.Jobs, model.JobMention(j))
	}

	// Older prompt variants return one flat record instead of a jobs list.
	if len(result.Jobs) == 0 && (rr.Company != "" || rr.JobTitle != "" || rr.Status != "") {
		result.Jobs = append(result.Jobs, model.JobMention{
			Company:  rr.Company,
			JobTitle: rr.JobTitle,
			Status:   rr.Status,
			Date:     rr.Date,
		})
	}

	return result, nil
}

// failureResult is the uniform degraded result for provider and parse
// failures: not relevant, no jobs, cause recorded.
func failureResult(err error) model.ExtractionResult {
	return model.ExtractionResult{
		Relevant: false,
		Reason:   parseFailedReason,
		Jobs:     nil,
		Error:    err.Error(),
	}
}

// providerModel reports the provider's model id for log events, when known.
func providerModel(p LLMProvider) string {
	if m, ok := p.(interface{ Model() string }); ok {
		return m.Model()
	}
	return "unknown"
}

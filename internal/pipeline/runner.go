package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amitkr/jobmail/internal/checkpoint"
	"github.com/amitkr/jobmail/internal/filter"
	"github.com/amitkr/jobmail/internal/model"
	"github.com/amitkr/jobmail/internal/status"
)

// Counters summarizes one batch for the operator log.
type Counters struct {
	Fetched     int
	Duplicates  int
	Blacklisted int
	Prefiltered int
	NotRelevant int
	Failed      int
	Saved       int
}

// Runner owns the batch loop: fetch → filter → extract → persist →
// checkpoint → sleep. Everything but extraction is sequential; no batch
// starts before the previous one has checkpointed.
type Runner struct {
	source      model.MailSource
	blacklist   *filter.Blacklist
	jobLikely   *filter.JobLikelihood
	coordinator *Coordinator
	store       model.EmailStore
	cursors     *checkpoint.Cursors
	query       string
	batchSize   int
	interval    time.Duration
	logger      *slog.Logger

	emailNum int // running ordinal across batches within this process
}

// NewRunner wires the batch loop with all its dependencies.
func NewRunner(
	source model.MailSource,
	blacklist *filter.Blacklist,
	jobLikely *filter.JobLikelihood,
	coordinator *Coordinator,
	store model.EmailStore,
	cursors *checkpoint.Cursors,
	query string,
	batchSize int,
	interval time.Duration,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		source:      source,
		blacklist:   blacklist,
		jobLikely:   jobLikely,
		coordinator: coordinator,
		store:       store,
		cursors:     cursors,
		query:       query,
		batchSize:   batchSize,
		interval:    interval,
		logger:      logger,
	}
}

// Run executes batches until ctx is cancelled: one immediately, then one per
// interval. A failed batch is logged and retried on the next tick; its
// checkpoint is untouched, so no messages are lost.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("starting pipeline",
		"interval", r.interval.String(),
		"batch_size", r.batchSize,
	)

	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("shutting down pipeline")
			return nil
		case <-time.After(r.interval):
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	runID := uuid.NewString()
	start := time.Now()

	counters, err := r.RunBatch(ctx)
	if err != nil {
		r.logger.Error("batch failed",
			"run_id", runID,
			"elapsed", time.Since(start),
			"error", err,
		)
		return
	}

	r.logger.Info("batch complete",
		"run_id", runID,
		"elapsed", time.Since(start),
		"fetched", counters.Fetched,
		"duplicates", counters.Duplicates,
		"blacklisted", counters.Blacklisted,
		"prefiltered", counters.Prefiltered,
		"not_relevant", counters.NotRelevant,
		"failed", counters.Failed,
		"saved", counters.Saved,
	)
}

// RunBatch executes one fetch→filter→extract→persist→checkpoint cycle and
// returns its counters. Fetch and persistence errors abort the batch before
// any checkpoint is written.
func (r *Runner) RunBatch(ctx context.Context) (Counters, error) {
	var counters Counters

	pageToken, err := r.cursors.PageToken()
	if err != nil {
		return counters, err
	}
	lastID, err := r.cursors.LastEmailID()
	if err != nil {
		return counters, err
	}

	messages, nextToken, err := r.source.ListMessages(ctx, r.query, pageToken, r.batchSize)
	if err != nil {
		return counters, fmt.Errorf("fetching messages: %w", err)
	}

	// The provider can return a leading run of messages from the previous
	// batch; the persisted sentinel cuts the page off there.
	if lastID != "" {
		for i, msg := range messages {
			if msg.ID == lastID {
				messages = messages[:i]
				break
			}
		}
	}
	counters.Fetched = len(messages)

	var candidates []candidate
	for _, msg := range messages {
		r.emailNum++
		num := r.emailNum

		seen, err := r.store.HasEmail(ctx, msg.ID)
		if err != nil {
			return counters, fmt.Errorf("checking duplicate %s: %w", msg.ID, err)
		}
		if seen {
			counters.Duplicates++
			continue
		}

		if pass, reason := r.blacklist.Check(msg); !pass {
			counters.Blacklisted++
			r.logger.Debug("skipping blacklisted email", "id", msg.ID, "reason", reason)
			continue
		}
		if pass, reason := r.jobLikely.Check(msg); !pass {
			counters.Prefiltered++
			r.logger.Debug("skipping unlikely email", "id", msg.ID, "reason", reason)
			continue
		}

		candidates = append(candidates, candidate{msg: msg, num: num})
	}

	outcomes := r.coordinator.ExtractAll(ctx, candidates)

	var rows []model.EmailRow
	for _, o := range outcomes {
		if !o.result.Relevant {
			// A failure result carries the cause; a clean classification
			// as not-job-related does not.
			if o.result.Error != "" {
				counters.Failed++
			} else {
				counters.NotRelevant++
			}
			continue
		}
		rows = append(rows, buildRow(o.cand, o.result))
	}

	if len(rows) > 0 {
		if err := r.store.UpsertBatch(ctx, rows); err != nil {
			return counters, fmt.Errorf("persisting batch: %w", err)
		}
		counters.Saved = len(rows)
	}

	if len(messages) > 0 {
		if err := r.cursors.SetPageToken(nextToken); err != nil {
			return counters, err
		}
		// Oldest message in the batch; the provider lists newest first.
		if err := r.cursors.SetLastEmailID(messages[len(messages)-1].ID); err != nil {
			return counters, err
		}
	}

	return counters, nil
}

// buildRow converts one extraction outcome into a persistable email row with
// its application set. The email's flat fields mirror the first mention for
// backward compatibility.
func buildRow(cand candidate, result model.ExtractionResult) model.EmailRow {
	row := model.EmailRow{
		ID:           cand.msg.ID,
		EmailNum:     cand.num,
		Subject:      cand.msg.Subject,
		Sender:       cand.msg.Sender,
		DateEmail:    cand.msg.Date,
		DateEmailISO: cand.msg.DateISO,
		Reason:       result.Reason,
		Error:        result.Error,
	}

	for _, job := range result.Jobs {
		row.Applications = append(row.Applications, model.ApplicationRow{
			EmailID:    cand.msg.ID,
			Company:    job.Company,
			JobTitle:   job.JobTitle,
			Status:     status.Normalize(job.Status),
			ParsedDate: job.Date,
			Reason:     result.Reason,
			Error:      result.Error,
		})
	}

	if len(result.Jobs) > 0 {
		first := result.Jobs[0]
		row.Company = first.Company
		row.JobTitle = first.JobTitle
		row.Status = status.Normalize(first.Status).String()
		row.ParsedDate = first.Date
	}

	return row
}

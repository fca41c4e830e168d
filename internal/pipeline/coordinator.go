package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amitkr/jobmail/internal/model"
)

// candidate is a message that survived both filter gates, carrying its
// ordinal within the run.
type candidate struct {
	msg model.Message
	num int
}

// outcome pairs a candidate with its extraction result. Order follows
// completion, not submission.
type outcome struct {
	cand   candidate
	result model.ExtractionResult
}

// Coordinator fans extraction out over a bounded pool of workers. Extraction
// never returns an error, so one bad email cannot cancel its siblings; the
// pool width is the only throttle besides the provider's own retry delays.
type Coordinator struct {
	extractor model.JobExtractor
	workers   int
	logger    *slog.Logger
}

// NewCoordinator creates a coordinator running at most workers extractions
// concurrently. Width 1 is valid and respects strict per-minute quotas.
func NewCoordinator(extractor model.JobExtractor, workers int, logger *slog.Logger) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{
		extractor: extractor,
		workers:   workers,
		logger:    logger,
	}
}

// ExtractAll runs the extractor over every candidate and collects results as
// they complete.
func (c *Coordinator) ExtractAll(ctx context.Context, candidates []candidate) []outcome {
	var (
		mu       sync.Mutex
		outcomes = make([]outcome, 0, len(candidates))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for _, cand := range candidates {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result := c.extractor.Extract(ctx, cand.msg)

			mu.Lock()
			outcomes = append(outcomes, outcome{cand: cand, result: result})
			mu.Unlock()

			c.logger.Debug("processed email",
				"id", cand.msg.ID,
				"num", cand.num,
				"relevant", result.Relevant,
			)
			return nil
		})
	}

	// Workers never return errors; Wait only synchronizes completion.
	_ = g.Wait()
	return outcomes
}

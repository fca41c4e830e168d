package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/amitkr/jobmail/internal/model"
)

// gaugeExtractor tracks peak concurrency across Extract calls.
type gaugeExtractor struct {
	mu      sync.Mutex
	active  int
	peak    int
	entered chan struct{}
	release chan struct{}
	total   atomic.Int64
}

func (g *gaugeExtractor) Extract(_ context.Context, _ model.Message) model.ExtractionResult {
	g.mu.Lock()
	g.active++
	if g.active > g.peak {
		g.peak = g.active
	}
	g.mu.Unlock()

	if g.entered != nil {
		g.entered <- struct{}{}
		<-g.release
	}

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	g.total.Add(1)
	return model.ExtractionResult{Relevant: false, Reason: "not job related"}
}

func candidates(n int) []candidate {
	out := make([]candidate, n)
	for i := range out {
		out[i] = candidate{msg: model.Message{ID: string(rune('a' + i))}, num: i + 1}
	}
	return out
}

func TestExtractAll_ProcessesEveryCandidate(t *testing.T) {
	g := &gaugeExtractor{}
	c := NewCoordinator(g, 4, discardLogger())

	outcomes := c.ExtractAll(context.Background(), candidates(9))
	if len(outcomes) != 9 {
		t.Fatalf("outcomes = %d, want 9", len(outcomes))
	}
	if g.total.Load() != 9 {
		t.Errorf("extract calls = %d, want 9", g.total.Load())
	}

	seen := map[int]bool{}
	for _, o := range outcomes {
		seen[o.cand.num] = true
	}
	for i := 1; i <= 9; i++ {
		if !seen[i] {
			t.Errorf("candidate %d missing from outcomes", i)
		}
	}
}

func TestExtractAll_RespectsWorkerLimit(t *testing.T) {
	g := &gaugeExtractor{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
	c := NewCoordinator(g, 2, discardLogger())

	done := make(chan struct{})
	go func() {
		c.ExtractAll(context.Background(), candidates(6))
		close(done)
	}()

	// Wait for the pool to fill, then drain everything.
	<-g.entered
	<-g.entered
	close(g.release)
	for range 4 {
		<-g.entered
	}
	<-done

	if g.peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", g.peak)
	}
}

func TestExtractAll_EmptyInput(t *testing.T) {
	g := &gaugeExtractor{}
	c := NewCoordinator(g, 4, discardLogger())

	outcomes := c.ExtractAll(context.Background(), nil)
	if len(outcomes) != 0 {
		t.Errorf("outcomes = %d, want 0", len(outcomes))
	}
}

func TestNewCoordinator_ClampsWorkerCount(t *testing.T) {
	c := NewCoordinator(&gaugeExtractor{}, 0, discardLogger())
	if c.workers != 1 {
		t.Errorf("workers = %d, want clamped to 1", c.workers)
	}
}

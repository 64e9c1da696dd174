package scraper

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchRunner runs a single batch window.
type BatchRunner interface {
	RunBatch(ctx context.Context, req Request) (Response, error)
}

// Summary aggregates every batch of one full pass.
type Summary struct {
	RunID      string `json:"runId"`
	Batches    int    `json:"batches"`
	Inserted   int    `json:"inserted"`
	Skipped    int    `json:"skipped"`
	TotalFound int    `json:"total_found"`
	Message    string `json:"message"`
}

// Runner drives the resumption loop: it invokes batches back to back,
// following nextBatchIndex until the search space is exhausted.
type Runner struct {
	batches BatchRunner
	log     *zap.Logger
}

// NewRunner loops over b.
func NewRunner(b BatchRunner, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{batches: b, log: log}
}

// RunAll processes the whole search space starting at req.BatchIndex.
// A failing batch stops the loop; the Summary covers the batches that
// completed before it.
func (r *Runner) RunAll(ctx context.Context, req Request) (Summary, error) {
	sum := Summary{RunID: req.RunID}
	if sum.RunID == "" {
		sum.RunID = uuid.NewString()
	}
	req.RunID = sum.RunID

	idx := 0
	if req.BatchIndex != nil {
		idx = *req.BatchIndex
	}

	for {
		req.BatchIndex = &idx
		resp, err := r.batches.RunBatch(ctx, req)
		if err != nil {
			sum.Message = complete(sum)
			return sum, errors.Wrapf(err, "batch %d", idx)
		}

		sum.Batches++
		sum.Inserted += resp.Inserted
		sum.Skipped += resp.Skipped
		sum.TotalFound += resp.TotalFound
		r.log.Info(resp.Progress, zap.String("run_id", sum.RunID))

		if !resp.HasMore || resp.NextBatchIndex == nil {
			break
		}
		idx = *resp.NextBatchIndex
	}

	sum.Message = complete(sum)
	r.log.Info(sum.Message, zap.String("run_id", sum.RunID), zap.Int("batches", sum.Batches))
	return sum, nil
}

func complete(s Summary) string {
	return fmt.Sprintf("Scrape complete! Found %d jobs, added %d new jobs.", s.TotalFound, s.Inserted)
}

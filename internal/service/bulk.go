package service

import (
	"context"

	"github.com/google/uuid"
)

const BulkBatchSize = 50

// Progress receives the running count of processed ids after each batch.
type Progress func(done, total int)

type BatchFailure struct {
	IDs   []uuid.UUID `json:"ids"`
	Error string      `json:"error"`
}

type BulkResult struct {
	Requested int            `json:"requested"`
	Deleted   int64          `json:"deleted"`
	Failed    []BatchFailure `json:"failed,omitempty"`
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// runBulk deletes ids in sequential batches. A failed batch is recorded and
// the remaining batches still run.
func runBulk(ctx context.Context, ids []uuid.UUID, del func(context.Context, []uuid.UUID) (int64, error), progress Progress) BulkResult {
	ids = dedupe(ids)
	res := BulkResult{Requested: len(ids)}

	for start := 0; start < len(ids); start += BulkBatchSize {
		end := min(start+BulkBatchSize, len(ids))
		batch := ids[start:end]

		n, err := del(ctx, batch)
		if err != nil {
			res.Failed = append(res.Failed, BatchFailure{IDs: batch, Error: err.Error()})
		} else {
			res.Deleted += n
		}
		if progress != nil {
			progress(end, len(ids))
		}
	}
	return res
}

package application

import (
	"context"
	"log/slog"

	"github.com/postflowhq/postflow/internal/domain/model"
	"github.com/postflowhq/postflow/internal/domain/port/driven"
)

// WarmupService serves the warm-up queue: accounts still in their warm-up
// phase that have not completed today's run.
type WarmupService struct {
	records driven.RecordStore
	journal driven.DispatchStore
	ref     model.TableRef
}

// NewWarmupService creates a WarmupService over the given warm-up dataset.
// ref may be zero when warm-up serving is not configured.
func NewWarmupService(records driven.RecordStore, journal driven.DispatchStore, ref model.TableRef) *WarmupService {
	return &WarmupService{
		records: records,
		journal: journal,
		ref:     ref,
	}
}

// Configured reports whether a warm-up dataset is available.
func (s *WarmupService) Configured() bool {
	return s.ref.Complete()
}

// Pending returns warm-up tasks whose status matches the warm-up sentinel and
// whose daily completion flag is not set. maxCount caps the result when
// positive; zero or negative means unlimited. Fetch failures are logged and
// yield an empty slice.
func (s *WarmupService) Pending(ctx context.Context, maxCount int) []model.WarmupTask {
	if !s.Configured() {
		slog.Warn("warmup tasks requested but no warmup dataset configured")
		return []model.WarmupTask{}
	}

	tasks, err := s.records.FetchWarmupPool(ctx, s.ref)
	if err != nil {
		slog.Error("fetching warmup pool failed", "base", s.ref.BaseID, "table", s.ref.TableID, "error", err)
		return []model.WarmupTask{}
	}

	pending := []model.WarmupTask{}
	for _, task := range tasks {
		if !task.Pending() {
			continue
		}
		pending = append(pending, task)
		if maxCount > 0 && len(pending) >= maxCount {
			break
		}
	}

	for _, task := range pending {
		if err := s.journal.Append(ctx, model.Dispatch{
			Op:       model.DispatchOpWarmupHandout,
			RecordID: task.RecordID,
			Username: task.Username,
		}); err != nil {
			slog.Warn("journal append failed", "op", model.DispatchOpWarmupHandout, "record_id", task.RecordID, "error", err)
		}
	}

	slog.Info("pending warmup tasks served", "count", len(pending))
	return pending
}

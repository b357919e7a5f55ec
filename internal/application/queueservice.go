// Package application contains use-case orchestration services. Services are
// the call boundary the spec's error contract applies to: adapter failures
// are logged here and converted to benign empty results, never propagated.
package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/postflowhq/postflow/internal/domain/model"
	"github.com/postflowhq/postflow/internal/domain/port/driven"
)

// QueueService serves the content-posting queues: due-today fetches, failure
// flags, and generic field writes.
type QueueService struct {
	records driven.RecordStore
	journal driven.DispatchStore
	queues  map[string]model.TableRef
	loc     *time.Location
}

// NewQueueService creates a QueueService over the named queue lookup table.
// loc is the timezone the due-today comparison happens in.
func NewQueueService(
	records driven.RecordStore,
	journal driven.DispatchStore,
	queues map[string]model.TableRef,
	loc *time.Location,
) *QueueService {
	return &QueueService{
		records: records,
		journal: journal,
		queues:  queues,
		loc:     loc,
	}
}

// HasQueue reports whether name is a configured queue.
func (s *QueueService) HasQueue(name string) bool {
	_, ok := s.queues[name]
	return ok
}

// DuePosts returns up to maxCount posts from the queue whose schedule date
// falls on today's calendar day in the service timezone. maxCount values
// below one default to one. Fetch failures are logged and yield an empty
// slice.
func (s *QueueService) DuePosts(ctx context.Context, queue string, maxCount int) []model.QueuedPost {
	if maxCount < 1 {
		maxCount = 1
	}

	ref, ok := s.queues[queue]
	if !ok {
		slog.Warn("due posts requested for unknown queue", "queue", queue)
		return []model.QueuedPost{}
	}

	slog.Info("fetching due posts", "queue", queue, "max", maxCount)

	posts, err := s.records.FetchScheduled(ctx, ref)
	if err != nil {
		slog.Error("fetching due posts failed", "queue", queue, "error", err)
		return []model.QueuedPost{}
	}

	today := time.Now().In(s.loc).Format("2006-01-02")

	due := []model.QueuedPost{}
	for _, post := range posts {
		if !post.IsDueOn(today) {
			continue
		}
		due = append(due, post)
		if len(due) >= maxCount {
			break
		}
	}

	for _, post := range due {
		s.record(ctx, model.Dispatch{
			Op:       model.DispatchOpDuePost,
			Queue:    queue,
			RecordID: post.ID,
			Username: post.Username,
			Detail:   "due " + today,
		})
	}

	slog.Info("due posts served", "queue", queue, "count", len(due), "day", today)
	return due
}

// FlagFailed sets the failure marker on one record and returns whether the
// update succeeded.
func (s *QueueService) FlagFailed(ctx context.Context, queue, recordID string) bool {
	ref, ok := s.queues[queue]
	if !ok {
		slog.Warn("failure flag requested for unknown queue", "queue", queue, "record_id", recordID)
		return false
	}

	if err := s.records.FlagFailed(ctx, ref, recordID); err != nil {
		slog.Error("flagging record as failed failed", "queue", queue, "record_id", recordID, "error", err)
		return false
	}

	slog.Warn("record flagged as failed", "queue", queue, "record_id", recordID)

	s.record(ctx, model.Dispatch{
		Op:       model.DispatchOpFlagFailed,
		Queue:    queue,
		RecordID: recordID,
	})
	return true
}

// UpdateFields writes arbitrary fields to one record with typecast coercion
// and returns the updated record, or nil on any failure.
func (s *QueueService) UpdateFields(ctx context.Context, queue, recordID string, fields map[string]any) *model.Record {
	ref, ok := s.queues[queue]
	if !ok {
		slog.Warn("field update requested for unknown queue", "queue", queue, "record_id", recordID)
		return nil
	}

	updated, err := s.records.UpdateRecordFields(ctx, ref, recordID, fields)
	if err != nil {
		slog.Error("updating record fields failed", "queue", queue, "record_id", recordID, "error", err)
		return nil
	}

	slog.Debug("record fields updated", "queue", queue, "record_id", recordID, "fields", fieldNames(fields))

	s.record(ctx, model.Dispatch{
		Op:       model.DispatchOpFieldUpdate,
		Queue:    queue,
		RecordID: recordID,
		Detail:   fieldNames(fields),
	})
	return updated
}

// record appends a journal row. Journal failures are logged, never fatal to
// the serving path.
func (s *QueueService) record(ctx context.Context, d model.Dispatch) {
	if err := s.journal.Append(ctx, d); err != nil {
		slog.Warn("journal append failed", "op", d.Op, "record_id", d.RecordID, "error", err)
	}
}

// fieldNames renders a field map's keys as a stable comma-joined string.
func fieldNames(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

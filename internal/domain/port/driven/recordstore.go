package driven

import (
	"context"

	"github.com/postflowhq/postflow/internal/domain/model"
)

// RecordStore defines the driven port for the external Airtable record store.
// Every method is a single synchronous round trip against one table view; the
// adapter maps Airtable's wire types to domain model types and flattens
// linked-record fields, but applies no business filtering. Filtering (due
// today, pending warm-up) belongs to the application services.
type RecordStore interface {
	// FetchScheduled returns every record in the queue view, projected to
	// QueuedPost with the raw schedule date retained.
	FetchScheduled(ctx context.Context, ref model.TableRef) ([]model.QueuedPost, error)

	// FetchAccount returns at most one record from the pool view, or nil
	// when the view is empty.
	FetchAccount(ctx context.Context, ref model.TableRef) (*model.AccountPick, error)

	// FetchWarmupPool returns every record in the warm-up view with raw
	// status and completion values retained.
	FetchWarmupPool(ctx context.Context, ref model.TableRef) ([]model.WarmupTask, error)

	// UpdateRecordFields writes the given fields to one record with Airtable
	// typecast coercion enabled and returns the updated record.
	UpdateRecordFields(ctx context.Context, ref model.TableRef, recordID string, fields map[string]any) (*model.Record, error)

	// FlagFailed sets the boolean failure marker on one record.
	FlagFailed(ctx context.Context, ref model.TableRef, recordID string) error
}

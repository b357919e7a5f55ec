package driven

import (
	"context"

	"github.com/postflowhq/postflow/internal/domain/model"
)

// DispatchStore defines the driven port for the local dispatch journal.
type DispatchStore interface {
	// Append records one served operation. The store assigns ID and CreatedAt.
	Append(ctx context.Context, d model.Dispatch) error
	// ListRecent returns up to limit journal rows, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Dispatch, error)
	// Ping verifies the journal is reachable; used by the health endpoint.
	Ping(ctx context.Context) error
}

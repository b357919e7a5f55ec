package application

import (
	"context"
	"log/slog"

	"github.com/postflowhq/postflow/internal/domain/model"
	"github.com/postflowhq/postflow/internal/domain/port/driven"
)

// AccountService hands out accounts from the active-account pool.
type AccountService struct {
	records driven.RecordStore
	journal driven.DispatchStore
	pool    model.TableRef
}

// NewAccountService creates an AccountService. pool is the default pool
// location and may be zero when every caller supplies its own.
func NewAccountService(records driven.RecordStore, journal driven.DispatchStore, pool model.TableRef) *AccountService {
	return &AccountService{
		records: records,
		journal: journal,
		pool:    pool,
	}
}

// HasDefaultPool reports whether a default pool location is configured.
func (s *AccountService) HasDefaultPool() bool {
	return s.pool.Complete()
}

// NextAvailable fetches a single account from the pool. A zero ref falls back
// to the configured default pool. Returns nil when the pool is empty, no pool
// is available, or the fetch fails.
func (s *AccountService) NextAvailable(ctx context.Context, ref model.TableRef) *model.AccountPick {
	if ref.IsZero() {
		ref = s.pool
	}
	if !ref.Complete() {
		slog.Warn("account requested without a pool location")
		return nil
	}

	slog.Info("fetching active account", "base", ref.BaseID, "table", ref.TableID, "view", ref.View)

	pick, err := s.records.FetchAccount(ctx, ref)
	if err != nil {
		slog.Error("fetching active account failed", "base", ref.BaseID, "table", ref.TableID, "error", err)
		return nil
	}
	if pick == nil {
		slog.Warn("no active accounts in pool view", "base", ref.BaseID, "table", ref.TableID, "view", ref.View)
		return nil
	}

	slog.Info("active account found",
		"account", pick.Account,
		"package", pick.PackageName,
		"device", pick.DeviceID,
	)

	if err := s.journal.Append(ctx, model.Dispatch{
		Op:       model.DispatchOpAccountPick,
		RecordID: pick.ID,
		Username: pick.Account,
		Detail:   ref.BaseID + "/" + ref.TableID,
	}); err != nil {
		slog.Warn("journal append failed", "op", model.DispatchOpAccountPick, "record_id", pick.ID, "error", err)
	}

	return pick
}

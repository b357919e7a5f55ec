package model

import "time"

// DispatchOp identifies which client operation a journal row records.
type DispatchOp string

const (
	DispatchOpDuePost       DispatchOp = "due_post"
	DispatchOpFlagFailed    DispatchOp = "flag_failed"
	DispatchOpFieldUpdate   DispatchOp = "field_update"
	DispatchOpAccountPick   DispatchOp = "account_pick"
	DispatchOpWarmupHandout DispatchOp = "warmup_handout"
)

// Dispatch is one append-only journal row recording a record this service
// handed out or a status field it wrote back. Airtable stays the system of
// record; the journal only answers "what did we serve, and when".
type Dispatch struct {
	ID        int64
	Op        DispatchOp
	Queue     string // Logical dataset name; empty for per-call pool fetches.
	RecordID  string
	Username  string
	Detail    string // Op-specific context, e.g. the fields written.
	CreatedAt time.Time
}

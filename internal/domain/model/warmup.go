package model

// WarmupStatus is the sentinel value of the Status field that marks an account
// as being in its warm-up phase.
const WarmupStatus = "Warmup"

// WarmupTask is a warm-up queue record. Status and Complete carry the raw
// stored values so the pending filter stays in one place (Pending).
type WarmupTask struct {
	RecordID    string
	Username    string
	DeviceID    string
	PackageName string
	Status      string
	Complete    bool
}

// Pending reports whether the task still needs its daily warm-up run: the
// status matches the warm-up sentinel and the completion flag is not set.
func (t WarmupTask) Pending() bool {
	return t.Status == WarmupStatus && !t.Complete
}

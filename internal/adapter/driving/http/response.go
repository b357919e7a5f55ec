package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/postflowhq/postflow/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// QueuesResponse lists the configured queue names.
type QueuesResponse struct {
	Queues []string `json:"queues"`
}

// DuePostResponse is the JSON projection of a due post: exactly the fields
// the posting agent needs.
type DuePostResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	PackageName string `json:"package_name"`
	MediaURL    string `json:"media_url"`
}

func toDuePostResponse(p model.QueuedPost) DuePostResponse {
	return DuePostResponse{
		ID:          p.ID,
		Username:    p.Username,
		PackageName: p.PackageName,
		MediaURL:    p.MediaURL,
	}
}

// FlaggedResponse acknowledges a failure flag write.
type FlaggedResponse struct {
	RecordID string `json:"record_id"`
	Flagged  bool   `json:"flagged"`
}

// RecordResponse is a generic updated record.
type RecordResponse struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// AccountResponse is one account handed out from the pool, with the base and
// table it came from so status writes can target the right place.
type AccountResponse struct {
	ID            string `json:"id"`
	Account       string `json:"account"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	EmailPassword string `json:"email_password"`
	PackageName   string `json:"package_name"`
	DeviceID      string `json:"device_id"`
	BaseID        string `json:"base_id"`
	TableID       string `json:"table_id"`
}

func toAccountResponse(p model.AccountPick) AccountResponse {
	return AccountResponse{
		ID:            p.ID,
		Account:       p.Account,
		Password:      p.Password,
		Email:         p.Email,
		EmailPassword: p.EmailPassword,
		PackageName:   p.PackageName,
		DeviceID:      p.DeviceID,
		BaseID:        p.Source.BaseID,
		TableID:       p.Source.TableID,
	}
}

// WarmupTaskResponse is one pending warm-up task.
type WarmupTaskResponse struct {
	RecordID    string `json:"record_id"`
	Username    string `json:"username"`
	DeviceID    string `json:"device_id"`
	PackageName string `json:"package_name"`
}

func toWarmupTaskResponse(t model.WarmupTask) WarmupTaskResponse {
	return WarmupTaskResponse{
		RecordID:    t.RecordID,
		Username:    t.Username,
		DeviceID:    t.DeviceID,
		PackageName: t.PackageName,
	}
}

// DispatchResponse is one journal row.
type DispatchResponse struct {
	ID        int64  `json:"id"`
	Op        string `json:"op"`
	Queue     string `json:"queue,omitempty"`
	RecordID  string `json:"record_id"`
	Username  string `json:"username,omitempty"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toDispatchResponse(d model.Dispatch) DispatchResponse {
	return DispatchResponse{
		ID:        d.ID,
		Op:        string(d.Op),
		Queue:     d.Queue,
		RecordID:  d.RecordID,
		Username:  d.Username,
		Detail:    d.Detail,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// HealthResponse is the liveness body.
type HealthResponse struct {
	Status string `json:"status"`
}

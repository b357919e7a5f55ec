package airtable_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	atAdapter "github.com/postflowhq/postflow/internal/adapter/driven/airtable"
	"github.com/postflowhq/postflow/internal/domain/model"
)

// rewriteTransport redirects all outgoing requests to the httptest server so
// the adapter's real URL construction (bases, tables, query params) is still
// exercised against api.airtable.com paths.
type rewriteTransport struct {
	target *url.URL
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = t.target.Scheme
	clone.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}

// newTestClient creates a Client whose traffic lands on the given handler.
func newTestClient(t *testing.T, handler http.Handler) *atAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	httpClient := &http.Client{Transport: rewriteTransport{target: target}}
	return atAdapter.NewClientWithHTTPClient("test-token", httpClient)
}

// recordJSON is a helper for building Airtable list/update responses.
type recordJSON struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"createdTime,omitempty"`
	Fields      map[string]any `json:"fields"`
}

type listJSON struct {
	Records []recordJSON `json:"records"`
	Offset  string       `json:"offset,omitempty"`
}

var queueRef = model.TableRef{BaseID: "appQueue", TableID: "tblContent", View: "Unposted"}

func TestFetchScheduled_MapsAndFlattens(t *testing.T) {
	var gotPath, gotView string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotView = r.URL.Query().Get("view")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listJSON{Records: []recordJSON{
			{
				ID: "rec1",
				Fields: map[string]any{
					"Username":      "alexis.posts",
					"Drive URL":     "https://drive.example.com/v1.mp4",
					"Package Name":  []any{"com.example.clone1"},
					"Schedule Date": "2025-04-06T00:00:00.000Z",
				},
			},
			{
				ID: "rec2",
				Fields: map[string]any{
					"Username":     "maddison.posts",
					"Package Name": "com.example.plain",
				},
			},
		}})
	})

	client := newTestClient(t, handler)
	posts, err := client.FetchScheduled(context.Background(), queueRef)

	require.NoError(t, err)
	assert.Equal(t, "/v0/appQueue/tblContent", gotPath)
	assert.Equal(t, "Unposted", gotView)
	require.Len(t, posts, 2)

	assert.Equal(t, "rec1", posts[0].ID)
	assert.Equal(t, "alexis.posts", posts[0].Username)
	assert.Equal(t, "com.example.clone1", posts[0].PackageName)
	assert.Equal(t, "https://drive.example.com/v1.mp4", posts[0].MediaURL)
	assert.Equal(t, "2025-04-06T00:00:00.000Z", posts[0].ScheduleDate)

	// Non-list package name passes through; missing fields read as empty.
	assert.Equal(t, "com.example.plain", posts[1].PackageName)
	assert.Equal(t, "", posts[1].MediaURL)
	assert.Equal(t, "", posts[1].ScheduleDate)
}

func TestFetchScheduled_Paginates(t *testing.T) {
	var offsets []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offsets = append(offsets, r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("offset") == "" {
			json.NewEncoder(w).Encode(listJSON{
				Records: []recordJSON{{ID: "rec1", Fields: map[string]any{"Username": "a"}}},
				Offset:  "page2",
			})
			return
		}
		json.NewEncoder(w).Encode(listJSON{
			Records: []recordJSON{{ID: "rec2", Fields: map[string]any{"Username": "b"}}},
		})
	})

	client := newTestClient(t, handler)
	posts, err := client.FetchScheduled(context.Background(), queueRef)

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, []string{"", "page2"}, offsets)
	assert.Equal(t, "rec1", posts[0].ID)
	assert.Equal(t, "rec2", posts[1].ID)
}

func TestFetchScheduled_APIError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"AUTHENTICATION_REQUIRED"}}`))
	})

	client := newTestClient(t, handler)
	_, err := client.FetchScheduled(context.Background(), queueRef)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "appQueue/tblContent")
}

func TestFetchAccount_EmptyPoolReturnsNil(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listJSON{Records: []recordJSON{}})
	})

	client := newTestClient(t, handler)
	ref := model.TableRef{BaseID: "appArmy", TableID: "tblAccounts", View: "viwUnused"}
	pick, err := client.FetchAccount(context.Background(), ref)

	require.NoError(t, err)
	assert.Nil(t, pick)
}

func TestFetchAccount_MapsAndCarriesSource(t *testing.T) {
	var gotMax string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("maxRecords")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listJSON{Records: []recordJSON{
			{
				ID: "recAcc1",
				Fields: map[string]any{
					"Account":        "warm.account.01",
					"Password":       "hunter2",
					"Email":          "warm01@example.com",
					"Email Password": "hunter3",
					"Package Name":   []any{"com.example.clone2"},
					"Device ID":      []any{"dev-07"},
				},
			},
		}})
	})

	client := newTestClient(t, handler)
	ref := model.TableRef{BaseID: "appArmy", TableID: "tblAccounts", View: "viwUnused"}
	pick, err := client.FetchAccount(context.Background(), ref)

	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Equal(t, "1", gotMax)
	assert.Equal(t, "recAcc1", pick.ID)
	assert.Equal(t, "warm.account.01", pick.Account)
	assert.Equal(t, "hunter2", pick.Password)
	assert.Equal(t, "warm01@example.com", pick.Email)
	assert.Equal(t, "hunter3", pick.EmailPassword)
	assert.Equal(t, "com.example.clone2", pick.PackageName)
	assert.Equal(t, "dev-07", pick.DeviceID)
	assert.Equal(t, ref, pick.Source)
}

func TestFetchWarmupPool_Maps(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listJSON{Records: []recordJSON{
			{
				ID: "recW1",
				Fields: map[string]any{
					"Username":              []any{"warm.account.02"},
					"Device ID":             []any{"dev-03"},
					"Package Name":          []any{"com.example.clone3"},
					"Status":                "Warmup",
					"Daily Warmup Complete": true,
				},
			},
			{
				ID:     "recW2",
				Fields: map[string]any{"Status": "Warmup"},
			},
		}})
	})

	client := newTestClient(t, handler)
	ref := model.TableRef{BaseID: "appArmy", TableID: "tblWarmup", View: "Warmup"}
	tasks, err := client.FetchWarmupPool(context.Background(), ref)

	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "recW1", tasks[0].RecordID)
	assert.Equal(t, "warm.account.02", tasks[0].Username)
	assert.Equal(t, "dev-03", tasks[0].DeviceID)
	assert.Equal(t, "com.example.clone3", tasks[0].PackageName)
	assert.True(t, tasks[0].Complete)

	// Unchecked checkbox is omitted by Airtable and reads as false.
	assert.False(t, tasks[1].Complete)
	assert.Equal(t, "Warmup", tasks[1].Status)
}

func TestUpdateRecordFields_SendsTypecastPatch(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listJSON{Records: []recordJSON{
			{ID: "rec9", Fields: map[string]any{"Posted?": true}},
		}})
	})

	client := newTestClient(t, handler)
	rec, err := client.UpdateRecordFields(context.Background(), queueRef, "rec9", map[string]any{"Posted?": true})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/v0/appQueue/tblContent", gotPath)
	assert.Equal(t, true, gotBody["typecast"])

	records, ok := gotBody["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)

	assert.Equal(t, "rec9", rec.ID)
	assert.Equal(t, true, rec.Fields["Posted?"])
}

func TestFlagFailed_WritesMarkerField(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(listJSON{Records: []recordJSON{
			{ID: "rec5", Fields: map[string]any{"Something Went Wrong": true}},
		}})
	})

	client := newTestClient(t, handler)
	err := client.FlagFailed(context.Background(), queueRef, "rec5")

	require.NoError(t, err)
	records, ok := gotBody["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
	fields, ok := records[0].(map[string]any)["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, fields["Something Went Wrong"])
}

func TestUpdateRecordFields_CanceledContext(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after cancellation")
	})

	client := newTestClient(t, handler)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.UpdateRecordFields(ctx, queueRef, "rec1", map[string]any{"Posted?": true})
	require.ErrorIs(t, err, context.Canceled)
}

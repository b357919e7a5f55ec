// Package airtable implements the RecordStore port using the mehanizm/airtable
// client library.
package airtable

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gregjones/httpcache"
	at "github.com/mehanizm/airtable"

	"github.com/postflowhq/postflow/internal/domain/model"
	"github.com/postflowhq/postflow/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RecordStore = (*Client)(nil)

// Airtable field names. These are wire-format constants owned by the bases
// this service talks to.
const (
	fieldScheduleDate       = "Schedule Date"
	fieldUsername           = "Username"
	fieldDriveURL           = "Drive URL"
	fieldPackageName        = "Package Name"
	fieldSomethingWentWrong = "Something Went Wrong"
	fieldAccount            = "Account"
	fieldPassword           = "Password"
	fieldEmail              = "Email"
	fieldEmailPassword      = "Email Password"
	fieldDeviceID           = "Device ID"
	fieldStatus             = "Status"
	fieldWarmupComplete     = "Daily Warmup Complete"
)

// accountFields is the explicit projection requested for pool fetches.
var accountFields = []string{
	fieldAccount, fieldPassword, fieldEmail, fieldEmailPassword, fieldPackageName, fieldDeviceID,
}

// Client implements the driven.RecordStore port using the mehanizm/airtable
// library. It holds only the authenticated API handle; each operation resolves
// its own table handle from the TableRef it is given, so there is no shared
// mutable state between calls.
type Client struct {
	api *at.Client
}

// NewClient creates a new Airtable API client with the following transport
// stack:
//  1. httpcache (conditional request caching on the underlying transport)
//  2. mehanizm/airtable (REST client with token auth and a request rate
//     limiter capped at rps requests per second)
func NewClient(token string, rps int) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()

	api := at.NewClient(token)
	api.SetCustomClient(cacheTransport.Client())
	if rps > 0 {
		api.SetRateLimit(rps)
	}

	return &Client{api: api}
}

// NewClientWithHTTPClient creates a Client backed by a custom http.Client.
// This constructor is intended for testing, allowing injection of a transport
// that redirects API traffic to an httptest server.
func NewClientWithHTTPClient(token string, httpClient *http.Client) *Client {
	api := at.NewClient(token)
	api.SetCustomClient(httpClient)
	return &Client{api: api}
}

// FetchScheduled returns every record in the queue view projected to
// QueuedPost. It pages through the view until Airtable stops returning an
// offset. The Package Name linked-record field is flattened to its scalar;
// the raw schedule date is retained for the caller's due filter.
func (c *Client) FetchScheduled(ctx context.Context, ref model.TableRef) ([]model.QueuedPost, error) {
	records, err := c.listView(ctx, ref, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled records in %s/%s view %s: %w", ref.BaseID, ref.TableID, ref.View, err)
	}

	posts := make([]model.QueuedPost, 0, len(records))
	for _, rec := range records {
		posts = append(posts, mapQueuedPost(rec))
	}
	return posts, nil
}

// FetchAccount returns at most one record from the pool view, or nil when the
// view is empty. Linked-record fields Package Name and Device ID are
// flattened to scalars.
func (c *Client) FetchAccount(ctx context.Context, ref model.TableRef) (*model.AccountPick, error) {
	records, err := c.listView(ctx, ref, accountFields, 1)
	if err != nil {
		return nil, fmt.Errorf("fetching account from %s/%s view %s: %w", ref.BaseID, ref.TableID, ref.View, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	pick := mapAccountPick(records[0], ref)
	return &pick, nil
}

// FetchWarmupPool returns every record in the warm-up view. Username, Device
// ID, and Package Name are flattened; raw status and completion values are
// retained for the caller's pending filter.
func (c *Client) FetchWarmupPool(ctx context.Context, ref model.TableRef) ([]model.WarmupTask, error) {
	records, err := c.listView(ctx, ref, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("listing warmup records in %s/%s view %s: %w", ref.BaseID, ref.TableID, ref.View, err)
	}

	tasks := make([]model.WarmupTask, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, mapWarmupTask(rec))
	}
	return tasks, nil
}

// UpdateRecordFields patches the given fields on one record, leaving fields
// not named in the payload untouched. Typecast coercion is enabled so string
// values land correctly in checkbox, number, and linked-record columns.
func (c *Client) UpdateRecordFields(ctx context.Context, ref model.TableRef, recordID string, fields map[string]any) (*model.Record, error) {
	table := c.api.GetTable(ref.BaseID, ref.TableID)
	payload := &at.Records{
		Records:  []*at.Record{{ID: recordID, Fields: fields}},
		Typecast: true,
	}

	updated, err := table.UpdateRecordsPartialContext(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("updating record %s in %s/%s: %w", recordID, ref.BaseID, ref.TableID, err)
	}
	if len(updated.Records) == 0 {
		return nil, fmt.Errorf("updating record %s in %s/%s: empty response", recordID, ref.BaseID, ref.TableID)
	}

	rec := updated.Records[0]
	return &model.Record{ID: rec.ID, Fields: rec.Fields}, nil
}

// listView pages through a view and returns the raw library records. fields
// narrows the projection when non-nil; max caps the total when positive. The
// library manages request-level timeouts through the injected http.Client, so
// ctx is only consulted between pages.
func (c *Client) listView(ctx context.Context, ref model.TableRef, fields []string, max int) ([]*at.Record, error) {
	table := c.api.GetTable(ref.BaseID, ref.TableID)

	var all []*at.Record
	offset := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cfg := table.GetRecords().FromView(ref.View)
		if len(fields) > 0 {
			cfg = cfg.ReturnFields(fields...)
		}
		if max > 0 {
			cfg = cfg.MaxRecords(max)
		}
		if offset != "" {
			cfg = cfg.WithOffset(offset)
		}

		page, err := cfg.Do()
		if err != nil {
			return nil, err
		}

		all = append(all, page.Records...)

		slog.Debug("airtable list page",
			"base", ref.BaseID,
			"table", ref.TableID,
			"view", ref.View,
			"count", len(page.Records),
			"more", page.Offset != "",
		)

		if page.Offset == "" || (max > 0 && len(all) >= max) {
			break
		}
		offset = page.Offset
	}

	if max > 0 && len(all) > max {
		all = all[:max]
	}

	return all, nil
}

// mapQueuedPost converts a library record to a domain QueuedPost.
func mapQueuedPost(rec *at.Record) model.QueuedPost {
	return model.QueuedPost{
		ID:           rec.ID,
		Username:     stringField(rec.Fields[fieldUsername]),
		PackageName:  flattenedString(rec.Fields[fieldPackageName]),
		MediaURL:     stringField(rec.Fields[fieldDriveURL]),
		ScheduleDate: stringField(rec.Fields[fieldScheduleDate]),
	}
}

// mapAccountPick converts a library record to a domain AccountPick, carrying
// the source location so callers can write status fields back.
func mapAccountPick(rec *at.Record, ref model.TableRef) model.AccountPick {
	return model.AccountPick{
		ID:            rec.ID,
		Account:       stringField(rec.Fields[fieldAccount]),
		Password:      stringField(rec.Fields[fieldPassword]),
		Email:         stringField(rec.Fields[fieldEmail]),
		EmailPassword: stringField(rec.Fields[fieldEmailPassword]),
		PackageName:   flattenedString(rec.Fields[fieldPackageName]),
		DeviceID:      flattenedString(rec.Fields[fieldDeviceID]),
		Source:        ref,
	}
}

// mapWarmupTask converts a library record to a domain WarmupTask.
func mapWarmupTask(rec *at.Record) model.WarmupTask {
	return model.WarmupTask{
		RecordID:    rec.ID,
		Username:    flattenedString(rec.Fields[fieldUsername]),
		DeviceID:    flattenedString(rec.Fields[fieldDeviceID]),
		PackageName: flattenedString(rec.Fields[fieldPackageName]),
		Status:      stringField(rec.Fields[fieldStatus]),
		Complete:    boolField(rec.Fields[fieldWarmupComplete]),
	}
}

// FlagFailed sets the "Something Went Wrong" checkbox on one record.
func (c *Client) FlagFailed(ctx context.Context, ref model.TableRef, recordID string) error {
	_, err := c.UpdateRecordFields(ctx, ref, recordID, map[string]any{fieldSomethingWentWrong: true})
	return err
}

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/postflowhq/postflow/internal/domain/model"
)

// Views are fixed per dataset kind, matching how the Airtable bases are laid out.
const (
	contentView = "Unposted"
	warmupView  = "Warmup"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	AirtableToken string
	AirtableRPS   int
	Queues        map[string]model.TableRef
	Warmup        model.TableRef
	AccountPool   model.TableRef
	Timezone      *time.Location
	ListenAddr    string
	DBPath        string

	queueNames []string // POSTFLOW_QUEUES declaration order.
}

// HasWarmup returns true when a warm-up dataset is configured.
func (c *Config) HasWarmup() bool {
	return c.Warmup.Complete()
}

// HasAccountPool returns true when a default active-account pool is configured.
// The pool location can also be supplied per request, so this is optional.
func (c *Config) HasAccountPool() bool {
	return c.AccountPool.Complete()
}

// QueueNames returns the configured queue names in declaration order.
func (c *Config) QueueNames() []string {
	if c.queueNames == nil {
		return []string{}
	}
	return c.queueNames
}

// Load reads configuration from environment variables and returns a validated
// Config. POSTFLOW_AIRTABLE_TOKEN is required; missing it is a startup error.
// Content queues are declared as a comma list in POSTFLOW_QUEUES; each named
// queue requires POSTFLOW_QUEUE_<NAME>_BASE_ID and _TABLE_ID (the view is
// fixed to "Unposted"). Warm-up and account-pool locations are optional sets.
// Optional variables with defaults: POSTFLOW_TIMEZONE (America/Bogota),
// POSTFLOW_AIRTABLE_RPS (4), POSTFLOW_LISTEN_ADDR (127.0.0.1:8080),
// POSTFLOW_DB_PATH (postflow.db).
func Load() (*Config, error) {
	token := os.Getenv("POSTFLOW_AIRTABLE_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("POSTFLOW_AIRTABLE_TOKEN is required")
	}

	rps := 4
	if v, ok := os.LookupEnv("POSTFLOW_AIRTABLE_RPS"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("POSTFLOW_AIRTABLE_RPS has invalid value %q", v)
		}
		rps = parsed
	}

	tzName := "America/Bogota"
	if v, ok := os.LookupEnv("POSTFLOW_TIMEZONE"); ok && v != "" {
		tzName = v
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("POSTFLOW_TIMEZONE has invalid zone %q: %w", tzName, err)
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("POSTFLOW_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "postflow.db"
	if v, ok := os.LookupEnv("POSTFLOW_DB_PATH"); ok {
		dbPath = v
	}

	queues := map[string]model.TableRef{}
	var queueNames []string
	if v, ok := os.LookupEnv("POSTFLOW_QUEUES"); ok && v != "" {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			ref, err := queueRef(name)
			if err != nil {
				return nil, err
			}
			queues[name] = ref
			queueNames = append(queueNames, name)
		}
	}

	warmup, err := warmupRef()
	if err != nil {
		return nil, err
	}

	pool, err := poolRef()
	if err != nil {
		return nil, err
	}

	return &Config{
		AirtableToken: token,
		AirtableRPS:   rps,
		Queues:        queues,
		Warmup:        warmup,
		AccountPool:   pool,
		Timezone:      loc,
		ListenAddr:    listenAddr,
		DBPath:        dbPath,
		queueNames:    queueNames,
	}, nil
}

// queueRef resolves one named content queue. Both identifiers are required
// once the queue appears in POSTFLOW_QUEUES.
func queueRef(name string) (model.TableRef, error) {
	key := envKey(name)
	base := os.Getenv("POSTFLOW_QUEUE_" + key + "_BASE_ID")
	table := os.Getenv("POSTFLOW_QUEUE_" + key + "_TABLE_ID")
	if base == "" || table == "" {
		return model.TableRef{}, fmt.Errorf(
			"queue %q requires POSTFLOW_QUEUE_%s_BASE_ID and POSTFLOW_QUEUE_%s_TABLE_ID",
			name, key, key,
		)
	}
	return model.TableRef{BaseID: base, TableID: table, View: contentView}, nil
}

// warmupRef resolves the warm-up dataset. Setting only one of the pair is a
// configuration error; setting neither disables warm-up serving.
func warmupRef() (model.TableRef, error) {
	base := os.Getenv("POSTFLOW_WARMUP_BASE_ID")
	table := os.Getenv("POSTFLOW_WARMUP_TABLE_ID")
	if base == "" && table == "" {
		return model.TableRef{}, nil
	}
	if base == "" || table == "" {
		return model.TableRef{}, fmt.Errorf("POSTFLOW_WARMUP_BASE_ID and POSTFLOW_WARMUP_TABLE_ID must be set together")
	}
	return model.TableRef{BaseID: base, TableID: table, View: warmupView}, nil
}

// poolRef resolves the default active-account pool, which carries its own
// view identifier instead of a fixed view name.
func poolRef() (model.TableRef, error) {
	base := os.Getenv("POSTFLOW_ACCOUNTS_BASE_ID")
	table := os.Getenv("POSTFLOW_ACCOUNTS_TABLE_ID")
	view := os.Getenv("POSTFLOW_ACCOUNTS_VIEW_ID")
	if base == "" && table == "" && view == "" {
		return model.TableRef{}, nil
	}
	if base == "" || table == "" || view == "" {
		return model.TableRef{}, fmt.Errorf(
			"POSTFLOW_ACCOUNTS_BASE_ID, POSTFLOW_ACCOUNTS_TABLE_ID, and POSTFLOW_ACCOUNTS_VIEW_ID must be set together")
	}
	return model.TableRef{BaseID: base, TableID: table, View: view}, nil
}

// envKey converts a queue name to its env var component: upper-cased with
// hyphens folded to underscores ("ig-army" -> "IG_ARMY").
func envKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

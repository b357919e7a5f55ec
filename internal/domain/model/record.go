package model

// Record is an opaque Airtable record: a string ID plus a loose mapping of
// field name to value. Airtable owns the schema; this service only reads and
// writes a subset of fields.
type Record struct {
	ID     string
	Fields map[string]any
}

// TableRef identifies one logical dataset in Airtable: a base, a table, and a
// named view (a pre-filtered subset of the table's records).
type TableRef struct {
	BaseID  string
	TableID string
	View    string
}

// IsZero reports whether the ref has no location at all.
func (r TableRef) IsZero() bool {
	return r.BaseID == "" && r.TableID == "" && r.View == ""
}

// Complete reports whether the ref names a base, a table, and a view.
func (r TableRef) Complete() bool {
	return r.BaseID != "" && r.TableID != "" && r.View != ""
}

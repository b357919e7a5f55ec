package airtable

// Airtable represents linked-record fields as one-element JSON arrays. The
// helpers here collapse those back to scalars so the rest of the application
// never sees list-typed values.

// flattenLinked collapses a linked-record value to its single element.
// Non-list values pass through unchanged; empty lists normalize to nil.
func flattenLinked(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// flattenedString flattens a linked-record value and returns it as a string.
// Non-string results (including nil) yield "".
func flattenedString(v any) string {
	s, _ := flattenLinked(v).(string)
	return s
}

// stringField returns a field value as a string, or "" when absent or not a
// string.
func stringField(v any) string {
	s, _ := v.(string)
	return s
}

// boolField returns a field value as a bool. Airtable omits unchecked
// checkboxes entirely, so absent values read as false.
func boolField(v any) bool {
	b, _ := v.(bool)
	return b
}

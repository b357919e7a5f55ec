package model

import "strings"

// QueuedPost is a content-queue record projected to the fields the posting
// agents consume. ScheduleDate keeps the raw stored value (Airtable returns
// either an ISO date-time string like "2025-04-06T00:00:00.000Z" or a bare
// date) so callers can apply the due-today filter themselves.
type QueuedPost struct {
	ID           string
	Username     string
	PackageName  string
	MediaURL     string
	ScheduleDate string
}

// ScheduledDay returns the calendar-day portion ("YYYY-MM-DD") of the stored
// schedule date by truncating at the first 'T'. Date-only values pass through
// unchanged; an empty schedule date yields "".
func (p QueuedPost) ScheduledDay() string {
	day, _, _ := strings.Cut(p.ScheduleDate, "T")
	return day
}

// IsDueOn reports whether the post is scheduled for the given day, where day
// is a "YYYY-MM-DD" string. Posts without a schedule date are never due.
func (p QueuedPost) IsDueOn(day string) bool {
	return p.ScheduleDate != "" && p.ScheduledDay() == day
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduledDay(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"iso datetime", "2025-04-06T00:00:00.000Z", "2025-04-06"},
		{"date only", "2025-04-06", "2025-04-06"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := QueuedPost{ScheduleDate: tt.raw}
			assert.Equal(t, tt.expected, p.ScheduledDay())
		})
	}
}

func TestIsDueOn(t *testing.T) {
	p := QueuedPost{ScheduleDate: "2025-04-06T00:00:00.000Z"}

	assert.True(t, p.IsDueOn("2025-04-06"))
	assert.False(t, p.IsDueOn("2025-04-05"))

	// Missing schedule date is never due, even against an empty day.
	empty := QueuedPost{}
	assert.False(t, empty.IsDueOn("2025-04-06"))
	assert.False(t, empty.IsDueOn(""))
}

func TestWarmupTaskPending(t *testing.T) {
	assert.True(t, WarmupTask{Status: WarmupStatus}.Pending())
	assert.False(t, WarmupTask{Status: WarmupStatus, Complete: true}.Pending())
	assert.False(t, WarmupTask{Status: "Active"}.Pending())
	assert.False(t, WarmupTask{}.Pending())
}

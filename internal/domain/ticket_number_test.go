package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func TestNextTicketNumber(t *testing.T) {
	day := time.Date(2025, time.January, 1, 9, 0, 0, 0, jakarta)

	tests := []struct {
		name string
		last string
		now  time.Time
		want string
	}{
		{name: "first of the day", last: "", now: day, want: "AN01012501"},
		{name: "same day increments", last: "AN01012501", now: day, want: "AN01012502"},
		{name: "keeps padding", last: "AN01012509", now: day, want: "AN01012510"},
		{name: "grows past two digits", last: "AN01012599", now: day, want: "AN010125100"},
		{name: "previous day resets", last: "AN31122407", now: day, want: "AN01012501"},
		{name: "garbage suffix restarts", last: "AN010125xx", now: day, want: "AN01012501"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextTicketNumber(tc.last, tc.now, jakarta))
		})
	}
}

func TestTicketNumberPrefixUsesZone(t *testing.T) {
	// 18:30 UTC on Dec 31 is already Jan 1 in Jakarta.
	utc := time.Date(2024, time.December, 31, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "AN010125", TicketNumberPrefix(utc, jakarta))
	assert.Equal(t, "AN311224", TicketNumberPrefix(utc, time.UTC))
}

func TestSequentialSubmissionsAcrossDayBoundary(t *testing.T) {
	first := NextTicketNumber("", time.Date(2025, time.March, 4, 23, 58, 0, 0, jakarta), jakarta)
	second := NextTicketNumber(first, time.Date(2025, time.March, 4, 23, 59, 0, 0, jakarta), jakarta)
	third := NextTicketNumber(second, time.Date(2025, time.March, 5, 0, 1, 0, 0, jakarta), jakarta)

	assert.Equal(t, "AN04032501", first)
	assert.Equal(t, "AN04032502", second)
	assert.Equal(t, "AN05032501", third)
}

package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TicketNumberPrefix returns the daily prefix "AN<DDMMYY>" for now in loc.
func TicketNumberPrefix(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return "AN" + now.Format("020106")
}

// NextTicketNumber derives the number following last for the day of now.
// last is the highest number already issued with today's prefix, or empty.
// A suffix that does not parse restarts the sequence at 01.
func NextTicketNumber(last string, now time.Time, loc *time.Location) string {
	prefix := TicketNumberPrefix(now, loc)
	next := 1
	if suffix, ok := strings.CutPrefix(last, prefix); ok && last != "" {
		if n, err := strconv.Atoi(suffix); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s%02d", prefix, next)
}

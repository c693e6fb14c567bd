package domain

import "time"

// Note is free text attached to a thread and optionally to one entry.
type Note struct {
	ID        int64
	ThreadID  int64
	EntryID   *int64
	UserID    int64
	Body      string
	CreatedAt time.Time
}

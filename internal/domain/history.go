package domain

import "time"

// History is an immutable audit row written when stage or status changes.
type History struct {
	ID           int64
	ThreadNumber string
	CreatedAt    time.Time
	OrderNumber  string
	Status       EntryStatus
	Stage        string
	AgencyName   string
	Note         string
	CreatedBy    int64
}

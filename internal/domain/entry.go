package domain

import (
	"fmt"
	"strconv"
	"time"
)

// EntryStatus is the work state of a single entry. The numeric values match
// the legacy string codes "1".."5" used in storage.
type EntryStatus uint8

const (
	EntryStatusOpen      EntryStatus = 1
	EntryStatusExtension EntryStatus = 2
	EntryStatusObjection EntryStatus = 3
	EntryStatusClosed    EntryStatus = 4
	EntryStatusReopened  EntryStatus = 5
)

var entryStatusNames = map[EntryStatus]string{
	EntryStatusOpen:      "open",
	EntryStatusExtension: "extension",
	EntryStatusObjection: "objection",
	EntryStatusClosed:    "closed",
	EntryStatusReopened:  "reopened",
}

// Valid reports whether s is one of the known codes.
func (s EntryStatus) Valid() bool {
	_, ok := entryStatusNames[s]
	return ok
}

// Code returns the legacy storage code.
func (s EntryStatus) Code() string {
	return strconv.Itoa(int(s))
}

func (s EntryStatus) String() string {
	if name, ok := entryStatusNames[s]; ok {
		return name
	}
	return "unknown(" + s.Code() + ")"
}

// MarshalText emits the legacy code so API payloads stay aligned with stored data.
func (s EntryStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid entry status %d", s)
	}
	return []byte(s.Code()), nil
}

// UnmarshalText accepts the legacy code.
func (s *EntryStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseEntryStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseEntryStatus converts a legacy code ("1".."5") into an EntryStatus.
func ParseEntryStatus(code string) (EntryStatus, error) {
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 || n > 255 {
		return 0, fmt.Errorf("invalid entry status %q", code)
	}
	s := EntryStatus(n)
	if !s.Valid() {
		return 0, fmt.Errorf("invalid entry status %q", code)
	}
	return s, nil
}

// DefaultSLA is the countdown every new entry starts with.
const DefaultSLA = 10

// StageEscalatedToQC marks an entry handed over to a QC reviewer.
const StageEscalatedToQC = "Eskalasi ke QC"

// Stage values that derive a secondary stage marker.
const (
	StageFollowUp     = "Follow Up"
	StageQCEscalation = "Eskalasi QC"
	StageQCProcessing = "Proses eskalasi QC"
)

// CaseStatusValid is the staff-side case confirmation marker.
const CaseStatusValid = "valid"

// Entry is one versioned record of work within a thread.
type Entry struct {
	ID                   int64
	ThreadID             int64
	Channel              string
	Category             string
	ComplaintType        string
	ComplaintDetail      string
	ReportedAt           time.Time
	CustomerName         string
	Email                string
	PrimaryPhone         string
	ContactPhone         string
	NIK                  string
	OrderNo              string
	Description          string
	InputBy              *int64
	Status               EntryStatus
	SLA                  int
	FollowUpResult       string
	FeedbackResult       string
	CustomerConfirmation string
	Notes                string
	CollectorName        string
	AgencyName           string
	BucketName           string
	Punishment           string
	PunishmentResult     string
	ChatEvidence         string
	Stage                string
	Stage2               string
	CreatedTime          time.Time
	Chronology           string
	CaseStatus           string
	Documents            string
	Note                 string
	NoteDate             string
	QCDescription        string
	QCFiles              string
}

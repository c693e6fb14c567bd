package domain

import "time"

// ThreadStatus is the overall state of a complaint case.
type ThreadStatus string

const (
	// ThreadStatusUnset covers legacy rows stored with a NULL status; it is
	// treated the same as active.
	ThreadStatusUnset    ThreadStatus = ""
	ThreadStatusActive   ThreadStatus = "aktif"
	ThreadStatusClosed   ThreadStatus = "close"
	ThreadStatusReopened ThreadStatus = "reopen"
)

// IsOpen reports whether the thread is neither closed nor reopened.
func (s ThreadStatus) IsOpen() bool {
	return s != ThreadStatusClosed && s != ThreadStatusReopened
}

// LabelCase is the QC validity verdict on a thread.
type LabelCase string

const (
	LabelCaseNone     LabelCase = ""
	LabelCaseValid    LabelCase = "valid"
	LabelCaseNotValid LabelCase = "tidak valid"
	LabelCaseReopen   LabelCase = "reopen"
)

// IsVerdict reports whether l is a label QC may hand out.
func (l LabelCase) IsVerdict() bool {
	return l == LabelCaseValid || l == LabelCaseNotValid
}

// Thread is one complaint case identified by its ticket number.
type Thread struct {
	ID           int64
	Number       string
	Status       ThreadStatus
	QCAssigneeID *int64
	LabelCase    LabelCase
	ChangeDate   time.Time
	CreatedAt    time.Time
	ClosedAt     *time.Time
}

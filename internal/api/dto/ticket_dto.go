package dto

import (
	"time"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// SubmitComplaintRequest opens a new thread.
type SubmitComplaintRequest struct {
	Channel         string `json:"channel" validate:"required"`
	Category        string `json:"category"`
	ComplaintType   string `json:"complaint_type" validate:"required"`
	ComplaintDetail string `json:"complaint_detail"`
	ReportedOn      string `json:"reported_on" validate:"omitempty,datetime=2006-01-02"`
	CustomerName    string `json:"customer_name" validate:"required"`
	Email           string `json:"email" validate:"omitempty,email"`
	PrimaryPhone    string `json:"primary_phone"`
	ContactPhone    string `json:"contact_phone"`
	NIK             string `json:"nik"`
	AgencyName      string `json:"agency_name"`
	CollectorName   string `json:"collector_name"`
	BucketName      string `json:"bucket_name"`
	OrderNo         string `json:"order_no"`
	Description     string `json:"description"`
}

// FollowUpRequest adds an order to an existing thread.
type FollowUpRequest struct {
	SourceEntryID int64  `json:"source_entry_id" validate:"required,gt=0"`
	OrderNo       string `json:"order_no"`
	AgencyName    string `json:"agency_name"`
	CollectorName string `json:"collector_name"`
	BucketName    string `json:"bucket_name"`
	Description   string `json:"description" validate:"required"`
	ReportedOn    string `json:"reported_on" validate:"required,datetime=2006-01-02"`
	Reopen        bool   `json:"reopen"`
}

// StageRequest advances the stage of one entry.
type StageRequest struct {
	Stage          string `json:"stage"`
	FollowUpNote   string `json:"follow_up_note"`
	EscalationDate string `json:"escalation_date"`
	EscalationDesc string `json:"escalation_desc"`
	QCUserID       *int64 `json:"qc_user_id"`
	AgencyName     string `json:"agency_name"`
	BucketName     string `json:"bucket_name"`
	CollectorName  string `json:"collector_name"`
	CustomerName   string `json:"customer_name"`
	NIK            string `json:"nik"`
	PrimaryPhone   string `json:"primary_phone"`
	ContactPhone   string `json:"contact_phone"`
	Email          string `json:"email"`
	Description    string `json:"description"`
	OrderNo        string `json:"order_no"`
}

// ReopenStageRequest advances an entry of a reopened thread.
type ReopenStageRequest struct {
	Stage          string `json:"stage" validate:"required"`
	Status         string `json:"status" validate:"required"`
	FollowUpNote   string `json:"follow_up_note"`
	EscalationDate string `json:"escalation_date"`
	EscalationDesc string `json:"escalation_desc"`
}

// QCVerdictRequest records a reviewer's verdict on an entry.
type QCVerdictRequest struct {
	Description string   `json:"description"`
	Files       []string `json:"files"`
	Label       string   `json:"label" validate:"required"`
}

// QCFeedbackRequest writes reviewer feedback across a thread.
type QCFeedbackRequest struct {
	Description string   `json:"description"`
	Files       []string `json:"files"`
}

// StatusUpdateRequest bulk-sets entry status on a thread.
type StatusUpdateRequest struct {
	Status int `json:"status" validate:"required"`
}

// ComplaintDetailsRequest rewrites the complaint fields of a thread.
type ComplaintDetailsRequest struct {
	ComplaintType   string   `json:"complaint_type"`
	ComplaintDetail string   `json:"complaint_detail"`
	Chronology      string   `json:"chronology"`
	ChatEvidence    []string `json:"chat_evidence"`
}

// ContactRequest adds an alternate contact.
type ContactRequest struct {
	FullName string `json:"full_name"`
	NIK      string `json:"nik"`
	Phone    string `json:"phone"`
	Phone2   string `json:"phone_2"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// NoteRequest attaches a note to a thread.
type NoteRequest struct {
	EntryID *int64 `json:"entry_id"`
	Body    string `json:"body"`
}

// EntryNoteRequest sets the note of an entry.
type EntryNoteRequest struct {
	Note string `json:"note" validate:"required"`
}

// DocumentsRequest appends filenames to an entry.
type DocumentsRequest struct {
	Files []string `json:"files" validate:"required,min=1"`
}

// EntryResponse payload.
type EntryResponse struct {
	ID                   int64              `json:"id"`
	ThreadID             int64              `json:"thread_id"`
	Channel              string             `json:"channel"`
	Category             string             `json:"category"`
	ComplaintType        string             `json:"complaint_type"`
	ComplaintDetail      string             `json:"complaint_detail"`
	ReportedAt           time.Time          `json:"reported_at"`
	CustomerName         string             `json:"customer_name"`
	Email                string             `json:"email"`
	PrimaryPhone         string             `json:"primary_phone"`
	ContactPhone         string             `json:"contact_phone"`
	NIK                  string             `json:"nik"`
	OrderNo              string             `json:"order_no"`
	Description          string             `json:"description"`
	InputBy              *int64             `json:"input_by"`
	Status               domain.EntryStatus `json:"status"`
	StatusName           string             `json:"status_name"`
	SLA                  int                `json:"sla"`
	FollowUpResult       string             `json:"follow_up_result"`
	FeedbackResult       string             `json:"feedback_result"`
	CustomerConfirmation string             `json:"customer_confirmation"`
	Notes                string             `json:"notes"`
	CollectorName        string             `json:"collector_name"`
	AgencyName           string             `json:"agency_name"`
	BucketName           string             `json:"bucket_name"`
	Punishment           string             `json:"punishment"`
	PunishmentResult     string             `json:"punishment_result"`
	ChatEvidence         []string           `json:"chat_evidence"`
	Stage                string             `json:"stage"`
	Stage2               string             `json:"stage_2"`
	CreatedTime          time.Time          `json:"created_time"`
	Chronology           string             `json:"chronology"`
	CaseStatus           string             `json:"case_status"`
	Documents            []string           `json:"documents"`
	Note                 string             `json:"note"`
	NoteDate             string             `json:"note_date"`
	QCDescription        string             `json:"qc_description"`
	QCFiles              []string           `json:"qc_files"`
}

// ThreadResponse payload.
type ThreadResponse struct {
	ID           int64      `json:"id"`
	Number       string     `json:"number"`
	Status       string     `json:"status"`
	QCAssigneeID *int64     `json:"qc_assignee_id"`
	LabelCase    string     `json:"label_case"`
	ChangeDate   time.Time  `json:"change_date"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at"`
}

// RepresentativeResponse is one row of a list view.
type RepresentativeResponse struct {
	Thread     ThreadResponse `json:"thread"`
	Entry      EntryResponse  `json:"entry"`
	EntryCount int            `json:"entry_count"`
}

// PageMeta mirrors pagination.Page without the items.
type PageMeta struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
	PrevNum int  `json:"prev_num"`
	NextNum int  `json:"next_num"`
}

// ListResponse is one page of a list view.
type ListResponse struct {
	Items []RepresentativeResponse `json:"items"`
	Meta  PageMeta                 `json:"meta"`
}

// ContactResponse payload.
type ContactResponse struct {
	ID       int64  `json:"id"`
	EntryID  int64  `json:"entry_id"`
	FullName string `json:"full_name"`
	NIK      string `json:"nik"`
	Phone    string `json:"phone"`
	Phone2   string `json:"phone_2"`
	Email    string `json:"email"`
}

// NoteResponse payload.
type NoteResponse struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	EntryID   *int64    `json:"entry_id"`
	UserID    int64     `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ThreadDetailResponse is a thread with its entries, notes and contacts.
type ThreadDetailResponse struct {
	Thread   ThreadResponse              `json:"thread"`
	Entries  []EntryResponse             `json:"entries"`
	Notes    []NoteResponse              `json:"notes"`
	Contacts map[int64][]ContactResponse `json:"contacts"`
}

// HistoryResponse payload.
type HistoryResponse struct {
	ID           int64     `json:"id"`
	ThreadNumber string    `json:"thread_number"`
	CreatedAt    time.Time `json:"created_at"`
	OrderNumber  string    `json:"order_number"`
	Status       string    `json:"status"`
	Stage        string    `json:"stage"`
	AgencyName   string    `json:"agency_name"`
	Note         string    `json:"note"`
	CreatedBy    int64     `json:"created_by"`
}

// HistoryListResponse is one page of audit rows.
type HistoryListResponse struct {
	Items []HistoryResponse `json:"items"`
	Meta  PageMeta          `json:"meta"`
}

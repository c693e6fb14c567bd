package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// ComplaintDetails are the complaint fields rewritten across a whole thread.
type ComplaintDetails struct {
	ComplaintType   string
	ComplaintDetail string
	Chronology      string
	ChatEvidence    string
}

// BackfillResult counts the blank markers normalized by one backfill pass.
type BackfillResult struct {
	Entries int64
}

// EntryRepository encapsulates entry persistence. Every write also stamps
// change_date on the parent thread within the same statement.
type EntryRepository interface {
	Create(ctx context.Context, entry *domain.Entry) error
	Update(ctx context.Context, entry *domain.Entry) error
	GetByID(ctx context.Context, id int64) (*domain.Entry, error)
	ListByThread(ctx context.Context, threadID int64) ([]domain.Entry, error)
	ListByThreads(ctx context.Context, threadIDs []int64) (map[int64][]domain.Entry, error)
	ListStages(ctx context.Context) ([]string, error)
	SetStatusByThread(ctx context.Context, threadID int64, status domain.EntryStatus) (int64, error)
	SetQCFeedbackByThread(ctx context.Context, threadID int64, description, files string) (int64, error)
	SetComplaintDetailsByThread(ctx context.Context, threadID int64, details ComplaintDetails) (int64, error)
	DecaySLA(ctx context.Context) (int64, error)
	BackfillBlankFields(ctx context.Context) (BackfillResult, error)
}

type entryRepository struct {
	db DBTX
}

// NewEntryRepository instantiates repository.
func NewEntryRepository(db DBTX) EntryRepository {
	return &entryRepository{db: db}
}

const entryColumns = `id, thread_id, channel, category, complaint_type, complaint_detail, reported_at,
               customer_name, email, primary_phone, contact_phone, nik, order_no, description,
               input_by, status_entry, sla, follow_up_result, feedback_result, customer_confirmation,
               notes, collector_name, COALESCE(agency_name, ''), COALESCE(bucket_name, ''), punishment,
               punishment_result, chat_evidence, stage, stage_2, created_time, chronology, case_status,
               documents, note, note_date, qc_description, qc_files`

// stampThreads wraps an UPDATE on ticket_entries so the touched threads get
// a fresh change_date and the number of updated entries is returned.
func stampThreads(update string) string {
	return `WITH upd AS (` + update + ` RETURNING thread_id),
        touch AS (UPDATE ticket_threads SET change_date=NOW() WHERE id IN (SELECT thread_id FROM upd))
        SELECT COUNT(*) FROM upd`
}

func (r *entryRepository) Create(ctx context.Context, entry *domain.Entry) error {
	const query = `
        WITH ins AS (
            INSERT INTO ticket_entries (thread_id, channel, category, complaint_type, complaint_detail, reported_at,
                customer_name, email, primary_phone, contact_phone, nik, order_no, description,
                input_by, status_entry, sla, follow_up_result, feedback_result, customer_confirmation,
                notes, collector_name, agency_name, bucket_name, punishment,
                punishment_result, chat_evidence, stage, stage_2, created_time, chronology, case_status,
                documents, note, note_date, qc_description, qc_files)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
                    $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36)
            RETURNING id, thread_id
        ),
        touch AS (UPDATE ticket_threads SET change_date=NOW() WHERE id IN (SELECT thread_id FROM ins))
        SELECT id FROM ins`
	return r.db.QueryRow(ctx, query,
		entry.ThreadID,
		entry.Channel,
		entry.Category,
		entry.ComplaintType,
		entry.ComplaintDetail,
		entry.ReportedAt,
		entry.CustomerName,
		entry.Email,
		entry.PrimaryPhone,
		entry.ContactPhone,
		entry.NIK,
		entry.OrderNo,
		entry.Description,
		entry.InputBy,
		entry.Status.Code(),
		entry.SLA,
		entry.FollowUpResult,
		entry.FeedbackResult,
		entry.CustomerConfirmation,
		entry.Notes,
		entry.CollectorName,
		entry.AgencyName,
		entry.BucketName,
		entry.Punishment,
		entry.PunishmentResult,
		entry.ChatEvidence,
		entry.Stage,
		entry.Stage2,
		entry.CreatedTime,
		entry.Chronology,
		entry.CaseStatus,
		entry.Documents,
		entry.Note,
		entry.NoteDate,
		entry.QCDescription,
		entry.QCFiles,
	).Scan(&entry.ID)
}

func (r *entryRepository) Update(ctx context.Context, entry *domain.Entry) error {
	query := stampThreads(`
        UPDATE ticket_entries SET channel=$1, category=$2, complaint_type=$3, complaint_detail=$4, reported_at=$5,
            customer_name=$6, email=$7, primary_phone=$8, contact_phone=$9, nik=$10, order_no=$11, description=$12,
            status_entry=$13, sla=$14, follow_up_result=$15, feedback_result=$16, customer_confirmation=$17,
            notes=$18, collector_name=$19, agency_name=$20, bucket_name=$21, punishment=$22, punishment_result=$23,
            chat_evidence=$24, stage=$25, stage_2=$26, chronology=$27, case_status=$28, documents=$29,
            note=$30, note_date=$31, qc_description=$32, qc_files=$33
        WHERE id=$34`)
	updated, err := r.count(ctx, query,
		entry.Channel,
		entry.Category,
		entry.ComplaintType,
		entry.ComplaintDetail,
		entry.ReportedAt,
		entry.CustomerName,
		entry.Email,
		entry.PrimaryPhone,
		entry.ContactPhone,
		entry.NIK,
		entry.OrderNo,
		entry.Description,
		entry.Status.Code(),
		entry.SLA,
		entry.FollowUpResult,
		entry.FeedbackResult,
		entry.CustomerConfirmation,
		entry.Notes,
		entry.CollectorName,
		entry.AgencyName,
		entry.BucketName,
		entry.Punishment,
		entry.PunishmentResult,
		entry.ChatEvidence,
		entry.Stage,
		entry.Stage2,
		entry.Chronology,
		entry.CaseStatus,
		entry.Documents,
		entry.Note,
		entry.NoteDate,
		entry.QCDescription,
		entry.QCFiles,
		entry.ID,
	)
	if err != nil {
		return err
	}
	if updated == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *entryRepository) GetByID(ctx context.Context, id int64) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ticket_entries WHERE id=$1`
	return scanEntry(r.db.QueryRow(ctx, query, id))
}

func (r *entryRepository) ListByThread(ctx context.Context, threadID int64) ([]domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ticket_entries WHERE thread_id=$1 ORDER BY created_time ASC, id ASC`
	rows, err := r.db.Query(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entry)
	}
	return result, rows.Err()
}

// ListByThreads loads the entries of many threads in one query, grouped by
// thread id and ordered by created_time within each group.
func (r *entryRepository) ListByThreads(ctx context.Context, threadIDs []int64) (map[int64][]domain.Entry, error) {
	result := make(map[int64][]domain.Entry, len(threadIDs))
	if len(threadIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + entryColumns + ` FROM ticket_entries WHERE thread_id = ANY($1) ORDER BY thread_id, created_time ASC, id ASC`
	rows, err := r.db.Query(ctx, query, threadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result[entry.ThreadID] = append(result[entry.ThreadID], *entry)
	}
	return result, rows.Err()
}

func (r *entryRepository) ListStages(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT stage FROM ticket_entries WHERE stage <> '' ORDER BY stage`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []string{}
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

func (r *entryRepository) SetStatusByThread(ctx context.Context, threadID int64, status domain.EntryStatus) (int64, error) {
	query := stampThreads(`UPDATE ticket_entries SET status_entry=$1 WHERE thread_id=$2`)
	return r.count(ctx, query, status.Code(), threadID)
}

func (r *entryRepository) SetQCFeedbackByThread(ctx context.Context, threadID int64, description, files string) (int64, error) {
	query := stampThreads(`UPDATE ticket_entries SET qc_description=$1, qc_files=$2 WHERE thread_id=$3`)
	return r.count(ctx, query, description, files, threadID)
}

func (r *entryRepository) SetComplaintDetailsByThread(ctx context.Context, threadID int64, details ComplaintDetails) (int64, error) {
	query := stampThreads(`
        UPDATE ticket_entries SET complaint_type=$1, complaint_detail=$2, chronology=$3, chat_evidence=$4
        WHERE thread_id=$5`)
	return r.count(ctx, query,
		details.ComplaintType,
		details.ComplaintDetail,
		details.Chronology,
		details.ChatEvidence,
		threadID,
	)
}

// DecaySLA takes one day off every running countdown. Closed entries and
// exhausted countdowns are left alone so sla never drops below zero.
func (r *entryRepository) DecaySLA(ctx context.Context) (int64, error) {
	query := stampThreads(`UPDATE ticket_entries SET sla = sla - 1 WHERE sla > 0 AND status_entry <> '4'`)
	return r.count(ctx, query)
}

// BackfillBlankFields normalizes NULL, "-" and "None" agency and bucket
// names to the empty string.
func (r *entryRepository) BackfillBlankFields(ctx context.Context) (BackfillResult, error) {
	query := stampThreads(`
        UPDATE ticket_entries SET
            agency_name = CASE WHEN agency_name IS NULL OR agency_name IN ('-', 'None') THEN '' ELSE agency_name END,
            bucket_name = CASE WHEN bucket_name IS NULL OR bucket_name IN ('-', 'None') THEN '' ELSE bucket_name END
        WHERE agency_name IS NULL OR agency_name IN ('-', 'None')
           OR bucket_name IS NULL OR bucket_name IN ('-', 'None')`)
	updated, err := r.count(ctx, query)
	if err != nil {
		return BackfillResult{}, err
	}
	return BackfillResult{Entries: updated}, nil
}

func (r *entryRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var updated int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&updated); err != nil {
		return 0, err
	}
	return updated, nil
}

func scanEntry(row scanner) (*domain.Entry, error) {
	var (
		entry  domain.Entry
		status string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.ThreadID,
		&entry.Channel,
		&entry.Category,
		&entry.ComplaintType,
		&entry.ComplaintDetail,
		&entry.ReportedAt,
		&entry.CustomerName,
		&entry.Email,
		&entry.PrimaryPhone,
		&entry.ContactPhone,
		&entry.NIK,
		&entry.OrderNo,
		&entry.Description,
		&entry.InputBy,
		&status,
		&entry.SLA,
		&entry.FollowUpResult,
		&entry.FeedbackResult,
		&entry.CustomerConfirmation,
		&entry.Notes,
		&entry.CollectorName,
		&entry.AgencyName,
		&entry.BucketName,
		&entry.Punishment,
		&entry.PunishmentResult,
		&entry.ChatEvidence,
		&entry.Stage,
		&entry.Stage2,
		&entry.CreatedTime,
		&entry.Chronology,
		&entry.CaseStatus,
		&entry.Documents,
		&entry.Note,
		&entry.NoteDate,
		&entry.QCDescription,
		&entry.QCFiles,
	); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseEntryStatus(status)
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", entry.ID, err)
	}
	entry.Status = parsed
	return &entry, nil
}

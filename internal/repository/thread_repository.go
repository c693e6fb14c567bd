package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// numberingLockKey serializes ticket number generation across replicas.
const numberingLockKey int64 = 0x414e4e554d

// EntryExists restricts threads to those owning at least one entry matching
// every set field.
type EntryExists struct {
	Status  *domain.EntryStatus
	InputBy *int64
	SLAZero bool
	// SLAMax, when positive, requires SLAMin <= sla <= SLAMax.
	SLAMin int
	SLAMax int
}

// ThreadFilter is the thread-level predicate of a list view. Zero values
// leave the corresponding column unconstrained.
type ThreadFilter struct {
	Statuses []domain.ThreadStatus
	// OpenOnly keeps threads that are neither closed nor reopened, including
	// legacy rows with no status.
	OpenOnly     bool
	QCAssigned   *bool
	QCAssigneeID *int64
	// Labels matches any of the listed labels; LabelCaseNone matches NULL.
	Labels []domain.LabelCase
	Entry  *EntryExists
	// IDs, when non-nil, restricts the result to these threads. An empty
	// non-nil slice matches nothing.
	IDs []int64
}

// ThreadRepository encapsulates thread persistence.
type ThreadRepository interface {
	Create(ctx context.Context, thread *domain.Thread) error
	GetByID(ctx context.Context, id int64) (*domain.Thread, error)
	List(ctx context.Context, filter ThreadFilter) ([]domain.Thread, error)
	SearchIDs(ctx context.Context, term string) ([]int64, error)
	SetStatus(ctx context.Context, id int64, status domain.ThreadStatus, closedAt *time.Time) error
	SetLabel(ctx context.Context, id int64, label domain.LabelCase) error
	SetQCAssignee(ctx context.Context, id int64, qcID int64) error
	LockNumbering(ctx context.Context) error
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
}

type threadRepository struct {
	db DBTX
}

// NewThreadRepository instantiates repository.
func NewThreadRepository(db DBTX) ThreadRepository {
	return &threadRepository{db: db}
}

const threadColumns = `id, number, COALESCE(status, ''), qc_assignee_id, COALESCE(label_case, ''),
               change_date, created_at, closed_at`

func (r *threadRepository) Create(ctx context.Context, thread *domain.Thread) error {
	const query = `
        INSERT INTO ticket_threads (number, status)
        VALUES ($1, $2)
        RETURNING id, change_date, created_at`
	return r.db.QueryRow(ctx, query,
		thread.Number,
		nullIfEmpty(string(thread.Status)),
	).Scan(&thread.ID, &thread.ChangeDate, &thread.CreatedAt)
}

func (r *threadRepository) GetByID(ctx context.Context, id int64) (*domain.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM ticket_threads WHERE id=$1`
	thread, err := scanThread(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *threadRepository) List(ctx context.Context, filter ThreadFilter) ([]domain.Thread, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []domain.Thread{}, nil
	}

	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			statuses[i] = string(status)
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("t.status = ANY($%d)", len(args)))
	}
	if filter.OpenOnly {
		clauses = append(clauses, "(t.status IS NULL OR t.status NOT IN ('close', 'reopen'))")
	}
	if filter.QCAssigned != nil {
		if *filter.QCAssigned {
			clauses = append(clauses, "t.qc_assignee_id IS NOT NULL")
		} else {
			clauses = append(clauses, "t.qc_assignee_id IS NULL")
		}
	}
	if filter.QCAssigneeID != nil {
		args = append(args, *filter.QCAssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.qc_assignee_id=$%d", len(args)))
	}
	if len(filter.Labels) > 0 {
		var labels []string
		matchNull := false
		for _, label := range filter.Labels {
			if label == domain.LabelCaseNone {
				matchNull = true
				continue
			}
			labels = append(labels, string(label))
		}
		var parts []string
		if matchNull {
			parts = append(parts, "t.label_case IS NULL")
		}
		if len(labels) > 0 {
			args = append(args, labels)
			parts = append(parts, fmt.Sprintf("t.label_case = ANY($%d)", len(args)))
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	if filter.Entry != nil {
		sub := []string{"e.thread_id = t.id"}
		if filter.Entry.Status != nil {
			args = append(args, filter.Entry.Status.Code())
			sub = append(sub, fmt.Sprintf("e.status_entry=$%d", len(args)))
		}
		if filter.Entry.InputBy != nil {
			args = append(args, *filter.Entry.InputBy)
			sub = append(sub, fmt.Sprintf("e.input_by=$%d", len(args)))
		}
		if filter.Entry.SLAZero {
			sub = append(sub, "e.sla = 0")
		}
		if filter.Entry.SLAMax > 0 {
			args = append(args, filter.Entry.SLAMin, filter.Entry.SLAMax)
			sub = append(sub, fmt.Sprintf("e.sla BETWEEN $%d AND $%d", len(args)-1, len(args)))
		}
		clauses = append(clauses, "EXISTS (SELECT 1 FROM ticket_entries e WHERE "+strings.Join(sub, " AND ")+")")
	}
	if filter.IDs != nil {
		args = append(args, filter.IDs)
		clauses = append(clauses, fmt.Sprintf("t.id = ANY($%d)", len(args)))
	}

	query := fmt.Sprintf(`SELECT t.id, t.number, COALESCE(t.status, ''), t.qc_assignee_id, COALESCE(t.label_case, ''),
               t.change_date, t.created_at, t.closed_at
        FROM ticket_threads t WHERE %s ORDER BY t.id`, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Thread{}
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *thread)
	}
	return result, rows.Err()
}

// SearchIDs returns the distinct ids of threads whose number, or any of
// whose entries' customer name, contains term case-insensitively.
func (r *threadRepository) SearchIDs(ctx context.Context, term string) ([]int64, error) {
	const query = `
        SELECT id FROM ticket_threads WHERE number ILIKE $1
        UNION
        SELECT thread_id FROM ticket_entries WHERE customer_name ILIKE $1`
	rows, err := r.db.Query(ctx, query, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *threadRepository) SetStatus(ctx context.Context, id int64, status domain.ThreadStatus, closedAt *time.Time) error {
	const query = `
        UPDATE ticket_threads SET status=$1, closed_at=COALESCE($2, closed_at)
        WHERE id=$3`
	return execOne(ctx, r.db, query, nullIfEmpty(string(status)), closedAt, id)
}

func (r *threadRepository) SetLabel(ctx context.Context, id int64, label domain.LabelCase) error {
	const query = `UPDATE ticket_threads SET label_case=$1 WHERE id=$2`
	return execOne(ctx, r.db, query, nullIfEmpty(string(label)), id)
}

func (r *threadRepository) SetQCAssignee(ctx context.Context, id int64, qcID int64) error {
	const query = `UPDATE ticket_threads SET qc_assignee_id=$1 WHERE id=$2`
	return execOne(ctx, r.db, query, qcID, id)
}

// LockNumbering takes a transaction-scoped advisory lock. It must run on a
// transaction; on a pool the lock is released immediately.
func (r *threadRepository) LockNumbering(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, numberingLockKey)
	return err
}

// LastNumberWithPrefix returns the highest number issued with prefix, or an
// empty string when none exists. Longer numbers sort first so a suffix past
// 99 still wins over "...99".
func (r *threadRepository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	const query = `
        SELECT number FROM ticket_threads WHERE number LIKE $1
        ORDER BY LENGTH(number) DESC, number DESC LIMIT 1`
	var number string
	err := r.db.QueryRow(ctx, query, escapeLike(prefix)+"%").Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return number, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanThread(row scanner) (*domain.Thread, error) {
	var (
		thread domain.Thread
		status string
		label  string
	)
	if err := row.Scan(
		&thread.ID,
		&thread.Number,
		&status,
		&thread.QCAssigneeID,
		&label,
		&thread.ChangeDate,
		&thread.CreatedAt,
		&thread.ClosedAt,
	); err != nil {
		return nil, err
	}
	thread.Status = domain.ThreadStatus(status)
	thread.LabelCase = domain.LabelCase(label)
	return &thread, nil
}

func execOne(ctx context.Context, db DBTX, query string, args ...any) error {
	cmd, err := db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

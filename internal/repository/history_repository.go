package repository

import (
	"context"
	"fmt"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// HistoryRepository stores audit rows.
type HistoryRepository interface {
	Create(ctx context.Context, history *domain.History) error
	List(ctx context.Context, limit, offset int) ([]domain.History, error)
	Count(ctx context.Context) (int, error)
}

type historyRepository struct {
	db DBTX
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(db DBTX) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, history *domain.History) error {
	const query = `
        INSERT INTO ticket_history (thread_number, created_at, order_number, status_entry, stage, agency_name, note, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		history.ThreadNumber,
		history.CreatedAt,
		history.OrderNumber,
		history.Status.Code(),
		history.Stage,
		history.AgencyName,
		history.Note,
		history.CreatedBy,
	).Scan(&history.ID)
}

// List returns audit rows newest first.
func (r *historyRepository) List(ctx context.Context, limit, offset int) ([]domain.History, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
        SELECT id, thread_number, created_at, order_number, status_entry, stage, agency_name, note, created_by
        FROM ticket_history ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.History{}
	for rows.Next() {
		var (
			history domain.History
			status  string
		)
		if err := rows.Scan(
			&history.ID,
			&history.ThreadNumber,
			&history.CreatedAt,
			&history.OrderNumber,
			&status,
			&history.Stage,
			&history.AgencyName,
			&history.Note,
			&history.CreatedBy,
		); err != nil {
			return nil, err
		}
		// Audit rows predating the status enumeration may carry an empty code.
		if parsed, err := domain.ParseEntryStatus(status); err == nil {
			history.Status = parsed
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

func (r *historyRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_history`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

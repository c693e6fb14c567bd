package repository

import (
	"context"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// NoteRepository stores free-text thread notes.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	ListByThread(ctx context.Context, threadID int64) ([]domain.Note, error)
}

type noteRepository struct {
	db DBTX
}

// NewNoteRepository builds repository.
func NewNoteRepository(db DBTX) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO thread_notes (thread_id, entry_id, user_id, body, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		note.ThreadID,
		note.EntryID,
		note.UserID,
		note.Body,
		note.CreatedAt,
	).Scan(&note.ID)
}

func (r *noteRepository) ListByThread(ctx context.Context, threadID int64) ([]domain.Note, error) {
	const query = `
        SELECT id, thread_id, entry_id, user_id, body, created_at
        FROM thread_notes WHERE thread_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Note{}
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.ThreadID,
			&note.EntryID,
			&note.UserID,
			&note.Body,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}

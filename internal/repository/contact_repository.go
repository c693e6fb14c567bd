package repository

import (
	"context"

	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// ContactRepository stores alternate customer contacts.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	ListByEntries(ctx context.Context, entryIDs []int64) (map[int64][]domain.Contact, error)
}

type contactRepository struct {
	db DBTX
}

// NewContactRepository builds repository.
func NewContactRepository(db DBTX) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	const query = `
        INSERT INTO entry_contacts (entry_id, full_name, nik, phone, phone_2, email)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		contact.EntryID,
		contact.FullName,
		contact.NIK,
		contact.Phone,
		contact.Phone2,
		contact.Email,
	).Scan(&contact.ID)
}

func (r *contactRepository) ListByEntries(ctx context.Context, entryIDs []int64) (map[int64][]domain.Contact, error) {
	result := make(map[int64][]domain.Contact, len(entryIDs))
	if len(entryIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT id, entry_id, full_name, nik, phone, phone_2, email
        FROM entry_contacts WHERE entry_id = ANY($1) ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var contact domain.Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.EntryID,
			&contact.FullName,
			&contact.NIK,
			&contact.Phone,
			&contact.Phone2,
			&contact.Email,
		); err != nil {
			return nil, err
		}
		result[contact.EntryID] = append(result[contact.EntryID], contact)
	}
	return result, rows.Err()
}

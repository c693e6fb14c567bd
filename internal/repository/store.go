package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so every repository can
// run inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to the same DBTX.
type Repositories struct {
	Threads  ThreadRepository
	Entries  EntryRepository
	Contacts ContactRepository
	History  HistoryRepository
	Notes    NoteRepository
	Users    UserRepository
}

// Store hands out repositories for reads and runs multi-row writes atomically.
type Store interface {
	Repos() Repositories
	// WithinTx runs fn inside one transaction. Any error returned by fn rolls
	// the whole unit back.
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}

// NewRepositories binds all repositories to db.
func NewRepositories(db DBTX) Repositories {
	return Repositories{
		Threads:  NewThreadRepository(db),
		Entries:  NewEntryRepository(db),
		Contacts: NewContactRepository(db),
		History:  NewHistoryRepository(db),
		Notes:    NewNoteRepository(db),
		Users:    NewUserRepository(db),
	}
}

type pgStore struct {
	pool  *pgxpool.Pool
	repos Repositories
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, repos: NewRepositories(pool)}
}

func (s *pgStore) Repos() Repositories {
	return s.repos
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
}

package postgres

import (
	"context"

	"farmgear-backend/internal/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store is the Postgres-backed repository.Store.
type Store struct {
	db *sqlx.DB
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	return sqlx.ConnectContext(ctx, "postgres", dsn)
}

func newRepositories(q sqlx.ExtContext) repository.Repositories {
	return repository.Repositories{
		Equipment: NewEquipmentRepository(q),
		Orders:    NewOrderRepository(q),
		Payments:  NewPaymentRepository(q),
	}
}

// Repos returns repositories bound to the connection pool, outside any transaction.
func (s *Store) Repos() repository.Repositories {
	return newRepositories(s.db)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	_, err := TxClosure(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, newRepositories(tx))
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBConn is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBConn interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Flights() FlightRepository
	Bookings() BookingRepository
	Promotions() PromotionRepository
}

// Store hands out repositories and runs units of work.
type Store interface {
	Repositories
	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back on any error or panic.
	WithTx(ctx context.Context, fn func(tx Repositories) error) error
}

type PGStore struct {
	db DBConn
}

func NewStore(db DBConn) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Flights() FlightRepository       { return NewFlightRepository(s.db) }
func (s *PGStore) Bookings() BookingRepository     { return NewBookingRepository(s.db) }
func (s *PGStore) Promotions() PromotionRepository { return NewPromotionRepository(s.db) }

func (s *PGStore) WithTx(ctx context.Context, fn func(tx Repositories) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PGStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var _ Store = (*PGStore)(nil)

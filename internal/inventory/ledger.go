package inventory

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

// SeatStore is the storage side of the ledger. ReserveSeats must be a single
// conditional update that never drives a count below zero.
type SeatStore interface {
	ReserveSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) (bool, error)
	ReleaseSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) error
	SeatsLeft(ctx context.Context, flightID int64, class domain.FareClass) (int, error)
}

type Ledger struct {
	seats SeatStore
}

func NewLedger(seats SeatStore) *Ledger {
	return &Ledger{seats: seats}
}

// CheckAvailability is advisory: Reserve re-checks atomically.
func CheckAvailability(flight *domain.Flight, class domain.FareClass, requested int, leg domain.Leg) error {
	if available := flight.SeatsFor(class); available < requested {
		return &domain.InsufficientSeatsError{Leg: leg, FareClass: class, Available: available, Requested: requested}
	}
	return nil
}

// Reserve takes count seats of class on the flight. A lost race against a
// concurrent booking, or an earlier leg of the same booking, surfaces as
// InsufficientSeatsError carrying the stored count rather than the one the
// caller loaded. On success the in-memory flight is updated to match.
func (l *Ledger) Reserve(ctx context.Context, flight *domain.Flight, class domain.FareClass, count int, leg domain.Leg) error {
	ok, err := l.seats.ReserveSeats(ctx, flight.ID, class, count)
	if err != nil {
		return fmt.Errorf("reserve %s seats on flight %d: %w", class, flight.ID, err)
	}
	if !ok {
		left, err := l.seats.SeatsLeft(ctx, flight.ID, class)
		if err != nil {
			return fmt.Errorf("read %s seats on flight %d: %w", class, flight.ID, err)
		}
		return &domain.InsufficientSeatsError{Leg: leg, FareClass: class, Available: left, Requested: count}
	}
	flight.Reserve(class, count)
	return nil
}

// Release gives seats back. It is not capped at the original capacity.
func (l *Ledger) Release(ctx context.Context, flightID int64, class domain.FareClass, count int) error {
	if count <= 0 {
		return nil
	}
	if err := l.seats.ReleaseSeats(ctx, flightID, class, count); err != nil {
		return fmt.Errorf("release %s seats on flight %d: %w", class, flightID, err)
	}
	return nil
}

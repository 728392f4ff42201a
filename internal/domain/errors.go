package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrFlightNotFound          = errors.New("flight not found")
	ErrBookingNotFound         = errors.New("booking not found")
	ErrInsufficientSeats       = errors.New("insufficient seats")
	ErrNoFareAvailable         = errors.New("no fare available")
	ErrInvalidStatus           = errors.New("invalid payment status")
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
	ErrBookingPersistence      = errors.New("booking persistence failed")
	ErrFlightHasBookings       = errors.New("flight has bookings")

	ErrPromoNotFound    = errors.New("promo code not found")
	ErrPromoExpired     = errors.New("promo code expired")
	ErrPromoNotYetValid = errors.New("promo code not yet valid")
	ErrPromoExhausted   = errors.New("promo code usage limit reached")
)

// Leg scopes flight errors to one side of a round trip.
type Leg string

const (
	LegDeparture Leg = "departure"
	LegReturn    Leg = "return"
)

type InvalidRequestError struct {
	MissingFields []string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: missing %s", strings.Join(e.MissingFields, ", "))
}

func (e *InvalidRequestError) Unwrap() error { return ErrInvalidRequest }

type FlightNotFoundError struct {
	Leg Leg
	Ref string
}

func (e *FlightNotFoundError) Error() string {
	return fmt.Sprintf("%s flight %q not found", e.Leg, e.Ref)
}

func (e *FlightNotFoundError) Unwrap() error { return ErrFlightNotFound }

type InsufficientSeatsError struct {
	Leg       Leg
	FareClass FareClass
	Available int
	Requested int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("insufficient %s seats on %s flight: available %d, requested %d", e.FareClass, e.Leg, e.Available, e.Requested)
}

func (e *InsufficientSeatsError) Unwrap() error { return ErrInsufficientSeats }

type BookingPersistenceError struct {
	BookingID string
	Err       error
}

func (e *BookingPersistenceError) Error() string {
	return fmt.Sprintf("booking %s persistence failed: %v", e.BookingID, e.Err)
}

func (e *BookingPersistenceError) Unwrap() []error { return []error{ErrBookingPersistence, e.Err} }

// IsPromoError reports whether err belongs to the promo validation family.
func IsPromoError(err error) bool {
	return errors.Is(err, ErrPromoNotFound) ||
		errors.Is(err, ErrPromoExpired) ||
		errors.Is(err, ErrPromoNotYetValid) ||
		errors.Is(err, ErrPromoExhausted)
}

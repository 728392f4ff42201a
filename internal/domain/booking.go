package domain

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch status := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); status {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusCancelled:
		return status, true
	default:
		return "", false
	}
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusRefunded || s == PaymentStatusCancelled
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusUnpaid:  {PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusCancelled},
	PaymentStatusPending: {PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusCancelled},
	PaymentStatusPaid:    {PaymentStatusRefunded, PaymentStatusCancelled},
}

// CanTransition reports whether a booking may move from s to next.
// Re-applying the current status is allowed and has no effect.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ReleasesSeats reports whether moving from s to next gives the seats back.
// Only unpaid and paid bookings release on cancellation or refund.
func (s PaymentStatus) ReleasesSeats(next PaymentStatus) bool {
	if s == next {
		return false
	}
	if next != PaymentStatusCancelled && next != PaymentStatusRefunded {
		return false
	}
	return s == PaymentStatusPaid || s == PaymentStatusUnpaid
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMomo         PaymentMethod = "momo"
)

// ParsePaymentMethod coerces unknown methods to momo.
func ParsePaymentMethod(s string) PaymentMethod {
	if PaymentMethod(strings.ToLower(strings.TrimSpace(s))) == PaymentMethodBankTransfer {
		return PaymentMethodBankTransfer
	}
	return PaymentMethodMomo
}

type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (c PassengerCounts) Total() int {
	return c.Adults + c.Children + c.Infants
}

func (c *PassengerCounts) Add(t PassengerType) {
	switch t {
	case PassengerTypeChild:
		c.Children++
	case PassengerTypeInfant:
		c.Infants++
	default:
		c.Adults++
	}
}

type Booking struct {
	ID              string          `json:"id"`
	DepartureFlight int64           `json:"departure_flight_id"`
	ReturnFlight    *int64          `json:"return_flight_id,omitempty"`
	RoundTrip       bool            `json:"is_round_trip"`
	ContactName     string          `json:"contact_name"`
	ContactEmail    string          `json:"contact_email"`
	ContactPhone    string          `json:"contact_phone"`
	FareClass       FareClass       `json:"fare_class"`
	TotalAmount     int64           `json:"total_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PromoCode       *string         `json:"promo_code,omitempty"`
	Passengers      PassengerCounts `json:"passenger_counts"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type PassengerType string

const (
	PassengerTypeAdult  PassengerType = "ADULT"
	PassengerTypeChild  PassengerType = "CHILD"
	PassengerTypeInfant PassengerType = "INFANT"
)

func ParsePassengerType(s string) (PassengerType, bool) {
	switch t := PassengerType(strings.ToUpper(strings.TrimSpace(s))); t {
	case PassengerTypeAdult, PassengerTypeChild, PassengerTypeInfant:
		return t, true
	default:
		return "", false
	}
}

type Ancillaries struct {
	CheckedLuggage bool `json:"checked_luggage"`
	Insurance      bool `json:"insurance"`
	Meal           bool `json:"meal"`
}

type Passenger struct {
	ID             int64         `json:"id"`
	BookingID      string        `json:"booking_id"`
	FullName       string        `json:"full_name"`
	Gender         string        `json:"gender"`
	DateOfBirth    *time.Time    `json:"date_of_birth,omitempty"`
	DocumentNumber string        `json:"document_number"`
	Type           PassengerType `json:"passenger_type"`
	Ancillaries    Ancillaries   `json:"ancillaries"`
}

type Payment struct {
	ID             int64         `json:"id"`
	BookingID      string        `json:"booking_id"`
	Method         PaymentMethod `json:"method"`
	TransactionRef string        `json:"transaction_ref"`
	PaidAt         time.Time     `json:"paid_at"`
}

// BookingDetails is the full read model of one booking.
type BookingDetails struct {
	Booking    Booking         `json:"booking"`
	Departure  FlightSnapshot  `json:"departure_flight"`
	Return     *FlightSnapshot `json:"return_flight,omitempty"`
	Passengers []Passenger     `json:"passengers"`
	Payment    *Payment        `json:"payment,omitempty"`
}

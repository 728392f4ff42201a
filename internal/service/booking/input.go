package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/go-playground/validator/v10"
)

// FlightRef is a numeric flight id or a display code such as "VN123".
// It decodes from either a JSON number or a JSON string.
type FlightRef string

func (r *FlightRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = FlightRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flight reference must be a number or a string: %w", err)
	}
	*r = FlightRef(n.String())
	return nil
}

type ContactInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Phone string `json:"phone"`
}

type PassengerInput struct {
	FullName       string     `json:"full_name" validate:"required"`
	Gender         string     `json:"gender"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	DocumentNumber string     `json:"document_number"`
	PassengerType  string     `json:"passenger_type"`
	CheckedLuggage bool       `json:"checked_luggage"`
	Insurance      bool       `json:"insurance"`
	Meal           bool       `json:"meal"`
}

// UnmarshalJSON accepts date_of_birth as a calendar date ("2006-01-02") or
// as an RFC 3339 timestamp.
func (p *PassengerInput) UnmarshalJSON(data []byte) error {
	type plain PassengerInput
	aux := struct {
		*plain
		DateOfBirth *string `json:"date_of_birth"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.DateOfBirth = nil
	if aux.DateOfBirth == nil || strings.TrimSpace(*aux.DateOfBirth) == "" {
		return nil
	}
	raw := strings.TrimSpace(*aux.DateOfBirth)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if dob, err := time.Parse(layout, raw); err == nil {
			p.DateOfBirth = &dob
			return nil
		}
	}
	return fmt.Errorf("date_of_birth %q: want YYYY-MM-DD or RFC 3339", raw)
}

type CreateBookingInput struct {
	DepartureFlight FlightRef        `json:"departure_flight" validate:"required"`
	ReturnFlight    FlightRef        `json:"return_flight" validate:"required_if=RoundTrip true"`
	RoundTrip       bool             `json:"is_round_trip"`
	Contact         ContactInput     `json:"contact"`
	FareClass       string           `json:"fare_class"`
	Passengers      []PassengerInput `json:"passengers" validate:"required,min=1,dive"`
	TotalAmount     *int64           `json:"total_amount"`
	PromoCode       string           `json:"promo_code"`
	PaymentMethod   string           `json:"payment_method"`
	TransactionRef  string           `json:"transaction_ref"`
}

type CreateBookingResult struct {
	BookingID   string                `json:"booking_id"`
	TotalAmount int64                 `json:"total_amount"`
	Departure   domain.FlightSnapshot `json:"departure_flight"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput reports every missing or malformed field by its JSON path,
// e.g. "contact.email" or "passengers[0].full_name".
func validateInput(v *validator.Validate, input CreateBookingInput) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate booking request: %w", err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		fields = append(fields, path)
	}
	return &domain.InvalidRequestError{MissingFields: fields}
}

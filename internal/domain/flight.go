package domain

import (
	"fmt"
	"strings"
	"time"
)

type FareClass string

const (
	FareClassEconomy        FareClass = "ECONOMY"
	FareClassPremiumEconomy FareClass = "PREMIUM_ECONOMY"
	FareClassBusiness       FareClass = "BUSINESS"
	FareClassFirst          FareClass = "FIRST"
)

// FareClasses lists every class in cabin order.
var FareClasses = []FareClass{FareClassEconomy, FareClassPremiumEconomy, FareClassBusiness, FareClassFirst}

// ParseFareClass normalizes a class name. Empty input defaults to ECONOMY.
func ParseFareClass(s string) (FareClass, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "" {
		return FareClassEconomy, true
	}
	for _, c := range FareClasses {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusBoarding  FlightStatus = "boarding"
	FlightStatusDeparted  FlightStatus = "departed"
	FlightStatusCancelled FlightStatus = "cancelled"
)

type Flight struct {
	ID             int64                `json:"id"`
	CarrierCode    string               `json:"carrier_code"`
	FlightNumber   string               `json:"flight_number"`
	FromAirport    string               `json:"from_airport"`
	ToAirport      string               `json:"to_airport"`
	DepartureTime  time.Time            `json:"departure_time"`
	ArrivalTime    time.Time            `json:"arrival_time"`
	Prices         map[FareClass]*int64 `json:"prices"`
	Seats          map[FareClass]int    `json:"seats"`
	AvailableSeats int                  `json:"available_seats"`
	Status         FlightStatus         `json:"status"`
	SeatClasses    []FareClass          `json:"seat_classes"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Code is the display code, e.g. "VN123".
func (f *Flight) Code() string {
	return f.CarrierCode + f.FlightNumber
}

func (f *Flight) Duration() time.Duration {
	return f.ArrivalTime.Sub(f.DepartureTime)
}

func (f *Flight) SeatsFor(class FareClass) int {
	return f.Seats[class]
}

func (f *Flight) Offers(class FareClass) bool {
	for _, c := range f.SeatClasses {
		if c == class {
			return true
		}
	}
	return false
}

// Reserve takes n seats of the class, keeping the aggregate in sync.
// It refuses to go below zero and reports whether it applied.
func (f *Flight) Reserve(class FareClass, n int) bool {
	if n <= 0 {
		return n == 0
	}
	if f.Seats[class] < n {
		return false
	}
	f.Seats[class] -= n
	f.AvailableSeats -= n
	return true
}

func (f *Flight) Release(class FareClass, n int) {
	if f.Seats == nil {
		f.Seats = make(map[FareClass]int, len(FareClasses))
	}
	f.Seats[class] += n
	f.AvailableSeats += n
}

// TotalSeats sums the per-class counts.
func (f *Flight) TotalSeats() int {
	total := 0
	for _, c := range FareClasses {
		total += f.Seats[c]
	}
	return total
}

// Validate checks the structural invariants of a flight before it is stored.
func (f *Flight) Validate() error {
	var problems []string
	if f.CarrierCode == "" || f.FlightNumber == "" {
		problems = append(problems, "carrier code and flight number are required")
	}
	if f.FromAirport == "" || f.ToAirport == "" {
		problems = append(problems, "route airports are required")
	}
	if !f.ArrivalTime.After(f.DepartureTime) {
		problems = append(problems, "arrival must be after departure")
	}
	for _, c := range FareClasses {
		if f.Seats[c] < 0 {
			problems = append(problems, fmt.Sprintf("%s seats must not be negative", c))
		}
		if f.Seats[c] > 0 && !f.Offers(c) {
			problems = append(problems, fmt.Sprintf("%s seats require a %s price", c, c))
		}
		price := f.Prices[c]
		if f.Offers(c) != (price != nil) {
			problems = append(problems, fmt.Sprintf("%s price must be set exactly when the class is sold", c))
		}
		if price != nil && *price < 0 {
			problems = append(problems, fmt.Sprintf("%s price must not be negative", c))
		}
	}
	if f.AvailableSeats != f.TotalSeats() {
		problems = append(problems, "aggregate seats must equal the sum of class seats")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// FlightSnapshot is the formatted view of a flight returned with bookings.
type FlightSnapshot struct {
	ID             int64     `json:"id"`
	Code           string    `json:"code"`
	FromAirport    string    `json:"from_airport"`
	ToAirport      string    `json:"to_airport"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	Duration       string    `json:"duration"`
	Status         string    `json:"status"`
	FareClass      FareClass `json:"fare_class,omitempty"`
	Price          int64     `json:"price,omitempty"`
	AvailableSeats int       `json:"available_seats"`
}

func (f *Flight) Snapshot(class FareClass, price int64) FlightSnapshot {
	return FlightSnapshot{
		ID:             f.ID,
		Code:           f.Code(),
		FromAirport:    f.FromAirport,
		ToAirport:      f.ToAirport,
		DepartureTime:  f.DepartureTime,
		ArrivalTime:    f.ArrivalTime,
		Duration:       FormatDuration(f.Duration()),
		Status:         string(f.Status),
		FareClass:      class,
		Price:          price,
		AvailableSeats: f.AvailableSeats,
	}
}

// FormatDuration renders "2h 05m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

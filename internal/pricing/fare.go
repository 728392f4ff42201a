package pricing

import (
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/shopspring/decimal"
)

var multipliers = map[domain.PassengerType]decimal.Decimal{
	domain.PassengerTypeAdult:  decimal.NewFromInt(1),
	domain.PassengerTypeChild:  decimal.RequireFromString("0.75"),
	domain.PassengerTypeInfant: decimal.RequireFromString("0.10"),
}

// PriceFor returns the class fare, falling back to economy when the class is
// not priced on this flight.
func PriceFor(flight *domain.Flight, class domain.FareClass) (int64, error) {
	if price := flight.Prices[class]; price != nil {
		return *price, nil
	}
	if price := flight.Prices[domain.FareClassEconomy]; price != nil {
		return *price, nil
	}
	return 0, fmt.Errorf("%w: flight %s has no %s or economy fare", domain.ErrNoFareAvailable, flight.Code(), class)
}

func PassengerMultiplier(t domain.PassengerType) decimal.Decimal {
	if m, ok := multipliers[t]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// ClassifyPassenger prefers an explicit type and otherwise derives one from
// the age at now.
func ClassifyPassenger(explicit string, dateOfBirth *time.Time, now time.Time) domain.PassengerType {
	if t, ok := domain.ParsePassengerType(explicit); ok {
		return t
	}
	if dateOfBirth == nil {
		return domain.PassengerTypeAdult
	}
	switch age := AgeAt(*dateOfBirth, now); {
	case age < 2:
		return domain.PassengerTypeInfant
	case age < 12:
		return domain.PassengerTypeChild
	default:
		return domain.PassengerTypeAdult
	}
}

// AgeAt returns full years elapsed between birth and now.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// TotalFare sums base*multiplier per passenger for the outbound leg and, when
// returnBase is given, for the return leg. Rounded once to whole units.
func TotalFare(passengers []domain.PassengerType, base int64, returnBase *int64) int64 {
	total := legFare(passengers, base)
	if returnBase != nil {
		total = total.Add(legFare(passengers, *returnBase))
	}
	return total.Round(0).IntPart()
}

func legFare(passengers []domain.PassengerType, base int64) decimal.Decimal {
	price := decimal.NewFromInt(base)
	sum := decimal.Zero
	for _, p := range passengers {
		sum = sum.Add(price.Mul(PassengerMultiplier(p)))
	}
	return sum
}

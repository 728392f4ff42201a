package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByCode(ctx context.Context, code string) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) (bool, error)
	ReserveSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) (bool, error)
	ReleaseSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) error
	SeatsLeft(ctx context.Context, flightID int64, class domain.FareClass) (int, error)
}

type PGFlightRepository struct {
	db DBConn
}

func NewFlightRepository(db DBConn) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, carrier_code, flight_number, from_airport, to_airport, departure_time, arrival_time, ` +
	`economy_price, premium_economy_price, business_price, first_price, ` +
	`economy_seats, premium_economy_seats, business_seats, first_seats, ` +
	`available_seats, status, seat_classes, created_at, updated_at`

var classColumns = map[domain.FareClass]string{
	domain.FareClassEconomy:        "economy",
	domain.FareClassPremiumEconomy: "premium_economy",
	domain.FareClassBusiness:       "business",
	domain.FareClassFirst:          "first",
}

func seatColumn(class domain.FareClass) (string, error) {
	col, ok := classColumns[class]
	if !ok {
		return "", fmt.Errorf("unknown fare class %q", class)
	}
	return col + "_seats", nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

// GetByCode looks a flight up by carrier code + flight number, e.g. "VN123".
// A code is reused across dates, so the next upcoming departure wins and the
// most recent past one is only picked when nothing is scheduled ahead.
func (r *PGFlightRepository) GetByCode(ctx context.Context, code string) (*domain.Flight, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE carrier_code || flight_number = $1 ORDER BY departure_time >= now() DESC, CASE WHEN departure_time >= now() THEN departure_time END, departure_time DESC LIMIT 1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFlightNotFound
	}
	return f, err
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	classes := make([]string, 0, len(f.SeatClasses))
	for _, c := range f.SeatClasses {
		classes = append(classes, string(c))
	}
	if f.Status == "" {
		f.Status = domain.FlightStatusScheduled
	}

	return r.db.QueryRow(ctx, `INSERT INTO flights (carrier_code, flight_number, from_airport, to_airport, departure_time, arrival_time,
		economy_price, premium_economy_price, business_price, first_price,
		economy_seats, premium_economy_seats, business_seats, first_seats,
		available_seats, status, seat_classes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at`,
		f.CarrierCode, f.FlightNumber, f.FromAirport, f.ToAirport, f.DepartureTime, f.ArrivalTime,
		f.Prices[domain.FareClassEconomy], f.Prices[domain.FareClassPremiumEconomy], f.Prices[domain.FareClassBusiness], f.Prices[domain.FareClassFirst],
		f.Seats[domain.FareClassEconomy], f.Seats[domain.FareClassPremiumEconomy], f.Seats[domain.FareClassBusiness], f.Seats[domain.FareClassFirst],
		f.AvailableSeats, string(f.Status), classes).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

// Delete removes a flight only while no booking references it.
func (r *PGFlightRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1 AND NOT EXISTS (SELECT 1 FROM bookings WHERE departure_flight_id=$1 OR return_flight_id=$1)`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

// ReserveSeats decrements the class and aggregate counts in one conditional
// update. It reports false when the class has fewer than count seats left.
func (r *PGFlightRepository) ReserveSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) (bool, error) {
	col, err := seatColumn(class)
	if err != nil {
		return false, err
	}
	res, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE flights SET %[1]s = %[1]s - $2, available_seats = available_seats - $2, updated_at = now() WHERE id=$1 AND %[1]s >= $2`, col), flightID, count)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

// SeatsLeft reads the stored count of one class, e.g. after ReserveSeats lost
// a race.
func (r *PGFlightRepository) SeatsLeft(ctx context.Context, flightID int64, class domain.FareClass) (int, error) {
	col, err := seatColumn(class)
	if err != nil {
		return 0, err
	}
	var left int
	err = r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM flights WHERE id=$1`, col), flightID).Scan(&left)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrFlightNotFound
	}
	return left, err
}

func (r *PGFlightRepository) ReleaseSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) error {
	col, err := seatColumn(class)
	if err != nil {
		return err
	}
	res, err := r.db.Exec(ctx, fmt.Sprintf(`UPDATE flights SET %[1]s = %[1]s + $2, available_seats = available_seats + $2, updated_at = now() WHERE id=$1`, col), flightID, count)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var (
		f       domain.Flight
		prices  [4]*int64
		seats   [4]int
		status  string
		classes []string
	)
	if err := row.Scan(&f.ID, &f.CarrierCode, &f.FlightNumber, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime,
		&prices[0], &prices[1], &prices[2], &prices[3],
		&seats[0], &seats[1], &seats[2], &seats[3],
		&f.AvailableSeats, &status, &classes, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}

	f.Status = domain.FlightStatus(status)
	f.Prices = make(map[domain.FareClass]*int64, len(domain.FareClasses))
	f.Seats = make(map[domain.FareClass]int, len(domain.FareClasses))
	for i, c := range domain.FareClasses {
		f.Prices[c] = prices[i]
		f.Seats[c] = seats[i]
	}
	for _, c := range classes {
		f.SeatClasses = append(f.SeatClasses, domain.FareClass(c))
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)

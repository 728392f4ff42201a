package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, booking *domain.Booking) error
	AddPassenger(ctx context.Context, passenger *domain.Passenger) error
	AddPayment(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Booking, error)
	ListPassengers(ctx context.Context, bookingID string) ([]domain.Passenger, error)
	CountPassengers(ctx context.Context, bookingID string) (int, error)
	GetPayment(ctx context.Context, bookingID string) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error)
}

type PGBookingRepository struct {
	db DBConn
}

func NewBookingRepository(db DBConn) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, departure_flight_id, return_flight_id, is_round_trip, contact_name, contact_email, contact_phone, ` +
	`fare_class, total_amount, payment_status, promo_code, adult_count, child_count, infant_count, created_at, updated_at`

func (r *PGBookingRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if b.PaymentStatus == "" {
		b.PaymentStatus = domain.PaymentStatusUnpaid
	}
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, departure_flight_id, return_flight_id, is_round_trip, contact_name, contact_email, contact_phone,
		fare_class, total_amount, payment_status, promo_code, adult_count, child_count, infant_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`,
		b.ID, b.DepartureFlight, b.ReturnFlight, b.RoundTrip, b.ContactName, b.ContactEmail, b.ContactPhone,
		string(b.FareClass), b.TotalAmount, string(b.PaymentStatus), b.PromoCode,
		b.Passengers.Adults, b.Passengers.Children, b.Passengers.Infants).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *PGBookingRepository) AddPassenger(ctx context.Context, p *domain.Passenger) error {
	return r.db.QueryRow(ctx, `INSERT INTO booking_passengers (booking_id, full_name, gender, date_of_birth, document_number, passenger_type, checked_luggage, insurance, meal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		p.BookingID, p.FullName, p.Gender, p.DateOfBirth, p.DocumentNumber, string(p.Type),
		p.Ancillaries.CheckedLuggage, p.Ancillaries.Insurance, p.Ancillaries.Meal).
		Scan(&p.ID)
}

func (r *PGBookingRepository) AddPayment(ctx context.Context, p *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments (booking_id, method, transaction_ref) VALUES ($1, $2, $3) RETURNING id, paid_at`,
		p.BookingID, string(p.Method), p.TransactionRef).
		Scan(&p.ID, &p.PaidAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
func (r *PGBookingRepository) GetForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGBookingRepository) get(ctx context.Context, query, id string) (*domain.Booking, error) {
	var (
		b             domain.Booking
		fareClass     string
		paymentStatus string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&b.ID, &b.DepartureFlight, &b.ReturnFlight, &b.RoundTrip,
		&b.ContactName, &b.ContactEmail, &b.ContactPhone, &fareClass, &b.TotalAmount, &paymentStatus, &b.PromoCode,
		&b.Passengers.Adults, &b.Passengers.Children, &b.Passengers.Infants, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	b.FareClass = domain.FareClass(fareClass)
	b.PaymentStatus = domain.PaymentStatus(paymentStatus)
	return &b, nil
}

func (r *PGBookingRepository) ListPassengers(ctx context.Context, bookingID string) ([]domain.Passenger, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, full_name, gender, date_of_birth, document_number, passenger_type, checked_luggage, insurance, meal FROM booking_passengers WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		var (
			p     domain.Passenger
			pType string
		)
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FullName, &p.Gender, &p.DateOfBirth, &p.DocumentNumber, &pType,
			&p.Ancillaries.CheckedLuggage, &p.Ancillaries.Insurance, &p.Ancillaries.Meal); err != nil {
			return nil, err
		}
		p.Type = domain.PassengerType(pType)
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

func (r *PGBookingRepository) CountPassengers(ctx context.Context, bookingID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM booking_passengers WHERE booking_id=$1`, bookingID).Scan(&count)
	return count, err
}

// GetPayment returns nil without error when the booking has no payment row.
func (r *PGBookingRepository) GetPayment(ctx context.Context, bookingID string) (*domain.Payment, error) {
	var (
		p      domain.Payment
		method string
	)
	err := r.db.QueryRow(ctx, `SELECT id, booking_id, method, transaction_ref, paid_at FROM payments WHERE booking_id=$1`, bookingID).
		Scan(&p.ID, &p.BookingID, &method, &p.TransactionRef, &p.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Method = domain.PaymentMethod(method)
	return &p, nil
}

func (r *PGBookingRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now() WHERE id=$2`, string(status), id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() == 1, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)

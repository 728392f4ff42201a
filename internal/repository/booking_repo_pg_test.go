package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookingRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "departure_flight_id", "return_flight_id", "is_round_trip", "contact_name", "contact_email", "contact_phone",
		"fare_class", "total_amount", "payment_status", "promo_code", "adult_count", "child_count", "infant_count", "created_at", "updated_at",
	})
}

func TestNewBookingRepository(t *testing.T) {
	repo := NewBookingRepository(setupMockDB(t))
	assert.NotNil(t, repo)
}

func TestBookingRepository_Create(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)

	returnID := int64(9)
	booking := &domain.Booking{
		ID:              "AB12CD34EF",
		DepartureFlight: 7,
		ReturnFlight:    &returnID,
		RoundTrip:       true,
		ContactName:     "Nguyen Van A",
		ContactEmail:    "a@example.com",
		ContactPhone:    "0900000000",
		FareClass:       domain.FareClassEconomy,
		TotalAmount:     2000000,
		Passengers:      domain.PassengerCounts{Adults: 2},
	}

	now := time.Now()
	mockDb.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs("AB12CD34EF", int64(7), &returnID, true, "Nguyen Van A", "a@example.com", "0900000000",
			"ECONOMY", int64(2000000), "unpaid", (*string)(nil), 2, 0, 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, repo.Create(context.Background(), booking))
	assert.Equal(t, domain.PaymentStatusUnpaid, booking.PaymentStatus)
	assert.Equal(t, now, booking.CreatedAt)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestBookingRepository_GetByID(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)

	now := time.Now()
	promo := "SUMMER25"
	mockDb.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id=$1")).
		WithArgs("AB12CD34EF").
		WillReturnRows(bookingRows().AddRow(
			"AB12CD34EF", int64(7), (*int64)(nil), false, "Nguyen Van A", "a@example.com", "0900000000",
			"BUSINESS", int64(750000), "paid", &promo, 1, 1, 0, now, now,
		))

	booking, err := repo.GetByID(context.Background(), "AB12CD34EF")
	require.NoError(t, err)
	assert.Equal(t, domain.FareClassBusiness, booking.FareClass)
	assert.Equal(t, domain.PaymentStatusPaid, booking.PaymentStatus)
	assert.Nil(t, booking.ReturnFlight)
	require.NotNil(t, booking.PromoCode)
	assert.Equal(t, "SUMMER25", *booking.PromoCode)
	assert.Equal(t, 2, booking.Passengers.Total())
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestBookingRepository_GetForUpdate_NotFound(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)

	mockDb.ExpectQuery(regexp.QuoteMeta("WHERE id=$1 FOR UPDATE")).
		WithArgs("MISSING").
		WillReturnRows(bookingRows())

	_, err := repo.GetForUpdate(context.Background(), "MISSING")
	assert.True(t, errors.Is(err, domain.ErrBookingNotFound))
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestBookingRepository_Exists(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)

	mockDb.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)")).
		WithArgs("AB12CD34EF").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(context.Background(), "AB12CD34EF")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestBookingRepository_Passengers(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)

	dob := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
	passenger := &domain.Passenger{
		BookingID:      "AB12CD34EF",
		FullName:       "Tran Thi B",
		Gender:         "female",
		DateOfBirth:    &dob,
		DocumentNumber: "C1234567",
		Type:           domain.PassengerTypeChild,
		Ancillaries:    domain.Ancillaries{Meal: true},
	}

	mockDb.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_passengers")).
		WithArgs("AB12CD34EF", "Tran Thi B", "female", &dob, "C1234567", "CHILD", false, false, true).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mockDb.ExpectQuery(regexp.QuoteMeta("FROM booking_passengers WHERE booking_id=$1 ORDER BY id")).
		WithArgs("AB12CD34EF").
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_id", "full_name", "gender", "date_of_birth", "document_number", "passenger_type", "checked_luggage", "insurance", "meal"}).
			AddRow(int64(31), "AB12CD34EF", "Tran Thi B", "female", &dob, "C1234567", "CHILD", false, false, true))
	mockDb.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM booking_passengers WHERE booking_id=$1")).
		WithArgs("AB12CD34EF").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	ctx := context.Background()
	require.NoError(t, repo.AddPassenger(ctx, passenger))
	assert.Equal(t, int64(31), passenger.ID)

	list, err := repo.ListPassengers(ctx, "AB12CD34EF")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.PassengerTypeChild, list[0].Type)
	assert.True(t, list[0].Ancillaries.Meal)

	count, err := repo.CountPassengers(ctx, "AB12CD34EF")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestBookingRepository_Payment(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)
	ctx := context.Background()

	paidAt := time.Now()
	mockDb.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments (booking_id, method, transaction_ref)")).
		WithArgs("AB12CD34EF", "bank_transfer", "TX-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "paid_at"}).AddRow(int64(5), paidAt))
	mockDb.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE booking_id=$1")).
		WithArgs("NOPAYMENT").
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_id", "method", "transaction_ref", "paid_at"}))

	payment := &domain.Payment{BookingID: "AB12CD34EF", Method: domain.PaymentMethodBankTransfer, TransactionRef: "TX-1"}
	require.NoError(t, repo.AddPayment(ctx, payment))
	assert.Equal(t, int64(5), payment.ID)
	assert.Equal(t, paidAt, payment.PaidAt)

	missing, err := repo.GetPayment(ctx, "NOPAYMENT")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

func TestBookingRepository_UpdatePaymentStatus(t *testing.T) {
	mockDb := setupMockDB(t)
	repo := NewBookingRepository(mockDb)

	mockDb.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET payment_status=$1, updated_at=now() WHERE id=$2")).
		WithArgs("paid", "AB12CD34EF").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mockDb.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET payment_status=$1")).
		WithArgs("paid", "GONE").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.UpdatePaymentStatus(context.Background(), "AB12CD34EF", domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.UpdatePaymentStatus(context.Background(), "GONE", domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mockDb.ExpectationsWereMet())
}

package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/inventory"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/promo"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	GetBooking(ctx context.Context, id string) (*domain.BookingDetails, error)
	UpdatePaymentStatus(ctx context.Context, id, status string) error
	ValidatePromoCode(ctx context.Context, code string) (*domain.Discount, error)
}

// Cache is the part of the flight cache touched by bookings.
type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	store              repository.Store
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	logger             logrus.FieldLogger
	validate           *validator.Validate
	now                func() time.Time
	newID              func() (string, error)
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithIDGenerator(gen func() (string, error)) BookingServiceOption {
	return func(s *BookingService) {
		s.newID = gen
	}
}

func NewBookingService(
	store repository.Store,
	cache Cache,
	producer Producer,
	bookingTopic string,
	logger logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:        store,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		logger:       logger,
		validate:     newValidator(),
		now:          time.Now,
		newID:        NewBookingID,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// quote is the priced outcome of a booking request before persistence.
type quote struct {
	base     int64
	amount   int64
	discount *domain.Discount
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	departure, err := s.resolve(ctx, input.DepartureFlight, domain.LegDeparture)
	if err != nil {
		return nil, err
	}
	var ret *domain.Flight
	if input.RoundTrip {
		if ret, err = s.resolve(ctx, input.ReturnFlight, domain.LegReturn); err != nil {
			return nil, err
		}
	}

	class, ok := domain.ParseFareClass(input.FareClass)
	if !ok {
		return nil, fmt.Errorf("%w: unknown fare class %q", domain.ErrInvalidRequest, input.FareClass)
	}
	count := len(input.Passengers)

	if err := inventory.CheckAvailability(departure, class, count, domain.LegDeparture); err != nil {
		return nil, err
	}
	if ret != nil {
		if err := inventory.CheckAvailability(ret, class, count, domain.LegReturn); err != nil {
			return nil, err
		}
	}

	now := s.now()
	passengers := make([]domain.Passenger, 0, count)
	types := make([]domain.PassengerType, 0, count)
	var counts domain.PassengerCounts
	for _, p := range input.Passengers {
		pType := pricing.ClassifyPassenger(p.PassengerType, p.DateOfBirth, now)
		types = append(types, pType)
		counts.Add(pType)
		passengers = append(passengers, domain.Passenger{
			FullName:       strings.TrimSpace(p.FullName),
			Gender:         p.Gender,
			DateOfBirth:    p.DateOfBirth,
			DocumentNumber: p.DocumentNumber,
			Type:           pType,
			Ancillaries: domain.Ancillaries{
				CheckedLuggage: p.CheckedLuggage,
				Insurance:      p.Insurance,
				Meal:           p.Meal,
			},
		})
	}

	q, err := s.quote(ctx, input, departure, ret, class, types, now)
	if err != nil {
		return nil, err
	}

	id, err := s.generateID(ctx)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:              id,
		DepartureFlight: departure.ID,
		RoundTrip:       ret != nil,
		ContactName:     strings.TrimSpace(input.Contact.Name),
		ContactEmail:    strings.TrimSpace(input.Contact.Email),
		ContactPhone:    strings.TrimSpace(input.Contact.Phone),
		FareClass:       class,
		TotalAmount:     q.amount,
		PaymentStatus:   domain.PaymentStatusUnpaid,
		Passengers:      counts,
	}
	if ret != nil {
		booking.ReturnFlight = &ret.ID
	}
	if q.discount != nil {
		code := q.discount.Code
		booking.PromoCode = &code
	}

	err = s.store.WithTx(ctx, func(tx repository.Repositories) error {
		ledger := inventory.NewLedger(tx.Flights())
		if err := ledger.Reserve(ctx, departure, class, count, domain.LegDeparture); err != nil {
			return err
		}
		if ret != nil {
			if err := ledger.Reserve(ctx, ret, class, count, domain.LegReturn); err != nil {
				return err
			}
		}

		if q.discount != nil {
			claimed, err := promo.NewValidator(tx.Promotions(), s.logger).RecordUsage(ctx, q.discount.PromotionID)
			if err != nil {
				return err
			}
			if !claimed {
				s.logger.WithFields(logrus.Fields{
					"booking_id": id,
					"promo_code": q.discount.Code,
				}).Warn("promotion exhausted before booking was stored, discount dropped")
				booking.TotalAmount = q.base
				booking.PromoCode = nil
			}
		}

		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return fmt.Errorf("insert booking %s: %w", id, err)
		}
		for i := range passengers {
			passengers[i].BookingID = id
			if err := tx.Bookings().AddPassenger(ctx, &passengers[i]); err != nil {
				return &domain.BookingPersistenceError{BookingID: id, Err: fmt.Errorf("insert passenger %d: %w", i, err)}
			}
		}
		if input.PaymentMethod != "" {
			ref := strings.TrimSpace(input.TransactionRef)
			if ref == "" {
				ref = uuid.NewString()
			}
			payment := &domain.Payment{
				BookingID:      id,
				Method:         domain.ParsePaymentMethod(input.PaymentMethod),
				TransactionRef: ref,
			}
			if err := tx.Bookings().AddPayment(ctx, payment); err != nil {
				return &domain.BookingPersistenceError{BookingID: id, Err: fmt.Errorf("insert payment: %w", err)}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	if err := s.publish(ctx, EventBookingCreated, booking, ""); err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Warn("failed to publish booking_created event")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   id,
		"total_amount": booking.TotalAmount,
		"passengers":   count,
		"round_trip":   booking.RoundTrip,
	}).Info("booking created")

	return &CreateBookingResult{
		BookingID:   id,
		TotalAmount: booking.TotalAmount,
		Departure:   departure.Snapshot(class, priceOrZero(departure, class)),
	}, nil
}

func (s *BookingService) resolve(ctx context.Context, ref FlightRef, leg domain.Leg) (*domain.Flight, error) {
	flight, err := flights.Resolve(ctx, s.store.Flights(), string(ref))
	if errors.Is(err, domain.ErrFlightNotFound) {
		return nil, &domain.FlightNotFoundError{Leg: leg, Ref: string(ref)}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s flight %q: %w", leg, ref, err)
	}
	return flight, nil
}

// quote trusts a caller supplied total as is. Only a computed fare gets the
// promotion applied.
func (s *BookingService) quote(
	ctx context.Context,
	input CreateBookingInput,
	departure, ret *domain.Flight,
	class domain.FareClass,
	types []domain.PassengerType,
	now time.Time,
) (quote, error) {
	if input.TotalAmount != nil {
		amount := max(*input.TotalAmount, 0)
		return quote{base: amount, amount: amount}, nil
	}

	base, err := pricing.PriceFor(departure, class)
	if err != nil {
		return quote{}, err
	}
	var returnBase *int64
	if ret != nil {
		price, err := pricing.PriceFor(ret, class)
		if err != nil {
			return quote{}, err
		}
		returnBase = &price
	}
	total := pricing.TotalFare(types, base, returnBase)
	q := quote{base: total, amount: total}

	if strings.TrimSpace(input.PromoCode) == "" {
		return q, nil
	}
	discount, err := promo.NewValidator(s.store.Promotions(), s.logger).Validate(ctx, input.PromoCode, now)
	if err != nil {
		if !domain.IsPromoError(err) {
			return quote{}, err
		}
		s.logger.WithError(err).WithField("promo_code", input.PromoCode).Info("promotion not applied")
		return q, nil
	}
	q.discount = discount
	q.amount = promo.ApplyDiscount(total, discount.Kind, discount.Value)
	return q, nil
}

func (s *BookingService) generateID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate booking id: %w", err)
		}
		exists, err := s.store.Bookings().Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check booking id %s: %w", id, err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate booking id: no free id after %d attempts", maxIDAttempts)
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.BookingDetails, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	departure, err := s.store.Flights().GetByID(ctx, b.DepartureFlight)
	if err != nil {
		return nil, fmt.Errorf("load departure flight of booking %s: %w", id, err)
	}
	details := &domain.BookingDetails{
		Booking:   *b,
		Departure: departure.Snapshot(b.FareClass, priceOrZero(departure, b.FareClass)),
	}

	if b.ReturnFlight != nil {
		ret, err := s.store.Flights().GetByID(ctx, *b.ReturnFlight)
		if err != nil {
			return nil, fmt.Errorf("load return flight of booking %s: %w", id, err)
		}
		snapshot := ret.Snapshot(b.FareClass, priceOrZero(ret, b.FareClass))
		details.Return = &snapshot
	}

	if details.Passengers, err = s.store.Bookings().ListPassengers(ctx, id); err != nil {
		return nil, fmt.Errorf("load passengers of booking %s: %w", id, err)
	}
	if details.Payment, err = s.store.Bookings().GetPayment(ctx, id); err != nil {
		return nil, fmt.Errorf("load payment of booking %s: %w", id, err)
	}
	return details, nil
}

// UpdatePaymentStatus moves a booking along the payment state machine.
// Cancelling or refunding an unpaid or paid booking gives its seats back.
// An unknown booking is reported before a malformed status.
func (s *BookingService) UpdatePaymentStatus(ctx context.Context, id, status string) error {
	id = strings.ToUpper(strings.TrimSpace(id))

	var (
		booking  *domain.Booking
		previous domain.PaymentStatus
		next     domain.PaymentStatus
	)
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		b, err := tx.Bookings().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		parsed, ok := domain.ParsePaymentStatus(status)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
		}
		next = parsed
		previous = b.PaymentStatus
		if previous == next {
			return nil
		}
		if !previous.CanTransition(next) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidStatusTransition, previous, next)
		}

		if next == domain.PaymentStatusPaid && b.PromoCode != nil {
			s.logger.WithFields(logrus.Fields{
				"booking_id": id,
				"promo_code": *b.PromoCode,
			}).Debug("promotion usage already counted at booking")
		}

		if previous.ReleasesSeats(next) {
			count, err := tx.Bookings().CountPassengers(ctx, id)
			if err != nil {
				return fmt.Errorf("count passengers of booking %s: %w", id, err)
			}
			ledger := inventory.NewLedger(tx.Flights())
			if err := ledger.Release(ctx, b.DepartureFlight, b.FareClass, count); err != nil {
				return err
			}
			if b.ReturnFlight != nil {
				if err := ledger.Release(ctx, *b.ReturnFlight, b.FareClass, count); err != nil {
					return err
				}
			}
		}

		updated, err := tx.Bookings().UpdatePaymentStatus(ctx, id, next)
		if err != nil {
			return fmt.Errorf("update booking %s status: %w", id, err)
		}
		if !updated {
			return domain.ErrBookingNotFound
		}
		b.PaymentStatus = next
		booking = b
		return nil
	})
	if err != nil {
		return err
	}
	if booking == nil {
		return nil
	}

	if previous.ReleasesSeats(next) {
		s.invalidate(ctx)
	}
	if err := s.publish(ctx, EventBookingStatusChanged, booking, previous); err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Warn("failed to publish booking_status_changed event")
	}
	s.logger.WithFields(logrus.Fields{
		"booking_id": id,
		"from":       previous,
		"to":         next,
	}).Info("payment status updated")
	return nil
}

func (s *BookingService) ValidatePromoCode(ctx context.Context, code string) (*domain.Discount, error) {
	return promo.NewValidator(s.store.Promotions(), s.logger).Validate(ctx, code, s.now())
}

func (s *BookingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.logger.WithError(err).Warn("flight cache invalidation failed")
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, previous domain.PaymentStatus) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		EventID:         uuid.NewString(),
		Type:            eventType,
		BookingID:       booking.ID,
		Email:           booking.ContactEmail,
		ContactName:     booking.ContactName,
		Status:          string(booking.PaymentStatus),
		PreviousStatus:  string(previous),
		TotalAmount:     booking.TotalAmount,
		DepartureFlight: booking.DepartureFlight,
		ReturnFlight:    booking.ReturnFlight,
		OccurredAt:      s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event)
	}
	return nil
}

func priceOrZero(flight *domain.Flight, class domain.FareClass) int64 {
	price, err := pricing.PriceFor(flight, class)
	if err != nil {
		return 0
	}
	return price
}

var _ BookingUseCase = (*BookingService)(nil)

package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
)

// memStore is an in-memory repository.Store. WithTx snapshots every table
// and restores the snapshot when fn fails, like a rolled back transaction.
type memStore struct {
	mu         sync.Mutex
	flights    map[int64]*domain.Flight
	bookings   map[string]*domain.Booking
	passengers map[string][]domain.Passenger
	payments   map[string]*domain.Payment
	promos     map[string]*domain.Promotion

	nextID        int64
	failPassenger error
	failPayment   error
	// beforeClaim runs inside IncrementUsage, standing in for a booking
	// that commits between promo validation and the usage claim.
	beforeClaim func(p *domain.Promotion)
	commits       int
	rollbacks     int
}

func newMemStore() *memStore {
	return &memStore{
		flights:    map[int64]*domain.Flight{},
		bookings:   map[string]*domain.Booking{},
		passengers: map[string][]domain.Passenger{},
		payments:   map[string]*domain.Payment{},
		promos:     map[string]*domain.Promotion{},
		nextID:     100,
	}
}

func (s *memStore) Flights() repository.FlightRepository       { return memFlights{s} }
func (s *memStore) Bookings() repository.BookingRepository     { return memBookings{s} }
func (s *memStore) Promotions() repository.PromotionRepository { return memPromos{s} }

func (s *memStore) WithTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	s.mu.Lock()
	saved := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(saved)
		s.rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

type memSnapshot struct {
	flights    map[int64]*domain.Flight
	bookings   map[string]*domain.Booking
	passengers map[string][]domain.Passenger
	payments   map[string]*domain.Payment
	promos     map[string]*domain.Promotion
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		flights:    map[int64]*domain.Flight{},
		bookings:   map[string]*domain.Booking{},
		passengers: map[string][]domain.Passenger{},
		payments:   map[string]*domain.Payment{},
		promos:     map[string]*domain.Promotion{},
	}
	for id, f := range s.flights {
		snap.flights[id] = cloneFlight(f)
	}
	for id, b := range s.bookings {
		c := *b
		snap.bookings[id] = &c
	}
	for id, p := range s.passengers {
		snap.passengers[id] = append([]domain.Passenger(nil), p...)
	}
	for id, p := range s.payments {
		c := *p
		snap.payments[id] = &c
	}
	for code, p := range s.promos {
		c := *p
		snap.promos[code] = &c
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.flights = snap.flights
	s.bookings = snap.bookings
	s.passengers = snap.passengers
	s.payments = snap.payments
	s.promos = snap.promos
}

func (s *memStore) addFlight(f *domain.Flight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[f.ID] = cloneFlight(f)
}

func (s *memStore) flight(id int64) *domain.Flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFlight(s.flights[id])
}

func (s *memStore) addPromo(p *domain.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.promos[p.Code] = &c
}

func (s *memStore) promo(code string) domain.Promotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.promos[code]
}

func cloneFlight(f *domain.Flight) *domain.Flight {
	if f == nil {
		return nil
	}
	c := *f
	c.Prices = make(map[domain.FareClass]*int64, len(f.Prices))
	for k, v := range f.Prices {
		if v != nil {
			price := *v
			c.Prices[k] = &price
		}
	}
	c.Seats = make(map[domain.FareClass]int, len(f.Seats))
	for k, v := range f.Seats {
		c.Seats[k] = v
	}
	c.SeatClasses = append([]domain.FareClass(nil), f.SeatClasses...)
	return &c
}

type memFlights struct{ s *memStore }

func (r memFlights) List(ctx context.Context) ([]domain.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	flights := make([]domain.Flight, 0, len(r.s.flights))
	for _, f := range r.s.flights {
		flights = append(flights, *cloneFlight(f))
	}
	return flights, nil
}

func (r memFlights) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return cloneFlight(f), nil
}

func (r memFlights) GetByCode(ctx context.Context, code string) (*domain.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.flights {
		if f.Code() == strings.ToUpper(code) {
			return cloneFlight(f), nil
		}
	}
	return nil, domain.ErrFlightNotFound
}

func (r memFlights) Create(ctx context.Context, flight *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	flight.ID = r.s.nextID
	r.s.flights[flight.ID] = cloneFlight(flight)
	return nil
}

func (r memFlights) Delete(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.flights[id]; !ok {
		return false, nil
	}
	delete(r.s.flights, id)
	return true, nil
}

func (r memFlights) ReserveSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flights[flightID]
	if !ok {
		return false, nil
	}
	return f.Reserve(class, count), nil
}

func (r memFlights) SeatsLeft(ctx context.Context, flightID int64, class domain.FareClass) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flights[flightID]
	if !ok {
		return 0, domain.ErrFlightNotFound
	}
	return f.SeatsFor(class), nil
}

func (r memFlights) ReleaseSeats(ctx context.Context, flightID int64, class domain.FareClass, count int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flights[flightID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	f.Release(class, count)
	return nil
}

type memBookings struct{ s *memStore }

func (r memBookings) Exists(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.bookings[id]
	return ok, nil
}

func (r memBookings) Create(ctx context.Context, booking *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[booking.ID]; ok {
		return errors.New("duplicate key value violates unique constraint \"bookings_pkey\"")
	}
	booking.CreatedAt = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	booking.UpdatedAt = booking.CreatedAt
	c := *booking
	r.s.bookings[booking.ID] = &c
	return nil
}

func (r memBookings) AddPassenger(ctx context.Context, passenger *domain.Passenger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPassenger != nil && len(r.s.passengers[passenger.BookingID]) > 0 {
		return r.s.failPassenger
	}
	r.s.nextID++
	passenger.ID = r.s.nextID
	r.s.passengers[passenger.BookingID] = append(r.s.passengers[passenger.BookingID], *passenger)
	return nil
}

func (r memBookings) AddPayment(ctx context.Context, payment *domain.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPayment != nil {
		return r.s.failPayment
	}
	r.s.nextID++
	payment.ID = r.s.nextID
	payment.PaidAt = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c := *payment
	r.s.payments[payment.BookingID] = &c
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	c := *b
	return &c, nil
}

func (r memBookings) GetForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) ListPassengers(ctx context.Context, bookingID string) ([]domain.Passenger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Passenger{}, r.s.passengers[bookingID]...), nil
}

func (r memBookings) CountPassengers(ctx context.Context, bookingID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.passengers[bookingID]), nil
}

func (r memBookings) GetPayment(ctx context.Context, bookingID string) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[bookingID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r memBookings) UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return false, nil
	}
	b.PaymentStatus = status
	return true, nil
}

type memPromos struct{ s *memStore }

func (r memPromos) GetByCode(ctx context.Context, code string) (*domain.Promotion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.promos[code]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	c := *p
	return &c, nil
}

func (r memPromos) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.promos {
		if p.ID != id {
			continue
		}
		if r.s.beforeClaim != nil {
			r.s.beforeClaim(p)
		}
		if p.Exhausted() {
			return false, nil
		}
		p.UsedCount++
		return true, nil
	}
	return false, nil
}

func (r memPromos) ExpireEnded(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r memPromos) ActivateStarted(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

var _ repository.Store = (*memStore)(nil)

package flights

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	Get(ctx context.Context, ref string) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

// Finder is the lookup half of a flight repository.
type Finder interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByCode(ctx context.Context, code string) (*domain.Flight, error)
}

type FlightService struct {
	repo   repository.FlightRepository
	cache  FlightCache
	logger logrus.FieldLogger
}

type CreateFlightInput struct {
	CarrierCode   string                     `json:"carrier_code"`
	FlightNumber  string                     `json:"flight_number"`
	FromAirport   string                     `json:"from_airport"`
	ToAirport     string                     `json:"to_airport"`
	DepartureTime time.Time                  `json:"departure_time"`
	ArrivalTime   time.Time                  `json:"arrival_time"`
	Prices        map[domain.FareClass]int64 `json:"prices"`
	Seats         map[domain.FareClass]int   `json:"seats"`
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, logger logrus.FieldLogger) *FlightService {
	return &FlightService{repo: repo, cache: cache, logger: logger}
}

// Resolve finds a flight by numeric id or by display code such as "VN123".
func Resolve(ctx context.Context, finder Finder, ref string) (*domain.Flight, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrFlightNotFound
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		flight, err := finder.GetByID(ctx, id)
		if !errors.Is(err, domain.ErrFlightNotFound) {
			return flight, err
		}
	}
	return finder.GetByCode(ctx, ref)
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.WithError(err).Warn("flight cache read failed")
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.logger.WithError(err).Warn("flight cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) Get(ctx context.Context, ref string) (*domain.Flight, error) {
	return Resolve(ctx, s.repo, ref)
}

func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	flight := &domain.Flight{
		CarrierCode:   strings.ToUpper(strings.TrimSpace(input.CarrierCode)),
		FlightNumber:  strings.ToUpper(strings.TrimSpace(input.FlightNumber)),
		FromAirport:   strings.ToUpper(strings.TrimSpace(input.FromAirport)),
		ToAirport:     strings.ToUpper(strings.TrimSpace(input.ToAirport)),
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		Prices:        make(map[domain.FareClass]*int64, len(domain.FareClasses)),
		Seats:         make(map[domain.FareClass]int, len(domain.FareClasses)),
		Status:        domain.FlightStatusScheduled,
	}

	prices := make(map[domain.FareClass]int64, len(input.Prices))
	for raw, price := range input.Prices {
		class, ok := domain.ParseFareClass(string(raw))
		if !ok {
			return nil, fmt.Errorf("%w: unknown fare class %q", domain.ErrInvalidRequest, raw)
		}
		prices[class] = price
	}
	for raw, seats := range input.Seats {
		class, ok := domain.ParseFareClass(string(raw))
		if !ok {
			return nil, fmt.Errorf("%w: unknown fare class %q", domain.ErrInvalidRequest, raw)
		}
		flight.Seats[class] = seats
	}

	// A class is sellable exactly when it has a price.
	for _, class := range domain.FareClasses {
		if price, ok := prices[class]; ok {
			flight.Prices[class] = &price
			flight.SeatClasses = append(flight.SeatClasses, class)
		}
	}
	flight.AvailableSeats = flight.TotalSeats()

	if err := flight.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, fmt.Errorf("create flight %s: %w", flight.Code(), err)
	}

	s.invalidate(ctx)
	s.logger.WithFields(logrus.Fields{"flight_id": flight.ID, "code": flight.Code()}).Info("flight created")
	return flight, nil
}

// Delete removes a flight that no booking references.
func (s *FlightService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete flight %d: %w", id, err)
	}
	if !deleted {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrFlightHasBookings
	}

	s.invalidate(ctx)
	s.logger.WithField("flight_id", id).Info("flight deleted")
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.logger.WithError(err).Warn("flight cache invalidation failed")
	}
}

var _ FlightUseCase = (*FlightService)(nil)

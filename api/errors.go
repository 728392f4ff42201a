package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// errorResponse maps an error to its HTTP status and the body
// {"error": {"kind": ..., "message": ..., <details>}}.
func errorResponse(err error) (int, gin.H) {
	var (
		invalid   *domain.InvalidRequestError
		notFound  *domain.FlightNotFoundError
		seats     *domain.InsufficientSeatsError
		persisted *domain.BookingPersistenceError
	)

	status, body := http.StatusInternalServerError, gin.H{"kind": "internal", "message": "internal server error"}
	switch {
	case errors.As(err, &invalid):
		status, body = http.StatusBadRequest, gin.H{"kind": "invalid_request", "message": err.Error(), "missing_fields": invalid.MissingFields}
	case errors.Is(err, domain.ErrInvalidRequest):
		status, body = http.StatusBadRequest, gin.H{"kind": "invalid_request", "message": err.Error()}
	case errors.As(err, &notFound):
		status, body = http.StatusNotFound, gin.H{"kind": "flight_not_found", "message": err.Error(), "leg": notFound.Leg, "ref": notFound.Ref}
	case errors.Is(err, domain.ErrFlightNotFound):
		status, body = http.StatusNotFound, gin.H{"kind": "flight_not_found", "message": err.Error()}
	case errors.Is(err, domain.ErrBookingNotFound):
		status, body = http.StatusNotFound, gin.H{"kind": "booking_not_found", "message": err.Error()}
	case errors.As(err, &seats):
		status, body = http.StatusConflict, gin.H{
			"kind":       "insufficient_seats",
			"message":    err.Error(),
			"leg":        seats.Leg,
			"fare_class": seats.FareClass,
			"available":  seats.Available,
			"requested":  seats.Requested,
		}
	case errors.Is(err, domain.ErrNoFareAvailable):
		status, body = http.StatusUnprocessableEntity, gin.H{"kind": "no_fare_available", "message": err.Error()}
	case errors.Is(err, domain.ErrInvalidStatus):
		status, body = http.StatusBadRequest, gin.H{"kind": "invalid_status", "message": err.Error()}
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		status, body = http.StatusConflict, gin.H{"kind": "invalid_status_transition", "message": err.Error()}
	case errors.Is(err, domain.ErrFlightHasBookings):
		status, body = http.StatusConflict, gin.H{"kind": "flight_has_bookings", "message": err.Error()}
	case errors.Is(err, domain.ErrPromoNotFound):
		status, body = http.StatusNotFound, gin.H{"kind": "promo_not_found", "message": err.Error()}
	case errors.Is(err, domain.ErrPromoExpired):
		status, body = http.StatusUnprocessableEntity, gin.H{"kind": "promo_expired", "message": err.Error()}
	case errors.Is(err, domain.ErrPromoNotYetValid):
		status, body = http.StatusUnprocessableEntity, gin.H{"kind": "promo_not_yet_valid", "message": err.Error()}
	case errors.Is(err, domain.ErrPromoExhausted):
		status, body = http.StatusUnprocessableEntity, gin.H{"kind": "promo_exhausted", "message": err.Error()}
	case errors.As(err, &persisted):
		status, body = http.StatusInternalServerError, gin.H{"kind": "booking_persistence_failed", "message": "booking could not be stored", "booking_id": persisted.BookingID}
	}
	return status, gin.H{"error": body}
}

// writeError records err on the context for the request logger and aborts
// with the mapped response.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := errorResponse(err)
	c.AbortWithStatusJSON(status, body)
}

func bindError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gin.H{"kind": "invalid_request", "message": err.Error()}})
}

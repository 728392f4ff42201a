package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type updatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type promoValidationResponse struct {
	Valid    bool             `json:"valid"`
	Discount *domain.Discount `json:"discount"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id/payment-status", h.updatePaymentStatus)
}

// RegisterPromotions mounts the promo code check, which is served by the
// booking service.
func (h *BookingHandler) RegisterPromotions(router *gin.RouterGroup) {
	router.GET("/:code/validate", h.validatePromo)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) get(c *gin.Context) {
	details, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *BookingHandler) updatePaymentStatus(c *gin.Context) {
	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.service.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *BookingHandler) validatePromo(c *gin.Context) {
	discount, err := h.service.ValidatePromoCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promoValidationResponse{Valid: true, Discount: discount})
}

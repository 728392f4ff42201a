package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

// Register mounts the read routes publicly and guards the write routes with
// the operator middlewares.
func (h *FlightHandler) Register(router *gin.RouterGroup, operator ...gin.HandlerFunc) {
	guarded := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, operator...), handler)
	}
	router.GET("", h.list)
	router.GET("/:ref", h.get)
	router.POST("", guarded(h.create)...)
	router.DELETE("/:ref", guarded(h.delete)...)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	flight, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("ref"), 10, 64)
	if err != nil {
		bindError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

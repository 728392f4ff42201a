package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/auth"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Pinger is a backing service the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Dependencies struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	// Tokens guards flight writes. When nil the write routes answer 503.
	Tokens *auth.Service
	Health map[string]Pinger
	Logger logrus.FieldLogger
}

// Run serves the REST API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, deps Dependencies) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg.HTTP, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.WithField("address", cfg.HTTP.Address).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("serve http %s: %w", cfg.HTTP.Address, err)
	case <-ctx.Done():
		deps.Logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg config.HTTPConfig, deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(deps.Logger))

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", healthHandler(deps.Health))

	if cfg.SwaggerDir != "" {
		router.Static("/swagger", cfg.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/openapi.json"))))
	}

	var operator gin.HandlerFunc = operatorsDisabled
	if deps.Tokens != nil {
		operator = api.RequireOperator(deps.Tokens)
	} else {
		deps.Logger.Warn("auth.jwt_secret is empty, flight write endpoints are disabled")
	}

	v1 := router.Group("/api/v1")
	{
		api.NewFlightHandler(deps.Flights).Register(v1.Group("/flights"), operator)

		bookings := api.NewBookingHandler(deps.Bookings)
		bookings.Register(v1.Group("/bookings"))
		bookings.RegisterPromotions(v1.Group("/promotions"))
	}

	return router
}

func operatorsDisabled(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
		"kind":    "operator_disabled",
		"message": "operator endpoints are not configured",
	}})
}

func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		services := gin.H{}
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				_ = c.Error(fmt.Errorf("%s: %w", name, err))
				status = http.StatusServiceUnavailable
				services[name] = "unavailable"
				continue
			}
			services[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{"status": state, "services": services})
	}
}

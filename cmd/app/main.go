package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/auth"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	issueToken := flag.String("issue-operator-token", "", "print an operator token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of an issued operator token")
	flag.Parse()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, os.Stdout)

	var tokens *auth.Service
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	}

	if *issueToken != "" {
		if tokens == nil {
			log.Fatal("auth.jwt_secret is required to issue operator tokens")
		}
		token, err := tokens.IssueOperatorToken(*issueToken, *tokenTTL)
		if err != nil {
			log.WithError(err).Fatal("issue operator token")
		}
		fmt.Println(token)
		return
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("parse postgres config")
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheDuration())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()

	store := repository.NewStore(pool)
	flightService := flights.NewFlightService(store.Flights(), redisCache, log)
	bookingService := booking.NewBookingService(
		store,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		log,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	deps := bootstrap.Dependencies{
		Flights:  flightService,
		Bookings: bookingService,
		Tokens:   tokens,
		Health: map[string]bootstrap.Pinger{
			"postgres": pool,
			"redis":    redisCache,
			"kafka":    bootstrap.PingFunc(producer.CheckConnection),
		},
		Logger: log,
	}

	if err := bootstrap.Run(ctx, cfg, deps); err != nil {
		log.WithError(err).Fatal("server error")
	}
	log.Info("server exited")
}

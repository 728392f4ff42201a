package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/promo"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/scheduler"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	cronService := scheduler.NewCronService(promo.NewValidator(store.Promotions(), log), log)
	if err := cronService.Start(cfg.Worker.PromoSweepSchedule); err != nil {
		log.WithError(err).Fatal("start cron service")
	}

	topic := cfg.Kafka.NotificationsTopic
	if topic == "" {
		topic = cfg.Kafka.BookingTopic
	}
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, log)
	sender := email.NewSender(log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.WithField("topic", topic).Info("consuming booking events")
		if err := consumer.Consume(ctx, kafka.BookingEventHandler(log, sender.Send)); err != nil {
			log.WithError(err).Error("consumer stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down worker")

	cronService.Stop()
	if err := consumer.Close(); err != nil {
		log.WithError(err).Warn("close consumer")
	}
	wg.Wait()
	log.Info("worker exited")
}

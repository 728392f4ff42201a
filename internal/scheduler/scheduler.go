package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PromotionRefresher is satisfied by *promo.Validator.
type PromotionRefresher interface {
	RefreshStatuses(ctx context.Context, now time.Time) (activated, expired int64, err error)
}

// CronService runs the worker's periodic jobs.
type CronService struct {
	cron    *cron.Cron
	promos  PromotionRefresher
	logger  logrus.FieldLogger
	now     func() time.Time
	timeout time.Duration
}

func NewCronService(promos PromotionRefresher, logger logrus.FieldLogger) *CronService {
	return &CronService{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		promos:  promos,
		logger:  logger,
		now:     time.Now,
		timeout: time.Minute,
	}
}

// Start schedules the promotion sweep on spec and starts the scheduler.
func (s *CronService) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RefreshPromotions); err != nil {
		return fmt.Errorf("schedule promotion sweep %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", spec).Info("cron service started")
	return nil
}

// Stop waits for a running job to finish.
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("cron service stopped")
}

func (s *CronService) RefreshPromotions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := s.now()
	activated, expired, err := s.promos.RefreshStatuses(ctx, start)
	if err != nil {
		s.logger.WithError(err).Error("promotion sweep failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"activated":   activated,
		"expired":     expired,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("promotion sweep finished")
}

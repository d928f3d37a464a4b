package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aussiebroadwan/shopfront/internal/shop/observability"
	"github.com/aussiebroadwan/shopfront/internal/shop/store"
)

// DefaultHousekeepingSchedule runs cleanup once an hour.
const DefaultHousekeepingSchedule = "@every 1h"

// HousekeepingService periodically clears password reset grants that have
// expired so stale token fingerprints do not linger in the users table.
type HousekeepingService struct {
	Store   store.Store
	Logger  *slog.Logger
	Metrics *observability.Metrics

	Schedule string
	Now      func() time.Time

	cron    *cron.Cron
	initial sync.WaitGroup
}

// NewHousekeepingService creates a housekeeping service running on schedule,
// a robfig/cron spec. An empty schedule uses DefaultHousekeepingSchedule.
func NewHousekeepingService(store store.Store, logger *slog.Logger, schedule string) *HousekeepingService {
	if schedule == "" {
		schedule = DefaultHousekeepingSchedule
	}
	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Schedule: schedule,
	}
}

// Start runs one cleanup immediately and then schedules it. It returns an
// error only for an invalid schedule.
func (s *HousekeepingService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, func() { s.Cleanup(context.Background()) }); err != nil {
		return err
	}
	s.cron = c

	s.initial.Go(func() { s.Cleanup(context.Background()) })
	c.Start()
	s.Logger.Info("housekeeping service started", "schedule", s.Schedule)
	return nil
}

// Stop halts the scheduler and waits for any running cleanup, including the
// one Start kicked off, to finish.
func (s *HousekeepingService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.Logger.Info("housekeeping service stopped")
}

// Cleanup removes expired reset grants and returns how many were cleared.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	n, err := s.Store.Users().ClearExpiredResetTokens(ctx, now)
	if err != nil {
		s.Logger.Error("failed to clear expired reset tokens", "error", err)
		return 0
	}

	s.Metrics.ResetTokensClearedAdd(n)
	s.Logger.Info("housekeeping cleanup completed", "reset_tokens_cleared", n)
	return n
}

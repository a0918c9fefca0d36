package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
	"knaito/fleapriceworker/services/store"
)

// RunFunc performs the daily price adjustment over the selected products
type RunFunc func(ctx context.Context, products []models.Product, reduction, minPrice int)

// Scheduler wakes up once a day at the check hour, draws a random instant
// inside the configured execution window and fires the run function there.
// A window already passed at check time runs immediately.
type Scheduler struct {
	store     store.Store
	run       RunFunc
	checkHour int
	log       *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// New creates a daily scheduler checking at checkHour o'clock
func New(st store.Store, run RunFunc, checkHour int) *Scheduler {
	return &Scheduler{
		store:     st,
		run:       run,
		checkHour: checkHour,
		log:       logger.ForScheduler(),
		now:       time.Now,
	}
}

// Start blocks until the context is cancelled, performing the daily check loop
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().Int("check_hour", s.checkHour).Msg("Scheduler started")

	for {
		next := nextCheck(s.now(), s.checkHour)
		s.log.Info().Time("next_check", next).Msg("Waiting for next daily check")

		if !sleepUntil(ctx, next) {
			s.log.Info().Msg("Scheduler stopped")
			return
		}

		s.runOnce(ctx)
	}
}

// RunNow performs a single check and execution cycle immediately, without
// waiting for either the check hour or a random point in the window.
func (s *Scheduler) RunNow(ctx context.Context) {
	settings, products, ok := s.loadWork(ctx)
	if !ok {
		return
	}
	s.run(ctx, products, settings.Reduction, settings.MinPrice)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	settings, products, ok := s.loadWork(ctx)
	if !ok {
		return
	}

	now := s.now()
	at, err := randomTimeInWindow(now, settings.StartTime, settings.EndTime)
	if err != nil {
		s.log.Error().Err(err).Msg("Invalid execution window, skipping today")
		return
	}

	if at.After(now) {
		s.log.Info().Time("execute_at", at).Msg("Scheduled today's adjustment")
		if !sleepUntil(ctx, at) {
			return
		}
	} else {
		s.log.Info().Msg("Execution window already passed, running now")
	}

	s.run(ctx, products, settings.Reduction, settings.MinPrice)
}

// loadWork fetches settings and the selection, deciding whether today runs
func (s *Scheduler) loadWork(ctx context.Context) (models.Settings, []models.Product, bool) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load settings")
		return settings, nil, false
	}
	if !settings.IsEnabled {
		s.log.Info().Msg("Automatic adjustment disabled, skipping today")
		return settings, nil, false
	}

	products, err := s.store.GetSelectedProducts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load selected products")
		return settings, nil, false
	}
	if len(products) == 0 {
		s.log.Info().Msg("No products selected, skipping today")
		return settings, nil, false
	}

	return settings, products, true
}

// nextCheck returns the next occurrence of checkHour o'clock strictly after now
func nextCheck(now time.Time, checkHour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), checkHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// parseClock parses "HH:MM" into hour and minute
func parseClock(s string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour, minute, nil
}

// randomTimeInWindow picks a uniformly random instant on now's day between
// startClock (inclusive) and endClock (exclusive)
func randomTimeInWindow(now time.Time, startClock, endClock string) (time.Time, error) {
	sh, sm, err := parseClock(startClock)
	if err != nil {
		return time.Time{}, err
	}
	eh, em, err := parseClock(endClock)
	if err != nil {
		return time.Time{}, err
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), sh, sm, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), eh, em, 0, 0, now.Location())
	if !end.After(start) {
		return time.Time{}, fmt.Errorf("execution window %s-%s is empty", startClock, endClock)
	}

	span := end.Sub(start)
	return start.Add(rand.N(span)), nil
}

// sleepUntil blocks until t or context cancellation, reporting whether t arrived
func sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

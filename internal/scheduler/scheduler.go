// Package scheduler runs periodic housekeeping: expired invitation link
// tokens are purged and stale rate limiter windows dropped.
package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dukerupert/mealplannr/internal/middleware"
	"github.com/dukerupert/mealplannr/internal/store"
)

// DefaultSpec runs cleanup at the top of every hour.
const DefaultSpec = "@hourly"

type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	tokens  *store.ActionTokenStore
	limiter *middleware.RateLimiter
	logger  *slog.Logger
	now     func() time.Time
	running bool
}

func New(tokens *store.ActionTokenStore, limiter *middleware.RateLimiter, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		tokens:  tokens,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the cleanup job on spec and starts the cron loop.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := s.cron.AddFunc(spec, s.Cleanup); err != nil {
		return err
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "spec", spec)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Cleanup deletes expired link tokens and stale rate limiter windows.
func (s *Scheduler) Cleanup() {
	if s.tokens != nil {
		n, err := s.tokens.DeleteExpired(s.now())
		if err != nil {
			s.logger.Error("cleanup expired link tokens", "error", err)
		} else if n > 0 {
			s.logger.Info("cleaned up expired link tokens", "count", n)
		}
	}
	if s.limiter != nil {
		if n := s.limiter.Cleanup(); n > 0 {
			s.logger.Debug("cleaned up rate limiter windows", "count", n)
		}
	}
}

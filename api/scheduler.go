/*
scheduler.go - Daily bonus sweep scheduler

PURPOSE:
  Periodically runs the bonus sweep so streak accrual, clean-month bonuses
  and champion elections happen even when nobody opens the app. The sweep
  itself is idempotent per day, so a generous check interval is safe.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Fires once immediately on start to catch up after downtime
  - Day guards inside the sweep make repeated fires harmless

USAGE:
  scheduler := NewSweepScheduler(svc, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Sweep endpoint (manual trigger)
  - jar/bonus.go: the sweep itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/swearjar/jar"
)

// SweepScheduler runs the daily bonus sweep on a ticker.
type SweepScheduler struct {
	Service       *jar.Service
	Log           *zap.Logger
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a scheduler with a one-hour check interval.
func NewSweepScheduler(svc *jar.Service, log *zap.Logger) *SweepScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SweepScheduler{
		Service:       svc,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticker = time.NewTicker(s.CheckInterval)
	s.wg.Add(1)
	go s.run()

	s.Log.Info("sweep scheduler started", zap.Duration("interval", s.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.Log.Info("sweep scheduler stopped")
	}
}

func (s *SweepScheduler) run() {
	defer s.wg.Done()

	// Catch up immediately, the guards skip whatever already ran today.
	s.sweep()

	for {
		select {
		case <-s.stop:
			return
		case <-s.ticker.C:
			s.sweep()
		}
	}
}

func (s *SweepScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, awards, err := s.Service.Sweep(ctx)
	if err != nil {
		s.Log.Error("scheduled sweep failed", zap.Error(err))
		return
	}
	if len(res.CleanMonths) > 0 || len(res.MonthWinners) > 0 || len(res.YearWinners) > 0 || len(awards) > 0 {
		s.Log.Info("scheduled sweep results",
			zap.Strings("cleanMonths", res.CleanMonths),
			zap.Strings("monthWinners", res.MonthWinners),
			zap.Strings("yearWinners", res.YearWinners),
			zap.Int("newAwards", len(awards)))
	}
}

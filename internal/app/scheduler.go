package app

import (
	"context"
	"time"

	"github.com/dandalion98/s-portfolio/internal/common"
	"github.com/dandalion98/s-portfolio/internal/interfaces"
)

// Scheduler runs the account sync cycle on a fixed interval. One account
// failing never stops the others.
type Scheduler struct {
	portfolio interfaces.PortfolioService
	storage   interfaces.StorageManager
	logger    *common.Logger
	interval  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler; Start launches it.
func NewScheduler(portfolio interfaces.PortfolioService, storage interfaces.StorageManager, logger *common.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		portfolio: portfolio,
		storage:   storage,
		logger:    logger,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

// Start begins the sync loop in a background goroutine. The first cycle
// runs immediately, then on every tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)

		s.logger.Info().Dur("interval", s.interval).Msg("Sync scheduler: started")
		s.syncAll(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("Sync scheduler: stopped")
				return
			case <-ticker.C:
				s.syncAll(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight cycle to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) syncAll(ctx context.Context) {
	start := time.Now()

	accounts, err := s.storage.Accounts().List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Sync cycle: failed to list accounts")
		return
	}
	if len(accounts) == 0 {
		s.logger.Debug().Msg("Sync cycle: no accounts tracked")
		return
	}

	var failed int
	for _, account := range accounts {
		if ctx.Err() != nil {
			return
		}
		if err := s.portfolio.SyncAccount(ctx, account); err != nil {
			failed++
			s.logger.Error().Err(err).Str("account", account.Address).Msg("Account sync failed")
		}
	}

	s.logger.Info().
		Int("accounts", len(accounts)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Sync cycle: complete")
}

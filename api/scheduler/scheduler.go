package scheduler

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSchedule sweeps revoked device tokens daily at 3 AM UTC
const DefaultSchedule = "0 3 * * *"

const sweepTimeout = 5 * time.Minute

// TokenSweeper hard deletes device tokens revoked before cutoff
type TokenSweeper interface {
	DeleteRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler handles periodic background jobs for the push token store
type Scheduler struct {
	cron       *cron.Cron
	Tokens     TokenSweeper
	Retention  time.Duration
	Schedule   string
	instanceID string
	now        func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(tokens TokenSweeper, retention time.Duration) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = fmt.Sprintf("instance-%d", time.Now().UnixNano())
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		Tokens:     tokens,
		Retention:  retention,
		Schedule:   DefaultSchedule,
		instanceID: instanceID,
		now:        time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.Schedule, s.sweepRevokedTokens); err != nil {
		zap.S().Errorw("failed to register revoked token sweep", "error", err, "schedule", s.Schedule)
		return err
	}

	s.cron.Start()
	zap.S().Infow("Push token scheduler started", "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Push token scheduler stopped")
}

// sweepRevokedTokens removes tokens that have stayed revoked longer than the
// retention window. Running it on several instances at once is harmless.
func (s *Scheduler) sweepRevokedTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		zap.S().Errorw("failed to sweep revoked push tokens", "error", err, "instance", s.instanceID)
	}
}

// Sweep runs one pass of the revoked token cleanup and returns how many rows it removed
func (s *Scheduler) Sweep(ctx context.Context) (int64, error) {
	if s.Retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-s.Retention)
	deleted, err := s.Tokens.DeleteRevokedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	zap.S().Infow("Revoked push token sweep complete",
		"deleted", deleted,
		"cutoff", cutoff,
		"instance", s.instanceID,
	)
	return deleted, nil
}

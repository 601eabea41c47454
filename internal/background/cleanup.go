package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/rcaluag/registrar/internal/repositories"
)

// CleanupManager periodically removes expired sessions and prunes the login
// attempt audit trail past its retention window.
type CleanupManager struct {
	sessions  *repositories.SessionRepository
	attempts  *repositories.LoginAttemptRepository
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	sessions *repositories.SessionRepository,
	attempts *repositories.LoginAttemptRepository,
	retention time.Duration,
	interval time.Duration,
	logger *slog.Logger,
) *CleanupManager {
	return &CleanupManager{
		sessions:  sessions,
		attempts:  attempts,
		retention: retention,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	sessionsDeleted, err := cm.sessions.DeleteExpired(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to delete expired sessions", slog.Any("error", err))
	} else if sessionsDeleted > 0 {
		cm.logger.Info("expired sessions deleted", slog.Int64("rows_deleted", sessionsDeleted))
	}

	cutoff := time.Now().Add(-cm.retention)
	attemptsDeleted, err := cm.attempts.DeleteOlderThan(cleanupCtx, cutoff)
	if err != nil {
		cm.logger.Error("failed to prune login attempts", slog.Any("error", err))
	} else if attemptsDeleted > 0 {
		cm.logger.Info("login attempts pruned",
			slog.Int64("rows_deleted", attemptsDeleted),
			slog.Time("cutoff", cutoff))
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}

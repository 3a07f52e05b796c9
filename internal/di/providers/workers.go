package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/pantryapp/pantry-server/internal/logger"
	"github.com/pantryapp/pantry-server/internal/service"
)

// sessionCleanupInterval controls how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

// SessionCleanupJob periodically deletes expired sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the background session cleanup worker.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	cleanup := func() {
		count, err := sessionService.DeleteExpiredSessions(ctx)
		if err != nil {
			log.Warn("Session cleanup failed", "error", err)
			return
		}
		if count > 0 {
			log.Info("Expired sessions removed", "count", count)
		}
	}

	// Run once at startup, then on the interval.
	cleanup()

	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup worker started", "interval", sessionCleanupInterval)

	return &SessionCleanupJob{cancel: cancel}, nil
}

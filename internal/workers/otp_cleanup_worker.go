package workers

import (
	"context"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/repositories"
)

// OtpCleanupWorker удаляет истекшие и использованные коды из хранилища
type OtpCleanupWorker struct {
	store    repositories.OtpStore
	interval time.Duration
	now      func() time.Time
}

func NewOtpCleanupWorker(store repositories.OtpStore, interval time.Duration) *OtpCleanupWorker {
	return &OtpCleanupWorker{store: store, interval: interval, now: time.Now}
}

func (w *OtpCleanupWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *OtpCleanupWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("OTP cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *OtpCleanupWorker) cleanup(ctx context.Context) int64 {
	deleted, err := w.store.DeleteExpired(ctx, w.now())
	logger.WorkerLog("otp-cleanup", "delete-expired", err, "deleted", deleted)
	return deleted
}

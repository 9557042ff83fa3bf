package workers

import (
	"context"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/services"
)

type StatsWorker struct {
	stats    services.StatsService
	interval time.Duration
}

func NewStatsWorker(stats services.StatsService, interval time.Duration) *StatsWorker {
	return &StatsWorker{stats: stats, interval: interval}
}

// Start считает статистику сразу и затем обновляет ее по таймеру
func (w *StatsWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *StatsWorker) run(ctx context.Context) {
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	_, err := w.stats.Refresh(ctx)
	logger.WorkerLog("stats", "refresh", err)
}

package workers

import (
	"context"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services"
)

// ReviewReminderWorker напоминает плательщикам об отзыве, когда до закрытия окна
// остается leadDays дней или меньше. Напоминание уходит на каждом тике, пока отзыва нет.
type ReviewReminderWorker struct {
	bookingRepo repositories.BookingRepository
	reviewRepo  repositories.ReviewRepository
	tracker     *services.ReviewExpiryTracker
	dispatcher  services.NotificationDispatcher
	leadDays    int
	interval    time.Duration
	now         func() time.Time
}

func NewReviewReminderWorker(
	bookingRepo repositories.BookingRepository,
	reviewRepo repositories.ReviewRepository,
	tracker *services.ReviewExpiryTracker,
	dispatcher services.NotificationDispatcher,
	leadDays int,
	interval time.Duration,
) *ReviewReminderWorker {
	return &ReviewReminderWorker{
		bookingRepo: bookingRepo,
		reviewRepo:  reviewRepo,
		tracker:     tracker,
		dispatcher:  dispatcher,
		leadDays:    leadDays,
		interval:    interval,
		now:         time.Now,
	}
}

func (w *ReviewReminderWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ReviewReminderWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Review reminder worker stopped")
			return
		case <-ticker.C:
			w.remind(ctx)
		}
	}
}

// remind возвращает число поставленных напоминаний
func (w *ReviewReminderWorker) remind(ctx context.Context) int {
	now := w.now()
	// окно закрывается в completed_at + W; нужны те, у кого это в (now, now + lead]
	from := now.Add(-w.tracker.Window())
	to := from.Add(time.Duration(w.leadDays) * 24 * time.Hour)

	bookings, err := w.bookingRepo.FindReviewableCompletedBetween(ctx, from, to)
	if err != nil {
		logger.WorkerLog("review-reminder", "load-bookings", err)
		return 0
	}
	if len(bookings) == 0 {
		return 0
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	reviewed, err := w.reviewRepo.ReviewedBookingIDs(ctx, ids)
	if err != nil {
		logger.WorkerLog("review-reminder", "load-reviews", err)
		return 0
	}

	sent := 0
	for i := range bookings {
		b := &bookings[i]
		if reviewed[b.ID] || b.CompletedAt == nil {
			continue
		}
		daysLeft := w.tracker.DaysUntilExpiryAt(*b.CompletedAt, now)
		if daysLeft == 0 {
			continue
		}
		if err := w.dispatcher.ReviewWindowClosing(ctx, b, daysLeft); err != nil {
			logger.WorkerLog("review-reminder", "dispatch", err, "booking_id", b.ID)
			continue
		}
		sent++
	}

	logger.WorkerLog("review-reminder", "remind", nil, "sent", sent)
	return sent
}

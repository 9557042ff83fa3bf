package services

import (
	"sort"
	"time"

	"trekhub_backend/internal/models"
	"trekhub_backend/internal/services/dto"
)

const day = 24 * time.Hour

// ReviewExpiryTracker считает, сколько дней осталось на отзыв после завершения похода.
// Остаток округляется вверх до целых дней: пока окно открыто хотя бы секунду, остается >= 1 день.
type ReviewExpiryTracker struct {
	window time.Duration
	now    func() time.Time
}

func NewReviewExpiryTracker(window time.Duration) *ReviewExpiryTracker {
	return &ReviewExpiryTracker{window: window, now: time.Now}
}

func (t *ReviewExpiryTracker) Window() time.Duration {
	return t.window
}

// DaysUntilExpiryAt = max(0, ceil((W - (now - completedAt)) / 1 день))
func (t *ReviewExpiryTracker) DaysUntilExpiryAt(completedAt, now time.Time) int {
	remaining := t.window - now.Sub(completedAt)
	if remaining <= 0 {
		return 0
	}
	// completedAt в будущем (рассинхрон часов) не дает больше, чем все окно
	if remaining > t.window {
		remaining = t.window
	}
	days := remaining / day
	if remaining%day != 0 {
		days++
	}
	return int(days)
}

func (t *ReviewExpiryTracker) DaysUntilExpiry(completedAt time.Time) int {
	return t.DaysUntilExpiryAt(completedAt, t.now())
}

// OpenSince - самое раннее время завершения, при котором окно еще открыто
func (t *ReviewExpiryTracker) OpenSince() time.Time {
	return t.now().Add(-t.window)
}

// Eligible - бронирование в статусе для отзыва и окно еще не закрылось
func (t *ReviewExpiryTracker) Eligible(booking *models.Booking) bool {
	if booking.CompletedAt == nil || !isReviewable(booking.Status) {
		return false
	}
	return t.DaysUntilExpiry(*booking.CompletedAt) > 0
}

// Project строит PendingReviewDTO для бронирования на момент now
func (t *ReviewExpiryTracker) Project(booking *models.Booking, now time.Time) dto.PendingReviewDTO {
	return dto.PendingReviewDTO{
		BookingID:       booking.ID,
		EventID:         booking.EventID,
		EventTitle:      booking.Event.Title,
		EventImage:      booking.Event.ImageURL,
		OrganizerName:   booking.Event.OrganizerName,
		CompletedDate:   *booking.CompletedAt,
		DaysUntilExpiry: t.DaysUntilExpiryAt(*booking.CompletedAt, now),
	}
}

// Pending оставляет бронирования с открытым окном и без отзыва,
// самые срочные первыми. Результат пересчитывается на каждый вызов.
func (t *ReviewExpiryTracker) Pending(bookings []models.Booking, reviewed map[string]bool) []dto.PendingReviewDTO {
	now := t.now()
	pending := make([]dto.PendingReviewDTO, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if b.CompletedAt == nil || !isReviewable(b.Status) || reviewed[b.ID] {
			continue
		}
		item := t.Project(b, now)
		if item.DaysUntilExpiry == 0 {
			continue
		}
		pending = append(pending, item)
	}

	sortPending(pending)
	return pending
}

func isReviewable(status models.PaymentStatus) bool {
	for _, s := range models.ReviewableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func sortPending(items []dto.PendingReviewDTO) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CompletedDate.Equal(items[j].CompletedDate) {
			return items[i].CompletedDate.Before(items[j].CompletedDate)
		}
		return items[i].BookingID < items[j].BookingID
	})
}

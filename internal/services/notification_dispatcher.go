package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/models"
	"trekhub_backend/internal/services/dto"

	"github.com/google/uuid"
)

// DeliveryQueue - внешний канал доставки. Enqueue не ждет доставки и не повторяет попытки.
type DeliveryQueue interface {
	Enqueue(ctx context.Context, envelope dto.Envelope) error
}

type NotificationDispatcher interface {
	PaymentTransitioned(ctx context.Context, booking *models.Booking, from models.PaymentStatus) error
	ReviewWindowClosing(ctx context.Context, booking *models.Booking, daysLeft int) error
	OtpIssued(ctx context.Context, record *models.OtpRecord, recipient string) error
}

type notificationDispatcher struct {
	queue DeliveryQueue
	now   func() time.Time
}

func NewNotificationDispatcher(queue DeliveryQueue) NotificationDispatcher {
	return &notificationDispatcher{queue: queue, now: time.Now}
}

// transitionNotice - кому и что отправить при входе бронирования в статус
type transitionNotice struct {
	toPayer     bool
	kind        models.NotificationType
	title       string
	messageTmpl string
}

var transitionNotices = map[models.PaymentStatus][]transitionNotice{
	models.PaymentStatusSuccess: {
		{toPayer: true, kind: models.NotificationTypePaymentSuccess, title: "Payment received", messageTmpl: "Your payment for %s was successful."},
		{toPayer: false, kind: models.NotificationTypeBookingConfirmation, title: "New booking", messageTmpl: "A participant booked %s."},
	},
	models.PaymentStatusDecline: {
		{toPayer: true, kind: models.NotificationTypePaymentFailed, title: "Payment declined", messageTmpl: "Your payment for %s was declined."},
	},
	models.PaymentStatusFailed: {
		{toPayer: true, kind: models.NotificationTypePaymentFailed, title: "Payment failed", messageTmpl: "Your payment for %s failed."},
	},
	models.PaymentStatusCancel: {
		{toPayer: true, kind: models.NotificationTypeBookingCancelled, title: "Booking cancelled", messageTmpl: "Your booking for %s was cancelled."},
		{toPayer: false, kind: models.NotificationTypeBookingCancelled, title: "Booking cancelled", messageTmpl: "A booking for %s was cancelled."},
	},
	models.PaymentStatusCompleted: {
		{toPayer: true, kind: models.NotificationTypeReminder, title: "How was your trek?", messageTmpl: "%s is complete. Leave a review while the window is open."},
		{toPayer: false, kind: models.NotificationTypeTrekUpdate, title: "Booking completed", messageTmpl: "A booking for %s is completed and awaits payout."},
	},
	models.PaymentStatusReleased: {
		{toPayer: false, kind: models.NotificationTypePaymentSuccess, title: "Payout released", messageTmpl: "The payout for %s was released."},
	},
	models.PaymentStatusRefunded: {
		{toPayer: true, kind: models.NotificationTypeGeneral, title: "Refund issued", messageTmpl: "Your payment for %s was refunded."},
		{toPayer: false, kind: models.NotificationTypeSystemAlert, title: "Booking refunded", messageTmpl: "A booking for %s was refunded."},
	},
}

// EnvelopesForTransition - чистое отображение перехода в набор уведомлений.
// Плательщик и организатор могут получить разные типы по одному событию.
func EnvelopesForTransition(booking *models.Booking, from, to models.PaymentStatus) []dto.Envelope {
	notices := transitionNotices[to]
	envelopes := make([]dto.Envelope, 0, len(notices))

	title := booking.Event.Title
	if title == "" {
		title = "your trek"
	}

	for _, n := range notices {
		recipient := booking.OrganizerID
		if n.toPayer {
			recipient = booking.PayerID
		}
		envelopes = append(envelopes, dto.Envelope{
			Recipient: recipient,
			Type:      n.kind,
			Title:     n.title,
			Message:   fmt.Sprintf(n.messageTmpl, title),
			Payload: map[string]interface{}{
				"bookingId": booking.ID,
				"eventId":   booking.EventID,
				"from":      string(from),
				"to":        string(to),
			},
		})
	}
	return envelopes
}

func (d *notificationDispatcher) PaymentTransitioned(ctx context.Context, booking *models.Booking, from models.PaymentStatus) error {
	envelopes := EnvelopesForTransition(booking, from, booking.Status)
	logger.CtxDebug(ctx, "Dispatching transition notifications", "booking_id", booking.ID, "to", booking.Status, "count", len(envelopes))
	return d.enqueue(ctx, envelopes...)
}

func (d *notificationDispatcher) ReviewWindowClosing(ctx context.Context, booking *models.Booking, daysLeft int) error {
	return d.enqueue(ctx, dto.Envelope{
		Recipient: booking.PayerID,
		Type:      models.NotificationTypeReminder,
		Title:     "Review window closing",
		Message:   fmt.Sprintf("Only %d day(s) left to review %s.", daysLeft, booking.Event.Title),
		Payload: map[string]interface{}{
			"bookingId":       booking.ID,
			"eventId":         booking.EventID,
			"daysUntilExpiry": daysLeft,
		},
	})
}

// OtpIssued отправляет код получателю: адресу субъекта или пользователю по ID.
// Код передается только в payload для канала доставки, в тексте его нет.
func (d *notificationDispatcher) OtpIssued(ctx context.Context, record *models.OtpRecord, recipient string) error {
	return d.enqueue(ctx, dto.Envelope{
		Recipient: recipient,
		Channel:   dto.ChannelDirect,
		Type:      models.NotificationTypeSystemAlert,
		Title:     "Your verification code",
		Message:   fmt.Sprintf("Use the verification code sent to you. It expires at %s.", record.ExpiresAt.UTC().Format(time.RFC3339)),
		Payload: map[string]interface{}{
			"code":      record.Code,
			"expiresAt": record.ExpiresAt,
		},
	})
}

// enqueue ставит все конверты и возвращает объединенную ошибку по тем, что не встали
func (d *notificationDispatcher) enqueue(ctx context.Context, envelopes ...dto.Envelope) error {
	var errs []error
	for _, env := range envelopes {
		env.ID = uuid.NewString()
		env.CreatedAt = d.now()
		if err := d.queue.Enqueue(ctx, env); err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s for %s: %w", env.Type, env.Recipient, err))
		}
	}
	return errors.Join(errs...)
}

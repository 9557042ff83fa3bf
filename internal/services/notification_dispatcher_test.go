package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"trekhub_backend/internal/models"
	"trekhub_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooking(status models.PaymentStatus) *models.Booking {
	b := &models.Booking{
		EventID:     "event-1",
		PayerID:     "payer-1",
		OrganizerID: "organizer-1",
		Status:      status,
		Event:       models.Event{Title: "Kolsai Lakes"},
	}
	b.ID = "booking-1"
	return b
}

func TestEnvelopesForTransition_Recipients(t *testing.T) {
	type notice struct {
		recipient string
		kind      models.NotificationType
	}
	cases := map[models.PaymentStatus][]notice{
		models.PaymentStatusSuccess: {
			{"payer-1", models.NotificationTypePaymentSuccess},
			{"organizer-1", models.NotificationTypeBookingConfirmation},
		},
		models.PaymentStatusDecline: {{"payer-1", models.NotificationTypePaymentFailed}},
		models.PaymentStatusFailed:  {{"payer-1", models.NotificationTypePaymentFailed}},
		models.PaymentStatusCancel: {
			{"payer-1", models.NotificationTypeBookingCancelled},
			{"organizer-1", models.NotificationTypeBookingCancelled},
		},
		models.PaymentStatusCompleted: {
			{"payer-1", models.NotificationTypeReminder},
			{"organizer-1", models.NotificationTypeTrekUpdate},
		},
		models.PaymentStatusReleased: {{"organizer-1", models.NotificationTypePaymentSuccess}},
		models.PaymentStatusRefunded: {
			{"payer-1", models.NotificationTypeGeneral},
			{"organizer-1", models.NotificationTypeSystemAlert},
		},
		models.PaymentStatusPending: {},
	}

	for to, want := range cases {
		envs := EnvelopesForTransition(testBooking(to), models.PaymentStatusPending, to)
		require.Len(t, envs, len(want), to)
		for i, w := range want {
			assert.Equal(t, w.recipient, envs[i].Recipient, to)
			assert.Equal(t, w.kind, envs[i].Type, to)
			assert.Equal(t, string(to), envs[i].Payload["to"])
			assert.Equal(t, "booking-1", envs[i].Payload["bookingId"])
			assert.Contains(t, envs[i].Message, "Kolsai Lakes")
		}
	}
}

func TestDispatcher_PaymentTransitioned_StampsEnvelopes(t *testing.T) {
	queue := &recordingQueue{}
	d := NewNotificationDispatcher(queue).(*notificationDispatcher)
	stamp := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	d.now = func() time.Time { return stamp }

	err := d.PaymentTransitioned(context.Background(), testBooking(models.PaymentStatusSuccess), models.PaymentStatusPending)
	require.NoError(t, err)

	envs := queue.all()
	require.Len(t, envs, 2)
	assert.NotEmpty(t, envs[0].ID)
	assert.NotEqual(t, envs[0].ID, envs[1].ID)
	assert.Equal(t, stamp, envs[0].CreatedAt)
}

func TestDispatcher_QueueErrorsAreJoined(t *testing.T) {
	boom := errors.New("queue down")
	d := NewNotificationDispatcher(&recordingQueue{err: boom})

	err := d.PaymentTransitioned(context.Background(), testBooking(models.PaymentStatusCancel), models.PaymentStatusPending)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "payer-1")
	assert.Contains(t, err.Error(), "organizer-1")
}

func TestDispatcher_ReviewWindowClosing(t *testing.T) {
	queue := &recordingQueue{}
	d := NewNotificationDispatcher(queue)

	require.NoError(t, d.ReviewWindowClosing(context.Background(), testBooking(models.PaymentStatusCompleted), 2))

	envs := queue.all()
	require.Len(t, envs, 1)
	assert.Equal(t, "payer-1", envs[0].Recipient)
	assert.Equal(t, models.NotificationTypeReminder, envs[0].Type)
	assert.Equal(t, 2, envs[0].Payload["daysUntilExpiry"])
}

func TestDispatcher_OtpIssuedUsesDirectChannel(t *testing.T) {
	queue := &recordingQueue{}
	d := NewNotificationDispatcher(queue)

	record := &models.OtpRecord{Subject: "booking:booking-1:confirm", Code: "123456", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, d.OtpIssued(context.Background(), record, "payer-1"))

	envs := queue.all()
	require.Len(t, envs, 1)
	assert.Equal(t, dto.ChannelDirect, envs[0].Channel)
	assert.Equal(t, "payer-1", envs[0].Recipient)
	assert.Equal(t, "123456", envs[0].Payload["code"])
	// код не попадает в текст сообщения
	assert.NotContains(t, envs[0].Message, "123456")
	assert.NotContains(t, envs[0].Title, "123456")
}

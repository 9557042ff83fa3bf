package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"trekhub_backend/internal/config"
	"trekhub_backend/internal/email"
	"trekhub_backend/internal/models"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	svc      *bookingService
	bookings *memoryBookingRepo
	events   *mockEventRepo
	queue    *recordingQueue
	otp      OtpService
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	bookings := newMemoryBookingRepo()
	events := &mockEventRepo{}
	queue := &recordingQueue{}
	dispatcher := NewNotificationDispatcher(queue)
	otp := NewOtpService(newMemoryOtpStore(), nil, config.DefaultPolicy())

	svc := NewBookingService(bookings, events, otp, dispatcher).(*bookingService)
	return &bookingFixture{svc: svc, bookings: bookings, events: events, queue: queue, otp: otp}
}

func (f *bookingFixture) seed(status models.PaymentStatus) string {
	b := models.Booking{
		EventID:     "event-1",
		PayerID:     "payer-1",
		OrganizerID: "organizer-1",
		Amount:      50000,
		Currency:    "KZT",
		Status:      status,
		Event:       models.Event{Title: "Big Almaty Lake"},
	}
	b.ID = "booking-1"
	f.bookings.put(b)
	return b.ID
}

func TestCreateBooking_StartsPending(t *testing.T) {
	f := newBookingFixture(t)
	event := &models.Event{OrganizerID: "organizer-1", Title: "Charyn"}
	event.ID = "event-1"
	f.events.On("FindEventByID", mock.Anything, "event-1").Return(event, nil)

	resp, err := f.svc.CreateBooking(context.Background(), "payer-1", &dto.CreateBookingRequest{
		EventID: "event-1", Amount: 1000, Currency: "KZT",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, resp.Status)
	assert.Equal(t, "organizer-1", resp.OrganizerID)
	assert.Equal(t, int64(1), resp.Version)

	history, err := f.svc.GetHistory(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Empty(t, history[0].From)
	assert.Equal(t, models.PaymentStatusPending, history[0].To)
	f.events.AssertExpectations(t)
}

func TestCreateBooking_UnknownEvent(t *testing.T) {
	f := newBookingFixture(t)
	f.events.On("FindEventByID", mock.Anything, "missing").Return(nil, repositories.ErrEventNotFound)

	_, err := f.svc.CreateBooking(context.Background(), "payer-1", &dto.CreateBookingRequest{EventID: "missing"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestTransition_HappyPathToReleased(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)
	ctx := context.Background()

	for _, to := range []models.PaymentStatus{
		models.PaymentStatusSuccess,
		models.PaymentStatusCompleted,
		models.PaymentStatusReleased,
	} {
		resp, err := f.svc.Transition(ctx, id, to, "test")
		require.NoError(t, err, to)
		assert.Equal(t, to, resp.Status)
	}

	resp, err := f.svc.GetBooking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Version)
	assert.NotNil(t, resp.CompletedAt)

	history, err := f.svc.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.PaymentStatusCompleted, history[1].From)
	assert.Equal(t, models.PaymentStatusReleased, history[2].To)

	// SUCCESS: 2, COMPLETED: 2, RELEASED: 1
	assert.Len(t, f.queue.all(), 5)
}

func TestTransition_InvalidEdgeLeavesBookingUntouched(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)

	_, err := f.svc.Transition(context.Background(), id, models.PaymentStatusReleased, "skip")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	b, _ := f.bookings.FindBookingByID(context.Background(), id)
	assert.Equal(t, models.PaymentStatusPending, b.Status)
	assert.Equal(t, int64(1), b.Version)
	assert.Empty(t, f.queue.all())
}

func TestTransition_TerminalStatusRejectsEverything(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusRefunded)

	for _, to := range models.PaymentStatuses {
		_, err := f.svc.Transition(context.Background(), id, to, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, to)
	}
}

func TestTransition_RetriesOnceOnStaleVersion(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusSuccess)

	calls := 0
	f.bookings.beforeApply = func(stored *models.Booking) {
		calls++
		if calls == 1 {
			// чужая запись подняла версию, статус тот же
			stored.Version++
		}
	}

	resp, err := f.svc.Transition(context.Background(), id, models.PaymentStatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Status)
	assert.Equal(t, int64(3), resp.Version)
	assert.Equal(t, 2, calls)
}

func TestTransition_ConflictAfterSecondStale(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusSuccess)
	f.bookings.beforeApply = func(stored *models.Booking) { stored.Version++ }

	_, err := f.svc.Transition(context.Background(), id, models.PaymentStatusCompleted, "")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
}

func TestTransition_RevalidatesAfterConcurrentStatusChange(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)

	calls := 0
	f.bookings.beforeApply = func(stored *models.Booking) {
		calls++
		if calls == 1 {
			stored.Status = models.PaymentStatusCancel
			stored.Version++
		}
	}

	_, err := f.svc.Transition(context.Background(), id, models.PaymentStatusSuccess, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestTransition_ConcurrentCallsSingleWinner(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)
	targets := []models.PaymentStatus{
		models.PaymentStatusSuccess,
		models.PaymentStatusCancel,
		models.PaymentStatusDecline,
		models.PaymentStatusFailed,
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, to := range targets {
		wg.Add(1)
		go func(to models.PaymentStatus) {
			defer wg.Done()
			if _, err := f.svc.Transition(context.Background(), id, to, ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	history, _ := f.bookings.FindHistory(context.Background(), id)
	assert.Len(t, history, 1)
}

func TestTransition_UnknownBooking(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Transition(context.Background(), "nope", models.PaymentStatusSuccess, "")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestConfirmWithOtp(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)
	ctx := context.Background()

	_, err := f.svc.RequestActionOtp(ctx, "stranger", id, OtpActionConfirm)
	require.ErrorIs(t, err, apperrors.NewForbiddenError(""))

	record, err := f.svc.RequestActionOtp(ctx, "payer-1", id, OtpActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, "booking:booking-1:confirm", record.Subject)

	wrong := "000000"
	if record.Code == wrong {
		wrong = "111111"
	}
	_, err = f.svc.ConfirmWithOtp(ctx, "payer-1", id, wrong)
	require.ErrorIs(t, err, apperrors.ErrOtpMismatch)

	resp, err := f.svc.ConfirmWithOtp(ctx, "payer-1", id, record.Code)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, resp.Status)
}

func TestReleasePayout_InvalidEdgeKeepsCode(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusSuccess)
	ctx := context.Background()

	record, err := f.svc.RequestActionOtp(ctx, "organizer-1", id, OtpActionRelease)
	require.NoError(t, err)

	// SUCCESS -> RELEASED недопустим, код не расходуется
	_, err = f.svc.ReleasePayout(ctx, "organizer-1", id, record.Code)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.svc.Transition(ctx, id, models.PaymentStatusCompleted, "")
	require.NoError(t, err)

	resp, err := f.svc.ReleasePayout(ctx, "organizer-1", id, record.Code)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusReleased, resp.Status)
}

func TestRequestActionOtp_UnknownAction(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)

	_, err := f.svc.RequestActionOtp(context.Background(), "payer-1", id, "refund")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestConfirmWithOtp_CodeReachesPayerThroughDelivery(t *testing.T) {
	bookings := newMemoryBookingRepo()
	queue := &recordingQueue{}
	dispatcher := NewNotificationDispatcher(queue)
	otp := NewOtpService(newMemoryOtpStore(), dispatcher, config.DefaultPolicy())
	svc := NewBookingService(bookings, &mockEventRepo{}, otp, dispatcher)
	f := &bookingFixture{bookings: bookings}
	id := f.seed(models.PaymentStatusPending)
	ctx := context.Background()

	_, err := svc.RequestActionOtp(ctx, "payer-1", id, OtpActionConfirm)
	require.NoError(t, err)

	envs := queue.all()
	require.Len(t, envs, 1)
	assert.Equal(t, "payer-1", envs[0].Recipient)
	assert.Equal(t, dto.ChannelDirect, envs[0].Channel)

	users := &mockUserRepo{}
	users.On("FindUserByID", mock.Anything, "payer-1").Return(&models.User{Email: "payer@example.com"}, nil)
	var delivered string
	mailer := &mockEmailProvider{}
	mailer.On("SendTemplate", []string{"payer@example.com"}, mock.Anything, email.TemplateOtp, mock.Anything).
		Run(func(args mock.Arguments) {
			delivered, _ = args.Get(3).(email.TemplateData)["Code"].(string)
		}).
		Return(nil)

	notifications := NewNotificationService(&mockNotificationRepo{}, users, mailer)
	require.NoError(t, notifications.Deliver(ctx, envs[0]))
	require.Len(t, delivered, 6)

	resp, err := svc.ConfirmWithOtp(ctx, "payer-1", id, delivered)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, resp.Status)
	assert.Equal(t, []models.PaymentStatus{models.PaymentStatusCompleted, models.PaymentStatusRefunded}, resp.AllowedTransitions)
	assert.False(t, resp.Terminal)
}

// verifyHookOtp вызывает hook перед проверкой кода
type verifyHookOtp struct {
	OtpService
	hook func()
}

func (o *verifyHookOtp) Verify(ctx context.Context, subject, code string) (OtpResult, error) {
	o.hook()
	return o.OtpService.Verify(ctx, subject, code)
}

func TestConfirmWithOtp_HoldsBookingLockAcrossVerify(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusPending)
	ctx := context.Background()

	record, err := f.svc.RequestActionOtp(ctx, "payer-1", id, OtpActionConfirm)
	require.NoError(t, err)

	cancelDone := make(chan error, 1)
	f.svc.otp = &verifyHookOtp{
		OtpService: f.otp,
		hook: func() {
			go func() {
				_, err := f.svc.Transition(ctx, id, models.PaymentStatusCancel, "admin")
				cancelDone <- err
			}()
			// параллельный переход ждет, пока подтверждение не завершится
			select {
			case <-cancelDone:
				t.Error("transition ran while the confirmation held the booking")
			case <-time.After(50 * time.Millisecond):
			}
		},
	}

	resp, err := f.svc.ConfirmWithOtp(ctx, "payer-1", id, record.Code)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, resp.Status)

	// SUCCESS -> CANCEL недопустим
	assert.ErrorIs(t, <-cancelDone, apperrors.ErrInvalidTransition)
}

func TestGetBooking_TerminalHasNoTransitions(t *testing.T) {
	f := newBookingFixture(t)
	id := f.seed(models.PaymentStatusDecline)

	resp, err := f.svc.GetBooking(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, resp.Terminal)
	assert.Empty(t, resp.AllowedTransitions)
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/models"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// transitionAttempts - первая попытка и один повтор после конфликта версий
const transitionAttempts = 2

// Действия, подтверждаемые одноразовым кодом
const (
	OtpActionConfirm = "confirm"
	OtpActionRelease = "release"
)

type BookingService interface {
	CreateBooking(ctx context.Context, payerID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error)
	GetHistory(ctx context.Context, bookingID string) ([]dto.TransitionResponse, error)
	Transition(ctx context.Context, bookingID string, target models.PaymentStatus, reason string) (*dto.BookingResponse, error)

	// OTP-gated actions
	RequestActionOtp(ctx context.Context, viewerID, bookingID, action string) (*models.OtpRecord, error)
	ConfirmWithOtp(ctx context.Context, viewerID, bookingID, code string) (*dto.BookingResponse, error)
	ReleasePayout(ctx context.Context, viewerID, bookingID, code string) (*dto.BookingResponse, error)
}

type bookingService struct {
	bookingRepo repositories.BookingRepository
	eventRepo   repositories.EventRepository
	otp         OtpService
	dispatcher  NotificationDispatcher
	locks       *keyedMutex
	now         func() time.Time
}

func NewBookingService(
	bookingRepo repositories.BookingRepository,
	eventRepo repositories.EventRepository,
	otp OtpService,
	dispatcher NotificationDispatcher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		eventRepo:   eventRepo,
		otp:         otp,
		dispatcher:  dispatcher,
		locks:       newKeyedMutex(),
		now:         time.Now,
	}
}

// BookingOtpSubject - ключ OTP для действия над бронированием.
// Публичные эндпоинты /otp этот префикс не принимают.
func BookingOtpSubject(action, bookingID string) string {
	return models.BookingOtpPrefix + bookingID + ":" + action
}

func (s *bookingService) CreateBooking(ctx context.Context, payerID string, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	event, err := s.eventRepo.FindEventByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, apperrors.ErrNotFound(err, "booking", "Event")
		}
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	booking := &models.Booking{
		EventID:     event.ID,
		PayerID:     payerID,
		OrganizerID: event.OrganizerID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      InitialPaymentStatus,
		Version:     1,
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	initial := &models.BookingTransition{
		To:         InitialPaymentStatus,
		Reason:     "created",
		OccurredAt: now,
	}

	if err := s.bookingRepo.CreateBooking(ctx, booking, initial); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Booking created", "booking_id", booking.ID, "event_id", event.ID, "payer_id", payerID)
	return bookingResponse(booking), nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*dto.BookingResponse, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return bookingResponse(booking), nil
}

// bookingResponse дополняет ответ допустимыми следующими статусами
func bookingResponse(booking *models.Booking) *dto.BookingResponse {
	resp := dto.NewBookingResponse(booking)
	resp.AllowedTransitions = AllowedTransitions(booking.Status)
	resp.Terminal = IsTerminal(booking.Status)
	return resp
}

func (s *bookingService) GetHistory(ctx context.Context, bookingID string) ([]dto.TransitionResponse, error) {
	if _, err := s.load(ctx, bookingID); err != nil {
		return nil, err
	}

	history, err := s.bookingRepo.FindHistory(ctx, bookingID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.TransitionResponse, 0, len(history))
	for _, h := range history {
		out = append(out, dto.TransitionResponse{
			From:       h.From,
			To:         h.To,
			Reason:     h.Reason,
			OccurredAt: h.OccurredAt,
		})
	}
	return out, nil
}

// Transition переводит бронирование в target. Переходы одного бронирования сериализуются,
// запись условна по (version, status). Конфликт версий повторяется один раз на свежем состоянии.
func (s *bookingService) Transition(ctx context.Context, bookingID string, target models.PaymentStatus, reason string) (*dto.BookingResponse, error) {
	ctx = logger.WithCorrelationID(ctx, bookingID)
	unlock := s.locks.Lock(bookingID)
	defer unlock()

	return s.transitionLocked(ctx, bookingID, target, reason)
}

// transitionLocked вызывается под блокировкой бронирования
func (s *bookingService) transitionLocked(ctx context.Context, bookingID string, target models.PaymentStatus, reason string) (*dto.BookingResponse, error) {
	var lastErr error
	for attempt := 0; attempt < transitionAttempts; attempt++ {
		booking, err := s.load(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		from := booking.Status

		if err := ValidateTransition(from, target); err != nil {
			logger.CtxWarn(ctx, "Rejected payment transition", "booking_id", bookingID, "from", from, "to", target)
			return nil, err
		}

		now := s.now()
		meta, _ := json.Marshal(map[string]interface{}{"version": booking.Version + 1})
		transition := &models.BookingTransition{
			From:       from,
			To:         target,
			Reason:     reason,
			Meta:       datatypes.JSON(meta),
			OccurredAt: now,
		}

		err = s.bookingRepo.ApplyTransition(ctx, booking, target, transition)
		if errors.Is(err, repositories.ErrStaleBooking) {
			lastErr = err
			logger.CtxWarn(ctx, "Stale booking on transition, reloading", "booking_id", bookingID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, apperrors.InternalError(err)
		}

		logger.CtxInfo(ctx, "Payment status changed", "booking_id", bookingID, "from", from, "to", target, "version", booking.Version)

		if err := s.dispatcher.PaymentTransitioned(ctx, booking, from); err != nil {
			// переход уже зафиксирован; доставка не откатывает его
			logger.CtxWithError(ctx, "Failed to enqueue transition notifications", err, "booking_id", bookingID)
		}
		return bookingResponse(booking), nil
	}

	return nil, apperrors.ErrConflict(lastErr, "booking", "Booking was modified concurrently, retry the request")
}

// RequestActionOtp выпускает код для подтверждения действия над бронированием.
// confirm доступен плательщику, release - организатору. Код уходит тому, кто действует.
func (s *bookingService) RequestActionOtp(ctx context.Context, viewerID, bookingID, action string) (*models.OtpRecord, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAction(booking, viewerID, action); err != nil {
		return nil, err
	}
	return s.otp.IssueFor(ctx, BookingOtpSubject(action, bookingID), viewerID)
}

func (s *bookingService) ConfirmWithOtp(ctx context.Context, viewerID, bookingID, code string) (*dto.BookingResponse, error) {
	return s.gatedTransition(ctx, viewerID, bookingID, OtpActionConfirm, code, models.PaymentStatusSuccess)
}

func (s *bookingService) ReleasePayout(ctx context.Context, viewerID, bookingID, code string) (*dto.BookingResponse, error) {
	return s.gatedTransition(ctx, viewerID, bookingID, OtpActionRelease, code, models.PaymentStatusReleased)
}

// gatedTransition держит блокировку бронирования от проверки ребра до записи,
// чтобы параллельный переход не сжег код между проверкой и переходом
func (s *bookingService) gatedTransition(ctx context.Context, viewerID, bookingID, action, code string, target models.PaymentStatus) (*dto.BookingResponse, error) {
	ctx = logger.WithCorrelationID(ctx, bookingID)
	unlock := s.locks.Lock(bookingID)
	defer unlock()

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAction(booking, viewerID, action); err != nil {
		return nil, err
	}
	// недопустимый переход не тратит код
	if err := ValidateTransition(booking.Status, target); err != nil {
		return nil, err
	}
	if err := VerifyOrError(ctx, s.otp, BookingOtpSubject(action, bookingID), code); err != nil {
		return nil, err
	}
	return s.transitionLocked(ctx, bookingID, target, action+" confirmed by otp")
}

func (s *bookingService) authorizeAction(booking *models.Booking, viewerID, action string) error {
	switch action {
	case OtpActionConfirm:
		if booking.PayerID != viewerID {
			return apperrors.NewForbiddenError("Only the payer can confirm the booking")
		}
	case OtpActionRelease:
		if booking.OrganizerID != viewerID {
			return apperrors.NewForbiddenError("Only the organizer can release the payout")
		}
	default:
		return apperrors.ValidationError(map[string]string{"action": "Must be one of: confirm, release"})
	}
	return nil
}

func (s *bookingService) load(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindBookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, apperrors.ErrNotFound(err, "booking", "Booking")
		}
		return nil, apperrors.InternalError(err)
	}
	return booking, nil
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trekhub_backend/internal/email"
	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/models"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

// ErrNoDirectChannel - для прямой доставки нет канала (например, SMS не подключен)
var ErrNoDirectChannel = errors.New("no delivery channel for recipient")

// emailTypes - типы, которые дублируются письмом
var emailTypes = map[models.NotificationType]bool{
	models.NotificationTypeBookingConfirmation: true,
	models.NotificationTypeBookingCancelled:    true,
	models.NotificationTypePaymentSuccess:      true,
	models.NotificationTypePaymentFailed:       true,
	models.NotificationTypeReminder:            true,
}

type NotificationService interface {
	GetUserNotifications(ctx context.Context, userID string, unreadOnly bool, page dto.PageRequest) (*dto.PaginatedResponse[dto.NotificationResponse], error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error

	// Deliver выполняет доставку одного конверта: in-app запись и, если нужно, письмо
	Deliver(ctx context.Context, envelope dto.Envelope) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	emailProvider    email.Provider
	now              func() time.Time
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	emailProvider email.Provider,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		emailProvider:    emailProvider,
		now:              time.Now,
	}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, unreadOnly bool, page dto.PageRequest) (*dto.PaginatedResponse[dto.NotificationResponse], error) {
	page = page.Normalize()
	notifications, total, err := s.notificationRepo.FindUserNotifications(ctx, userID, unreadOnly, page.Size, page.Offset())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		var payload map[string]interface{}
		if len(n.Payload) > 0 {
			if err := json.Unmarshal(n.Payload, &payload); err != nil {
				logger.CtxWarn(ctx, "Corrupted notification payload", "notification_id", n.ID, "error", err)
			}
		}
		items = append(items, dto.NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Payload:   payload,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}

	resp := dto.PageOf(page.Index0(), page.Size, total, items)
	return &resp, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	err := s.notificationRepo.MarkAsRead(ctx, userID, notificationID, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.ErrNotFound(err, "notification", "Notification")
		}
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) Deliver(ctx context.Context, envelope dto.Envelope) error {
	if envelope.Channel == dto.ChannelDirect {
		return s.deliverDirect(ctx, envelope)
	}

	payload, err := json.Marshal(envelope.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	notification := &models.Notification{
		UserID:  envelope.Recipient,
		Type:    envelope.Type,
		Title:   envelope.Title,
		Message: envelope.Message,
		Payload: datatypes.JSON(payload),
	}
	notification.ID = envelope.ID
	if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	if !emailTypes[envelope.Type] {
		return nil
	}

	user, err := s.userRepo.FindUserByID(ctx, envelope.Recipient)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if user.Email == "" {
		return nil
	}
	return s.emailProvider.SendTemplate([]string{user.Email}, envelope.Title, email.TemplateNotification, email.TemplateData{
		"Title":   envelope.Title,
		"Message": envelope.Message,
	})
}

// deliverDirect отправляет код письмом. Получатель - email субъекта или ID пользователя,
// тогда адрес берется из профиля. Телефоны обслуживает внешний канал.
func (s *notificationService) deliverDirect(ctx context.Context, envelope dto.Envelope) error {
	address, err := s.directAddress(ctx, envelope.Recipient)
	if err != nil {
		return err
	}
	return s.emailProvider.SendTemplate([]string{address}, envelope.Title, email.TemplateOtp, email.TemplateData{
		"Code":      envelope.Payload["code"],
		"ExpiresAt": envelope.Payload["expiresAt"],
	})
}

func (s *notificationService) directAddress(ctx context.Context, recipient string) (string, error) {
	if strings.Contains(recipient, "@") {
		return recipient, nil
	}
	if strings.HasPrefix(recipient, "+") {
		return "", ErrNoDirectChannel
	}

	user, err := s.userRepo.FindUserByID(ctx, recipient)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return "", ErrNoDirectChannel
		}
		return "", fmt.Errorf("load recipient: %w", err)
	}
	if user.Email == "" {
		return "", ErrNoDirectChannel
	}
	return user.Email, nil
}

package repositories

import (
	"context"
	"errors"
	"time"

	"trekhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	// ErrStaleBooking - бронирование изменилось между чтением и записью (версия или статус)
	ErrStaleBooking = errors.New("booking was modified concurrently")
)

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking, initial *models.BookingTransition) error
	FindBookingByID(ctx context.Context, id string) (*models.Booking, error)
	ApplyTransition(ctx context.Context, booking *models.Booking, to models.PaymentStatus, transition *models.BookingTransition) error
	FindHistory(ctx context.Context, bookingID string) ([]models.BookingTransition, error)
	FindReviewableByPayer(ctx context.Context, payerID string, completedAfter time.Time) ([]models.Booking, error)
	FindReviewableCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

type BookingRepositoryImpl struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &BookingRepositoryImpl{db: db}
}

func (r *BookingRepositoryImpl) CreateBooking(ctx context.Context, booking *models.Booking, initial *models.BookingTransition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Event", "History").Create(booking).Error; err != nil {
			return err
		}
		initial.BookingID = booking.ID
		return tx.Create(initial).Error
	})
}

func (r *BookingRepositoryImpl) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Preload("Event").First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ApplyTransition атомарно меняет статус при условии, что версия и статус не изменились
// с момента чтения booking, и пишет запись истории в той же транзакции.
// При успехе booking обновляется на месте.
func (r *BookingRepositoryImpl) ApplyTransition(ctx context.Context, booking *models.Booking, to models.PaymentStatus, transition *models.BookingTransition) error {
	updates := map[string]interface{}{
		"status":     to,
		"version":    gorm.Expr("version + 1"),
		"updated_at": transition.OccurredAt,
	}
	if to == models.PaymentStatusCompleted {
		updates["completed_at"] = transition.OccurredAt
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Booking{}).
			Where("id = ? AND version = ? AND status = ?", booking.ID, booking.Version, booking.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleBooking
		}

		transition.BookingID = booking.ID
		return tx.Create(transition).Error
	})
	if err != nil {
		return err
	}

	booking.Status = to
	booking.Version++
	booking.UpdatedAt = transition.OccurredAt
	if to == models.PaymentStatusCompleted {
		completedAt := transition.OccurredAt
		booking.CompletedAt = &completedAt
	}
	return nil
}

func (r *BookingRepositoryImpl) FindHistory(ctx context.Context, bookingID string) ([]models.BookingTransition, error) {
	var history []models.BookingTransition
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("occurred_at ASC").
		Find(&history).Error
	return history, err
}

// FindReviewableByPayer возвращает завершенные бронирования плательщика, у которых
// окно отзыва еще может быть открыто (completed_at позже completedAfter).
func (r *BookingRepositoryImpl) FindReviewableByPayer(ctx context.Context, payerID string, completedAfter time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("payer_id = ? AND status IN ? AND completed_at > ?", payerID, models.ReviewableStatuses, completedAfter).
		Order("completed_at ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *BookingRepositoryImpl) FindReviewableCompletedBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("status IN ? AND completed_at > ? AND completed_at <= ?", models.ReviewableStatuses, from, to).
		Find(&bookings).Error
	return bookings, err
}

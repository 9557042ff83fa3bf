package repositories

import (
	"context"
	"errors"

	"trekhub_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
)

type UserRepository interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

type EventRepository interface {
	FindEventByID(ctx context.Context, id string) (*models.Event, error)
	SearchEvents(ctx context.Context, query string, limit int) ([]models.Event, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

type EventRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *EventRepositoryImpl) FindEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// SearchEvents ищет ближайшие походы по подстроке в названии
func (r *EventRepositoryImpl) SearchEvents(ctx context.Context, query string, limit int) ([]models.Event, error) {
	var events []models.Event
	db := r.db.WithContext(ctx)
	if query != "" {
		db = db.Where("title ILIKE ?", "%"+query+"%")
	}
	err := db.Order("starts_at ASC").Limit(limit).Find(&events).Error
	return events, err
}

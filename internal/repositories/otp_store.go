package repositories

import (
	"context"
	"errors"
	"time"

	"trekhub_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOtpNotFound = errors.New("otp not found")

// OtpRetention - сколько истекшая запись хранится после expires_at в любом хранилище,
// чтобы поздняя проверка вернула EXPIRED, а не "не найдено"
const OtpRetention = 10 * time.Minute

// OtpStore хранит не более одной записи на субъект.
// SaveOtp заменяет предыдущую запись субъекта целиком.
type OtpStore interface {
	SaveOtp(ctx context.Context, record *models.OtpRecord) error
	FindOtp(ctx context.Context, subject string) (*models.OtpRecord, error)
	UpdateOtp(ctx context.Context, record *models.OtpRecord) error
	DeleteOtp(ctx context.Context, subject string) error
	// DeleteExpired удаляет использованные записи и записи, истекшие раньше now - OtpRetention.
	// Возвращает число удаленных.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormOtpStore struct {
	db *gorm.DB
}

func NewGormOtpStore(db *gorm.DB) OtpStore {
	return &GormOtpStore{db: db}
}

func (s *GormOtpStore) SaveOtp(ctx context.Context, record *models.OtpRecord) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}},
			DoUpdates: clause.AssignmentColumns([]string{"code_hash", "created_at", "expires_at", "consumed", "attempts"}),
		}).
		Create(record).Error
}

func (s *GormOtpStore) FindOtp(ctx context.Context, subject string) (*models.OtpRecord, error) {
	var record models.OtpRecord
	err := s.db.WithContext(ctx).First(&record, "subject = ?", subject).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOtpNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *GormOtpStore) UpdateOtp(ctx context.Context, record *models.OtpRecord) error {
	result := s.db.WithContext(ctx).Model(&models.OtpRecord{}).
		Where("subject = ? AND code_hash = ?", record.Subject, record.CodeHash).
		Updates(map[string]interface{}{"consumed": record.Consumed, "attempts": record.Attempts})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOtpNotFound
	}
	return nil
}

func (s *GormOtpStore) DeleteOtp(ctx context.Context, subject string) error {
	return s.db.WithContext(ctx).Delete(&models.OtpRecord{}, "subject = ?", subject).Error
}

func (s *GormOtpStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-OtpRetention)
	result := s.db.WithContext(ctx).Delete(&models.OtpRecord{}, "expires_at < ? OR consumed = ?", cutoff, true)
	return result.RowsAffected, result.Error
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Booking - бронирование похода плательщиком. Статус меняется только через переходы.
type Booking struct {
	BaseModel
	EventID     string        `gorm:"type:uuid;not null;index"`
	PayerID     string        `gorm:"type:uuid;not null;index"`
	OrganizerID string        `gorm:"type:uuid;not null;index"`
	Amount      int64         `gorm:"not null"` // в минимальных единицах валюты
	Currency    string        `gorm:"type:varchar(3);not null"`
	Status      PaymentStatus `gorm:"type:varchar(16);not null;index"`
	Version     int64         `gorm:"not null;default:1"`
	CompletedAt *time.Time    `gorm:"index"`

	// Relations
	Event   Event               `gorm:"foreignKey:EventID"`
	History []BookingTransition `gorm:"foreignKey:BookingID"`
}

// BookingTransition - запись истории статусов. From пуст для записи о создании.
type BookingTransition struct {
	ID         string        `gorm:"type:uuid;primaryKey"`
	BookingID  string        `gorm:"type:uuid;not null;index"`
	From       PaymentStatus `gorm:"column:from_status;type:varchar(16)"`
	To         PaymentStatus `gorm:"column:to_status;type:varchar(16);not null"`
	Reason     string
	Meta       datatypes.JSON `gorm:"type:jsonb"`
	OccurredAt time.Time      `gorm:"not null;index"`
}

func (t *BookingTransition) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

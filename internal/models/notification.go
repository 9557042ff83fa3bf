package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification - in-app уведомление, сохраненное воркером доставки
type Notification struct {
	BaseModel
	UserID  string           `gorm:"not null;index"`
	Type    NotificationType `gorm:"type:varchar(32);not null"`
	Title   string           `gorm:"not null"`
	Message string
	Payload datatypes.JSON `gorm:"type:jsonb"`
	IsRead  bool           `gorm:"default:false"`
	ReadAt  *time.Time
}

package models

import "time"

// Event - поход/мероприятие, которое бронируют пользователи
type Event struct {
	BaseModel
	Title         string `gorm:"not null"`
	ImageURL      string
	OrganizerID   string `gorm:"type:uuid;not null;index"`
	OrganizerName string `gorm:"not null"`
	StartsAt      time.Time
}

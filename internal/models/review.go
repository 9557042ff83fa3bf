package models

import "time"

// Review - отзыв плательщика по завершенному бронированию. Один отзыв на бронирование.
type Review struct {
	BaseModel
	BookingID    string       `gorm:"type:uuid;not null;uniqueIndex"`
	EventID      string       `gorm:"type:uuid;not null;index"`
	AuthorID     string       `gorm:"type:uuid;not null;index"`
	Rating       int          `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment      string       `gorm:"type:text"`
	HelpfulCount int64        `gorm:"not null;default:0;check:helpful_count >= 0"`
	Status       ReviewStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
	ModeratedAt  *time.Time
}

// ReviewHelpfulVote - отметка "полезно" от конкретного пользователя
type ReviewHelpfulVote struct {
	ReviewID  string    `gorm:"type:uuid;primaryKey"`
	VoterID   string    `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

package dto

import "time"

// ======================
// Request DTOs
// ======================

type SubmitReviewRequest struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"omitempty,max=2000"`
}

type ModerateReviewRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// ======================
// Response DTOs
// ======================

// ReviewDTO - отзыв глазами конкретного зрителя: IsHelpful считается на каждый запрос
type ReviewDTO struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
	HelpfulCount int64     `json:"helpfulCount"`
	IsHelpful    bool      `json:"isHelpful"`
	Status       string    `json:"status,omitempty"`
}

// PendingReviewDTO - завершенное бронирование, по которому еще можно оставить отзыв
type PendingReviewDTO struct {
	BookingID       string    `json:"bookingId"`
	EventID         string    `json:"eventId"`
	EventTitle      string    `json:"eventTitle"`
	EventImage      string    `json:"eventImage"`
	OrganizerName   string    `json:"organizerName"`
	CompletedDate   time.Time `json:"completedDate"`
	DaysUntilExpiry int       `json:"daysUntilExpiry"`
}

package dto

import (
	"time"

	"trekhub_backend/internal/models"
)

type CreateBookingRequest struct {
	EventID  string `json:"eventId" validate:"required,uuid"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

type TransitionRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required,is-payment-status"`
	Reason string               `json:"reason" validate:"omitempty,max=500"`
}

// OtpGatedRequest - действие, подтвержденное одноразовым кодом
type OtpGatedRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

type BookingResponse struct {
	ID          string               `json:"id"`
	EventID     string               `json:"eventId"`
	PayerID     string               `json:"payerId"`
	OrganizerID string               `json:"organizerId"`
	Amount      int64                `json:"amount"`
	Currency    string               `json:"currency"`
	Status      models.PaymentStatus `json:"status"`
	Version     int64                `json:"version"`
	CompletedAt *time.Time           `json:"completedAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`

	AllowedTransitions []models.PaymentStatus `json:"allowedTransitions"`
	Terminal           bool                   `json:"terminal"`
}

type TransitionResponse struct {
	From       models.PaymentStatus `json:"from,omitempty"`
	To         models.PaymentStatus `json:"to"`
	Reason     string               `json:"reason,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

func NewBookingResponse(b *models.Booking) *BookingResponse {
	return &BookingResponse{
		ID:          b.ID,
		EventID:     b.EventID,
		PayerID:     b.PayerID,
		OrganizerID: b.OrganizerID,
		Amount:      b.Amount,
		Currency:    b.Currency,
		Status:      b.Status,
		Version:     b.Version,
		CompletedAt: b.CompletedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

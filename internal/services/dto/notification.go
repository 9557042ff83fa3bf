package dto

import (
	"time"

	"trekhub_backend/internal/models"
)

// ChannelDirect - доставка прямо на адрес получателя (OTP), без in-app записи
const ChannelDirect = "direct"

// Envelope - одно уведомление одному получателю, готовое к доставке
type Envelope struct {
	ID        string                  `json:"id"`
	Recipient string                  `json:"recipient"`
	Channel   string                  `json:"channel,omitempty"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Payload   map[string]interface{}  `json:"payload,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Payload   map[string]interface{}  `json:"payload,omitempty"`
	IsRead    bool                    `json:"isRead"`
	CreatedAt time.Time               `json:"createdAt"`
}

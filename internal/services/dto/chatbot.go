package dto

import (
	"fmt"
	"strings"
	"time"
)

type ChatbotResponseType string

const (
	ChatbotTextOnly       ChatbotResponseType = "TEXT_ONLY"
	ChatbotEventsOnly     ChatbotResponseType = "EVENTS_ONLY"
	ChatbotTextWithEvents ChatbotResponseType = "TEXT_WITH_EVENTS"
)

func (t ChatbotResponseType) IsValid() bool {
	switch t {
	case ChatbotTextOnly, ChatbotEventsOnly, ChatbotTextWithEvents:
		return true
	}
	return false
}

type ChatbotRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

type ChatbotEventDTO struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Image         string    `json:"image,omitempty"`
	OrganizerName string    `json:"organizerName"`
	StartsAt      time.Time `json:"startsAt"`
}

type ChatbotResponse struct {
	Type    ChatbotResponseType `json:"type" validate:"required,is-chatbot-response-type"`
	Message string              `json:"message,omitempty"`
	Events  []ChatbotEventDTO   `json:"events,omitempty"`
}

// Validate проверяет согласованность type с заполненными полями.
// Возвращает карту "поле -> сообщение" или nil.
func (r *ChatbotResponse) Validate() map[string]string {
	errs := make(map[string]string)
	hasMessage := strings.TrimSpace(r.Message) != ""
	hasEvents := len(r.Events) > 0

	switch r.Type {
	case ChatbotTextOnly:
		if !hasMessage {
			errs["message"] = "Required for TEXT_ONLY"
		}
		if hasEvents {
			errs["events"] = "Must be empty for TEXT_ONLY"
		}
	case ChatbotEventsOnly:
		if !hasEvents {
			errs["events"] = "Required for EVENTS_ONLY"
		}
	case ChatbotTextWithEvents:
		if !hasMessage {
			errs["message"] = "Required for TEXT_WITH_EVENTS"
		}
		if !hasEvents {
			errs["events"] = "Required for TEXT_WITH_EVENTS"
		}
	default:
		errs["type"] = fmt.Sprintf("Unknown response type %q", r.Type)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

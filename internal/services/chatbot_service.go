package services

import (
	"context"
	"strings"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"
)

// ChatbotEngine - внешний собеседник, который формирует ответ на сообщение пользователя
type ChatbotEngine interface {
	Respond(ctx context.Context, viewerID, message string) (*dto.ChatbotResponse, error)
}

type ChatbotService interface {
	Reply(ctx context.Context, viewerID, message string) (*dto.ChatbotResponse, error)
}

type chatbotService struct {
	engine ChatbotEngine
}

func NewChatbotService(engine ChatbotEngine) ChatbotService {
	return &chatbotService{engine: engine}
}

// Reply возвращает ответ движка только если он согласован по типу
func (s *chatbotService) Reply(ctx context.Context, viewerID, message string) (*dto.ChatbotResponse, error) {
	resp, err := s.engine.Respond(ctx, viewerID, message)
	if err != nil {
		return nil, apperrors.ErrChatbotEngine.WithError(err)
	}
	if resp == nil {
		return nil, apperrors.ErrChatbotEngine
	}
	if errs := resp.Validate(); errs != nil {
		logger.CtxWarn(ctx, "Chatbot engine returned inconsistent response", "type", resp.Type, "errors", errs)
		return nil, apperrors.ErrChatbotEngine.WithDetails(errs)
	}
	return resp, nil
}

// catalogEngine - простой движок без NLU: ищет походы по словам из сообщения
type catalogEngine struct {
	events repositories.EventRepository
	limit  int
}

func NewCatalogEngine(events repositories.EventRepository) ChatbotEngine {
	return &catalogEngine{events: events, limit: 5}
}

var chatbotStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "in": true, "for": true, "me": true,
	"show": true, "find": true, "any": true, "trek": true, "treks": true, "trip": true,
}

func (e *catalogEngine) Respond(ctx context.Context, viewerID, message string) (*dto.ChatbotResponse, error) {
	query := searchTerm(message)
	if query == "" {
		return &dto.ChatbotResponse{
			Type:    dto.ChatbotTextOnly,
			Message: "Tell me where you would like to go and I will look for treks.",
		}, nil
	}

	found, err := e.events.SearchEvents(ctx, query, e.limit)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return &dto.ChatbotResponse{
			Type:    dto.ChatbotTextOnly,
			Message: "I could not find treks matching \"" + query + "\".",
		}, nil
	}

	events := make([]dto.ChatbotEventDTO, 0, len(found))
	for _, ev := range found {
		events = append(events, dto.ChatbotEventDTO{
			ID:            ev.ID,
			Title:         ev.Title,
			Image:         ev.ImageURL,
			OrganizerName: ev.OrganizerName,
			StartsAt:      ev.StartsAt,
		})
	}
	if len(events) == 1 {
		return &dto.ChatbotResponse{Type: dto.ChatbotEventsOnly, Events: events}, nil
	}
	return &dto.ChatbotResponse{
		Type:    dto.ChatbotTextWithEvents,
		Message: "Here are some treks you might like.",
		Events:  events,
	}, nil
}

// searchTerm берет самое длинное значимое слово сообщения
func searchTerm(message string) string {
	best := ""
	for _, w := range strings.Fields(strings.ToLower(message)) {
		w = strings.Trim(w, ".,!?;:\"'")
		if len(w) < 3 || chatbotStopWords[w] {
			continue
		}
		if len(w) > len(best) {
			best = w
		}
	}
	return best
}

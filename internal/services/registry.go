package services

import (
	"trekhub_backend/internal/email"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	OtpService          OtpService
	BookingService      BookingService
	ReviewService       ReviewService
	StatsService        StatsService
	ChatbotService      ChatbotService
	NotificationService NotificationService
	Dispatcher          NotificationDispatcher
	ExpiryTracker       *ReviewExpiryTracker
	EmailService        email.Provider
}

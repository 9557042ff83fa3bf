package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	OtpHandler          *OtpHandler
	BookingHandler      *BookingHandler
	ReviewHandler       *ReviewHandler
	StatsHandler        *StatsHandler
	ChatbotHandler      *ChatbotHandler
	NotificationHandler *NotificationHandler
}

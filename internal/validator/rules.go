package validator

import (
	"log"

	"trekhub_backend/internal/models"
	"trekhub_backend/internal/services/dto"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// без правила приложение не должно стартовать
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-payment-status': статус платежа из перечисления
	mustRegister("is-payment-status", validatePaymentStatus)

	// 'is-notification-type': тип уведомления из перечисления
	mustRegister("is-notification-type", validateNotificationType)

	// 'is-chatbot-response-type': TEXT_ONLY / EVENTS_ONLY / TEXT_WITH_EVENTS
	mustRegister("is-chatbot-response-type", validateChatbotResponseType)

	// 'public-otp-subject': коды бронирований недоступны через общие эндпоинты /otp
	mustRegister("public-otp-subject", validatePublicOtpSubject)
}

// --- Функции валидации ---

func validatePaymentStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Не проверяем пустые значения, для этого есть 'required'
	}
	return models.PaymentStatus(value).IsValid()
}

func validateNotificationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.NotificationType(value).IsValid()
}

func validateChatbotResponseType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return dto.ChatbotResponseType(value).IsValid()
}

func validatePublicOtpSubject(fl validator.FieldLevel) bool {
	return !models.IsBookingOtpSubject(fl.Field().String())
}

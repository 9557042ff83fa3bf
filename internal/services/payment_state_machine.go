package services

import (
	"trekhub_backend/internal/models"
	"trekhub_backend/pkg/apperrors"
)

// paymentTransitions - таблица допустимых переходов. Статусы без исходящих ребер терминальны.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending: {
		models.PaymentStatusSuccess,
		models.PaymentStatusDecline,
		models.PaymentStatusCancel,
		models.PaymentStatusFailed,
	},
	models.PaymentStatusSuccess: {
		models.PaymentStatusCompleted,
		models.PaymentStatusRefunded,
	},
	models.PaymentStatusCompleted: {
		models.PaymentStatusReleased,
		models.PaymentStatusRefunded,
	},
}

// InitialPaymentStatus - статус нового бронирования
const InitialPaymentStatus = models.PaymentStatusPending

func CanTransition(from, to models.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(status models.PaymentStatus) bool {
	return len(paymentTransitions[status]) == 0
}

// AllowedTransitions возвращает копию списка допустимых целей
func AllowedTransitions(from models.PaymentStatus) []models.PaymentStatus {
	next := paymentTransitions[from]
	out := make([]models.PaymentStatus, len(next))
	copy(out, next)
	return out
}

// ValidateTransition возвращает InvalidTransition для любого ребра вне таблицы
func ValidateTransition(from, to models.PaymentStatus) error {
	if !to.IsValid() {
		return apperrors.ValidationError(map[string]string{"status": "Unknown payment status"})
	}
	if !CanTransition(from, to) {
		return apperrors.InvalidTransition(string(from), string(to))
	}
	return nil
}

package apperrors

import (
	"fmt"
	"net/http"
)

/*
Фабрики и предопределенные ошибки бизнес-логики.
Каждый вид ошибки имеет свой код, чтобы вызывающая сторона могла их различать.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
func ErrNotFound(err error, domain, resource string) *AppError {
	return Wrap(err, CodeNotFound, domain, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ErrAlreadyExists - фабрика для ошибки "уже существует" (409)
func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusConflict)
}

// ErrConflict - конкурентное изменение, которое не удалось разрешить повтором (409)
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// --- Payments ---

// ErrInvalidTransition - переход статуса платежа не разрешен таблицей переходов.
var ErrInvalidTransition = New(
	CodeInvalidTransition,
	"payment",
	"Payment status transition is not allowed",
	http.StatusConflict,
)

// InvalidTransition добавляет к ошибке исходный и целевой статусы
func InvalidTransition(from, to string) *AppError {
	return ErrInvalidTransition.WithDetails(map[string]string{"from": from, "to": to})
}

// --- OTP ---

// ErrOtpExpired - код истек, нужно запросить новый.
var ErrOtpExpired = New(
	CodeOtpExpired,
	"otp",
	"One-time code has expired",
	http.StatusGone,
)

// ErrOtpMismatch - код не совпал.
var ErrOtpMismatch = New(
	CodeOtpMismatch,
	"otp",
	"One-time code does not match",
	http.StatusUnauthorized,
)

// ErrOtpExhausted - превышено число попыток.
var ErrOtpExhausted = New(
	CodeOtpExhausted,
	"otp",
	"Too many verification attempts",
	http.StatusTooManyRequests,
)

// --- Reviews ---

// ErrReviewWindowClosed - окно для отзыва закрыто или бронирование не завершено.
var ErrReviewWindowClosed = New(
	CodeReviewWindowClosed,
	"review",
	"Booking is not eligible for a review",
	http.StatusUnprocessableEntity,
)

// ErrReviewAlreadyExists - на бронирование уже оставлен отзыв.
var ErrReviewAlreadyExists = New(
	CodeAlreadyExists,
	"review",
	"Review already submitted for this booking",
	http.StatusConflict,
)

// ErrInvalidModerationStatus - модерировать можно только отзывы в статусе pending.
var ErrInvalidModerationStatus = New(
	CodeInvalidOperation,
	"review",
	"Review has already been moderated",
	http.StatusConflict,
)

// --- Chatbot ---

// ErrChatbotEngine - внешний NLU движок вернул ошибку
var ErrChatbotEngine = New(
	CodeExternalServiceError,
	"chatbot",
	"Chatbot engine is unavailable",
	http.StatusBadGateway,
)

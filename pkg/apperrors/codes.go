package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Общие, не-доменные коды ошибок
const (
	// Системные и неизвестные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Общие ошибки бизнес-логики (используются фабриками)
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Платежи и бронирования
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// OTP
	CodeOtpExpired   ErrorCode = "OTP_EXPIRED"
	CodeOtpMismatch  ErrorCode = "OTP_MISMATCH"
	CodeOtpExhausted ErrorCode = "OTP_EXHAUSTED"

	// Отзывы
	CodeReviewWindowClosed ErrorCode = "REVIEW_WINDOW_CLOSED"

	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
)

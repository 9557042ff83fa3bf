package models

import (
	"strings"
	"time"
)

// OtpRecord - одноразовый код, привязанный к субъекту (телефон, email, сессия или действие).
// Одна строка на субъект: выпуск нового кода перезаписывает предыдущий.
type OtpRecord struct {
	Subject   string    `gorm:"primaryKey" json:"subject"`
	CodeHash  string    `gorm:"not null" json:"code_hash"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Consumed  bool      `gorm:"not null;default:false" json:"consumed"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`

	// Code заполняется только при выпуске и никогда не сохраняется
	Code string `gorm:"-" json:"-"`
}

// Active - код не использован и не истек на момент now
func (r *OtpRecord) Active(now time.Time) bool {
	return !r.Consumed && !now.After(r.ExpiresAt)
}

// BookingOtpPrefix - пространство субъектов кодов для действий над бронированиями.
// Такие коды выпускает и проверяет только сервис бронирований.
const BookingOtpPrefix = "booking:"

func IsBookingOtpSubject(subject string) bool {
	return strings.HasPrefix(subject, BookingOtpPrefix)
}

package email

import (
	"time"

	"trekhub_backend/internal/config"
)

// SMTPConfig содержит конфигурацию SMTP сервера
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// FromConfig собирает SMTPConfig из секции email общего конфига
func FromConfig(cfg config.EmailConfig) *SMTPConfig {
	c := &SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: cfg.FromEmail,
		FromName:  cfg.FromName,
		Timeout:   30 * time.Second,
	}
	if c.Port == 0 {
		c.Port = 587
	}
	return c
}

package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Email    EmailConfig    `yaml:"email"`
	Policy   Policy         `yaml:"policy"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

type DatabaseConfig struct {
	DSN string `yaml:"url"`
}

// RedisConfig - хранилище OTP. Пустой адрес - OTP хранятся в Postgres.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RabbitMQConfig - внешняя очередь доставки уведомлений. Пустой URL - доставка in-process.
type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
}

// Policy - настраиваемые константы бизнес-правил
type Policy struct {
	OtpTTL               time.Duration `yaml:"otp_ttl"`
	OtpMaxAttempts       int           `yaml:"otp_max_attempts"`
	ReviewWindowDays     int           `yaml:"review_window_days"`
	ReminderLeadDays     int           `yaml:"reminder_lead_days"`
	StatsRefreshInterval time.Duration `yaml:"stats_refresh_interval"`
	OtpCleanupInterval   time.Duration `yaml:"otp_cleanup_interval"`
	ReminderInterval     time.Duration `yaml:"reminder_interval"`
	DeliveryWorkers      int           `yaml:"delivery_workers"`
	DeliveryBuffer       int           `yaml:"delivery_buffer"`
}

// DefaultPolicy возвращает значения политики по умолчанию
func DefaultPolicy() Policy {
	return Policy{
		OtpTTL:               5 * time.Minute,
		OtpMaxAttempts:       5,
		ReviewWindowDays:     30,
		ReminderLeadDays:     3,
		StatsRefreshInterval: 15 * time.Minute,
		OtpCleanupInterval:   10 * time.Minute,
		ReminderInterval:     24 * time.Hour,
		DeliveryWorkers:      4,
		DeliveryBuffer:       256,
	}
}

// ReviewWindow возвращает окно для отзыва как длительность
func (p Policy) ReviewWindow() time.Duration {
	return time.Duration(p.ReviewWindowDays) * 24 * time.Hour
}

// envConfig - плоское представление конфига для режима переменных окружения
type envConfig struct {
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	ServerHost     string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	ServerPort     int    `envconfig:"SERVER_PORT" default:"4000"`
	ServerEnv      string `envconfig:"SERVER_ENV" default:"development"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RabbitURL      string `envconfig:"RABBITMQ_URL"`
	RabbitExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"trekhub.notifications"`
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser       string `envconfig:"SMTP_USER"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	FromEmail      string `envconfig:"FROM_EMAIL" default:"no-reply@trekhub.local"`
	FromName       string `envconfig:"FROM_NAME" default:"TrekHub"`

	OtpTTL               time.Duration `envconfig:"OTP_TTL" default:"5m"`
	OtpMaxAttempts       int           `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`
	ReviewWindowDays     int           `envconfig:"REVIEW_WINDOW_DAYS" default:"30"`
	ReminderLeadDays     int           `envconfig:"REMINDER_LEAD_DAYS" default:"3"`
	StatsRefreshInterval time.Duration `envconfig:"STATS_REFRESH_INTERVAL" default:"15m"`
	OtpCleanupInterval   time.Duration `envconfig:"OTP_CLEANUP_INTERVAL" default:"10m"`
	ReminderInterval     time.Duration `envconfig:"REMINDER_INTERVAL" default:"24h"`
	DeliveryWorkers      int           `envconfig:"DELIVERY_WORKERS" default:"4"`
	DeliveryBuffer       int           `envconfig:"DELIVERY_BUFFER" default:"256"`
}

var AppConfig *Config

// LoadConfig загружает конфиг: из переменных окружения, если задан DATABASE_URL
// (в том числе из .env), иначе из YAML файла.
func LoadConfig() {
	// .env необязателен
	_ = godotenv.Load()

	var (
		cfg *Config
		err error
	)
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("Loading configuration from environment")
		cfg, err = FromEnv()
	} else {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}
		log.Printf("Loading configuration from %s", configPath)
		cfg, err = FromFile(configPath)
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	AppConfig = cfg
}

// FromFile читает YAML конфиг и дополняет политику значениями по умолчанию
func FromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.Policy = withDefaults(cfg.Policy)
	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "trekhub.notifications"
	}

	return &cfg, cfg.Validate()
}

// FromEnv собирает конфиг из переменных окружения
func FromEnv() (*Config, error) {
	var env envConfig
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	var cfg Config
	cfg.Database.DSN = env.DatabaseURL
	cfg.Server.Host = env.ServerHost
	cfg.Server.Port = env.ServerPort
	cfg.Server.Env = env.ServerEnv
	cfg.Redis.Addr = env.RedisAddr
	cfg.Redis.Password = env.RedisPassword
	cfg.Redis.DB = env.RedisDB
	cfg.RabbitMQ.URL = env.RabbitURL
	cfg.RabbitMQ.Exchange = env.RabbitExchange
	cfg.Email.SMTPHost = env.SMTPHost
	cfg.Email.SMTPPort = env.SMTPPort
	cfg.Email.SMTPUsername = env.SMTPUser
	cfg.Email.SMTPPassword = env.SMTPPassword
	cfg.Email.FromEmail = env.FromEmail
	cfg.Email.FromName = env.FromName
	cfg.Policy = Policy{
		OtpTTL:               env.OtpTTL,
		OtpMaxAttempts:       env.OtpMaxAttempts,
		ReviewWindowDays:     env.ReviewWindowDays,
		ReminderLeadDays:     env.ReminderLeadDays,
		StatsRefreshInterval: env.StatsRefreshInterval,
		OtpCleanupInterval:   env.OtpCleanupInterval,
		ReminderInterval:     env.ReminderInterval,
		DeliveryWorkers:      env.DeliveryWorkers,
		DeliveryBuffer:       env.DeliveryBuffer,
	}

	return &cfg, cfg.Validate()
}

// Validate проверяет, что политика имеет смысл
func (c *Config) Validate() error {
	p := c.Policy
	switch {
	case p.OtpTTL <= 0:
		return fmt.Errorf("policy.otp_ttl must be positive")
	case p.OtpMaxAttempts < 1:
		return fmt.Errorf("policy.otp_max_attempts must be at least 1")
	case p.ReviewWindowDays < 1:
		return fmt.Errorf("policy.review_window_days must be at least 1")
	case p.DeliveryWorkers < 1:
		return fmt.Errorf("policy.delivery_workers must be at least 1")
	}
	return nil
}

func withDefaults(p Policy) Policy {
	d := DefaultPolicy()
	if p.OtpTTL == 0 {
		p.OtpTTL = d.OtpTTL
	}
	if p.OtpMaxAttempts == 0 {
		p.OtpMaxAttempts = d.OtpMaxAttempts
	}
	if p.ReviewWindowDays == 0 {
		p.ReviewWindowDays = d.ReviewWindowDays
	}
	if p.ReminderLeadDays == 0 {
		p.ReminderLeadDays = d.ReminderLeadDays
	}
	if p.StatsRefreshInterval == 0 {
		p.StatsRefreshInterval = d.StatsRefreshInterval
	}
	if p.OtpCleanupInterval == 0 {
		p.OtpCleanupInterval = d.OtpCleanupInterval
	}
	if p.ReminderInterval == 0 {
		p.ReminderInterval = d.ReminderInterval
	}
	if p.DeliveryWorkers == 0 {
		p.DeliveryWorkers = d.DeliveryWorkers
	}
	if p.DeliveryBuffer == 0 {
		p.DeliveryBuffer = d.DeliveryBuffer
	}
	return p
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}

package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"trekhub_backend/internal/config"
	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/models"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/pkg/apperrors"

	"golang.org/x/crypto/bcrypt"
)

type OtpResult string

const (
	OtpSuccess   OtpResult = "SUCCESS"
	OtpExpired   OtpResult = "EXPIRED"
	OtpMismatch  OtpResult = "MISMATCH"
	OtpExhausted OtpResult = "EXHAUSTED"
)

const (
	otpMin = 100000
	otpMax = 999999
	// 6 цифр все равно перебираются офлайн, хэш нужен только чтобы код не лежал открытым текстом
	otpHashCost = bcrypt.MinCost
)

type OtpService interface {
	// Issue выпускает код и отправляет его самому субъекту (email или телефон)
	Issue(ctx context.Context, subject string) (*models.OtpRecord, error)
	// IssueFor выпускает код под ключом subject и отправляет его получателю recipient
	IssueFor(ctx context.Context, subject, recipient string) (*models.OtpRecord, error)
	Verify(ctx context.Context, subject, code string) (OtpResult, error)
}

type otpService struct {
	store       repositories.OtpStore
	notifier    OtpNotifier
	ttl         time.Duration
	maxAttempts int
	locks       *keyedMutex
	now         func() time.Time
	randomCode  func() (string, error)
}

// OtpNotifier передает выпущенный код во внешний канал доставки
type OtpNotifier interface {
	OtpIssued(ctx context.Context, record *models.OtpRecord, recipient string) error
}

func NewOtpService(store repositories.OtpStore, notifier OtpNotifier, policy config.Policy) OtpService {
	return &otpService{
		store:       store,
		notifier:    notifier,
		ttl:         policy.OtpTTL,
		maxAttempts: policy.OtpMaxAttempts,
		locks:       newKeyedMutex(),
		now:         time.Now,
		randomCode:  generateOtpCode,
	}
}

// generateOtpCode возвращает равномерно распределенный код из [100000, 999999]
func generateOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

func (s *otpService) Issue(ctx context.Context, subject string) (*models.OtpRecord, error) {
	return s.IssueFor(ctx, subject, subject)
}

func (s *otpService) IssueFor(ctx context.Context, subject, recipient string) (*models.OtpRecord, error) {
	if subject == "" {
		return nil, apperrors.ValidationError(map[string]string{"subject": "This field is required"})
	}
	if recipient == "" {
		return nil, apperrors.ValidationError(map[string]string{"recipient": "This field is required"})
	}

	unlock := s.locks.Lock(subject)
	defer unlock()

	previous, err := s.store.FindOtp(ctx, subject)
	if err != nil && !errors.Is(err, repositories.ErrOtpNotFound) {
		return nil, apperrors.InternalError(err)
	}

	code, err := s.freshCode(previous)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), otpHashCost)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	now := s.now()
	record := &models.OtpRecord{
		Subject:   subject,
		CodeHash:  string(hash),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	// SaveOtp заменяет предыдущую запись, старый код перестает действовать
	if err := s.store.SaveOtp(ctx, record); err != nil {
		return nil, apperrors.InternalError(err)
	}
	record.Code = code

	logger.CtxInfo(ctx, "OTP issued", "subject", subject, "expires_at", record.ExpiresAt, "replaced", previous != nil)

	if s.notifier != nil {
		if err := s.notifier.OtpIssued(ctx, record, recipient); err != nil {
			logger.CtxWithError(ctx, "Failed to enqueue OTP delivery", err, "subject", subject)
		}
	}
	return record, nil
}

// freshCode генерирует код, отличный от кода заменяемой записи
func (s *otpService) freshCode(previous *models.OtpRecord) (string, error) {
	for {
		code, err := s.randomCode()
		if err != nil {
			return "", err
		}
		if previous == nil || !codeMatches(previous.CodeHash, code) {
			return code, nil
		}
	}
}

func codeMatches(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// Verify проверяет код. Порядок проверок: исчерпание попыток, истечение, совпадение.
// Ошибка возвращается только если активной записи нет или хранилище недоступно.
func (s *otpService) Verify(ctx context.Context, subject, code string) (OtpResult, error) {
	unlock := s.locks.Lock(subject)
	defer unlock()

	record, err := s.store.FindOtp(ctx, subject)
	if err != nil {
		if errors.Is(err, repositories.ErrOtpNotFound) {
			return "", apperrors.ErrNotFound(err, "otp", "One-time code")
		}
		return "", apperrors.InternalError(err)
	}
	if record.Consumed {
		return "", apperrors.ErrNotFound(repositories.ErrOtpNotFound, "otp", "One-time code")
	}

	result := s.check(record, code)
	switch result {
	case OtpSuccess:
		record.Consumed = true
		if err := s.store.UpdateOtp(ctx, record); err != nil {
			return "", s.storeError(err)
		}
	case OtpMismatch:
		record.Attempts++
		if err := s.store.UpdateOtp(ctx, record); err != nil {
			return "", s.storeError(err)
		}
	}

	logger.CtxInfo(ctx, "OTP verified", "subject", subject, "result", result, "attempts", record.Attempts)
	return result, nil
}

func (s *otpService) check(record *models.OtpRecord, code string) OtpResult {
	if record.Attempts >= s.maxAttempts {
		return OtpExhausted
	}
	if s.now().After(record.ExpiresAt) {
		return OtpExpired
	}
	if !codeMatches(record.CodeHash, code) {
		return OtpMismatch
	}
	return OtpSuccess
}

func (s *otpService) storeError(err error) error {
	if errors.Is(err, repositories.ErrOtpNotFound) {
		return apperrors.ErrNotFound(err, "otp", "One-time code")
	}
	return apperrors.InternalError(err)
}

// OtpResultError переводит неуспешный результат проверки в ошибку домена
func OtpResultError(result OtpResult) error {
	switch result {
	case OtpSuccess:
		return nil
	case OtpExpired:
		return apperrors.ErrOtpExpired
	case OtpMismatch:
		return apperrors.ErrOtpMismatch
	case OtpExhausted:
		return apperrors.ErrOtpExhausted
	}
	return apperrors.InternalError(fmt.Errorf("unknown otp result %q", result))
}

// VerifyOrError - Verify, где любой результат кроме SUCCESS становится ошибкой
func VerifyOrError(ctx context.Context, otp OtpService, subject, code string) error {
	result, err := otp.Verify(ctx, subject, code)
	if err != nil {
		return err
	}
	return OtpResultError(result)
}

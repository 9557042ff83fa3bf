package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"trekhub_backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// RedisOtpStore хранит записи в Redis с TTL; очистку делает сам Redis
type RedisOtpStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisOtpStore(client *redis.Client) *RedisOtpStore {
	return &RedisOtpStore{client: client, now: time.Now}
}

func otpKey(subject string) string {
	return otpKeyPrefix + subject
}

func (s *RedisOtpStore) SaveOtp(ctx context.Context, record *models.OtpRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	ttl := record.ExpiresAt.Sub(s.now()) + OtpRetention
	if ttl <= 0 {
		ttl = OtpRetention
	}
	return s.client.Set(ctx, otpKey(record.Subject), payload, ttl).Err()
}

func (s *RedisOtpStore) FindOtp(ctx context.Context, subject string) (*models.OtpRecord, error) {
	payload, err := s.client.Get(ctx, otpKey(subject)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrOtpNotFound
		}
		return nil, err
	}

	var record models.OtpRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateOtp перезаписывает запись, сохраняя TTL ключа.
// Если запись за это время заменили новым кодом, возвращает ErrOtpNotFound.
func (s *RedisOtpStore) UpdateOtp(ctx context.Context, record *models.OtpRecord) error {
	key := otpKey(record.Subject)
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrOtpNotFound
			}
			return err
		}
		var stored models.OtpRecord
		if err := json.Unmarshal(current, &stored); err != nil {
			return err
		}
		if stored.CodeHash != record.CodeHash {
			return ErrOtpNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, key, payload, redis.SetArgs{KeepTTL: true})
			return nil
		})
		return err
	}, key)
}

func (s *RedisOtpStore) DeleteOtp(ctx context.Context, subject string) error {
	return s.client.Del(ctx, otpKey(subject)).Err()
}

// DeleteExpired ничего не делает: истекшие ключи удаляет Redis по TTL
func (s *RedisOtpStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

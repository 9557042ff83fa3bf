package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"trekhub_backend/internal/config"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardQueue struct{}

func (discardQueue) Enqueue(context.Context, dto.Envelope) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		Policy: config.DefaultPolicy(),
	}
}

func TestNew_DefaultsToInProcessInfrastructure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := New(testConfig(), Infrastructure{})

	assert.NotNil(t, a.memoryQueue)
	assert.IsType(t, &repositories.GormOtpStore{}, a.otpStore)
	require.NotNil(t, a.Services.OtpService)
	require.NotNil(t, a.Services.BookingService)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_UsesRedisAndExternalQueue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := New(testConfig(), Infrastructure{Redis: client, Queue: discardQueue{}})

	assert.Nil(t, a.memoryQueue)
	assert.IsType(t, &repositories.RedisOtpStore{}, a.otpStore)

	// выпуск и проверка кода проходят через Redis
	ctx := context.Background()
	record, err := a.Services.OtpService.Issue(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, mr.Exists("otp:user@example.com"))

	result, err := a.Services.OtpService.Verify(ctx, "user@example.com", record.Code)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", string(result))
}

func TestSetupRouter_RegistersApiRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := New(testConfig(), Infrastructure{Queue: discardQueue{}})

	paths := map[string]bool{}
	for _, r := range a.Router.Routes() {
		paths[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/v1/otp/issue",
		"POST /api/v1/otp/verify",
		"POST /api/v1/bookings/:bookingId/confirm",
		"POST /api/v1/admin/bookings/:bookingId/transitions",
		"GET /api/v1/events/:eventId/reviews",
		"GET /api/v1/reviews/pending",
		"POST /api/v1/admin/reviews/:reviewId/moderate",
		"GET /api/v1/stats/platform",
		"POST /api/v1/chatbot/reply",
		"GET /api/v1/notifications",
	} {
		assert.True(t, paths[want], want)
	}
}

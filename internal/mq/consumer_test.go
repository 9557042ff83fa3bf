package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"trekhub_backend/internal/models"
	"trekhub_backend/internal/services/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(multiple bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(multiple, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func TestHandleMessage_AcksOnSuccess(t *testing.T) {
	env := dto.Envelope{ID: "env-1", Recipient: "user-1", Type: models.NotificationTypeReminder}
	body, err := json.Marshal(env)
	require.NoError(t, err)

	var got dto.Envelope
	ack := &fakeAck{}
	handleMessage(context.Background(), body, "notification.reminder", ack, func(ctx context.Context, e dto.Envelope) error {
		got = e
		return nil
	})

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, models.NotificationTypeReminder, got.Type)
}

func TestHandleMessage_NacksOnHandlerError(t *testing.T) {
	body, _ := json.Marshal(dto.Envelope{ID: "env-2"})
	ack := &fakeAck{}
	handleMessage(context.Background(), body, "k", ack, func(ctx context.Context, e dto.Envelope) error {
		return errors.New("smtp down")
	})

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)
	assert.False(t, ack.acked)
}

func TestHandleMessage_NacksGarbage(t *testing.T) {
	ack := &fakeAck{}
	called := false
	handleMessage(context.Background(), []byte("{not json"), "k", ack, func(ctx context.Context, e dto.Envelope) error {
		called = true
		return nil
	})

	assert.False(t, called)
	assert.True(t, ack.nacked)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "notification.payment_success", RoutingKey(dto.Envelope{Type: models.NotificationTypePaymentSuccess}))
}

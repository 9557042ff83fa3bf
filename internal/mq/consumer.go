package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/services/dto"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает один конверт. Ошибка отправляет сообщение в nack без повторной постановки.
type Handler func(ctx context.Context, envelope dto.Envelope) error

type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
}

func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	return &Consumer{conn: conn, ch: ch, exchange: exchange, queue: q.Name}, nil
}

// Run читает очередь до отмены ctx и передает каждый конверт в handler
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			HandleDelivery(ctx, d, handler)
		}
	}
}

// acknowledger - часть amqp.Delivery, нужная для подтверждения
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// HandleDelivery декодирует сообщение, вызывает handler и подтверждает результат
func HandleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	handleMessage(ctx, d.Body, d.RoutingKey, &d, handler)
}

func handleMessage(ctx context.Context, body []byte, key string, ack acknowledger, handler Handler) {
	var envelope dto.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.WorkerLog("mq-consumer", "decode", err, "routing_key", key)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, envelope); err != nil {
		logger.WorkerLog("mq-consumer", "deliver", err, "envelope_id", envelope.ID, "type", envelope.Type)
		_ = ack.Nack(false, false)
		return
	}
	_ = ack.Ack(false)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

package workers

import (
	"context"
	"errors"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/services/dto"

	"golang.org/x/sync/errgroup"
)

var ErrQueueFull = errors.New("delivery queue is full")

// MemoryQueue - буферизованная in-process очередь доставки.
// Enqueue никогда не блокируется: при заполненном буфере сразу возвращает ErrQueueFull.
type MemoryQueue struct {
	ch chan dto.Envelope
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan dto.Envelope, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, envelope dto.Envelope) error {
	select {
	case q.ch <- envelope:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

// Deliverer выполняет доставку одного конверта
type Deliverer interface {
	Deliver(ctx context.Context, envelope dto.Envelope) error
}

// DeliveryWorker разбирает MemoryQueue несколькими горутинами
type DeliveryWorker struct {
	queue     *MemoryQueue
	deliverer Deliverer
	workers   int
}

func NewDeliveryWorker(queue *MemoryQueue, deliverer Deliverer, workers int) *DeliveryWorker {
	if workers < 1 {
		workers = 1
	}
	return &DeliveryWorker{queue: queue, deliverer: deliverer, workers: workers}
}

// Start запускает обработку в фоне
func (w *DeliveryWorker) Start(ctx context.Context) {
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.WorkerLog("delivery", "run", err)
		}
	}()
}

// Run блокируется до отмены ctx. Ошибки доставки логируются, повторов нет.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case env := <-w.queue.ch:
					w.deliver(ctx, env)
				}
			}
		})
	}
	err := g.Wait()
	logger.Info("Delivery worker stopped", "pending", w.queue.Len())
	return err
}

func (w *DeliveryWorker) deliver(ctx context.Context, env dto.Envelope) {
	err := w.deliverer.Deliver(ctx, env)
	logger.WorkerLog("delivery", "deliver", err, "envelope_id", env.ID, "type", env.Type, "recipient", env.Recipient)
}

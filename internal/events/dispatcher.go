package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is one unit of background work.
type Task struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget tasks on a single worker behind a
// buffered queue. Delivery is at-least-once from the caller's point of
// view; consumers must be idempotent.
type Dispatcher struct {
	logger *zap.Logger
	tasks  chan Task

	wg sync.WaitGroup
}

func NewDispatcher(queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		logger: logger,
		tasks:  make(chan Task, queueSize),
	}
}

// Dispatch queues a task and returns its id. Never blocks: webhook
// handlers enqueue on the request path, so a full queue drops the task
// instead of stalling the ack. Returns "" on a drop; the upstream
// redelivers and consumers are idempotent, so nothing is lost for good.
func (d *Dispatcher) Dispatch(name string, run func(ctx context.Context) error) string {
	task := Task{
		ID:   uuid.NewString(),
		Name: name,
		Run:  run,
	}
	select {
	case d.tasks <- task:
		return task.ID
	default:
		d.logger.Warn("task queue full, dropping task",
			zap.String("task", name))
		return ""
	}
}

// Start launches the worker. It drains the queue and exits when ctx is
// cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				// Finish what is already queued.
				for {
					select {
					case task := <-d.tasks:
						d.run(context.Background(), task)
					default:
						return
					}
				}
			case task := <-d.tasks:
				d.run(ctx, task)
			}
		}
	}()
}

// Wait blocks until the worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, task Task) {
	start := time.Now()
	err := task.Run(ctx)
	fields := []zap.Field{
		zap.String("task_id", task.ID),
		zap.String("task", task.Name),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		d.logger.Error("background task failed", append(fields, zap.Error(err))...)
		return
	}
	d.logger.Debug("background task done", fields...)
}

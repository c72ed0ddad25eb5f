// Package messaging delivers hifz progress events to in-process handlers and,
// when Redis is configured, to the other tracker instances.
package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/domain/shared"
)

var (
	ErrEventBusClosed = errors.New("event bus is closed")
	ErrHandlerPanic   = errors.New("handler panicked")
	errNilHandler     = errors.New("handler cannot be nil")
	errNilEvent       = errors.New("event cannot be nil")
)

// InMemoryEventBusConfig configures the local bus.
type InMemoryEventBusConfig struct {
	// AsyncMode hands deliveries to a fixed pool of workers. Publish then
	// never reports handler errors; they are logged.
	AsyncMode bool

	// WorkerPoolSize defaults to 4.
	WorkerPoolSize int

	Logger *slog.Logger
}

type delivery struct {
	event   shared.Event
	handler shared.EventHandler
}

// InMemoryEventBus fans events out to handlers registered in this process.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	byType   map[shared.EventType][]shared.EventHandler
	wildcard []shared.EventHandler
	closed   bool

	queue   chan delivery // nil in sync mode
	workers sync.WaitGroup

	logger  *slog.Logger
	metrics *EventBusMetrics
}

func NewInMemoryEventBus(cfg InMemoryEventBusConfig) *InMemoryEventBus {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 4
	}

	b := &InMemoryEventBus{
		byType:  make(map[shared.EventType][]shared.EventHandler),
		logger:  cfg.Logger,
		metrics: NewEventBusMetrics(),
	}
	if cfg.AsyncMode {
		b.queue = make(chan delivery, 64*cfg.WorkerPoolSize)
		for i := 0; i < cfg.WorkerPoolSize; i++ {
			b.workers.Add(1)
			go b.work()
		}
	}
	return b
}

func (b *InMemoryEventBus) work() {
	defer b.workers.Done()
	for d := range b.queue {
		if err := b.run(d); err != nil {
			b.logger.Error("event handler failed",
				"event_type", d.event.EventType(),
				"learner_id", d.event.AggregateID(),
				"error", err,
			)
		}
	}
}

// Subscribe registers handler for one event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.add(func() { b.byType[eventType] = append(b.byType[eventType], handler) }, handler)
}

// SubscribeAll registers handler for every event type.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.add(func() { b.wildcard = append(b.wildcard, handler) }, handler)
}

func (b *InMemoryEventBus) add(register func(), handler shared.EventHandler) error {
	if handler == nil {
		return errNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}
	register()
	return nil
}

// Publish delivers event to its type's handlers and then to the wildcard
// handlers. In sync mode every handler runs and the first error is returned.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errNilEvent
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.metrics.RecordPublish(event.EventType())

	var firstErr error
	for _, list := range [][]shared.EventHandler{b.byType[event.EventType()], b.wildcard} {
		for _, h := range list {
			d := delivery{event: event, handler: h}
			if b.queue != nil {
				b.queue <- d
				continue
			}
			if err := b.run(d); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *InMemoryEventBus) run(d delivery) (err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
		}
		b.metrics.RecordHandlerExecution(time.Since(start), err == nil)
	}()
	return d.handler(d.event)
}

// Close stops accepting events and waits for queued deliveries to finish.
// Calling it twice is harmless.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	if b.queue != nil {
		close(b.queue)
	}
	b.mu.Unlock()

	b.workers.Wait()
	b.logger.Debug("event bus closed")
	return nil
}

func (b *InMemoryEventBus) Metrics() *EventBusMetrics {
	return b.metrics
}

// EventBusMetrics counts publishes per type and handler outcomes.
type EventBusMetrics struct {
	mu        sync.Mutex
	published map[shared.EventType]int64

	executions atomic.Int64
	failures   atomic.Int64
	busyNanos  atomic.Int64
}

func NewEventBusMetrics() *EventBusMetrics {
	return &EventBusMetrics{published: make(map[shared.EventType]int64)}
}

func (m *EventBusMetrics) RecordPublish(eventType shared.EventType) {
	m.mu.Lock()
	m.published[eventType]++
	m.mu.Unlock()
}

func (m *EventBusMetrics) RecordHandlerExecution(d time.Duration, ok bool) {
	m.executions.Add(1)
	m.busyNanos.Add(int64(d))
	if !ok {
		m.failures.Add(1)
	}
}

// EventBusMetricsSnapshot is a copy safe to log or serialize.
type EventBusMetricsSnapshot struct {
	TotalPublished         int64                      `json:"total_published"`
	PublishedByType        map[shared.EventType]int64 `json:"published_by_type"`
	HandlerExecutions      int64                      `json:"handler_executions"`
	HandlerFailures        int64                      `json:"handler_failures"`
	AverageHandlerDuration time.Duration              `json:"average_handler_duration"`
}

func (m *EventBusMetrics) Snapshot() EventBusMetricsSnapshot {
	snap := EventBusMetricsSnapshot{
		HandlerExecutions: m.executions.Load(),
		HandlerFailures:   m.failures.Load(),
	}
	if snap.HandlerExecutions > 0 {
		snap.AverageHandlerDuration = time.Duration(m.busyNanos.Load() / snap.HandlerExecutions)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	snap.PublishedByType = make(map[shared.EventType]int64, len(m.published))
	for t, n := range m.published {
		snap.PublishedByType[t] = n
		snap.TotalPublished += n
	}
	return snap
}

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/expense-intake/internal/domain/event"
)

// ErrClosed is returned when publishing on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes form events to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler under a name that can later be unsubscribed
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// SubscribeMany registers one named handler for several event types
	SubscribeMany(eventTypes []event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs the handlers in registration order and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs every handler on its own goroutine and returns immediately.
	// Handlers outlive the caller's cancellation.
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns the handlers registered for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close rejects new events and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Subscribe registers a handler with a generated name
func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	name := fmt.Sprintf("%s-handler-%d", eventType, len(d.handlers[eventType]))
	d.add(eventType, name, handler)
	d.mu.Unlock()

	d.logRegistered(eventType, name)
}

// SubscribeNamed registers a handler under name
func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.add(eventType, name, handler)
	d.mu.Unlock()

	d.logRegistered(eventType, name)
}

// SubscribeMany registers the same handler for every listed event type
func (d *eventDispatcher) SubscribeMany(eventTypes []event.Type, name string, handler Handler) {
	for _, eventType := range eventTypes {
		d.SubscribeNamed(eventType, name, handler)
	}
}

func (d *eventDispatcher) add(eventType event.Type, name string, handler Handler) {
	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
}

func (d *eventDispatcher) logRegistered(eventType event.Type, name string) {
	if d.logger != nil {
		d.logger.Info("Handler registered",
			"event_type", eventType,
			"handler_name", name,
		)
	}
}

// Unsubscribe removes every handler registered under name for the event type
func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.handlers[eventType]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[eventType] = filtered

	if d.logger != nil {
		d.logger.Info("Handler unregistered",
			"event_type", eventType,
			"handler_name", name,
		)
	}
}

// snapshot returns the handlers for an event, rejecting unknown types
func (d *eventDispatcher) snapshot(evt *event.Event) ([]HandlerInfo, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if evt == nil || !evt.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %v", evt)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo(nil), d.handlers[evt.Type]...), nil
}

// Dispatch runs the handlers synchronously
func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	handlers, err := d.snapshot(evt)
	if err != nil {
		return err
	}

	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			if d.logger != nil {
				d.logger.Error("Handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"session_id", evt.SessionID,
					"handler_name", info.Name,
					"error", err,
				)
			}
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}

	return nil
}

// DispatchAsync runs the handlers on their own goroutines
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	handlers, err := d.snapshot(evt)
	if err != nil {
		if d.logger != nil {
			d.logger.Error("Cannot dispatch async event",
				"event", evt,
				"error", err,
			)
		}
		return
	}

	ctx = context.WithoutCancel(ctx)
	for _, info := range handlers {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()

			if err := d.safeExecute(ctx, evt, h); err != nil && d.logger != nil {
				d.logger.Error("Async handler error",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"session_id", evt.SessionID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(info)
	}
}

// ListHandlers returns handler metadata without the handler functions
func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[eventType]
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{
			Name:        h.Name,
			EventType:   h.EventType,
			Description: h.Description,
		}
	}

	return result
}

// Close rejects new events and waits for async handlers to complete
func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	d.wg.Wait()

	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}

	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			if d.logger != nil {
				d.logger.Error("Handler panic recovered",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", info.Name,
					"panic", r,
				)
			}
		}
	}()

	return info.Handler(ctx, evt)
}

package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-intake/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func changed() *event.Event {
	return event.NewEvent(event.TypeDraftChanged, "session-123", map[string]interface{}{
		event.KeyDraftKey: "draft-1",
	})
}

func TestSubscribe(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), changed()))
	assert.Equal(t, []string{"first", "second"}, order)

	handlers := d.ListHandlers(event.TypeDraftChanged)
	require.Len(t, handlers, 2)
	assert.Equal(t, "draft.changed-handler-0", handlers[0].Name)
	assert.Nil(t, handlers[0].Handler)
}

func TestSubscribeMany(t *testing.T) {
	d := NewDispatcher()
	var seen []event.Type

	d.SubscribeMany([]event.Type{event.TypeDraftChanged, event.TypeDraftReset}, "autosave", func(ctx context.Context, evt *event.Event) error {
		seen = append(seen, evt.Type)
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), changed()))
	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeDraftReset, "session-123", nil)))
	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeRateResolved, "session-123", nil)))

	assert.Equal(t, []event.Type{event.TypeDraftChanged, event.TypeDraftReset}, seen)

	d.Unsubscribe(event.TypeDraftChanged, "autosave")
	assert.Empty(t, d.ListHandlers(event.TypeDraftChanged))
	assert.Len(t, d.ListHandlers(event.TypeDraftReset), 1)
}

func TestUnsubscribe_RemovesOnlyNamedHandler(t *testing.T) {
	d := NewDispatcher()
	var called1, called2 bool

	d.SubscribeNamed(event.TypeDraftChanged, "handler-1", func(ctx context.Context, evt *event.Event) error {
		called1 = true
		return nil
	})
	d.SubscribeNamed(event.TypeDraftChanged, "handler-2", func(ctx context.Context, evt *event.Event) error {
		called2 = true
		return nil
	})
	d.Unsubscribe(event.TypeDraftChanged, "handler-1")

	require.NoError(t, d.Dispatch(context.Background(), changed()))
	assert.False(t, called1)
	assert.True(t, called2)
}

func TestDispatch(t *testing.T) {
	t.Run("stops at first error", func(t *testing.T) {
		d := NewDispatcher()
		boom := errors.New("boom")
		called := false

		d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
			return boom
		})
		d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), changed())
		assert.ErrorIs(t, err, boom)
		assert.False(t, called)
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
			panic("test panic")
		})

		err := d.Dispatch(context.Background(), changed())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "handler panic")
		assert.Positive(t, logger.ErrorCount())
	})

	t.Run("rejects unknown event types", func(t *testing.T) {
		d := NewDispatcher()
		err := d.Dispatch(context.Background(), event.NewEvent(event.Type("instance.created"), "session-123", nil))
		assert.Error(t, err)
	})

	t.Run("fails when closed", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())
		assert.ErrorIs(t, d.Dispatch(context.Background(), changed()), ErrClosed)
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("runs every handler", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32
		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return errors.New("ignored")
			})
		}

		d.DispatchAsync(context.Background(), changed())
		require.NoError(t, d.Close())

		assert.Equal(t, int32(3), called.Load())
	})

	t.Run("handlers outlive caller cancellation", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value
		d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
			time.Sleep(10 * time.Millisecond)
			ctxErr.Store(fmt.Sprint(ctx.Err()))
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, changed())
		cancel()
		require.NoError(t, d.Close())

		assert.Equal(t, "<nil>", ctxErr.Load())
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
			panic("async panic")
		})

		d.DispatchAsync(context.Background(), changed())
		require.NoError(t, d.Close())

		assert.Positive(t, logger.ErrorCount())
	})

	t.Run("drops events after close", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32
		d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
			called.Add(1)
			return nil
		})
		require.NoError(t, d.Close())

		d.DispatchAsync(context.Background(), changed())
		time.Sleep(20 * time.Millisecond)

		assert.Zero(t, called.Load())
	})
}

func TestClose(t *testing.T) {
	d := NewDispatcher()
	var completed atomic.Bool
	d.Subscribe(event.TypeDraftChanged, func(ctx context.Context, evt *event.Event) error {
		time.Sleep(50 * time.Millisecond)
		completed.Store(true)
		return nil
	})

	d.DispatchAsync(context.Background(), changed())
	require.NoError(t, d.Close())

	assert.True(t, completed.Load(), "async handler should finish before Close returns")
	assert.ErrorIs(t, d.Close(), ErrClosed)
}

func TestConcurrency(t *testing.T) {
	d := NewDispatcher()
	var called atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeDraftChanged, fmt.Sprintf("handler-%d", id), func(ctx context.Context, evt *event.Event) error {
				called.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()
	require.Len(t, d.ListHandlers(event.TypeDraftChanged), 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), changed())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), called.Load())
}

// Package outcome defines poll outcomes and the bus that fans them out to listeners.
package outcome

import (
	"fmt"
	"log/slog"
	"sync"
)

// Listener is invoked once per poll with its result.
type Listener func(Result)

type subscription struct {
	name string
	fn   Listener
}

// Bus delivers results to listeners synchronously, in registration order.
// A listener that panics is logged and skipped; later listeners still run.
type Bus struct {
	mu        sync.RWMutex
	listeners []subscription
	logger    *slog.Logger
}

// NewBus creates an empty Bus. Pass nil logger to use the default logger.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe appends fn to the listener list. name is used in log output only.
func (b *Bus) Subscribe(name string, fn Listener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, subscription{name: name, fn: fn})
	b.mu.Unlock()
	b.logger.Debug("outcome listener registered", "listener", name)
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Names returns the listener names in delivery order.
func (b *Bus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, len(b.listeners))
	for i, s := range b.listeners {
		names[i] = s.name
	}
	return names
}

// Publish calls every listener with r on the calling goroutine.
func (b *Bus) Publish(r Result) {
	b.mu.RLock()
	subs := make([]subscription, len(b.listeners))
	copy(subs, b.listeners)
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.invoke(s, r); err != nil {
			b.logger.Warn("outcome listener failed",
				"listener", s.name,
				"outcome", r.Outcome,
				"poll_id", r.ID,
				"error", err,
			)
		}
	}
}

func (b *Bus) invoke(s subscription, r Result) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	s.fn(r)
	return nil
}

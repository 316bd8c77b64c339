// Package event is an in-process publish/subscribe dispatcher.
package event

import (
	"sync"

	"github.com/aniicone/cafe-api/pkg/logger"
)

// Handler receives an event name and its payload.
type Handler func(name string, payload interface{})

// Bus dispatches events to listeners registered by name. The "*" name
// receives every event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers handler for name.
func (b *Bus) Listen(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

func (b *Bus) listeners(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := make([]Handler, 0, len(b.handlers[name])+len(b.handlers["*"]))
	hs = append(hs, b.handlers[name]...)
	return append(hs, b.handlers["*"]...)
}

// Fire runs every listener synchronously. A panicking listener is logged
// and does not stop the others.
func (b *Bus) Fire(name string, payload interface{}) {
	for _, h := range b.listeners(name) {
		call(h, name, payload)
	}
}

// FireAsync runs every listener in its own goroutine and returns at once.
func (b *Bus) FireAsync(name string, payload interface{}) {
	for _, h := range b.listeners(name) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			call(h, name, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func (b *Bus) Wait() { b.wg.Wait() }

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = map[string][]Handler{}
}

func call(h Handler, name string, payload interface{}) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("event: listener panicked", "event", name, "panic", rec)
		}
	}()
	h(name, payload)
}

package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered notification bus between the update goroutine
// (which emits) and the event goroutine (which dispatches). Events emitted
// during frame N become visible after the next SwapBuffers. Dispatch keeps
// emission order across all event types.
type Bus struct {
	mu       sync.Mutex // protects back and handlers
	front    []any
	back     []any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]any, 0, 32),
		back:     make([]any, 0, 32),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer. Safe from any goroutine.
func Emit[T any](b *Bus, event T) {
	b.mu.Lock()
	b.back = append(b.back, event)
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Returns the number of events now pending dispatch.
func (b *Bus) SwapBuffers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.front)
	b.front, b.back = b.back, b.front[:0]
	return len(b.front)
}

// Pending reports how many events wait in the back buffer.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Handlers may Emit; those events land in the back buffer.
func (b *Bus) DispatchAll() {
	for _, ev := range b.front {
		b.mu.Lock()
		handlers := b.handlers[reflect.TypeOf(ev)]
		b.mu.Unlock()
		for _, h := range handlers {
			callHandler(h, ev)
		}
	}
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}

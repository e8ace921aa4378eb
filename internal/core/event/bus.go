package event

import (
	"reflect"
	"sync"
)

type envelope struct {
	typ reflect.Type
	ev  any
}

// Bus is a double-buffered event bus. Events emitted during tick N are
// delivered during tick N+1, in emission order, when the dispatch system calls
// SwapBuffers and DispatchAll.
type Bus struct {
	mu       sync.Mutex // guards handler registration only
	front    []envelope
	back     []envelope
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]envelope, 0, 32),
		back:     make([]envelope, 0, 32),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event for the next dispatch.
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, envelope{typ: typeOf[T](), ev: event})
}

// Subscribe registers a handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// SwapBuffers makes last tick's events current and clears the back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers the front buffer and returns the number of events.
func (b *Bus) DispatchAll() int {
	b.mu.Lock()
	handlers := b.handlers
	b.mu.Unlock()
	for _, env := range b.front {
		for _, h := range handlers[env.typ] {
			h(env.ev)
		}
	}
	return len(b.front)
}

// Pending returns the number of events waiting for the next swap.
func (b *Bus) Pending() int { return len(b.back) }

// Package signal implements a typed listener list. Listeners run synchronously
// on the emitting goroutine, in the order they were connected.
package signal

// Signal delivers values of type T to every connected listener.
// The zero value is ready to use. Signals are not safe for concurrent use and
// are only touched from the reactor goroutine.
type Signal[T any] struct {
	slots  []slot[T]
	nextID uint64
}

type slot[T any] struct {
	id uint64
	fn func(T)
}

// Connect registers fn and returns a function that disconnects it.
// Calling the returned function more than once is harmless.
func (s *Signal[T]) Connect(fn func(T)) (disconnect func()) {
	s.nextID++
	id := s.nextID
	s.slots = append(s.slots, slot[T]{id: id, fn: fn})
	return func() { s.disconnect(id) }
}

func (s *Signal[T]) disconnect(id uint64) {
	for i, sl := range s.slots {
		if sl.id == id {
			// Copy so an Emit that is iterating keeps its snapshot intact.
			s.slots = append(s.slots[:i:i], s.slots[i+1:]...)
			return
		}
	}
}

// Emit calls every listener with v. Listeners connected or disconnected while
// Emit runs take effect from the next Emit.
func (s *Signal[T]) Emit(v T) {
	for _, sl := range s.slots {
		sl.fn(v)
	}
}

// Len returns the number of connected listeners.
func (s *Signal[T]) Len() int {
	return len(s.slots)
}

// Empty is the payload of signals that carry no data.
type Empty struct{}

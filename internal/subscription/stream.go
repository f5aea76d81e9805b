// Package subscription models a live query: a stream that re-delivers the
// full result set whenever the underlying data changes, until cancelled.
package subscription

import (
	"sync"
)

// Stream is a cancellable sequence of full-snapshot emissions.
//
// The producer calls Emit for each new snapshot and Close when it stops;
// the consumer ranges over C until it is closed, then checks Err for the
// terminal error (nil after a plain Cancel).
//
// Emissions are conflated: if the consumer lags, an undelivered snapshot is
// replaced by the newer one rather than queued behind it.
type Stream[T any] struct {
	ch   chan T
	done chan struct{}

	cancelOnce sync.Once
	closeOnce  sync.Once

	mu  sync.Mutex
	err error
}

// New creates an open stream.
func New[T any]() *Stream[T] {
	return &Stream[T]{
		ch:   make(chan T, 1),
		done: make(chan struct{}),
	}
}

// C is the emission channel. It is closed when the stream terminates.
func (s *Stream[T]) C() <-chan T { return s.ch }

// Done is closed once Cancel (or Fail) has been called. Producers select on
// it to stop work promptly.
func (s *Stream[T]) Done() <-chan struct{} { return s.done }

// Err reports the terminal error after C is closed. It is nil when the
// stream ended by plain cancellation.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel disposes the subscription. Safe to call multiple times; no
// emissions are accepted after the first call.
func (s *Stream[T]) Cancel() {
	s.cancelOnce.Do(func() { close(s.done) })
}

// Emit delivers a snapshot unless the stream was cancelled. Reports whether
// the stream is still live; producers should stop on false.
// Only the producing goroutine may call Emit.
func (s *Stream[T]) Emit(v T) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	for {
		select {
		case <-s.done:
			return false
		case s.ch <- v:
			return true
		default:
			// conflate: drop the stale undelivered snapshot
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Fail records a terminal error and cancels the stream.
func (s *Stream[T]) Fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.Cancel()
}

// Close closes the emission channel. The producer must call it exactly when
// it stops emitting (typically deferred); idempotent.
func (s *Stream[T]) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

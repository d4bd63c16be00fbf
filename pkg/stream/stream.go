// Package stream turns SQL result sets into lazily evaluated, ordered streams.
//
// A Stream owns the database resources its rows come from. Closing the stream (or
// draining it) releases them.
package stream

import (
	"io"
	"sync"

	"go.uber.org/multierr"
)

// ResultSet is a forward-only cursor over query results. *sql.Rows implements it.
type ResultSet interface {
	Next() bool
	Columns() ([]string, error)
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// Stream is a single-pass sequence of T values.
type Stream[T any] struct {
	next    func() (T, bool, error)
	current T
	err     error
	done    bool

	closeOnce sync.Once
	closeErr  error
	closers   []io.Closer
}

// New creates a stream that pulls its values from next. next returns false once the
// source is exhausted.
func New[T any](next func() (T, bool, error), closers ...io.Closer) *Stream[T] {
	return &Stream[T]{
		next:    next,
		closers: closers,
	}
}

// FromSlice returns a stream over the elements of items.
func FromSlice[T any](items []T) *Stream[T] {
	idx := 0
	return New(func() (T, bool, error) {
		var zero T
		if idx >= len(items) {
			return zero, false, nil
		}

		item := items[idx]
		idx++
		return item, true, nil
	})
}

// OnClose attaches resources that are released when the stream is closed. Resources are
// closed in reverse order of attachment.
func (s *Stream[T]) OnClose(closers ...io.Closer) *Stream[T] {
	s.closers = append(s.closers, closers...)
	return s
}

// Next advances the stream. It returns false when the stream is exhausted, failed or
// closed.
func (s *Stream[T]) Next() bool {
	if s.done {
		return false
	}

	value, ok, err := s.next()
	if err != nil || !ok {
		var zero T
		s.current = zero
		s.err = err
		s.Close()
		return false
	}

	s.current = value
	return true
}

// Value returns the element the last successful Next call advanced to.
func (s *Stream[T]) Value() T {
	return s.current
}

// Err returns the error that stopped the stream, including errors from closing the
// underlying resources.
func (s *Stream[T]) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.closeErr
}

// Close releases all attached resources. It is safe to call Close more than once.
func (s *Stream[T]) Close() error {
	s.done = true
	s.closeOnce.Do(func() {
		for idx := len(s.closers) - 1; idx >= 0; idx-- {
			s.closeErr = multierr.Append(s.closeErr, s.closers[idx].Close())
		}
		s.closers = nil
	})

	return s.closeErr
}

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

// Close calls f.
func (f CloserFunc) Close() error {
	return f()
}

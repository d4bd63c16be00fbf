package stream

import (
	"io"

	"github.com/rotisserie/eris"
)

// ErrEmpty is returned by First if the stream has no elements.
var ErrEmpty = eris.New("stream is empty")

func pull[T any](src *Stream[T]) func() (T, bool, error) {
	return func() (T, bool, error) {
		if src.Next() {
			return src.Value(), true, nil
		}

		var zero T
		return zero, false, src.Err()
	}
}

// Map returns a stream that applies fn to each element of src. Closing the returned
// stream closes src.
func Map[T, R any](src *Stream[T], fn func(T) (R, error)) *Stream[R] {
	next := pull(src)
	return New(func() (R, bool, error) {
		var zero R
		value, ok, err := next()
		if !ok || err != nil {
			return zero, false, err
		}

		result, err := fn(value)
		if err != nil {
			return zero, false, err
		}
		return result, true, nil
	}, src)
}

// Filter returns a stream with the elements of src for which keep returns true.
func Filter[T any](src *Stream[T], keep func(T) bool) *Stream[T] {
	next := pull(src)
	return New(func() (T, bool, error) {
		for {
			value, ok, err := next()
			if !ok || err != nil {
				return value, ok, err
			}

			if keep(value) {
				return value, true, nil
			}
		}
	}, src)
}

// Limit returns a stream with at most n elements of src. src is closed as soon as the
// limit is reached.
func Limit[T any](src *Stream[T], n int) *Stream[T] {
	next := pull(src)
	seen := 0
	var closeErr error
	return New(func() (T, bool, error) {
		var zero T
		if seen >= n {
			return zero, false, closeErr
		}

		value, ok, err := next()
		if !ok || err != nil {
			return zero, false, err
		}

		seen++
		if seen == n {
			closeErr = src.Close()
		}
		return value, true, nil
	}, src)
}

// Skip returns a stream without the first n elements of src.
func Skip[T any](src *Stream[T], n int) *Stream[T] {
	next := pull(src)
	skipped := 0
	return New(func() (T, bool, error) {
		for skipped < n {
			skipped++
			if _, ok, err := next(); !ok || err != nil {
				var zero T
				return zero, false, err
			}
		}

		return next()
	}, src)
}

// ForEach calls fn for every element and closes the stream. Iteration stops at the
// first error returned by fn.
func ForEach[T any](s *Stream[T], fn func(T) error) error {
	defer s.Close()

	for s.Next() {
		if err := fn(s.Value()); err != nil {
			return err
		}
	}

	return s.Err()
}

// Collect drains the stream into a slice.
func Collect[T any](s *Stream[T]) ([]T, error) {
	result := make([]T, 0)
	err := ForEach(s, func(item T) error {
		result = append(result, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Count drains the stream and returns the number of elements.
func Count[T any](s *Stream[T]) (int64, error) {
	var count int64
	err := ForEach(s, func(T) error {
		count++
		return nil
	})

	return count, err
}

// First returns the first element and closes the stream.
func First[T any](s *Stream[T]) (T, error) {
	defer s.Close()

	if s.Next() {
		return s.Value(), nil
	}

	var zero T
	if err := s.Err(); err != nil {
		return zero, err
	}
	return zero, ErrEmpty
}

// Owning returns a stream over the elements of src that closes src and then closers when
// it is closed. It hands ownership of resources such as connection pools to a stream.
func Owning[T any](src *Stream[T], closers ...io.Closer) *Stream[T] {
	owned := make([]io.Closer, 0, len(closers)+1)
	owned = append(owned, closers...)
	owned = append(owned, src)
	return New(pull(src), owned...)
}

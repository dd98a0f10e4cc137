// Package retry runs an operation a bounded number of times.
package retry

import (
	"context"
	"fmt"
)

// ExhaustedError is returned by Do when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// Do calls fn until it succeeds or maxAttempts calls have failed. Attempts
// are numbered from 1 and run back to back without delay. A cancelled
// context stops the loop and its error is returned as is.
func Do[T any](ctx context.Context, maxAttempts int, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		last = err
	}
	return zero, &ExhaustedError{Attempts: maxAttempts, Last: last}
}

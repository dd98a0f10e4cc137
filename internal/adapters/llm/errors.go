package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider is returned by New for a name outside Names().
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrNotConfigured is returned by New when the provider lacks credentials.
	ErrNotConfigured = errors.New("provider not configured")
)

// BackendError is a single failed call to a backend: network, auth or rate
// limiting. It is retried and never returned on its own by Client.Generate.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every generation attempt failed.
type ExhaustedError struct {
	Provider string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: no usable commit message after %d attempts: %v", e.Provider, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers connectivity, DNS, timeouts and cancellation.
	ErrTransport = errors.New("weather: transport failure")
	// ErrProvider is returned for any non-2xx provider response.
	ErrProvider = errors.New("weather: provider rejected request")
	// ErrParse is returned when a 2xx body cannot be understood.
	ErrParse = errors.New("weather: unparsable response")
)

// ProviderError describes a non-success HTTP status from the provider.
type ProviderError struct {
	StatusCode int
	Code       int    // provider-specific error code, 0 if absent
	Message    string // provider-specific message, empty if absent
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrProvider, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s (code %d)", ErrProvider, e.StatusCode, e.Message, e.Code)
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// ErrClosed is returned when waiting on a state stream that was closed.
var ErrClosed = errors.New("weather: state stream closed")

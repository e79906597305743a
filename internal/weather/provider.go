package weather

import "context"

// Client fetches current conditions for a free-text location.
// Implementations perform exactly one network call per invocation and
// report failures wrapping ErrTransport, ErrProvider or ErrParse.
type Client interface {
	Current(ctx context.Context, apiKey, location string) (WeatherResult, error)
}

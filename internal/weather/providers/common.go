package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/i474232898/weatherwave/internal/weather"
)

// maxBodyBytes caps how much of a provider response we are willing to read.
const maxBodyBytes = 1 << 20

// doRequest executes req exactly once. Failures are classified as
// weather.ErrTransport (no response) or *weather.ProviderError (non-2xx).
// On success the caller owns resp.Body.
func doRequest(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", weather.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, providerError(resp)
	}
	return resp, nil
}

// providerError builds a ProviderError, picking up the provider's
// {"error":{"code":...,"message":...}} envelope when present.
func providerError(resp *http.Response) error {
	perr := &weather.ProviderError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return perr
	}

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		perr.Code = envelope.Error.Code
		perr.Message = envelope.Error.Message
	}
	return perr
}

// readBody drains a successful response body.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", weather.ErrTransport, err)
	}
	return body, nil
}

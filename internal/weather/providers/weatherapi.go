package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/i474232898/weatherwave/internal/weather"
)

// DefaultWeatherAPIBaseURL is the public WeatherAPI.com endpoint root.
const DefaultWeatherAPIBaseURL = "https://api.weatherapi.com/v1"

// WeatherAPIClient implements weather.Client for WeatherAPI.com.
type WeatherAPIClient struct {
	baseURL string
	client  *http.Client
}

// NewWeatherAPIClient creates a client against baseURL (DefaultWeatherAPIBaseURL
// when empty). A nil http.Client means http.DefaultClient.
func NewWeatherAPIClient(client *http.Client, baseURL string) *WeatherAPIClient {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultWeatherAPIBaseURL
	}
	return &WeatherAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Current issues GET {base}/current.json?key=...&q=... and parses the body.
func (p *WeatherAPIClient) Current(ctx context.Context, apiKey, location string) (weather.WeatherResult, error) {
	values := url.Values{}
	values.Set("key", apiKey)
	values.Set("q", location)

	u := fmt.Sprintf("%s/current.json?%s", p.baseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%w: building request: %v", weather.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.client, req)
	if err != nil {
		return weather.WeatherResult{}, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return weather.WeatherResult{}, err
	}
	return parseCurrent(body)
}

// parseCurrent decodes a current.json body. Measurements are accepted as
// JSON strings or numbers and always come out as text.
func parseCurrent(body []byte) (weather.WeatherResult, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}
	for _, key := range []string{"location", "current"} {
		if _, ok := raw[key].(map[string]interface{}); !ok {
			return weather.WeatherResult{}, fmt.Errorf("%w: missing %q object", weather.ErrParse, key)
		}
	}

	var res weather.WeatherResult
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &res,
	})
	if err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}
	if err := dec.Decode(raw); err != nil {
		return weather.WeatherResult{}, fmt.Errorf("%w: %v", weather.ErrParse, err)
	}
	return res, nil
}

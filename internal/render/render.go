// Package render turns fetch states into what front ends display.
package render

import (
	"fmt"
	"strings"

	"github.com/i474232898/weatherwave/internal/weather"
)

// Status names used in JSON views.
const (
	StatusIdle    = "idle"
	StatusLoading = "loading"
	StatusSuccess = "success"
	StatusError   = "error"
)

// LoadingText is shown while a query is in flight.
const LoadingText = "Loading…"

// View is the JSON shape of a fetch state.
type View struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    *weather.WeatherResult `json:"data,omitempty"`
	IconURL string                 `json:"iconUrl,omitempty"`
}

// NewView converts s. It returns an error for state types it does not know.
func NewView(s weather.FetchState) (View, error) {
	switch st := s.(type) {
	case nil:
		return View{Status: StatusIdle}, nil
	case weather.Loading:
		return View{Status: StatusLoading}, nil
	case weather.Success:
		res := st.Result
		return View{Status: StatusSuccess, Data: &res, IconURL: res.IconURL()}, nil
	case weather.Error:
		return View{Status: StatusError, Message: st.Message}, nil
	default:
		return View{}, fmt.Errorf("render: unknown fetch state %T", s)
	}
}

// Text renders s for plain-text front ends. Idle renders as "".
func Text(s weather.FetchState) (string, error) {
	switch st := s.(type) {
	case nil:
		return "", nil
	case weather.Loading:
		return LoadingText, nil
	case weather.Success:
		return Card(st.Result), nil
	case weather.Error:
		return st.Message, nil
	default:
		return "", fmt.Errorf("render: unknown fetch state %T", s)
	}
}

// Card formats a result the way the weather card lays it out.
func Card(r weather.WeatherResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s, %s\n", r.Location.Name, r.Location.Country)
	fmt.Fprintf(&b, "%s°C", r.Current.TempC)
	if r.Current.Condition.Text != "" {
		fmt.Fprintf(&b, "  %s", r.Current.Condition.Text)
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Humidity: %s%%\n", r.Current.Humidity)
	fmt.Fprintf(&b, "Wind Speed: %skm/h\n", r.Current.WindKph)
	fmt.Fprintf(&b, "Pressure: %smb\n", r.Current.PressureMb)
	fmt.Fprintf(&b, "UV Index: %s\n", r.Current.UV)
	fmt.Fprintf(&b, "Local Time: %s", r.Location.Localtime)

	return b.String()
}

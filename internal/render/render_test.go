package render

import (
	"strings"
	"testing"

	"github.com/i474232898/weatherwave/internal/weather"
)

var paris = weather.WeatherResult{
	Location: weather.Location{Name: "Paris", Country: "France", Localtime: "2024-01-01 12:00"},
	Current: weather.Current{
		TempC: "18", Humidity: "60", WindKph: "10", PressureMb: "1012", UV: "3",
		Condition: weather.Condition{Text: "Sunny", Icon: "//cdn/64x64/c.png"},
	},
}

type bogusState struct{ weather.Loading }

func TestNewView(t *testing.T) {
	tests := []struct {
		state weather.FetchState
		want  string
	}{
		{nil, StatusIdle},
		{weather.Loading{}, StatusLoading},
		{weather.Success{Result: paris}, StatusSuccess},
		{weather.Error{Message: weather.FailureMessage}, StatusError},
	}
	for _, tt := range tests {
		v, err := NewView(tt.state)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Status != tt.want {
			t.Errorf("status = %q, want %q", v.Status, tt.want)
		}
	}

	v, _ := NewView(weather.Success{Result: paris})
	if v.Data == nil || v.Data.Location.Name != "Paris" {
		t.Fatalf("expected data in success view, got %#v", v)
	}
	if v.IconURL != "https://cdn/128x128/c.png" {
		t.Fatalf("unexpected icon url %q", v.IconURL)
	}
}

func TestUnknownStateIsRejected(t *testing.T) {
	if _, err := NewView(bogusState{}); err == nil {
		t.Fatal("expected error for unknown state type")
	}
	if _, err := Text(bogusState{}); err == nil {
		t.Fatal("expected error for unknown state type")
	}
}

func TestText(t *testing.T) {
	if got, _ := Text(weather.Loading{}); got != LoadingText {
		t.Fatalf("unexpected loading text %q", got)
	}
	if got, _ := Text(weather.Error{Message: weather.FailureMessage}); got != weather.FailureMessage {
		t.Fatalf("unexpected error text %q", got)
	}

	card, err := Text(weather.Success{Result: paris})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Paris, France", "18°C", "Sunny", "Humidity: 60%", "Wind Speed: 10km/h", "Pressure: 1012mb", "UV Index: 3", "Local Time: 2024-01-01 12:00"} {
		if !strings.Contains(card, want) {
			t.Errorf("card missing %q:\n%s", want, card)
		}
	}
}

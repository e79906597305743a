package weather

import "strings"

// Location is the place block of a provider response.
type Location struct {
	Name      string `json:"name" mapstructure:"name"`
	Region    string `json:"region,omitempty" mapstructure:"region"`
	Country   string `json:"country" mapstructure:"country"`
	Localtime string `json:"localtime" mapstructure:"localtime"` // provider format, e.g. "2024-01-01 12:00"
}

// Condition describes the sky as a label plus an icon fragment.
type Condition struct {
	Text string `json:"text" mapstructure:"text"`
	Icon string `json:"icon" mapstructure:"icon"`
}

// Current holds the measurements at the location's local time.
// Numeric values are kept as the provider renders them.
type Current struct {
	TempC      string    `json:"temp_c" mapstructure:"temp_c"`
	Humidity   string    `json:"humidity" mapstructure:"humidity"`
	WindKph    string    `json:"wind_kph" mapstructure:"wind_kph"`
	PressureMb string    `json:"pressure_mb" mapstructure:"pressure_mb"`
	UV         string    `json:"uv" mapstructure:"uv"`
	Condition  Condition `json:"condition" mapstructure:"condition"`
}

// WeatherResult is the parsed current-conditions payload.
type WeatherResult struct {
	Location Location `json:"location" mapstructure:"location"`
	Current  Current  `json:"current" mapstructure:"current"`
}

const (
	iconSmall = "64x64"
	iconLarge = "128x128"
)

// DisplayIconURL turns the provider's protocol-relative icon fragment into
// an absolute https URL pointing at the larger rendition.
func DisplayIconURL(fragment string) string {
	if fragment == "" {
		return ""
	}
	u := fragment
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return strings.Replace(u, iconSmall, iconLarge, 1)
}

// IconURL is DisplayIconURL applied to the result's condition icon.
func (r WeatherResult) IconURL() string {
	return DisplayIconURL(r.Current.Condition.Icon)
}

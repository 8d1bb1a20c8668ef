// Package weather fetches current conditions and reduces them to the snapshot stored on entries.
package weather

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownLocation is used when the provider omits the place name.
const UnknownLocation = "Unknown Location"

// Snapshot captures conditions at the moment an entry was recorded.
type Snapshot struct {
	Temp         float64  `json:"temp"`
	FeelsLike    float64  `json:"feels_like"`
	Description  string   `json:"description"`
	Icon         string   `json:"icon"`
	LocationName string   `json:"locationName"`
	Humidity     float64  `json:"humidity"`
	WindSpeed    *float64 `json:"windSpeed,omitempty"`
}

// Icon categories used by the presentation layer.
const (
	CategoryClear        = "clear"
	CategoryCloudy       = "cloudy"
	CategoryRain         = "rain"
	CategoryThunderstorm = "thunderstorm"
	CategorySnow         = "snow"
	CategoryMist         = "mist"
)

// DisplayDescription capitalises each word of the provider description.
func (s Snapshot) DisplayDescription() string {
	// a Caser is stateful, so one per call
	return cases.Title(language.English).String(strings.TrimSpace(s.Description))
}

// Category maps the provider icon code to a coarse condition bucket.
func (s Snapshot) Category() string {
	return Category(s.Icon, s.Description)
}

// Category maps an icon code such as "10d" to a bucket, falling back to
// keywords in the description when no code is present.
func Category(icon, description string) string {
	if len(icon) >= 2 {
		switch icon[:2] {
		case "01":
			return CategoryClear
		case "02", "03", "04":
			return CategoryCloudy
		case "09", "10":
			return CategoryRain
		case "11":
			return CategoryThunderstorm
		case "13":
			return CategorySnow
		case "50":
			return CategoryMist
		}
		return CategoryClear
	}
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "thunder"):
		return CategoryThunderstorm
	case strings.Contains(desc, "snow"):
		return CategorySnow
	case strings.Contains(desc, "rain"), strings.Contains(desc, "drizzle"):
		return CategoryRain
	case strings.Contains(desc, "cloud"):
		return CategoryCloudy
	case strings.Contains(desc, "mist"), strings.Contains(desc, "fog"), strings.Contains(desc, "haze"):
		return CategoryMist
	default:
		return CategoryClear
	}
}

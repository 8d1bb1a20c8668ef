package weather

import (
	"fmt"
	"strings"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key renders coordinates at roughly 1km precision for de-duplicating lookups.
func (c Coordinates) Key() string {
	return fmt.Sprintf("%.2f,%.2f", c.Latitude, c.Longitude)
}

// Location is a named fallback position.
type Location struct {
	Name string
	Coordinates
}

// Hyderabad is the default fallback location.
var Hyderabad = Location{Name: "Hyderabad", Coordinates: Coordinates{Latitude: 17.3850, Longitude: 78.4867}}

// Locate returns the coordinates to query. When the client could not supply a
// position the fallback is used and a notice explains the substitution.
func Locate(requested *Coordinates, geoErr string, fallback Location) (Coordinates, string) {
	if requested != nil && strings.TrimSpace(geoErr) == "" {
		return *requested, ""
	}
	name := fallback.Name
	if name == "" {
		name = "the default location"
	}
	reason := strings.TrimSpace(geoErr)
	if reason == "" {
		return fallback.Coordinates, fmt.Sprintf("Location unavailable. Fetching weather for %s.", name)
	}
	return fallback.Coordinates, fmt.Sprintf("Unable to retrieve location: %s. Fetching weather for %s.", reason, name)
}

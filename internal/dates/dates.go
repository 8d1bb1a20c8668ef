// Package dates converts between calendar-day keys and display labels.
package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the storage format of an entry date.
const KeyLayout = "2006-01-02"

// ErrDateParse reports a date key that cannot be interpreted.
var ErrDateParse = errors.New("dates: unparseable date")

// Key formats t as a YYYY-MM-DD calendar key in t's location.
func Key(t time.Time) string {
	return t.Format(KeyLayout)
}

// TodayKey returns the calendar key of the local day containing now.
func TodayKey(now time.Time) string {
	return Key(now.Local())
}

// Parse accepts a YYYY-MM-DD key or an RFC 3339 timestamp and returns local midnight of that day.
func Parse(key string) (time.Time, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrDateParse)
	}
	if t, err := time.ParseInLocation(KeyLayout, trimmed, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrDateParse, key)
}

// ToDisplay renders a key as "April 5th, 2024". Empty input yields "" and
// unparseable input is returned unchanged.
func ToDisplay(key string) string {
	if key == "" {
		return ""
	}
	t, err := Parse(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%s %d%s, %d", t.Month(), t.Day(), Ordinal(t.Day()), t.Year())
}

// ShortLabel renders a key as "Apr 05" for chart axes.
func ShortLabel(key string) string {
	t, err := Parse(key)
	if err != nil {
		return key
	}
	return t.Format("Jan 02")
}

// Ordinal returns the English ordinal suffix for a day of month.
func Ordinal(day int) string {
	if rem := day % 100; rem >= 11 && rem <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// IsFuture reports whether key names a day after the local day of now.
func IsFuture(key string, now time.Time) bool {
	t, err := Parse(key)
	if err != nil {
		return false
	}
	return Key(t) > TodayKey(now)
}

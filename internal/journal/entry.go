// Package journal owns the mood journal: its entries, the theme preference and
// the rules for attaching weather to new entries.
package journal

import (
	"fmt"

	"github.com/moodjournal/moodjournal/internal/platform/httpx"
	"github.com/moodjournal/moodjournal/internal/weather"
)

// Storage keys.
const (
	EntriesKey = "moodEntries"
	ThemeKey   = "theme"
)

var (
	// ErrStorage reports that the persistent store could not be read or written.
	ErrStorage = fmt.Errorf("journal: storage failure: %w", httpx.ErrUnavailable)
	// ErrNotEnoughData reports that the mood chart needs at least two entries.
	ErrNotEnoughData = fmt.Errorf("journal: at least two entries are needed for the chart: %w", httpx.ErrPrecondition)
)

// Entry is one recorded mood.
type Entry struct {
	ID      int64             `json:"id"`
	Date    string            `json:"date"`
	Mood    Mood              `json:"mood"`
	Note    string            `json:"note"`
	Weather *weather.Snapshot `json:"weather,omitempty"`
}

// Draft is an entry before the store assigns its id.
type Draft struct {
	Date    string
	Mood    Mood
	Note    string
	Weather *weather.Snapshot
}

func (e Entry) clone() Entry {
	e.Weather = cloneSnapshot(e.Weather)
	return e
}

func cloneSnapshot(s *weather.Snapshot) *weather.Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.WindSpeed != nil {
		speed := *s.WindSpeed
		out.WindSpeed = &speed
	}
	return &out
}

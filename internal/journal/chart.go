package journal

import (
	"sort"

	"github.com/moodjournal/moodjournal/internal/dates"
)

// MoodPoint is one entry plotted on the mood chart.
type MoodPoint struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`
	Label string `json:"label"`
	Mood  Mood   `json:"mood"`
	Value int    `json:"value"`
}

// MoodSeries is the chart input ordered by date ascending.
type MoodSeries struct {
	Points []MoodPoint `json:"points"`
}

// Values returns the rank of each point.
func (m MoodSeries) Values() []float64 {
	out := make([]float64, len(m.Points))
	for i, p := range m.Points {
		out[i] = float64(p.Value)
	}
	return out
}

// Labels returns the axis label of each point.
func (m MoodSeries) Labels() []string {
	out := make([]string, len(m.Points))
	for i, p := range m.Points {
		out[i] = p.Label
	}
	return out
}

// BuildMoodSeries orders entries by date ascending, keeping the incoming order
// for equal dates, and maps each mood to its rank. Unknown moods plot at 0.
func BuildMoodSeries(entries []Entry) (MoodSeries, error) {
	if len(entries) < 2 {
		return MoodSeries{}, ErrNotEnoughData
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	points := make([]MoodPoint, 0, len(sorted))
	for _, e := range sorted {
		points = append(points, MoodPoint{
			ID:    e.ID,
			Date:  e.Date,
			Label: dates.ShortLabel(e.Date),
			Mood:  e.Mood,
			Value: e.Mood.Rank(),
		})
	}
	return MoodSeries{Points: points}, nil
}

// MoodCount is the number of entries recorded with one mood.
type MoodCount struct {
	Mood  Mood   `json:"mood"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// CountMoods tallies entries per mood in table order. Unknown moods are skipped.
func CountMoods(entries []Entry) []MoodCount {
	moods := Moods()
	index := make(map[Mood]int, len(moods))
	counts := make([]MoodCount, len(moods))
	for i, info := range moods {
		index[info.Mood] = i
		counts[i] = MoodCount{Mood: info.Mood, Color: info.Color}
	}
	for _, e := range entries {
		if i, ok := index[e.Mood]; ok {
			counts[i].Count++
		}
	}
	return counts
}

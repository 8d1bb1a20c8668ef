package export

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/internal/journal"
)

const notAvailable = "N/A"

var csvHeader = []string{
	"Date",
	"Mood",
	"Note",
	"Weather Temp (°C)",
	"Weather Feels Like (°C)",
	"Weather Description",
	"Weather Location",
	"Weather Humidity (%)",
	"Weather Wind Speed (m/s)",
}

// CSV renders entries as CSV text in the given order. Rows are separated by
// "\n" without a trailing newline and an empty list yields "".
// The display date is written verbatim and never quoted.
func CSV(entries []journal.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	rows := make([]string, 0, len(entries)+1)
	rows = append(rows, strings.Join(csvHeader, ","))
	for _, e := range entries {
		rows = append(rows, strings.Join(csvRecord(e), ","))
	}
	return strings.Join(rows, "\n")
}

// WriteCSV writes CSV(entries) to w.
func WriteCSV(w io.Writer, entries []journal.Entry) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}
	_, err := io.WriteString(w, CSV(entries))
	return err
}

func csvRecord(e journal.Entry) []string {
	record := []string{
		dates.ToDisplay(e.Date),
		escapeCSV(string(e.Mood)),
		escapeCSV(e.Note),
	}
	w := e.Weather
	if w == nil {
		return append(record, notAvailable, notAvailable, notAvailable, notAvailable, notAvailable, notAvailable)
	}
	wind := notAvailable
	if w.WindSpeed != nil {
		wind = formatNumber(*w.WindSpeed)
	}
	return append(record,
		formatNumber(roundHalfUp(w.Temp)),
		formatNumber(roundHalfUp(w.FeelsLike)),
		escapeCSV(w.Description),
		escapeCSV(w.LocationName),
		formatNumber(w.Humidity),
		wind,
	)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\r\n\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

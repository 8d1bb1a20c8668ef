package http

import (
	"html/template"

	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/weather"
)

// entryRequest is the JSON body of POST /api/entries.
type entryRequest struct {
	Date      string   `json:"date" validate:"required,datetime=2006-01-02,notfuture"`
	Mood      string   `json:"mood" validate:"required,mood"`
	Note      string   `json:"note" validate:"max=2000"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	GeoError  string   `json:"geo_error" validate:"max=200"`
}

// entryForm mirrors entryRequest for the HTML form, which posts strings.
type entryForm struct {
	Date      string `validate:"required,datetime=2006-01-02,notfuture"`
	Mood      string `validate:"required,mood"`
	Note      string `validate:"max=2000"`
	Latitude  string `validate:"omitempty,latitude"`
	Longitude string `validate:"omitempty,longitude"`
	GeoError  string `validate:"max=200"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=light dark"`
}

type themeResponse struct {
	Theme journal.Theme `json:"theme"`
}

type entriesResponse struct {
	Entries []journal.Entry `json:"entries"`
	Count   int             `json:"count"`
}

type moodsResponse struct {
	Moods []journal.MoodInfo `json:"moods"`
}

type validationResponse struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

// entryView is one entry as the templates display it.
type entryView struct {
	ID        int64
	Date      string
	Display   string
	Mood      journal.Mood
	Badge     string
	Note      string
	Weather   *weather.Snapshot
	Backdated bool
}

// journalPage feeds pages/journal.html and the exportable regions.
type journalPage struct {
	Today        string
	Form         entryForm
	Errors       map[string]string
	Moods        []journal.MoodInfo
	Filter       string
	Entries      []entryView
	Chart        template.HTML
	ChartMessage string
	Distribution template.HTML
	Regions      []string
}

// regionDocument feeds regions/document.html.
type regionDocument struct {
	Region string
	Page   journalPage
}

func toEntryViews(entries []journal.Entry, today string) []entryView {
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		info, _ := e.Mood.Info()
		out = append(out, entryView{
			ID:        e.ID,
			Date:      e.Date,
			Display:   dates.ToDisplay(e.Date),
			Mood:      e.Mood,
			Badge:     info.Badge,
			Note:      e.Note,
			Weather:   e.Weather,
			Backdated: e.Weather == nil && e.Date != today,
		})
	}
	return out
}

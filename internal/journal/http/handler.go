// Package http serves the journal page, its JSON API and the export downloads.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/moodjournal/moodjournal/internal/chart"
	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/internal/export"
	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/view"
)

const (
	pageTitle           = "Mood Journal"
	chartPlaceholder    = "Add at least two entries to see your mood trend."
	defaultExportPerMin = 10
)

// ExportObserver is told about every export attempt.
type ExportObserver interface {
	ExportServed(format string, err error)
}

type noopExportObserver struct{}

func (noopExportObserver) ExportServed(string, error) {}

// Options groups the handler's dependencies.
type Options struct {
	Logger    *slog.Logger
	Service   *journal.Service
	Themes    *journal.ThemeStore
	Templates *view.Engine
	Visual    *export.VisualExporter
	Metrics   ExportObserver
	// Now defaults to time.Now.
	Now func() time.Time
	// ExportsPerMinute limits export downloads per client IP.
	ExportsPerMinute int
}

// Handler wires HTTP endpoints for the journal.
type Handler struct {
	logger    *slog.Logger
	service   *journal.Service
	store     *journal.Store
	themes    *journal.ThemeStore
	templates *view.Engine
	visual    *export.VisualExporter
	metrics   ExportObserver
	now       func() time.Time
	validator *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs a Handler and registers the exportable page regions.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Service == nil {
		return nil, errors.New("journal http: service required")
	}
	if opts.Themes == nil {
		return nil, errors.New("journal http: theme store required")
	}
	if opts.Templates == nil {
		return nil, errors.New("journal http: template engine required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopExportObserver{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Visual == nil {
		opts.Visual = export.NewVisualExporter(nil, 0)
	}
	perMinute := opts.ExportsPerMinute
	if perMinute <= 0 {
		perMinute = defaultExportPerMin
	}

	h := &Handler{
		logger:    opts.Logger,
		service:   opts.Service,
		store:     opts.Service.Store(),
		themes:    opts.Themes,
		templates: opts.Templates,
		visual:    opts.Visual,
		metrics:   opts.Metrics,
		now:       opts.Now,
		rateLimit: httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
	v, err := newValidator(h.now)
	if err != nil {
		return nil, err
	}
	h.validator = v

	for _, region := range []string{export.RegionEntries, export.RegionChart} {
		h.visual.Register(region, h.regionDocument(region))
	}
	return h, nil
}

// MountRoutes registers the journal routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showJournal)
	r.Post("/entries", h.createEntry)
	r.Post("/entries/{id}/delete", h.deleteEntry)
	r.Post("/theme/toggle", h.toggleTheme)
	r.Get("/chart.svg", h.chartSVG)
	r.Get("/regions/{region}", h.showRegion)

	r.Route("/api", func(r chi.Router) {
		r.Get("/moods", h.apiMoods)
		r.Get("/entries", h.apiListEntries)
		r.Post("/entries", h.apiCreateEntry)
		r.Delete("/entries/{id}", h.apiDeleteEntry)
		r.Get("/weather/today", h.apiTodayWeather)
		r.Get("/theme", h.apiGetTheme)
		r.Put("/theme", h.apiSetTheme)
		r.Post("/theme/toggle", h.apiToggleTheme)
		r.Get("/chart", h.apiChart)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/export/entries.csv", h.exportCSV)
		r.Get("/export/entries.pdf", h.exportTextPDF)
		r.Get("/export/visual.pdf", h.exportVisualPDF)
	})
}

func newValidator(now func() time.Time) (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	if err := v.RegisterValidation("mood", func(fl validator.FieldLevel) bool {
		return journal.Mood(fl.Field().String()).Valid()
	}); err != nil {
		return nil, fmt.Errorf("journal http: register mood validation: %w", err)
	}
	if err := v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return !dates.IsFuture(fl.Field().String(), now())
	}); err != nil {
		return nil, fmt.Errorf("journal http: register notfuture validation: %w", err)
	}
	return v, nil
}

// validationMessages turns validator errors into one message per field.
func validationMessages(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["general"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "datetime":
		return "Use a date in YYYY-MM-DD format."
	case "notfuture":
		return "Entries cannot be dated in the future."
	case "mood":
		return "Pick one of Happy, Content, Neutral, Sad or Angry."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	case "latitude", "longitude":
		return "Coordinates are out of range."
	case "min", "max":
		if fe.Kind() == reflect.String {
			return "Must be at most " + fe.Param() + " characters."
		}
		return "Coordinates are out of range."
	default:
		return "Invalid value."
	}
}

// prefersDark reads the Sec-CH-Prefers-Color-Scheme client hint.
func prefersDark(r *http.Request) bool {
	hint := strings.Trim(strings.TrimSpace(r.Header.Get("Sec-CH-Prefers-Color-Scheme")), `"`)
	return strings.EqualFold(hint, "dark")
}

func (h *Handler) theme(ctx context.Context, r *http.Request) journal.Theme {
	dark := r != nil && prefersDark(r)
	theme, err := h.themes.Get(ctx, dark)
	if err != nil {
		h.logger.Warn("load theme", slog.Any("error", err))
		return journal.DefaultTheme(dark)
	}
	return theme
}

func (h *Handler) today() string {
	return dates.TodayKey(h.now())
}

// buildPage assembles everything the page and its regions display.
func (h *Handler) buildPage(all []journal.Entry, filter journal.Mood) journalPage {
	shown := all
	if filter != "" {
		shown = make([]journal.Entry, 0, len(all))
		for _, e := range all {
			if e.Mood == filter {
				shown = append(shown, e)
			}
		}
	}
	today := h.today()
	page := journalPage{
		Today:   today,
		Form:    entryForm{Date: today},
		Errors:  map[string]string{},
		Moods:   journal.Moods(),
		Filter:  string(filter),
		Entries: toEntryViews(shown, today),
		Regions: h.visual.Regions(),
	}

	svg, err := moodChart(all)
	switch {
	case errors.Is(err, journal.ErrNotEnoughData):
		page.ChartMessage = chartPlaceholder
	case err != nil:
		h.logger.Warn("render mood chart", slog.Any("error", err))
		page.ChartMessage = chartPlaceholder
	default:
		page.Chart = svg
	}
	if len(all) > 0 {
		dist, err := moodDistribution(all)
		if err != nil {
			h.logger.Warn("render mood distribution", slog.Any("error", err))
		} else {
			page.Distribution = dist
		}
	}
	return page
}

func moodChart(entries []journal.Entry) (template.HTML, error) {
	series, err := journal.BuildMoodSeries(entries)
	if err != nil {
		return "", err
	}
	colors := make([]string, len(series.Points))
	for i, p := range series.Points {
		info, _ := p.Mood.Info()
		colors[i] = info.Color
	}
	return chart.Line(0, 0, series.Values(), series.Labels(), chart.LineOpts{
		Title:       "Mood Over Time",
		Description: "Mood of each entry from oldest to newest",
		ShowDots:    true,
		DotColors:   colors,
		TickCount:   4,
		FixedMin:    1,
		FixedMax:    5,
		TickLabel:   moodTick,
	})
}

func moodDistribution(entries []journal.Entry) (template.HTML, error) {
	counts := journal.CountMoods(entries)
	values := make([]float64, len(counts))
	labels := make([]string, len(counts))
	colors := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = string(c.Mood)
		colors[i] = c.Color
	}
	return chart.Bars(0, 200, values, labels, chart.BarOpts{
		Title:       "Mood Distribution",
		Description: "Number of entries per mood",
		Colors:      colors,
	})
}

// moodTick names the mood at an integral rank.
func moodTick(v float64) string {
	rank := int(v + 0.5)
	if float64(rank) != v {
		return ""
	}
	mood, ok := journal.MoodForRank(rank)
	if !ok {
		return ""
	}
	return string(mood)
}

// regionDocument renders a region as the standalone document the rasterizer captures.
func (h *Handler) regionDocument(region string) export.RegionFunc {
	return func(ctx context.Context, entries []journal.Entry) (string, error) {
		page := h.buildPage(entries, "")
		return h.templates.RenderString("regions/document.html", view.TemplateData{
			Title: pageTitle,
			Theme: string(h.theme(ctx, nil)),
			Data:  regionDocument{Region: region, Page: page},
		})
	}
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// safeReturn keeps redirects on this site.
func safeReturn(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return "/"
	}
	return path
}

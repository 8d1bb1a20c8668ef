package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/moodjournal/moodjournal/internal/export"
	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/platform/kv"
	"github.com/moodjournal/moodjournal/internal/view"
	"github.com/moodjournal/moodjournal/internal/weather"
	_ "github.com/moodjournal/moodjournal/testing"
)

var testNow = time.Date(2024, 4, 5, 12, 0, 0, 0, time.Local)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, lat, lon float64) (weather.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	wind := 3.6
	return weather.Snapshot{Temp: 31.6, FeelsLike: 33.2, Description: "scattered clouds", Icon: "03d", LocationName: "Pune", Humidity: 48, WindSpeed: &wind}, nil
}

type stubRasterizer struct {
	mu    sync.Mutex
	html  []string
	image []byte
}

func (s *stubRasterizer) ScreenshotHTML(ctx context.Context, html string, width int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.html = append(s.html, html)
	return s.image, nil
}

type exportRecorder struct {
	mu     sync.Mutex
	served []string
}

func (e *exportRecorder) ExportServed(format string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.served = append(e.served, format+":"+result)
}

type fixture struct {
	router  chi.Router
	store   *journal.Store
	fetcher *stubFetcher
	raster  *stubRasterizer
	exports *exportRecorder
}

func newFixture(t *testing.T, exportsPerMinute int) *fixture {
	t.Helper()
	ctx := context.Background()
	backend := kv.NewMemory()
	store, err := journal.NewStore(ctx, backend, journal.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := &stubFetcher{}
	service := journal.NewService(store, fetcher, journal.ServiceConfig{}, logger, nil)

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	raster := &stubRasterizer{image: buf.Bytes()}

	templates, err := view.NewEngine()
	require.NoError(t, err)
	exports := &exportRecorder{}

	h, err := NewHandler(Options{
		Logger:           logger,
		Service:          service,
		Themes:           journal.NewThemeStore(backend),
		Templates:        templates,
		Visual:           export.NewVisualExporter(raster, 0),
		Metrics:          exports,
		Now:              func() time.Time { return testNow },
		ExportsPerMinute: exportsPerMinute,
	})
	require.NoError(t, err)

	router := chi.NewRouter()
	h.MountRoutes(router)
	return &fixture{router: router, store: store, fetcher: fetcher, raster: raster, exports: exports}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) postJSON(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return f.do(req)
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func TestJournalPageRendersEmptyState(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.Contains(t, body, `max="2024-04-05"`)
	require.Contains(t, body, "No entries yet.")
	require.Contains(t, body, chartPlaceholder)
	require.NotContains(t, body, "/export/entries.csv", "export links appear only with entries")
}

func TestFormSubmissionRecordsTodayWithWeather(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postForm("/entries", url.Values{
		"date":      {"2024-04-05"},
		"mood":      {"Happy"},
		"note":      {"  sunny walk  "},
		"latitude":  {"18.52"},
		"longitude": {"73.86"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	entries := f.store.List()
	require.Len(t, entries, 1)
	require.Equal(t, "sunny walk", entries[0].Note)
	require.NotNil(t, entries[0].Weather)
	require.Equal(t, 1, f.fetcher.calls)

	page := f.get("/").Body.String()
	require.Contains(t, page, "April 5th, 2024")
	require.Contains(t, page, "Scattered Clouds")
	require.Contains(t, page, "weather-cloudy")
	require.Contains(t, page, "32&deg;C")
}

func TestFormSubmissionWithoutLocationCarriesNotice(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postForm("/entries", url.Values{
		"date":      {"2024-04-05"},
		"mood":      {"Neutral"},
		"geo_error": {"User denied Geolocation"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "Unable to retrieve location: User denied Geolocation. Fetching weather for Hyderabad.", location.Query().Get("notice"))

	page := f.get(location.String()).Body.String()
	require.Contains(t, page, `role="status"`)
}

func TestFormSubmissionRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postForm("/entries", url.Values{"date": {"2024-04-06"}, "mood": {"Bored"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Entries cannot be dated in the future.")
	require.Contains(t, body, "Pick one of Happy, Content, Neutral, Sad or Angry.")
	require.Zero(t, f.store.Len())
}

func TestBackdatedEntryShowsWeatherHint(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postForm("/entries", url.Values{"date": {"2024-04-01"}, "mood": {"Sad"}, "latitude": {"1"}, "longitude": {"2"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Zero(t, f.fetcher.calls)
	require.Nil(t, f.store.List()[0].Weather)
	require.Contains(t, f.get("/").Body.String(), "Weather only recorded for entries made on the current day.")
}

func TestFormDeleteRedirects(t *testing.T) {
	f := newFixture(t, 0)
	f.postForm("/entries", url.Values{"date": {"2024-04-01"}, "mood": {"Sad"}})
	id := f.store.List()[0].ID

	rec := f.postForm("/entries/"+strconv.FormatInt(id, 10)+"/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Zero(t, f.store.Len())

	require.Equal(t, http.StatusBadRequest, f.postForm("/entries/abc/delete", nil).Code)
}

func TestAPIEntriesLifecycle(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-05","mood":"Content","note":"tea","latitude":18.5,"longitude":73.8}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created journal.RecordResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, journal.MoodContent, created.Entry.Mood)
	require.NotNil(t, created.Entry.Weather)

	rec = f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-02","mood":"Angry"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var list entriesResponse
	rec = f.get("/api/entries?mood=Angry")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	require.Equal(t, journal.MoodAngry, list.Entries[0].Mood)

	require.Equal(t, http.StatusBadRequest, f.get("/api/entries?mood=Bored").Code)

	path := "/api/entries/" + strconv.FormatInt(created.Entry.ID, 10)
	require.Equal(t, http.StatusNoContent, f.do(httptest.NewRequest(http.MethodDelete, path, nil)).Code)
	require.Equal(t, http.StatusNoContent, f.do(httptest.NewRequest(http.MethodDelete, path, nil)).Code, "deleting an absent id is a no-op")
	require.Equal(t, 1, f.store.Len())
}

func TestAPICreateValidation(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postJSON(http.MethodPost, "/api/entries", `{"date":"05/04/2024","mood":"Happy","latitude":123}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp validationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Errors, "date")
	require.Contains(t, resp.Errors, "latitude")

	rec = f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-05","mood":"Happy","weather":{"temp":1}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "clients cannot submit a weather snapshot")
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-05","mood":"Happy","note":"`+strings.Repeat("x", 2001)+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, f.store.Len())
}

func TestAPITodayWeatherReusesSnapshot(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.get("/api/weather/today?lat=18.5&lon=73.8")
	require.Equal(t, http.StatusOK, rec.Code)
	var first journal.WeatherResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotNil(t, first.Snapshot)
	require.False(t, first.Reused)

	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-05","mood":"Happy","latitude":18.5,"longitude":73.8}`)
	calls := f.fetcher.calls

	var second journal.WeatherResult
	require.NoError(t, json.Unmarshal(f.get("/api/weather/today").Body.Bytes(), &second))
	require.True(t, second.Reused)
	require.Equal(t, calls, f.fetcher.calls)

	require.Equal(t, http.StatusBadRequest, f.get("/api/weather/today?lat=91&lon=0").Code)
	require.Equal(t, http.StatusBadRequest, f.get("/api/weather/today?lat=10").Code)
}

func TestAPITheme(t *testing.T) {
	f := newFixture(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/theme", nil)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"dark"`)
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"theme":"dark"}`, rec.Body.String())

	rec = f.postJSON(http.MethodPost, "/api/theme/toggle", "")
	require.JSONEq(t, `{"theme":"dark"}`, rec.Body.String(), "toggling from the light default")

	rec = f.postJSON(http.MethodPut, "/api/theme", `{"theme":"light"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"theme":"light"}`, f.get("/api/theme").Body.String())

	require.Equal(t, http.StatusBadRequest, f.postJSON(http.MethodPut, "/api/theme", `{"theme":"sepia"}`).Code)
}

func TestThemeToggleFormRedirectsBack(t *testing.T) {
	f := newFixture(t, 0)

	rec := f.postForm("/theme/toggle", url.Values{"return_to": {"/?mood=Happy"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/?mood=Happy", rec.Header().Get("Location"))
	require.Contains(t, f.get("/").Body.String(), `data-theme="dark"`)

	rec = f.postForm("/theme/toggle", url.Values{"return_to": {"//evil.example"}})
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestChartEndpoints(t *testing.T) {
	f := newFixture(t, 0)
	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-03","mood":"Sad"}`)

	require.Equal(t, http.StatusUnprocessableEntity, f.get("/api/chart").Code)
	require.Equal(t, http.StatusUnprocessableEntity, f.get("/chart.svg").Code)

	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-01","mood":"Happy"}`)
	rec := f.get("/api/chart")
	require.Equal(t, http.StatusOK, rec.Code)
	var series journal.MoodSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Equal(t, []float64{5, 2}, series.Values())

	rec = f.get("/chart.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), ">Happy</text>")
}

func TestExports(t *testing.T) {
	f := newFixture(t, 100)

	rec := f.get("/export/entries.csv")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, http.StatusUnprocessableEntity, f.get("/export/entries.pdf").Code)
	require.Equal(t, http.StatusUnprocessableEntity, f.get("/export/visual.pdf").Code)

	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-01","mood":"Happy","note":"great, day"}`)

	rec = f.get("/export/entries.csv")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "attachment; filename=mood-journal-csv-2024-04-05.csv", rec.Header().Get("Content-Disposition"))
	require.True(t, strings.HasSuffix(rec.Body.String(), `April 1st, 2024,Happy,"great, day",N/A,N/A,N/A,N/A,N/A,N/A`))

	rec = f.get("/export/entries.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = f.get("/export/visual.pdf?region=mood-chart")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "attachment; filename=mood-journal-visual-2024-04-05.pdf", rec.Header().Get("Content-Disposition"))
	require.Contains(t, rec.Body.String(), "/MediaBox [0 0 20.00 10.00]")
	require.Len(t, f.raster.html, 1)
	require.Contains(t, f.raster.html[0], `id="mood-chart"`)
	require.Contains(t, f.raster.html[0], `class="region-export"`)

	require.Equal(t, http.StatusUnprocessableEntity, f.get("/export/visual.pdf?region=sidebar").Code)

	require.Equal(t, []string{
		"csv:error", "text:error", "visual:error",
		"csv:ok", "text:ok", "visual:ok", "visual:error",
	}, f.exports.served)
}

func TestExportsFilterByMood(t *testing.T) {
	f := newFixture(t, 100)
	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-01","mood":"Happy","note":"sunny"}`)
	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-02","mood":"Sad","note":"rainy"}`)

	rec := f.get("/export/entries.csv?mood=Sad")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "rainy")
	require.NotContains(t, rec.Body.String(), "sunny")

	for _, path := range []string{"/export/entries.csv?mood=Bogus", "/export/entries.pdf?mood=Bogus"} {
		rec = f.get(path)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		require.Contains(t, rec.Body.String(), `unknown mood \"Bogus\"`, path)
	}
	require.Equal(t, []string{"csv:ok"}, f.exports.served)
}

func TestExportsAreRateLimited(t *testing.T) {
	f := newFixture(t, 1)
	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-01","mood":"Happy"}`)

	require.Equal(t, http.StatusOK, f.get("/export/entries.csv").Code)
	require.Equal(t, http.StatusTooManyRequests, f.get("/export/entries.csv").Code)
	require.Equal(t, http.StatusOK, f.get("/api/entries").Code, "only exports are limited")
}

func TestRegionRoute(t *testing.T) {
	f := newFixture(t, 0)
	f.postJSON(http.MethodPost, "/api/entries", `{"date":"2024-04-01","mood":"Happy","note":"hello"}`)

	rec := f.get("/regions/journal-entries-container")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `id="journal-entries-container"`)
	require.Contains(t, body, "hello")

	require.Equal(t, http.StatusUnprocessableEntity, f.get("/regions/nowhere").Code)
}

func TestMoodsEndpoint(t *testing.T) {
	f := newFixture(t, 0)
	var resp moodsResponse
	require.NoError(t, json.Unmarshal(f.get("/api/moods").Body.Bytes(), &resp))
	require.Len(t, resp.Moods, 5)
	require.Equal(t, journal.MoodHappy, resp.Moods[0].Mood)
}

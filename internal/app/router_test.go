package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moodjournal/moodjournal/internal/journal"
	journalhttp "github.com/moodjournal/moodjournal/internal/journal/http"
	"github.com/moodjournal/moodjournal/internal/observability"
	"github.com/moodjournal/moodjournal/internal/platform/kv"
	"github.com/moodjournal/moodjournal/internal/view"
	"github.com/moodjournal/moodjournal/report"
)

func newTestRouter(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := kv.NewMemory()
	store, err := journal.NewStore(context.Background(), backend)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	service := journal.NewService(store, nil, journal.ServiceConfig{}, logger, metrics)
	templates, err := view.NewEngine()
	require.NoError(t, err)
	journalHandler, err := journalhttp.NewHandler(journalhttp.Options{
		Logger:    logger,
		Service:   service,
		Themes:    journal.NewThemeStore(backend),
		Templates: templates,
		Metrics:   metrics,
	})
	require.NoError(t, err)

	gotenberg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gotenberg.Close)

	router := NewRouter(RouterParams{
		Logger:         logger,
		Config:         &Config{AppEnv: "production"},
		JournalHandler: journalHandler,
		ReportHandler:  report.NewHandler(report.NewClient(gotenberg.URL), logger),
		Metrics:        metrics,
	})
	return router, metrics
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthAndStatic(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	require.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterServesJournalAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Mood Journal")

	form := url.Values{"date": {"2020-01-02"}, "mood": {"Happy"}, "note": {"quiet morning"}}
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	rec = serve(router, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = serve(router, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `moodjournal_entries_recorded_total{mood="Happy"} 1`)
	require.Contains(t, body, `moodjournal_http_requests_total{code="303",route="/entries"} 1`)
}

package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/platform/httpx"
	"github.com/moodjournal/moodjournal/internal/weather"
)

func (h *Handler) respondInvalid(w http.ResponseWriter, err error) {
	httpx.JSON(w, http.StatusBadRequest, validationResponse{
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Errors: validationMessages(err),
	})
}

func (h *Handler) apiMoods(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, moodsResponse{Moods: journal.Moods()})
}

// moodFilter reads ?mood=. An empty value means every mood; an unknown one is
// answered with 400 and reports false.
func moodFilter(w http.ResponseWriter, r *http.Request) (journal.Mood, bool) {
	mood := journal.Mood(r.URL.Query().Get("mood"))
	if mood != "" && !mood.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown mood "+strconv.Quote(string(mood)))
		return "", false
	}
	return mood, true
}

func (h *Handler) apiListEntries(w http.ResponseWriter, r *http.Request) {
	mood, ok := moodFilter(w, r)
	if !ok {
		return
	}
	entries := h.store.ByMood(mood)
	httpx.JSON(w, http.StatusOK, entriesResponse{Entries: entries, Count: len(entries)})
}

func (h *Handler) apiCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Note = strings.TrimSpace(req.Note)
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(w, err)
		return
	}

	locate := journal.LocateRequest{GeoError: req.GeoError}
	if req.Latitude != nil && req.Longitude != nil {
		locate.Coordinates = &weather.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	res, err := h.service.Record(r.Context(), journal.RecordInput{
		Date:   req.Date,
		Mood:   journal.Mood(req.Mood),
		Note:   req.Note,
		Locate: locate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) apiDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a positive integer")
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiTodayWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	locate := journal.LocateRequest{GeoError: q.Get("geo_error")}
	if q.Get("lat") != "" || q.Get("lon") != "" {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "lat and lon must both be valid coordinates")
			return
		}
		locate.Coordinates = &weather.Coordinates{Latitude: lat, Longitude: lon}
	}
	httpx.JSON(w, http.StatusOK, h.service.TodayWeather(r.Context(), locate))
}

func (h *Handler) apiGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.themes.Get(r.Context(), prefersDark(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *Handler) apiSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(w, err)
		return
	}
	theme := journal.Theme(req.Theme)
	if err := h.themes.Set(r.Context(), theme); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *Handler) apiToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.themes.Toggle(r.Context(), prefersDark(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *Handler) apiChart(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.Chart()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, series)
}

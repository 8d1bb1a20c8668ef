package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/platform/httpx"
	"github.com/moodjournal/moodjournal/internal/view"
	"github.com/moodjournal/moodjournal/internal/weather"
)

func (h *Handler) showJournal(w http.ResponseWriter, r *http.Request) {
	filter := journal.Mood(r.URL.Query().Get("mood"))
	if !filter.Valid() {
		filter = ""
	}
	page := h.buildPage(h.store.List(), filter)
	h.renderJournal(w, r, http.StatusOK, page, r.URL.Query().Get("notice"))
}

func (h *Handler) renderJournal(w http.ResponseWriter, r *http.Request, status int, page journalPage, notice string) {
	w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
	w.Header().Set("Vary", "Sec-CH-Prefers-Color-Scheme")
	data := view.TemplateData{
		Title:       pageTitle,
		Theme:       string(h.theme(r.Context(), r)),
		Notice:      notice,
		CurrentPath: r.URL.RequestURI(),
		Data:        page,
	}
	if err := h.templates.RenderStatus(w, status, "pages/journal.html", data); err != nil {
		h.logger.Error("render journal", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := entryForm{
		Date:      strings.TrimSpace(r.PostFormValue("date")),
		Mood:      r.PostFormValue("mood"),
		Note:      strings.TrimSpace(r.PostFormValue("note")),
		Latitude:  strings.TrimSpace(r.PostFormValue("latitude")),
		Longitude: strings.TrimSpace(r.PostFormValue("longitude")),
		GeoError:  strings.TrimSpace(r.PostFormValue("geo_error")),
	}

	var errs map[string]string
	if err := h.validator.Struct(form); err != nil {
		errs = validationMessages(err)
	}
	if len(errs) == 0 {
		res, err := h.service.Record(r.Context(), journal.RecordInput{
			Date:   form.Date,
			Mood:   journal.Mood(form.Mood),
			Note:   form.Note,
			Locate: formLocation(form),
		})
		if err == nil {
			target := "/"
			if res.Notice != "" {
				target += "?notice=" + url.QueryEscape(res.Notice)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		errs = map[string]string{"general": "Could not save your entry. Please try again."}
		page := h.buildPage(h.store.List(), "")
		page.Form, page.Errors = form, errs
		h.renderJournal(w, r, httpx.StatusFor(err), page, "")
		return
	}

	page := h.buildPage(h.store.List(), "")
	page.Form, page.Errors = form, errs
	h.renderJournal(w, r, http.StatusBadRequest, page, "")
}

// formLocation turns the hidden geolocation fields into a LocateRequest.
// Partial coordinates count as no position.
func formLocation(form entryForm) journal.LocateRequest {
	req := journal.LocateRequest{GeoError: form.GeoError}
	if form.Latitude == "" || form.Longitude == "" {
		return req
	}
	lat, errLat := strconv.ParseFloat(form.Latitude, 64)
	lon, errLon := strconv.ParseFloat(form.Longitude, 64)
	if errLat == nil && errLon == nil {
		req.Coordinates = &weather.Coordinates{Latitude: lat, Longitude: lon}
	}
	return req
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		http.Error(w, "Could not delete the entry.", httpx.StatusFor(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) toggleTheme(w http.ResponseWriter, r *http.Request) {
	if _, err := h.themes.Toggle(r.Context(), prefersDark(r)); err != nil {
		h.logger.Error("toggle theme", slog.Any("error", err))
		http.Error(w, "Could not save the theme.", httpx.StatusFor(err))
		return
	}
	http.Redirect(w, r, safeReturn(r.PostFormValue("return_to")), http.StatusSeeOther)
}

func (h *Handler) chartSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := moodChart(h.store.List())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(svg))
}

// showRegion serves the exact document a visual export rasterizes.
func (h *Handler) showRegion(w http.ResponseWriter, r *http.Request) {
	html, err := h.visual.HTML(r.Context(), chi.URLParam(r, "region"), h.store.List())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

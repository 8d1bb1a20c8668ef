package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/moodjournal/moodjournal/internal/export"
	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/platform/httpx"
)

// exportEntries applies the ?mood= filter. An unknown mood is answered with
// 400, as on the entries API, and reports false.
func (h *Handler) exportEntries(w http.ResponseWriter, r *http.Request) ([]journal.Entry, bool) {
	mood, ok := moodFilter(w, r)
	if !ok {
		return nil, false
	}
	return h.store.ByMood(mood), true
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.exportEntries(w, r)
	if !ok {
		return
	}
	if len(entries) == 0 {
		h.exportFailed(w, export.FormatCSV, export.ErrNoEntries)
		return
	}
	setAttachment(w, export.FormatCSV, export.Filename(export.FormatCSV, h.now()))
	err := export.WriteCSV(w, entries)
	if err != nil {
		h.logger.Warn("write csv export", slog.Any("error", err))
	}
	h.metrics.ExportServed(string(export.FormatCSV), err)
}

func (h *Handler) exportTextPDF(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.exportEntries(w, r)
	if !ok {
		return
	}
	pdf, err := export.TextPDF(entries, export.PDFOptions{CreatedAt: h.now()})
	if err != nil {
		h.exportFailed(w, export.FormatText, err)
		return
	}
	h.sendDocument(w, export.FormatText, pdf)
}

func (h *Handler) exportVisualPDF(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = export.RegionEntries
	}
	pdf, err := h.visual.Render(r.Context(), region, h.store.List(), export.PDFOptions{CreatedAt: h.now()})
	if err != nil {
		h.exportFailed(w, export.FormatVisual, err)
		return
	}
	h.sendDocument(w, export.FormatVisual, pdf)
}

func (h *Handler) sendDocument(w http.ResponseWriter, format export.Format, body []byte) {
	setAttachment(w, format, export.Filename(format, h.now()))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(body)
	if err != nil {
		h.logger.Warn("write export", slog.String("format", string(format)), slog.Any("error", err))
	}
	h.metrics.ExportServed(string(format), err)
}

func (h *Handler) exportFailed(w http.ResponseWriter, format export.Format, err error) {
	if status := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error("export failed", slog.String("format", string(format)), slog.Any("error", err))
	}
	h.metrics.ExportServed(string(format), err)
	httpx.RespondError(w, err)
}

func setAttachment(w http.ResponseWriter, format export.Format, filename string) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Cache-Control", "no-store")
}

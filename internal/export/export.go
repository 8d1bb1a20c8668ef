// Package export turns journal entries into downloadable CSV and PDF documents.
package export

import (
	"fmt"
	"time"

	"github.com/moodjournal/moodjournal/internal/platform/httpx"
)

// ErrPrecondition is wrapped by every error caused by the caller's input rather than a failure.
var ErrPrecondition = httpx.ErrPrecondition

var (
	// ErrNoEntries reports an export requested over an empty journal.
	ErrNoEntries = fmt.Errorf("export: no entries to export: %w", ErrPrecondition)
	// ErrRegionNotFound reports a visual export of an unregistered region.
	ErrRegionNotFound = fmt.Errorf("export: region not found: %w", ErrPrecondition)
	// ErrRender reports a failure of the rasterizing service.
	ErrRender = fmt.Errorf("export: render failed: %w", httpx.ErrUpstream)
)

// Format identifies an export flavour.
type Format string

// Export formats.
const (
	FormatCSV    Format = "csv"
	FormatText   Format = "text"
	FormatVisual Format = "visual"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/pdf"
}

// Filename returns mood-journal-<format>-<YYYY-MM-DD>.<ext> using the UTC date of now.
func Filename(f Format, now time.Time) string {
	ext := "pdf"
	if f == FormatCSV {
		ext = "csv"
	}
	return fmt.Sprintf("mood-journal-%s-%s.%s", f, now.UTC().Format("2006-01-02"), ext)
}

// PDFOptions controls document metadata.
type PDFOptions struct {
	CreatedAt time.Time
}

func (o PDFOptions) createdAt() time.Time {
	if o.CreatedAt.IsZero() {
		return time.Now()
	}
	return o.CreatedAt
}

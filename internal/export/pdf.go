package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/moodjournal/moodjournal/internal/dates"
	"github.com/moodjournal/moodjournal/internal/journal"
	"github.com/moodjournal/moodjournal/internal/weather"
)

// Page geometry in millimetres.
const (
	pdfMargin       = 15.0
	titleFontSize   = 18.0
	entryFontSize   = 10.0
	titleAdvance    = 10.0
	lineHeight      = 4.0
	blockHeader     = 19.0
	emptyNoteHeight = 5.0
	emptyWeather    = 10.0
	weatherGap      = 5.0
	blockGap        = 5.0
	pdfTitle        = "Mood Journal Entries"
	pdfFont         = "Helvetica"
)

// Block is the placement of one entry, or of one page's share of an entry
// taller than a page, on the page.
type Block struct {
	EntryID int64
	// Continued marks the later parts of a split entry. They carry no header.
	Continued     bool
	Page          int
	Y             float64
	Height        float64
	Date          string
	Mood          string
	NoteLines     []string
	NoteHeight    float64
	WeatherLines  []string
	WeatherHeight float64
}

// Plan is the full text PDF layout.
type Plan struct {
	Pages      int
	PageWidth  float64
	PageHeight float64
	Blocks     []Block
}

// Layout places entries top to bottom. A block that would cross the bottom
// margin starts a new page at the top margin. A block taller than a whole page
// starts where the cursor is and carries its remaining lines onto the
// following pages.
func Layout(entries []journal.Entry) (Plan, error) {
	if len(entries) == 0 {
		return Plan{}, ErrNoEntries
	}
	doc := newTextDocument()
	plan := layout(doc, entries)
	if err := doc.Error(); err != nil {
		return Plan{}, fmt.Errorf("export: layout pdf: %w", err)
	}
	return plan, nil
}

// TextPDF renders entries as a paginated text-only PDF.
func TextPDF(entries []journal.Entry, opts PDFOptions) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	doc := newTextDocument()
	plan := layout(doc, entries)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	created := opts.createdAt()
	doc.SetCreationDate(created)
	doc.SetModificationDate(created)
	doc.SetTitle(pdfTitle, true)

	doc.AddPage()
	doc.SetFont(pdfFont, "", titleFontSize)
	doc.Text(pdfMargin, pdfMargin, pdfTitle)
	doc.SetFont(pdfFont, "", entryFontSize)
	doc.SetLineWidth(0.2)

	for _, b := range plan.Blocks {
		for doc.PageCount() < b.Page {
			doc.AddPage()
			doc.SetFont(pdfFont, "", entryFontSize)
		}
		y := b.Y
		if !b.Continued {
			doc.Line(pdfMargin, y-2, plan.PageWidth-pdfMargin, y-2)

			doc.SetFont(pdfFont, "B", entryFontSize)
			doc.Text(pdfMargin, y+5, tr("Date: "+b.Date))
			doc.SetFont(pdfFont, "", entryFontSize)
			doc.Text(pdfMargin, y+12, tr("Mood: "+b.Mood))
		}

		top := y + b.headerHeight()
		for i, line := range b.NoteLines {
			doc.Text(pdfMargin, top+float64(i)*lineHeight, tr(line))
		}
		weatherY := top + b.NoteHeight
		for i, line := range b.WeatherLines {
			doc.Text(pdfMargin, weatherY+float64(i)*lineHeight, tr(line))
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func newTextDocument() *fpdf.Fpdf {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	doc.SetAutoPageBreak(false, pdfMargin)
	doc.SetCatalogSort(true)
	doc.SetFont(pdfFont, "", entryFontSize)
	return doc
}

func layout(doc *fpdf.Fpdf, entries []journal.Entry) Plan {
	pageW, pageH := doc.GetPageSize()
	textWidth := pageW - 2*pdfMargin
	bottom := pageH - pdfMargin

	plan := Plan{Pages: 1, PageWidth: pageW, PageHeight: pageH, Blocks: make([]Block, 0, len(entries))}
	y := pdfMargin + titleAdvance
	for _, e := range entries {
		b := Block{
			EntryID: e.ID,
			Date:    latin1(dates.ToDisplay(e.Date)),
			Mood:    latin1(string(e.Mood)),
		}
		if b.Mood == "" {
			b.Mood = notAvailable
		}

		if e.Note != "" {
			b.NoteLines = doc.SplitText(latin1("Note: "+e.Note), textWidth)
			b.NoteHeight = float64(len(b.NoteLines)) * lineHeight
		} else {
			b.NoteHeight = emptyNoteHeight
		}

		if e.Weather != nil {
			b.WeatherLines = doc.SplitText(latin1(weatherSummary(e.Weather)), textWidth)
			b.WeatherHeight = float64(len(b.WeatherLines))*lineHeight + weatherGap
		} else {
			b.WeatherLines = []string{"Weather: " + notAvailable}
			b.WeatherHeight = emptyWeather
		}

		b.Height = blockHeader + b.NoteHeight + b.WeatherHeight + blockGap
		if b.Height > bottom-pdfMargin {
			var parts []Block
			parts, y = splitBlock(b, y, bottom, &plan.Pages)
			plan.Blocks = append(plan.Blocks, parts...)
			continue
		}
		if y+b.Height > bottom {
			plan.Pages++
			y = pdfMargin
		}
		b.Page = plan.Pages
		b.Y = y
		y += b.Height
		plan.Blocks = append(plan.Blocks, b)
	}
	return plan
}

// headerHeight is the space above the first text line of a block.
func (b Block) headerHeight() float64 {
	if b.Continued {
		return lineHeight
	}
	return blockHeader
}

// splitBlock spreads the note and weather lines of b over as many pages as
// they need, filling each page down to bottom. It returns the parts and the
// cursor after the last one.
func splitBlock(b Block, y, bottom float64, pages *int) ([]Block, float64) {
	noteLines, weatherLines := b.NoteLines, b.WeatherLines
	trailingGap := b.WeatherHeight - float64(len(weatherLines))*lineHeight

	part := b
	if capacity(y, bottom, blockHeader) < 1 {
		*pages++
		y = pdfMargin
	}
	var parts []Block
	for {
		part.Page = *pages
		part.Y = y
		n := capacity(y, bottom, part.headerHeight())

		take := min(n, len(noteLines))
		part.NoteLines, noteLines = noteLines[:take], noteLines[take:]
		n -= take
		take = min(n, len(weatherLines))
		part.WeatherLines, weatherLines = weatherLines[:take], weatherLines[take:]

		part.NoteHeight = float64(len(part.NoteLines)) * lineHeight
		part.WeatherHeight = float64(len(part.WeatherLines)) * lineHeight
		part.Height = part.headerHeight() + part.NoteHeight + part.WeatherHeight

		if len(noteLines) == 0 && len(weatherLines) == 0 {
			part.WeatherHeight += trailingGap
			part.Height += trailingGap + blockGap
			parts = append(parts, part)
			return parts, y + part.Height
		}
		parts = append(parts, part)

		*pages++
		y = pdfMargin
		part = Block{EntryID: b.EntryID, Continued: true, Date: b.Date, Mood: b.Mood}
	}
}

// capacity is the number of text lines that fit between y and bottom below a
// header of the given height.
func capacity(y, bottom, header float64) int {
	return int((bottom - y - header) / lineHeight)
}

func weatherSummary(w *weather.Snapshot) string {
	desc := w.Description
	if desc == "" {
		desc = notAvailable
	}
	loc := w.LocationName
	if loc == "" {
		loc = notAvailable
	}
	return fmt.Sprintf("Weather: %s | Temp: %s°C | Feels Like: %s°C | Loc: %s",
		desc,
		formatNumber(roundHalfUp(w.Temp)),
		formatNumber(roundHalfUp(w.FeelsLike)),
		loc,
	)
}

// latin1 keeps only runes the core PDF fonts can measure and draw.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t' || r == '\r':
			return ' '
		case r < 0x20:
			return -1
		case r < 0x7f, r >= 0xa0 && r <= 0xff:
			return r
		default:
			return '?'
		}
	}, s)
}

package export

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sort"
	"sync"

	"github.com/go-pdf/fpdf"

	"github.com/moodjournal/moodjournal/internal/journal"
)

// Region names known to the journal page.
const (
	RegionEntries = "journal-entries-container"
	RegionChart   = "mood-chart"
)

// RegionFunc renders a region as a standalone, fully expanded HTML document.
type RegionFunc func(ctx context.Context, entries []journal.Entry) (string, error)

// Rasterizer captures an HTML document as a PNG screenshot.
type Rasterizer interface {
	ScreenshotHTML(ctx context.Context, html string, width int) ([]byte, error)
}

// VisualExporter captures a registered region and wraps the image in a PDF.
type VisualExporter struct {
	rasterizer Rasterizer
	width      int

	mu      sync.RWMutex
	regions map[string]RegionFunc
}

// NewVisualExporter constructs an exporter. width is the browser viewport in pixels.
func NewVisualExporter(rasterizer Rasterizer, width int) *VisualExporter {
	if width <= 0 {
		width = 960
	}
	return &VisualExporter{rasterizer: rasterizer, width: width, regions: make(map[string]RegionFunc)}
}

// Register adds or replaces a region.
func (v *VisualExporter) Register(name string, fn RegionFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.regions[name] = fn
}

// Regions lists registered region names in order.
func (v *VisualExporter) Regions() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	names := make([]string, 0, len(v.regions))
	for name := range v.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HTML renders a region without rasterizing it.
func (v *VisualExporter) HTML(ctx context.Context, region string, entries []journal.Entry) (string, error) {
	v.mu.RLock()
	fn, ok := v.regions[region]
	v.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRegionNotFound, region)
	}
	return fn(ctx, entries)
}

// Render produces a single-page PDF sized to the screenshot of region.
func (v *VisualExporter) Render(ctx context.Context, region string, entries []journal.Entry, opts PDFOptions) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}
	html, err := v.HTML(ctx, region, entries)
	if err != nil {
		return nil, err
	}
	if v.rasterizer == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", ErrRender)
	}
	shot, err := v.rasterizer.ScreenshotHTML(ctx, html, v.width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return ImagePDF(shot, opts)
}

// ImagePDF embeds a PNG as the only page of a PDF whose size matches the image,
// one point per pixel.
func ImagePDF(image []byte, opts PDFOptions) ([]byte, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("%w: screenshot is not a png: %w", ErrRender, err)
	}
	w, h := float64(cfg.Width), float64(cfg.Height)

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCatalogSort(true)
	created := opts.createdAt()
	doc.SetCreationDate(created)
	doc.SetModificationDate(created)

	imageOpts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("region", imageOpts, bytes.NewReader(image))
	doc.AddPage()
	doc.ImageOptions("region", 0, 0, w, h, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render image pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Package chart renders the journal's inline SVG charts.
package chart

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	// DotColors overrides the dot colour per point when its length matches the series.
	DotColors []string
	TickCount int
	// FixedMin and FixedMax pin the value axis when FixedMax > FixedMin.
	FixedMin float64
	FixedMax float64
	// TickLabel formats a tick value. Empty results skip the label.
	TickLabel func(float64) string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	// Colors sets one fill per bar when its length matches the series.
	Colors    []string
	Color     string
	AxisColor string
	GridColor string
	Padding   float64
	TickCount int
}

// Defaults for the journal charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 28.0
	DefaultTicks   = 4
)

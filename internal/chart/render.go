// Package chart draws projected dashboard points as PNG or SVG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ratiodash/internal/engine"
)

// ErrNoData is returned when no point carries a value to draw.
var ErrNoData = errors.New("no data to chart")

// Format is the image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatSVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Spec describes one chart.
type Spec struct {
	Kind    engine.ChartKind
	Title   string
	YLabel  string
	Percent bool
	Format  Format
	Width   int
	Height  int
}

var palette = []string{
	"4F46E5", "10B981", "F59E0B", "EF4444", "8B5CF6",
	"06B6D4", "EC4899", "84CC16", "F97316", "6366F1",
}

func colorAt(i int) drawing.Color {
	return drawing.ColorFromHex(palette[i%len(palette)])
}

const (
	defaultWidth  = 1024
	defaultHeight = 480
)

// Render draws points grouped by bank. Points with a missing value are
// skipped; if none remain Render returns ErrNoData.
func Render(w io.Writer, spec Spec, points []engine.Point) error {
	valid := make([]engine.Point, 0, len(points))
	for _, p := range points {
		if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return ErrNoData
	}
	if spec.Width <= 0 {
		spec.Width = defaultWidth
	}
	if spec.Height <= 0 {
		spec.Height = defaultHeight
	}

	switch spec.Kind {
	case engine.ChartLine:
		return renderLine(w, spec, valid)
	case engine.ChartBar, "":
		return renderBar(w, spec, valid)
	}
	return fmt.Errorf("%w: %q", engine.ErrUnknownChartKind, spec.Kind)
}

func valueFormatter(percent bool) gochart.ValueFormatter {
	if percent {
		return gochart.PercentValueFormatter
	}
	return gochart.FloatValueFormatter
}

// axes returns the ordered periods and banks present in points.
func axes(points []engine.Point) (periods, banks []string) {
	seenP := make(map[string]bool)
	seenB := make(map[string]bool)
	for _, p := range points {
		if !seenP[p.Period] {
			seenP[p.Period] = true
			periods = append(periods, p.Period)
		}
		if !seenB[p.Bank] {
			seenB[p.Bank] = true
			banks = append(banks, p.Bank)
		}
	}
	slices.SortFunc(periods, engine.ComparePeriods)
	slices.Sort(banks)
	return periods, banks
}

// valueRange spans min and max of points, padded so flat data still has
// height. Bars always include zero.
func valueRange(points []engine.Point, withZero bool) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	if withZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if hi <= lo {
		pad := math.Abs(hi) * 0.1
		if pad == 0 {
			pad = 1
		}
		return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	if withZero && lo == 0 {
		return &gochart.ContinuousRange{Min: 0, Max: hi + pad}
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func renderBar(w io.Writer, spec Spec, points []engine.Point) error {
	// go-chart refuses bar charts without a non-zero bar.
	if !slices.ContainsFunc(points, func(p engine.Point) bool { return p.Value != 0 }) {
		return renderLine(w, spec, points)
	}

	periods, banks := axes(points)
	bankColor := make(map[string]drawing.Color, len(banks))
	for i, b := range banks {
		bankColor[b] = colorAt(i)
	}

	byKey := make(map[[2]string]float64, len(points))
	for _, p := range points {
		byKey[[2]string{p.Period, p.Bank}] = p.Value
	}

	bars := make([]gochart.Value, 0, len(points))
	for _, period := range periods {
		for _, bank := range banks {
			v, ok := byKey[[2]string{period, bank}]
			if !ok {
				continue
			}
			c := bankColor[bank]
			bars = append(bars, gochart.Value{
				Label: bank + " " + period,
				Value: v,
				Style: gochart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
			})
		}
	}

	barWidth := 48
	width := spec.Width
	if need := len(bars)*(barWidth+12) + 120; need > width {
		width = need
	}

	bc := gochart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     spec.Height,
		BarWidth:   barWidth,
		BarSpacing: 12,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 48}},

		// Negative ratios hang below the zero line.
		UseBaseValue: true,
		BaseValue:    0,

		YAxis: gochart.YAxis{
			Name:           spec.YLabel,
			Range:          valueRange(points, true),
			ValueFormatter: valueFormatter(spec.Percent),
		},
		Bars: bars,
	}
	if err := bc.Render(spec.Format.provider(), w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func renderLine(w io.Writer, spec Spec, points []engine.Point) error {
	periods, banks := axes(points)
	pos := make(map[string]float64, len(periods))
	// go-chart takes the x range from the outermost ticks, so blank ticks
	// half a step out keep a single period drawable.
	ticks := make([]gochart.Tick, 0, len(periods)+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i, p := range periods {
		pos[p] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: p})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(periods)) - 0.5})

	series := make([]gochart.Series, 0, len(banks))
	for i, bank := range banks {
		var rows []engine.Point
		for _, p := range points {
			if p.Bank == bank {
				rows = append(rows, p)
			}
		}
		slices.SortStableFunc(rows, func(a, b engine.Point) int {
			return engine.ComparePeriods(a.Period, b.Period)
		})

		xs := make([]float64, len(rows))
		ys := make([]float64, len(rows))
		for j, p := range rows {
			xs[j] = pos[p.Period]
			ys[j] = p.Value
		}
		c := colorAt(i)
		series = append(series, gochart.ContinuousSeries{
			Name:    bank,
			XValues: xs,
			YValues: ys,
			Style:   gochart.Style{StrokeColor: c, StrokeWidth: 2, DotColor: c, DotWidth: 4},
		})
	}

	ch := gochart.Chart{
		Title:      spec.Title,
		Width:      spec.Width,
		Height:     spec.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 12, Bottom: 28}},
		XAxis: gochart.XAxis{
			Name:  "Period",
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(len(periods)) - 0.5},
		},
		YAxis: gochart.YAxis{
			Name:           spec.YLabel,
			Range:          valueRange(points, false),
			ValueFormatter: valueFormatter(spec.Percent),
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(spec.Format.provider(), w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

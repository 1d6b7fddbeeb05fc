package charts

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/wonny/dqbreaks/internal/contracts"
)

// Kind names one dashboard chart
type Kind string

const (
	KindHealth        Kind = "health"
	KindTimeSeries    Kind = "timeseries"
	KindDimensions    Kind = "dimensions"
	KindBusinessUnits Kind = "business-units"
)

// Kinds lists every renderable chart
var Kinds = []Kind{KindHealth, KindTimeSeries, KindDimensions, KindBusinessUnits}

// Format is the image encoding
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

const (
	defaultWidth  = 800
	defaultHeight = 400
	barWidth      = 60
	barSpacing    = 20
	barLeft       = 20
	barAxisWidth  = 60 // y axis ticks right of the bars
	placeholder   = "No data"
)

// ParseKind validates a chart name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart %q", s)
}

// ParseFormat validates an image format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSVG, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unknown image format %q", s)
	}
}

// ContentType returns the MIME type of f
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

func (f Format) provider() chart.RendererProvider {
	if f == FormatPNG {
		return chart.PNG
	}
	return chart.SVG
}

// Render draws one chart of d to w.
// Empty input renders a "No data" placeholder instead of failing.
func Render(w io.Writer, kind Kind, d *contracts.Dashboard, f Format) error {
	if d == nil {
		return renderPlaceholder(w, string(kind), f)
	}

	switch kind {
	case KindHealth:
		return renderPie(w, "Global Health", PieSlices(d.GlobalHealth), f)
	case KindTimeSeries:
		return renderLines(w, "Breaks Over Time", TimeSeriesLines(d.TimeSeries, OrderChart), f)
	case KindDimensions:
		return renderBars(w, "Dimensions", StackedBars(d.Dimensions, OrderChart), f)
	case KindBusinessUnits:
		return renderBars(w, "Business Units", StackedBars(d.BusinessUnits, OrderChart), f)
	default:
		return fmt.Errorf("unknown chart %q", kind)
	}
}

func renderPie(w io.Writer, title string, slices []Slice, f Format) error {
	values := make([]chart.Value, 0, len(slices))
	for _, s := range slices {
		// go-chart rejects zero-valued slices
		if s.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Status, s.Ratio*100),
			Value: float64(s.Value),
			Style: chart.Style{FillColor: drawingColor(s.Status), StrokeColor: drawing.ColorWhite},
		})
	}
	if len(values) == 0 {
		return renderPlaceholder(w, title, f)
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  defaultHeight,
		Height: defaultHeight,
		Values: values,
	}
	return pie.Render(f.provider(), w)
}

func renderLines(w io.Writer, title string, lines []Line, f Format) error {
	var (
		series   []chart.Series
		min, max time.Time
		maxCount int64
	)
	for _, l := range lines {
		if len(l.Points) == 0 {
			continue
		}
		xs := make([]time.Time, 0, len(l.Points))
		ys := make([]float64, 0, len(l.Points))
		for _, p := range l.Points {
			xs = append(xs, p.Date)
			ys = append(ys, float64(p.Count))
			if min.IsZero() || p.Date.Before(min) {
				min = p.Date
			}
			if p.Date.After(max) {
				max = p.Date
			}
			if p.Count > maxCount {
				maxCount = p.Count
			}
		}
		color := drawingColor(l.Status)
		style := chart.Style{StrokeColor: color, StrokeWidth: 2, DotColor: color, DotWidth: 3}
		// one observed date: a dot, no segment
		if len(xs) == 1 {
			style.StrokeWidth = chart.Disabled
			style.DotWidth = 5
		}
		series = append(series, chart.TimeSeries{
			Name:    string(l.Status),
			XValues: xs,
			YValues: ys,
			Style:   style,
		})
	}
	if len(series) == 0 {
		return renderPlaceholder(w, title, f)
	}

	if !max.After(min) {
		min = min.Add(-12 * time.Hour)
		max = max.Add(12 * time.Hour)
	}
	if maxCount == 0 {
		maxCount = 1
	}

	ch := chart.Chart{
		Title:  title,
		Width:  defaultWidth,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Run date",
			ValueFormatter: chart.TimeValueFormatterWithFormat(DateLabelLayout),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(min),
				Max: chart.TimeToFloat64(max),
			},
		},
		YAxis: chart.YAxis{
			Name:  "Count",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.1},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(f.provider(), w)
}

func renderBars(w io.Writer, title string, bars []StackedBar, f Format) error {
	out := make([]chart.StackedBar, 0, len(bars))
	names := make([]string, 0, len(bars))
	for _, b := range bars {
		if b.Total <= 0 {
			continue
		}
		values := make([]chart.Value, 0, len(b.Segments))
		for _, s := range b.Segments {
			if s.Count <= 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: string(s.Status),
				Value: float64(s.Count),
				Style: chart.Style{FillColor: drawingColor(s.Status), StrokeColor: drawingColor(s.Status)},
			})
		}
		out = append(out, chart.StackedBar{Name: b.Key, Width: barWidth, Values: values})
		names = append(names, b.Key)
	}
	if len(out) == 0 {
		return renderPlaceholder(w, title, f)
	}

	width := defaultWidth
	if n := barLeft + len(out)*(barWidth+barSpacing) + barAxisWidth; n > width {
		width = n
	}
	sbc := chart.StackedBarChart{
		Title:  title,
		Width:  width,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: barLeft, Bottom: 50},
		},
		// names wider than the bar slot break go-chart's canvas sizing; barLabels draws them
		XAxis:      chart.Style{Hidden: true},
		BarSpacing: barSpacing,
		Bars:       out,
	}
	sbc.Elements = []chart.Renderable{barLabels(names)}
	return sbc.Render(f.provider(), w)
}

// barLabels draws the x axis line and one name per bar, shortened to its slot
func barLabels(names []string) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		font := defaults.Font
		if font == nil {
			var err error
			if font, err = chart.GetDefaultFont(); err != nil {
				return
			}
		}
		style := chart.Style{
			StrokeColor: chart.DefaultAxisColor,
			StrokeWidth: 1,
			Font:        font,
			FontSize:    chart.DefaultAxisFontSize,
			FontColor:   chart.DefaultAxisColor,
		}
		style.WriteToRenderer(r)
		r.MoveTo(box.Left, box.Bottom)
		r.LineTo(box.Right, box.Bottom)
		r.Stroke()

		slot := barWidth + barSpacing
		x := box.Left
		for _, name := range names {
			label := fitLabel(r, name, slot-4)
			tb := r.MeasureText(label)
			r.Text(label, x+(slot-tb.Width())/2, box.Bottom+chart.DefaultXAxisMargin+tb.Height())
			x += slot
		}
	}
}

// fitLabel shortens s with a ".." suffix until it is at most limit pixels wide
func fitLabel(r chart.Renderer, s string, limit int) string {
	if r.MeasureText(s).Width() <= limit {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		short := string(runes[:n]) + ".."
		if r.MeasureText(short).Width() <= limit {
			return short
		}
	}
	return ".."
}

// renderPlaceholder draws a blank canvas with a centered "No data" label
func renderPlaceholder(w io.Writer, title string, f Format) error {
	r, err := f.provider()(defaultWidth, defaultHeight)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(defaultWidth, 0)
	r.LineTo(defaultWidth, defaultHeight)
	r.LineTo(0, defaultHeight)
	r.Close()
	r.Fill()

	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)
	r.SetFontColor(drawing.ColorFromHex("616161"))

	if title != "" {
		r.SetFontSize(14)
		tb := r.MeasureText(title)
		r.Text(title, (defaultWidth-tb.Width())/2, 30)
	}

	r.SetFontSize(18)
	tb := r.MeasureText(placeholder)
	r.Text(placeholder, (defaultWidth-tb.Width())/2, (defaultHeight+tb.Height())/2)

	return r.Save(w)
}

// Package render draws question metrics as static SVG charts.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/surveygraph/graph/internal/survey"
)

var (
	// ErrUnknownChartType is returned for chart styles outside the enumeration.
	ErrUnknownChartType = errors.New("unknown chart type")

	// ErrFileWrite is returned when the output directory or file cannot be written.
	ErrFileWrite = errors.New("cannot write chart file")
)

const (
	// Extension is the file extension of every rendered chart.
	Extension = ".svg"

	// EmptyAnswer is displayed in place of a blank answer.
	EmptyAnswer = "(sem resposta)"
)

// ChartType selects how a question is drawn.
type ChartType int

const (
	// ChartPie draws each answer's share as a slice.
	ChartPie ChartType = iota + 1
	// ChartBar draws one bar per answer, ranked by count.
	ChartBar
)

// ChartTypes lists the accepted chart style names.
var ChartTypes = []string{ChartPie.String(), ChartBar.String()}

// ParseChartType converts a chart style name into a ChartType.
func ParseChartType(name string) (ChartType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pie":
		return ChartPie, nil
	case "bar":
		return ChartBar, nil
	default:
		return 0, fmt.Errorf("%w %q (expected one of: %s)", ErrUnknownChartType, name, strings.Join(ChartTypes, ", "))
	}
}

func (c ChartType) String() string {
	switch c {
	case ChartPie:
		return "pie"
	case ChartBar:
		return "bar"
	default:
		return fmt.Sprintf("ChartType(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c ChartType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Renderer writes chart files.
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a renderer with the default canvas size.
func NewRenderer() *Renderer {
	return &Renderer{
		Width:  900,
		Height: 600,
	}
}

// Render draws q as the given chart type into dir/filename.svg, creating dir
// when needed, and returns the written path.
func (r *Renderer) Render(ctype ChartType, q *survey.Question, filename, dir string) (string, error) {
	metrics := q.Metrics()
	if len(metrics.Rows) == 0 {
		return "", fmt.Errorf("rendering %s: no answers in column %q", filename, metrics.Column)
	}

	var buf bytes.Buffer
	switch ctype {
	case ChartPie:
		if err := r.pie(q, metrics).Render(chart.SVG, &buf); err != nil {
			return "", fmt.Errorf("rendering %s pie chart: %w", filename, err)
		}
	case ChartBar:
		if err := r.bar(q, metrics).Render(chart.SVG, &buf); err != nil {
			return "", fmt.Errorf("rendering %s bar chart: %w", filename, err)
		}
	default:
		return "", fmt.Errorf("rendering %s: %w %s", filename, ErrUnknownChartType, ctype)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrFileWrite, err)
	}

	path := filepath.Join(dir, filename+Extension)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 - charts are meant to be shared
		return "", fmt.Errorf("%w: %w", ErrFileWrite, err)
	}

	log.Debug().
		Str("chart", ctype.String()).
		Str("path", path).
		Int("answers", len(metrics.Rows)).
		Msg("Chart written")

	return path, nil
}

func (r *Renderer) pie(q *survey.Question, metrics *survey.Metrics) chart.PieChart {
	values := make([]chart.Value, 0, len(metrics.Rows))
	for i, row := range metrics.Rows {
		values = append(values, chart.Value{
			Label: svgText(Label(row)),
			Value: float64(row.Count),
			Style: chart.Style{
				FillColor:   paletteColor(i),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FontColor:   drawing.ColorBlack,
			},
		})
	}

	return chart.PieChart{
		Title:  svgText(q.Title()),
		Width:  r.Width,
		Height: r.Height,
		TitleStyle: chart.Style{
			FontSize: 12,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 48, Left: 24, Right: 24, Bottom: 24},
		},
		Values: values,
	}
}

// bar draws one vertical bar per answer, ranked by count from left to right.
// go-chart has no horizontal bar chart, so the ranking runs along the x axis.
func (r *Renderer) bar(q *survey.Question, metrics *survey.Metrics) chart.BarChart {
	bars := make([]chart.Value, 0, len(metrics.Rows))
	for i, row := range metrics.Rows {
		bars = append(bars, chart.Value{
			Label: svgText(Label(row)),
			Value: float64(row.Count),
			Style: chart.Style{
				FillColor:   paletteColor(i),
				StrokeColor: paletteColor(i),
				StrokeWidth: 1,
			},
		})
	}

	barWidth := 60
	spacing := 40
	width := r.Width
	if needed := len(bars)*(barWidth+spacing) + 120; needed > width {
		width = needed
	}

	return chart.BarChart{
		Title:  svgText(q.Title()),
		Width:  width,
		Height: r.Height,
		TitleStyle: chart.Style{
			FontSize: 12,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 64, Left: 16, Right: 16, Bottom: 16},
		},
		BarWidth:   barWidth,
		BarSpacing: spacing,
		XAxis: chart.Style{
			FontSize: 8,
		},
		YAxis: chart.YAxis{
			Name:           svgText(q.Labels().Count),
			Range:          &chart.ContinuousRange{Min: 0, Max: float64(metrics.Total)},
			ValueFormatter: chart.IntValueFormatter,
		},
		Bars: bars,
	}
}

// Label formats an answer with its share to one decimal place.
func Label(row survey.Metric) string {
	answer := row.Answer
	if strings.TrimSpace(answer) == "" {
		answer = EmptyAnswer
	}
	return fmt.Sprintf("%s (%.1f%%)", answer, row.Percent())
}

// svgText escapes s for the SVG writer, which copies text into the document
// verbatim.
func svgText(s string) string {
	return html.EscapeString(s)
}

var palette = []drawing.Color{
	drawing.ColorFromHex("4C78A8"),
	drawing.ColorFromHex("F58518"),
	drawing.ColorFromHex("E45756"),
	drawing.ColorFromHex("72B7B2"),
	drawing.ColorFromHex("54A24B"),
	drawing.ColorFromHex("EECA3B"),
	drawing.ColorFromHex("B279A2"),
	drawing.ColorFromHex("FF9DA6"),
	drawing.ColorFromHex("9D755D"),
	drawing.ColorFromHex("BAB0AC"),
}

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	chartWidth  = 960
	chartHeight = 360
)

var (
	lineColor = drawing.ColorFromHex("1f77b4")
	peakColor = drawing.ColorFromHex("d62728")
)

// errNoPoints means a series has nothing drawable, so the caller shows an
// "insufficient data" notice instead of a chart.
var errNoPoints = errors.New("no points to draw")

// point is one (x, y) pair of a line chart. NaN y values are gaps.
type point struct {
	X float64
	Y float64
}

// lineChart describes a line chart with point markers over an integer x axis
type lineChart struct {
	XName  string
	YName  string
	XMin   int
	XMax   int
	Points []point

	// Highlight marks one x value, if >= XMin
	Highlight int
}

// segments splits points into runs without NaN so gaps are not bridged
func segments(points []point) [][]point {
	var (
		out [][]point
		cur []point
	)
	for _, p := range points {
		if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, p)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// yRange pads the data range so flat series still have a drawable axis
func yRange(runs [][]point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, run := range runs {
		for _, p := range run {
			lo = math.Min(lo, p.Y)
			hi = math.Max(hi, p.Y)
		}
	}
	if lo > 0 {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi + (hi-lo)*0.1
}

func integerTicks(min, max int) []chart.Tick {
	ticks := make([]chart.Tick, 0, max-min+1)
	for i := min; i <= max; i++ {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: strconv.Itoa(i)})
	}
	return ticks
}

// render draws c as SVG
func (c lineChart) render() (template.HTML, error) {
	runs := segments(c.Points)
	if len(runs) == 0 {
		return "", errNoPoints
	}
	lo, hi := yRange(runs)

	var (
		series []chart.Series
		labels []chart.Value2
	)
	for _, run := range runs {
		xs := make([]float64, len(run))
		ys := make([]float64, len(run))
		for i, p := range run {
			xs[i], ys[i] = p.X, p.Y
			labels = append(labels, chart.Value2{
				XValue: p.X,
				YValue: p.Y,
				Label:  fmt.Sprintf("%.2f", p.Y),
			})
		}
		series = append(series, chart.ContinuousSeries{
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: lineColor,
				StrokeWidth: 2,
				DotColor:    lineColor,
				DotWidth:    4,
			},
		})
	}

	if c.Highlight >= c.XMin {
		for _, run := range runs {
			for _, p := range run {
				if int(p.X) != c.Highlight {
					continue
				}
				series = append(series, chart.ContinuousSeries{
					XValues: []float64{p.X},
					YValues: []float64{p.Y},
					Style: chart.Style{
						StrokeWidth: chart.Disabled,
						DotColor:    peakColor,
						DotWidth:    7,
					},
				})
			}
		}
	}

	series = append(series, chart.AnnotationSeries{
		Annotations: labels,
		Style: chart.Style{
			FontSize:    7,
			StrokeColor: drawing.ColorTransparent,
			FillColor:   drawing.ColorWhite.WithAlpha(200),
		},
	})

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 24, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  c.XName,
			Range: &chart.ContinuousRange{Min: float64(c.XMin), Max: float64(c.XMax)},
			Ticks: integerTicks(c.XMin, c.XMax),
		},
		YAxis: chart.YAxis{
			Name:  c.YName,
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return strconv.FormatFloat(f, 'f', 0, 64)
				}
				return ""
			},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("error rendering chart: %w", err)
	}
	return template.HTML(buf.String()), nil
}

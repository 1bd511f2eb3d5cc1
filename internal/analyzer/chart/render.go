package chart

import (
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type renderer interface {
	Histogram(w io.Writer, title string, h histogramData) error
	Pie(w io.Writer, title string, slices []pieSlice) error
}

// pngRenderer draws charts with go-chart.
type pngRenderer struct {
	width  int
	height int
}

var (
	barColor = drawing.ColorFromHex("4c72b0")
	kdeColor = drawing.ColorFromHex("dd8452")
)

func (p pngRenderer) Histogram(w io.Writer, title string, h histogramData) error {
	top := 1.0
	for _, c := range h.Counts {
		top = max(top, c)
	}
	for _, y := range h.KDEY {
		top = max(top, y)
	}

	series := []gochart.Series{
		gochart.HistogramSeries{
			Name: "count",
			Style: gochart.Style{
				StrokeColor: barColor,
				FillColor:   barColor.WithAlpha(160),
				StrokeWidth: 1,
			},
			InnerSeries: gochart.ContinuousSeries{
				XValues: h.Centers,
				YValues: h.Counts,
			},
		},
	}
	if len(h.KDEX) > 0 {
		series = append(series, gochart.ContinuousSeries{
			Name:    "kde",
			XValues: h.KDEX,
			YValues: h.KDEY,
			Style:   gochart.Style{StrokeColor: kdeColor, StrokeWidth: 2},
		})
	}

	// explicit ranges keep go-chart from rejecting single-valued columns
	ch := gochart.Chart{
		Title:  title,
		Width:  p.width,
		Height: p.height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: h.Min - h.Width/2, Max: h.Max + h.Width/2},
		},
		YAxis: gochart.YAxis{
			Name:  "Frequency",
			Range: &gochart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: series,
	}

	return ch.Render(gochart.PNG, w)
}

func (p pngRenderer) Pie(w io.Writer, title string, slices []pieSlice) error {
	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		values = append(values, gochart.Value{Label: s.Label, Value: float64(s.Count)})
	}

	pie := gochart.PieChart{
		Title:  title,
		Width:  p.width,
		Height: p.height,
		Values: values,
	}

	return pie.Render(gochart.PNG, w)
}

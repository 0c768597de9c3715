package render

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

// Figure is a rendered chart. SVG always holds the vector document; Data
// holds the encoded output when a raster or pdf format was requested.
type Figure struct {
	Title  string
	Width  int
	Height int
	Format string
	SVG    []byte
	Data   []byte
	Path   string
}

// pointsPerPixel converts CSS pixels (96 dpi) to plot points (72 dpi), so a
// chart opened in the browser fills exactly width x height pixels.
const pointsPerPixel = 0.75

// barShare is the part of each bar slot taken by the bar itself.
const barShare = 0.6

var barFill = color.RGBA{R: 0x4c, G: 0x72, B: 0xb0, A: 0xff}

// barChartSVG draws s as a horizontal bar chart, first point on top.
func barChartSVG(s *Series, width, height int) ([]byte, error) {
	n := len(s.Points)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, pt := range s.Points {
		values[n-1-i] = pt.Value
		labels[n-1-i] = pt.Label
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.X.Label.Text = s.Metric

	w := vg.Length(float64(width) * pointsPerPixel)
	h := vg.Length(float64(height) * pointsPerPixel)

	bars, err := plotter.NewBarChart(values, h/vg.Length(n)*barShare)
	if err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = barFill
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)

	canvas := vgsvg.New(w, h)
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode svg: %w", err)
	}
	return buf.Bytes(), nil
}

package render

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/config"
	"retail-analytics/models"
	"retail-analytics/utils"
)

// fakeRaster records calls instead of starting a browser.
type fakeRaster struct {
	mu      sync.Mutex
	formats []string
	fail    error
	closed  bool
}

func (f *fakeRaster) Rasterise(_ context.Context, svg []byte, format string, _, _ int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.formats = append(f.formats, format)
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]byte(format+":"), svg[:8]...), nil
}

func (f *fakeRaster) Close() { f.closed = true }

func newTestRenderer(t *testing.T, raster *fakeRaster) (*Renderer, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg := config.Default()
	cfg.FigureWidth, cfg.FigureHeight = 400, 300
	cfg.MaxRetries = 1
	r := NewRenderer(cfg, utils.NewLoggerWithWriter(&logs, "debug"))
	r.raster = raster
	return r, &logs
}

func sampleSeries() *Series {
	return &Series{Title: "Top <Products>", Points: []Point{{"Lamp & Co", 150}, {"Desk", 300}}}
}

func TestSeriesFrom(t *testing.T) {
	products := []models.ProductMetrics{
		{ProductName: "Lamp", TotalRevenue: 150},
		{ProductName: "Desk", TotalRevenue: 300},
	}
	s, err := SeriesFrom("Products", products, "ProductName", "TotalRevenue")
	require.NoError(t, err)
	assert.Equal(t, []Point{{"Lamp", 150}, {"Desk", 300}}, s.Points)

	top := s.Top(1)
	assert.Equal(t, []Point{{"Desk", 300}}, top.Points)
	assert.Len(t, s.Points, 2, "Top must not modify the source series")
	assert.Equal(t, "Lamp", products[0].ProductName)
}

func TestSeriesFromFieldKinds(t *testing.T) {
	lift := 12.5
	rows := []*struct {
		Name  models.Segment
		Count int
		Lift  *float64
	}{
		{"High Value", 3, &lift},
		{"Low Value", 1, nil},
	}
	s, err := SeriesFrom("", rows, "Name", "Count")
	require.NoError(t, err)
	assert.Equal(t, "High Value", s.Points[0].Label)
	assert.Equal(t, 3.0, s.Points[0].Value)

	s, err = SeriesFrom("", rows, "Name", "Lift")
	require.NoError(t, err)
	assert.Len(t, s.Points, 1, "nil metrics are skipped")
}

func TestSeriesFromErrors(t *testing.T) {
	_, err := SeriesFrom("", 42, "A", "B")
	assert.Error(t, err)
	_, err = SeriesFrom("", []models.CityMetrics{{}}, "Town", "TotalRevenue")
	assert.Error(t, err)
	_, err = SeriesFrom("", []models.CityMetrics{{}}, "City", "City")
	assert.Error(t, err)
}

func TestRenderSVGInMemory(t *testing.T) {
	r, _ := newTestRenderer(t, &fakeRaster{})
	fig := r.Render(context.Background(), sampleSeries(), "")
	require.NotNil(t, fig)

	svg := string(fig.SVG)
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Top &lt;Products&gt;")
	assert.Contains(t, svg, "Lamp &amp; Co")
	assert.NotContains(t, svg, "<Products>")
	assert.Equal(t, 400, fig.Width)
	assert.Equal(t, 300, fig.Height)
	assert.Equal(t, "svg", fig.Format)
	assert.Empty(t, fig.Path)
}

func TestRenderWritesFiles(t *testing.T) {
	raster := &fakeRaster{}
	r, _ := newTestRenderer(t, raster)
	dir := t.TempDir()

	for _, name := range []string{"chart.svg", "chart.PNG", "chart.jpeg", "nested/chart.pdf"} {
		path := filepath.Join(dir, name)
		fig := r.Render(context.Background(), sampleSeries(), path)
		require.NotNil(t, fig, name)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, fig.Data, data)
	}
	assert.Equal(t, []string{"png", "jpeg", "pdf"}, raster.formats)
}

func TestRenderDegradesToWarning(t *testing.T) {
	r, logs := newTestRenderer(t, &fakeRaster{fail: errors.New("no browser")})
	dir := t.TempDir()

	assert.Nil(t, r.Render(context.Background(), &Series{Title: "Empty"}, filepath.Join(dir, "a.png")))
	assert.Nil(t, r.Render(context.Background(), nil, ""))
	assert.Nil(t, r.Render(context.Background(), sampleSeries(), filepath.Join(dir, "a.gif")))
	assert.Nil(t, r.Render(context.Background(), sampleSeries(), filepath.Join(dir, "a.png")))

	out := logs.String()
	assert.Equal(t, 4, strings.Count(out, `"level":"warn"`))
	assert.Contains(t, out, "nothing to draw")
	assert.Contains(t, out, "unsupported output")
	assert.Contains(t, out, "no browser")
	_, err := os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderAll(t *testing.T) {
	raster := &fakeRaster{}
	r, _ := newTestRenderer(t, raster)
	dir := t.TempDir()

	jobs := []Job{
		{Series: sampleSeries(), Path: filepath.Join(dir, "a.svg")},
		{Series: &Series{Title: "Empty"}, Path: filepath.Join(dir, "b.svg")},
		{Series: sampleSeries(), Path: filepath.Join(dir, "c.png")},
	}
	figs := r.RenderAll(context.Background(), jobs)
	require.Len(t, figs, 3)
	assert.NotNil(t, figs[0])
	assert.Nil(t, figs[1])
	assert.NotNil(t, figs[2])

	r.Close()
	assert.True(t, raster.closed)
}

func TestChartJobs(t *testing.T) {
	report := &models.AnalysisReport{
		TopProducts: []models.ProductMetrics{
			{ProductName: "A", TotalRevenue: 1}, {ProductName: "B", TotalRevenue: 3}, {ProductName: "C", TotalRevenue: 2},
		},
		Seasonal: &models.SeasonalTrends{
			Monthly: []models.PeriodMetrics{{Label: "January", TotalRevenue: 5}, {Label: "March", TotalRevenue: 9}},
		},
	}
	jobs, err := ChartJobs(report, "out", "png", 2)
	require.NoError(t, err)
	require.Len(t, jobs, 5)

	assert.Equal(t, filepath.Join("out", "top_products.png"), jobs[0].Path)
	assert.Equal(t, []Point{{"B", 3}, {"C", 2}}, jobs[0].Series.Points)
	assert.True(t, jobs[1].Series.Empty(), "cities are absent")

	monthly := jobs[3]
	assert.Equal(t, filepath.Join("out", "monthly_revenue.png"), monthly.Path)
	assert.Equal(t, "January", monthly.Series.Points[0].Label, "calendar order is kept")
}

func TestFindChromeBinaryPrefersEnv(t *testing.T) {
	t.Setenv("CHROME_BIN", "/opt/custom/chrome")
	assert.Equal(t, "/opt/custom/chrome", findChromeBinary())
}

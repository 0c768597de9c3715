package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"retail-analytics/config"
	"retail-analytics/utils"
)

// Formats maps accepted output extensions to their format name.
var Formats = map[string]string{
	".png":  "png",
	".jpg":  "jpg",
	".jpeg": "jpeg",
	".pdf":  "pdf",
	".svg":  "svg",
}

// Renderer draws series as bar charts. Every failure is logged as a warning
// and yields a nil figure; a chart never aborts a report run.
type Renderer struct {
	logger         *utils.Logger
	width          int
	height         int
	maxConcurrency int
	rateLimitMs    int
	retry          *utils.RetryConfig
	raster         rasteriser
}

// NewRenderer creates a Renderer sized and throttled from cfg. The browser is
// only started when the first raster or pdf chart is requested.
func NewRenderer(cfg *config.Config, logger *utils.Logger) *Renderer {
	return &Renderer{
		logger:         logger,
		width:          cfg.FigureWidth,
		height:         cfg.FigureHeight,
		maxConcurrency: cfg.MaxConcurrency,
		rateLimitMs:    cfg.RateLimitMs,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		},
		raster: newChromeRasteriser(cfg.ChromeBin),
	}
}

// Close stops the browser, if one was started.
func (r *Renderer) Close() {
	r.raster.Close()
}

// Render draws s and, when path is set, writes it there in the format its
// extension names. An empty path returns the SVG figure without writing.
func (r *Renderer) Render(ctx context.Context, s *Series, path string) *Figure {
	fig, err := r.render(ctx, s, path)
	if err != nil {
		r.logger.Warn("[render] %v", err)
		return nil
	}
	return fig
}

func (r *Renderer) render(ctx context.Context, s *Series, path string) (*Figure, error) {
	if s.Empty() {
		title := ""
		if s != nil {
			title = s.Title
		}
		return nil, fmt.Errorf("nothing to draw for %q", title)
	}

	format := "svg"
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		f, ok := Formats[ext]
		if !ok {
			return nil, fmt.Errorf("unsupported output %q: use one of .png, .jpg, .jpeg, .pdf, .svg", path)
		}
		format = f
	}

	svg, err := barChartSVG(s, r.width, r.height)
	if err != nil {
		return nil, fmt.Errorf("draw %q: %w", s.Title, err)
	}
	fig := &Figure{Title: s.Title, Width: r.width, Height: r.height, Format: format, SVG: svg, Data: svg}
	if path == "" {
		return fig, nil
	}

	if format != "svg" {
		err := r.retry.Do(ctx, "rasterise "+filepath.Base(path), func() error {
			data, err := r.raster.Rasterise(ctx, svg, format, r.width, r.height)
			fig.Data = data
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	if err := os.WriteFile(path, fig.Data, 0644); err != nil {
		return nil, fmt.Errorf("write chart %q: %w", path, err)
	}
	fig.Path = path
	r.logger.Debug("[render] Wrote %s (%d bytes)", path, len(fig.Data))
	return fig, nil
}

// Job is one chart to draw.
type Job struct {
	Series *Series
	Path   string
}

// RenderAll draws jobs on a bounded worker pool. The result is aligned with
// jobs; failed charts are nil.
func (r *Renderer) RenderAll(ctx context.Context, jobs []Job) []*Figure {
	figures := make([]*Figure, len(jobs))
	pool := utils.NewWorkerPool(r.maxConcurrency, r.rateLimitMs)
	var mu sync.Mutex

	for i, job := range jobs {
		ok := pool.Submit(ctx, func(ctx context.Context) {
			fig := r.Render(ctx, job.Series, job.Path)
			mu.Lock()
			figures[i] = fig
			mu.Unlock()
		})
		if !ok {
			r.logger.Warn("[render] Cancelled with %d chart(s) left", len(jobs)-i)
			break
		}
	}
	pool.Wait()

	rendered := 0
	for _, f := range figures {
		if f != nil {
			rendered++
		}
	}
	r.logger.Info("[render] Rendered %d/%d charts", rendered, len(jobs))
	return figures
}

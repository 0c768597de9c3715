package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"retail-analytics/models"
)

const namespace = "retail_pipeline"

// Pipeline collects the counters of one pipeline run on a private registry,
// so repeated runs in one process never collide with the default one.
type Pipeline struct {
	registry *prometheus.Registry

	rowsLoaded        prometheus.Counter
	duplicatesRemoved prometheus.Counter
	missingFilled     *prometheus.CounterVec
	rowsDropped       prometheus.Counter
	outliersFlagged   *prometheus.CounterVec
	chartsRendered    *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	runInfo           *prometheus.GaugeVec
}

// NewPipeline registers every collector under runID.
func NewPipeline(runID string) *Pipeline {
	p := &Pipeline{
		registry: prometheus.NewRegistry(),
		rowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_loaded_total",
			Help: "Rows read from the data source.",
		}),
		duplicatesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "duplicates_removed_total",
			Help: "Exact duplicate rows removed by the cleaner.",
		}),
		missingFilled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "missing_values_handled_total",
			Help: "Null cells handled by the cleaner.",
		}, []string{"column", "strategy"}),
		rowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rows_dropped_total",
			Help: "Rows dropped by the drop-row strategy.",
		}),
		outliersFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "outliers_flagged_total",
			Help: "Rows flagged as IQR outliers.",
		}, []string{"column"}),
		chartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "charts_total",
			Help: "Charts attempted, by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Wall time of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		runInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "run_info",
			Help: "Constant 1, labelled with the run id.",
		}, []string{"run_id"}),
	}
	p.registry.MustRegister(
		p.rowsLoaded, p.duplicatesRemoved, p.missingFilled, p.rowsDropped,
		p.outliersFlagged, p.chartsRendered, p.stageDuration, p.runInfo,
	)
	p.runInfo.WithLabelValues(runID).Set(1)
	return p
}

// Registry exposes the underlying registry.
func (p *Pipeline) Registry() *prometheus.Registry { return p.registry }

// ObserveStage records how long stage took since start.
func (p *Pipeline) ObserveStage(stage string, start time.Time) {
	p.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordLoad counts the rows of a load summary.
func (p *Pipeline) RecordLoad(s *models.LoadSummary) {
	if s == nil {
		return
	}
	p.rowsLoaded.Add(float64(s.Rows))
}

// RecordCleaning counts what the cleaner removed, filled and flagged.
func (p *Pipeline) RecordCleaning(r *models.CleaningReport) {
	if r == nil {
		return
	}
	p.duplicatesRemoved.Add(float64(r.DuplicatesRemoved))
	for _, a := range r.MissingActions {
		p.missingFilled.WithLabelValues(a.Column, a.Strategy).Add(float64(a.Count))
		p.rowsDropped.Add(float64(a.RowsDropped))
	}
	for _, o := range r.Outliers {
		p.outliersFlagged.WithLabelValues(o.Column).Add(float64(o.Count))
	}
}

// RecordCharts counts rendered and failed charts.
func (p *Pipeline) RecordCharts(rendered, total int) {
	p.chartsRendered.WithLabelValues("rendered").Add(float64(rendered))
	p.chartsRendered.WithLabelValues("failed").Add(float64(total - rendered))
}

// WriteTextfile writes the registry in the text exposition format for the
// node-exporter textfile collector. The write is atomic.
func (p *Pipeline) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

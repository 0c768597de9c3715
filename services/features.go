package services

import (
	"sort"
	"time"

	"retail-analytics/models"
	"retail-analytics/storage"
	"retail-analytics/utils"
)

// FeatureExtractor derives calendar features from a timestamp column.
type FeatureExtractor struct {
	logger *utils.Logger
}

// NewFeatureExtractor creates a FeatureExtractor with the given logger.
func NewFeatureExtractor(logger *utils.Logger) *FeatureExtractor {
	return &FeatureExtractor{logger: logger}
}

// Extract returns a copy of t with Year, Month, Day, DayOfWeek and Quarter
// filled from column. An untyped column is parsed best-effort: entries that
// do not parse become null and are counted, never fatal.
func (f *FeatureExtractor) Extract(t *models.Table, column string) (*models.Table, *models.FeatureSummary, error) {
	col, ok := models.ColumnByName(column)
	if !ok || !t.HasColumn(column) {
		return nil, nil, &models.MissingColumnError{Column: column}
	}

	out := t.Clone()
	summary := &models.FeatureSummary{Column: column}
	coerce := col != models.ColDate || !t.DateTyped
	years := make(map[int]struct{})

	for i := range out.Rows {
		r := &out.Rows[i]
		ts, valid := f.timestamp(r, col)
		if coerce && !valid && !r.IsMissing(col) {
			summary.InvalidDates++
		}
		if col == models.ColDate && coerce {
			r.Date, r.RawDate = ts, ""
			if !valid {
				r.Missing = r.Missing.With(models.ColDate)
			}
		}

		if !valid {
			for _, c := range models.FeatureColumns {
				r.Missing = r.Missing.With(c)
			}
			summary.NullDates++
			continue
		}
		setCalendar(r, ts)
		years[ts.Year()] = struct{}{}

		if summary.MinDate.IsZero() || ts.Before(summary.MinDate) {
			summary.MinDate = ts
		}
		if ts.After(summary.MaxDate) {
			summary.MaxDate = ts
		}
	}

	for y := range years {
		summary.Years = append(summary.Years, y)
	}
	sort.Ints(summary.Years)

	out.HasFeatures = true
	if col == models.ColDate {
		out.DateTyped = true
	}

	if summary.InvalidDates > 0 {
		f.logger.Warn("[features] %d value(s) in %s could not be parsed as dates and were set to null",
			summary.InvalidDates, column)
	}
	f.logger.Info("[features] Extracted date features from %s for %d rows (%d without a date)",
		column, out.Len(), summary.NullDates)
	return out, summary, nil
}

func (f *FeatureExtractor) timestamp(r *models.Transaction, col models.Column) (time.Time, bool) {
	if r.IsMissing(col) {
		return time.Time{}, false
	}
	if col == models.ColDate && !r.Date.IsZero() {
		return r.Date, true
	}
	raw := r.Text(col)
	if col == models.ColDate {
		raw = r.RawDate
	}
	return storage.ParseDate(raw)
}

func setCalendar(r *models.Transaction, ts time.Time) {
	r.Year = ts.Year()
	r.Month = int(ts.Month())
	r.Day = ts.Day()
	r.DayOfWeek = ts.Weekday().String()
	r.Quarter = (r.Month-1)/3 + 1
	for _, c := range models.FeatureColumns {
		r.Missing = r.Missing.Without(c)
	}
}

// SeasonOf maps a quarter to its season label.
func SeasonOf(quarter int) string {
	switch quarter {
	case 1:
		return "Winter"
	case 2:
		return "Spring"
	case 3:
		return "Summer"
	case 4:
		return "Fall"
	}
	return ""
}

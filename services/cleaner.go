package services

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"retail-analytics/models"
	"retail-analytics/utils"
)

// DefaultStrategy is median-fill for numeric columns and mode-fill otherwise.
func DefaultStrategy(c models.Column) models.Strategy {
	if c.Kind() == models.KindNumeric {
		return models.StrategyFillMedian
	}
	return models.StrategyFillMode
}

// CategoricalColumns are annotated as categorical by the cleaner.
var CategoricalColumns = []models.Column{
	models.ColCategory, models.ColStoreType, models.ColCity, models.ColPaymentMethod, models.ColDayOfWeek,
}

// OutlierColumns are checked for IQR outliers by default.
var OutlierColumns = []models.Column{
	models.ColQuantity, models.ColPrice, models.ColTotalAmount, models.ColDiscount,
}

// unknownFill is the mode of a text column that has no values at all.
const unknownFill = "Unknown"

// Cleaner deduplicates a transaction table, handles missing values and flags
// outliers. Data quality findings are reported, never returned as errors.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean runs deduplication, missing-value handling, categorical annotation
// and outlier detection in that order. strategies maps column names to
// strategy names; unknown columns are ignored, unknown strategies rejected.
func (c *Cleaner) Clean(t *models.Table, strategies map[string]string) (*models.Table, *models.CleaningReport, error) {
	resolved, err := resolveStrategies(strategies)
	if err != nil {
		return nil, nil, err
	}

	report := &models.CleaningReport{
		InitialRows:    t.Len(),
		InitialColumns: len(t.ColumnNames()),
		MissingBefore:  make(map[string]int),
	}

	out, removed := c.Deduplicate(t)
	report.DuplicatesRemoved = removed
	report.DuplicatePercentage = percentOf(float64(removed), float64(t.Len()))

	for col, n := range out.MissingCounts() {
		report.MissingBefore[col.String()] = n
	}
	out, report.MissingActions = c.handleMissing(out, resolved)

	out = c.AnnotateCategorical(out)
	for _, col := range out.Categorical.Columns() {
		report.CategoricalColumns = append(report.CategoricalColumns, col.String())
	}

	out, report.Outliers = c.detectOutliers(out, OutlierColumns)

	report.FinalRows = out.Len()
	report.FinalColumns = len(out.ColumnNames())
	report.RowsRemoved = report.InitialRows - report.FinalRows
	report.RetainedPercentage = percentOf(float64(report.FinalRows), float64(report.InitialRows))

	c.logger.Info("[cleaner] Cleaned %d → %d rows (%d duplicates, %d columns handled for nulls, %d outlier columns)",
		report.InitialRows, report.FinalRows, removed, len(report.MissingActions), len(report.Outliers))
	return out, report, nil
}

func resolveStrategies(names map[string]string) (map[models.Column]models.Strategy, error) {
	out := make(map[models.Column]models.Strategy, len(names))
	for name, s := range names {
		strategy, err := models.ParseStrategy(s)
		if err != nil {
			return nil, err
		}
		if col, ok := models.ColumnByName(name); ok {
			out[col] = strategy
		}
	}
	return out, nil
}

// Deduplicate removes rows identical across every column, keeping the first.
func (c *Cleaner) Deduplicate(t *models.Table) (*models.Table, int) {
	seen := make(map[models.Transaction]struct{}, t.Len())
	out := t.Derive(t.Len())

	for _, r := range t.Rows {
		key := r
		key.Date = r.Date.UTC()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, r)
	}

	removed := t.Len() - out.Len()
	if removed > 0 {
		c.logger.Info("[cleaner] Removed %d duplicate rows", removed)
	} else {
		c.logger.Debug("[cleaner] No duplicate rows found")
	}
	return out, removed
}

// HandleMissingValues fills or drops nulls column by column. Columns without
// nulls are skipped even when a strategy names them.
func (c *Cleaner) HandleMissingValues(t *models.Table, strategies map[string]string) (*models.Table, []models.MissingAction, error) {
	resolved, err := resolveStrategies(strategies)
	if err != nil {
		return nil, nil, err
	}
	out, actions := c.handleMissing(t, resolved)
	return out, actions, nil
}

func (c *Cleaner) handleMissing(t *models.Table, strategies map[models.Column]models.Strategy) (*models.Table, []models.MissingAction) {
	out := t.Clone()
	var actions []models.MissingAction

	for _, col := range t.DataColumns() {
		count := nullCount(out, col)
		if count == 0 {
			continue
		}
		strategy, ok := strategies[col]
		if !ok {
			strategy = DefaultStrategy(col)
		}
		if (strategy == models.StrategyFillMean || strategy == models.StrategyFillMedian) && col.Kind() != models.KindNumeric {
			c.logger.Warn("[cleaner] %s is not numeric, using %s instead of %s", col, models.StrategyFillMode, strategy)
			strategy = models.StrategyFillMode
		}

		action := models.MissingAction{Column: col.String(), Strategy: strategy.String(), Count: count}
		switch strategy {
		case models.StrategyDropRow:
			out, action.RowsDropped = dropNullRows(out, col)
		case models.StrategyFillMean, models.StrategyFillMedian:
			v := numericFill(out, col, strategy)
			fillNumber(out, col, v)
			action.FillValue = strconv.FormatFloat(v, 'f', -1, 64)
			if col == models.ColQuantity {
				action.FillValue = strconv.Itoa(models.RoundHalfAway(v))
			}
		case models.StrategyFillMode:
			action.FillValue = fillMode(out, col)
		case models.StrategyForwardFill:
			forwardFill(out, col)
			if left := nullCount(out, col); left > 0 {
				c.logger.Warn("[cleaner] %d leading null(s) in %s have nothing to carry forward", left, col)
			}
		}

		c.logger.Info("[cleaner] %s: %d missing handled with %s", col, count, strategy)
		actions = append(actions, action)
	}
	return out, actions
}

func nullCount(t *models.Table, col models.Column) int {
	n := 0
	for i := range t.Rows {
		if t.Rows[i].IsMissing(col) {
			n++
		}
	}
	return n
}

func dropNullRows(t *models.Table, col models.Column) (*models.Table, int) {
	out := t.Derive(t.Len())
	for _, r := range t.Rows {
		if !r.IsMissing(col) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, t.Len() - out.Len()
}

func columnValues(t *models.Table, col models.Column) []float64 {
	values := make([]float64, 0, t.Len())
	for i := range t.Rows {
		if v, ok := t.Rows[i].Number(col); ok {
			values = append(values, v)
		}
	}
	return values
}

// numericFill is 0 for a column with no values at all.
func numericFill(t *models.Table, col models.Column, s models.Strategy) float64 {
	values := columnValues(t, col)
	if len(values) == 0 {
		return 0
	}
	if s == models.StrategyFillMean {
		return stat.Mean(values, nil)
	}
	return quantile(sortedCopy(values), 0.5)
}

func fillNumber(t *models.Table, col models.Column, v float64) {
	for i := range t.Rows {
		if t.Rows[i].IsMissing(col) {
			t.Rows[i].SetNumber(col, v)
		}
	}
}

// fillMode fills nulls with the most frequent value; ties go to the smallest
// value. A column with no values at all gets "Unknown" (text), 0 (numeric)
// or stays null (timestamp).
func fillMode(t *models.Table, col models.Column) string {
	src := modeRow(t, col)
	if src < 0 {
		switch col.Kind() {
		case models.KindText:
			for i := range t.Rows {
				if t.Rows[i].IsMissing(col) {
					t.Rows[i].SetText(col, unknownFill)
				}
			}
			return unknownFill
		case models.KindNumeric:
			fillNumber(t, col, 0)
			return "0"
		}
		return ""
	}

	donor := t.Rows[src]
	for i := range t.Rows {
		if t.Rows[i].IsMissing(col) {
			t.Rows[i].CopyColumn(&donor, col)
		}
	}
	return donor.Text(col)
}

// modeRow returns the index of a row holding the mode of col, or -1.
func modeRow(t *models.Table, col models.Column) int {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsMissing(col) {
			continue
		}
		k := r.Text(col)
		if _, ok := first[k]; !ok {
			first[k] = i
		}
		counts[k]++
	}
	if len(counts) == 0 {
		return -1
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return valueLess(t, col, first[keys[i]], first[keys[j]])
	})
	return first[keys[0]]
}

// valueLess orders two rows by their value in col, numerically for numbers
// and chronologically for timestamps.
func valueLess(t *models.Table, col models.Column, i, j int) bool {
	a, b := &t.Rows[i], &t.Rows[j]
	switch col.Kind() {
	case models.KindNumeric:
		x, _ := a.Number(col)
		y, _ := b.Number(col)
		return x < y
	case models.KindTimestamp:
		if !a.Date.IsZero() && !b.Date.IsZero() {
			return a.Date.Before(b.Date)
		}
	}
	return a.Text(col) < b.Text(col)
}

func forwardFill(t *models.Table, col models.Column) {
	last := -1
	for i := range t.Rows {
		if !t.Rows[i].IsMissing(col) {
			last = i
			continue
		}
		if last >= 0 {
			t.Rows[i].CopyColumn(&t.Rows[last], col)
		}
	}
}

// AnnotateCategorical marks the fixed categorical columns present in t. It
// never changes a value.
func (c *Cleaner) AnnotateCategorical(t *models.Table) *models.Table {
	out := t.Clone()
	for _, col := range CategoricalColumns {
		if t.HasColumn(col.String()) {
			out.Categorical = out.Categorical.With(col)
		}
	}
	return out
}

// DetectOutliers flags values outside the IQR fences of each named column.
// Unknown and non-numeric names are ignored. Rows are never removed.
func (c *Cleaner) DetectOutliers(t *models.Table, columns []string) (*models.Table, []models.OutlierSummary) {
	var cols []models.Column
	for _, name := range columns {
		col, ok := models.ColumnByName(name)
		if !ok || col.Kind() != models.KindNumeric || !t.HasColumn(name) {
			c.logger.Debug("[cleaner] Skipping outlier check for %q", name)
			continue
		}
		cols = append(cols, col)
	}
	return c.detectOutliers(t, cols)
}

func (c *Cleaner) detectOutliers(t *models.Table, cols []models.Column) (*models.Table, []models.OutlierSummary) {
	out := t.Clone()
	var summaries []models.OutlierSummary

	for _, col := range cols {
		values := columnValues(out, col)
		if len(values) == 0 {
			continue
		}
		sorted := sortedCopy(values)
		q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
		iqr := q3 - q1
		lower, upper := q1-1.5*iqr, q3+1.5*iqr

		n := 0
		for i := range out.Rows {
			r := &out.Rows[i]
			v, ok := r.Number(col)
			if ok && (v < lower || v > upper) {
				r.Outliers = r.Outliers.With(col)
				n++
			} else {
				r.Outliers = r.Outliers.Without(col)
			}
		}
		if !containsColumn(out.OutlierColumns, col) {
			out.OutlierColumns = append(out.OutlierColumns, col)
		}

		summaries = append(summaries, models.OutlierSummary{
			Column:     col.String(),
			Count:      n,
			Percentage: percentOf(float64(n), float64(out.Len())),
			LowerBound: lower,
			UpperBound: upper,
		})
		if n > 0 {
			c.logger.Warn("[cleaner] %s: %d outlier(s) outside [%.2f, %.2f]", col, n, lower, upper)
		}
	}
	return out, summaries
}

func containsColumn(cols []models.Column, c models.Column) bool {
	for _, x := range cols {
		if x == c {
			return true
		}
	}
	return false
}

package services

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"retail-analytics/models"
)

// topValueCount is the length of each categorical frequency table.
const topValueCount = 10

// DescriptiveStatistics summarises every numeric and text column of t.
// Timestamps and outlier flags are neither numeric nor categorical here.
func DescriptiveStatistics(t *models.Table) *models.DescriptiveStats {
	ds := &models.DescriptiveStats{}

	for _, col := range t.DataColumns() {
		switch {
		case col.Kind() == models.KindNumeric:
			ds.Numeric = append(ds.Numeric, summariseNumeric(t, col))
		case col.Kind() == models.KindText, col == models.ColDate && !t.DateTyped:
			ds.Categorical = append(ds.Categorical, summariseCategorical(t, col))
		}
	}

	ds.Overview = models.DatasetOverview{
		TotalRows:          t.Len(),
		TotalColumns:       len(t.ColumnNames()),
		NumericColumns:     len(ds.Numeric),
		CategoricalColumns: len(ds.Categorical),
		MemoryUsageMB:      t.MemoryUsageMB(),
	}
	return ds
}

func summariseNumeric(t *models.Table, col models.Column) models.NumericSummary {
	s := models.NumericSummary{Column: col.String()}
	values := columnValues(t, col)
	s.Count = len(values)
	if s.Count == 0 {
		return s
	}

	sorted := sortedCopy(values)
	s.Mean = stat.Mean(values, nil)
	if s.Count > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Q25 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

func summariseCategorical(t *models.Table, col models.Column) models.CategoricalSummary {
	s := models.CategoricalSummary{Column: col.String()}
	counts := valueCounts(t, col)
	for _, vc := range counts {
		s.Count += vc.Count
	}
	s.Unique = len(counts)
	if len(counts) > 0 {
		s.MostCommon = counts[0].Value
	}

	top := topN(counts, topValueCount)
	for i := range top {
		top[i].Percentage = percentOf(float64(top[i].Count), float64(s.Count))
	}
	s.TopValues = top
	return s
}

// valueCounts returns the non-null values of col by descending frequency.
// Equal counts keep the order in which values were first encountered.
func valueCounts(t *models.Table, col models.Column) []models.ValueCount {
	index := make(map[string]int)
	var counts []models.ValueCount
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsMissing(col) {
			continue
		}
		v := r.Text(col)
		if j, ok := index[v]; ok {
			counts[j].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, models.ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	return counts
}

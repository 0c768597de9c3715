package services

import (
	"sort"
	"strconv"
	"time"

	"retail-analytics/models"
)

// weekdays is the canonical Monday to Sunday order.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// seasonalFeatures must be present before SeasonalTrends can run.
var seasonalFeatures = []models.Column{models.ColYear, models.ColMonth, models.ColQuarter, models.ColDayOfWeek}

// topSeasonProducts is the length of each season's product list.
const topSeasonProducts = 5

// SeasonalTrends rolls transactions up by month, quarter, weekday, season
// and, when more than one year is present, by year. Rows without calendar
// features are left out.
func SeasonalTrends(t *models.Table) (*models.SeasonalTrends, error) {
	var missing []string
	for _, c := range seasonalFeatures {
		if !t.HasColumn(c.String()) {
			missing = append(missing, c.String())
		}
	}
	if len(missing) > 0 {
		return nil, &models.MissingFeatureError{Columns: missing}
	}

	st := &models.SeasonalTrends{}

	months := groupRows(t.Rows, intKey(models.ColMonth))
	for m := 1; m <= 12; m++ {
		if acc, ok := months.accs[m]; ok {
			st.Monthly = append(st.Monthly, periodMetrics(m, time.Month(m).String(), acc))
		}
	}
	st.PeakMonth = peak(st.Monthly, func(p models.PeriodMetrics) float64 { return p.TotalRevenue })

	quarters := groupRows(t.Rows, intKey(models.ColQuarter))
	for q := 1; q <= 4; q++ {
		if acc, ok := quarters.accs[q]; ok {
			st.Quarterly = append(st.Quarterly, periodMetrics(q, "Q"+strconv.Itoa(q), acc))
		}
	}

	days := groupRows(t.Rows, textKey(models.ColDayOfWeek))
	for i, d := range weekdays {
		if acc, ok := days.accs[d.String()]; ok {
			st.DayOfWeek = append(st.DayOfWeek, periodMetrics(i+1, d.String(), acc))
		}
	}
	st.BusiestDay = peak(st.DayOfWeek, func(p models.PeriodMetrics) float64 { return float64(p.TransactionCount) })

	st.Seasons = seasonProducts(t)

	years := groupRows(t.Rows, intKey(models.ColYear))
	if len(years.keys) > 1 {
		st.YearOverYearApplicable = true
		keys := append([]int(nil), years.keys...)
		sort.Ints(keys)
		for _, y := range keys {
			acc := years.accs[y]
			st.YearOverYear = append(st.YearOverYear, models.YearMetrics{
				Year:             y,
				TransactionCount: acc.transactions,
				TotalRevenue:     acc.revenue,
				UniqueCustomers:  len(acc.customers),
			})
		}
		st.Growth = yearGrowth(st.YearOverYear)
	}
	return st, nil
}

func intKey(c models.Column) func(*models.Transaction) (int, bool) {
	return func(r *models.Transaction) (int, bool) {
		v, ok := r.Number(c)
		return int(v), ok
	}
}

func periodMetrics(period int, label string, acc *groupAcc) models.PeriodMetrics {
	return models.PeriodMetrics{
		Period:              period,
		Label:               label,
		TransactionCount:    acc.transactions,
		TotalRevenue:        acc.revenue,
		AvgTransactionValue: acc.avgAmount(),
		TotalQuantity:       acc.quantity,
		UniqueCustomers:     len(acc.customers),
	}
}

// peak returns a copy of the first period with the largest metric.
func peak(periods []models.PeriodMetrics, metric func(models.PeriodMetrics) float64) *models.PeriodMetrics {
	if len(periods) == 0 {
		return nil
	}
	best := periods[0]
	for _, p := range periods[1:] {
		if metric(p) > metric(best) {
			best = p
		}
	}
	return &best
}

func seasonProducts(t *models.Table) []models.SeasonProducts {
	byQuarter := make(map[int][]models.Transaction)
	for i := range t.Rows {
		if q, ok := t.Rows[i].Number(models.ColQuarter); ok {
			byQuarter[int(q)] = append(byQuarter[int(q)], t.Rows[i])
		}
	}

	var out []models.SeasonProducts
	for q := 1; q <= 4; q++ {
		rows := byQuarter[q]
		if len(rows) == 0 {
			continue
		}
		out = append(out, models.SeasonProducts{
			Season:   SeasonOf(q),
			Products: topProductRevenue(rows, productNameCategory, topSeasonProducts),
		})
	}
	return out
}

// yearGrowth compares each year with the one before it. Growth from a year
// with nothing to grow from is nil.
func yearGrowth(years []models.YearMetrics) []models.YearGrowth {
	var out []models.YearGrowth
	for i := 1; i < len(years); i++ {
		prev, cur := years[i-1], years[i]
		g := models.YearGrowth{FromYear: prev.Year, ToYear: cur.Year}
		if prev.TotalRevenue != 0 {
			v := (cur.TotalRevenue - prev.TotalRevenue) / prev.TotalRevenue * 100
			g.RevenueGrowth = &v
		}
		if prev.TransactionCount != 0 {
			v := float64(cur.TransactionCount-prev.TransactionCount) / float64(prev.TransactionCount) * 100
			g.TransactionGrowth = &v
		}
		out = append(out, g)
	}
	return out
}

package services

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"retail-analytics/models"
)

// frequencyBuckets is the length of the purchase frequency histogram.
const frequencyBuckets = 10

// CustomerSpendingAnalysis computes per-customer spending, assigns value
// tiers from the 33rd and 67th percentiles of total spending and rolls up
// repeat purchase behaviour.
func CustomerSpendingAnalysis(t *models.Table) *models.CustomerSpending {
	cs := &models.CustomerSpending{
		TotalTransactions: t.Len(),
	}
	if amounts := columnValues(t, models.ColTotalAmount); len(amounts) > 0 {
		cs.AvgTransactionValue = stat.Mean(amounts, nil)
	}

	cs.Customers = customerMetrics(t)
	cs.TotalCustomers = len(cs.Customers)
	if cs.TotalCustomers == 0 {
		return cs
	}
	cs.AvgTransactionsPerCustomer = float64(cs.TotalTransactions) / float64(cs.TotalCustomers)

	spending := make([]float64, len(cs.Customers))
	visits := make([]float64, len(cs.Customers))
	for i, m := range cs.Customers {
		spending[i] = m.TotalSpending
		visits[i] = float64(m.TransactionCount)
	}
	sorted := sortedCopy(spending)

	cs.LowThreshold = quantile(sorted, 0.33)
	cs.HighThreshold = quantile(sorted, 0.67)
	for i := range cs.Customers {
		cs.Customers[i].Segment = assignSegment(cs.Customers[i].TotalSpending, cs.LowThreshold, cs.HighThreshold)
	}
	cs.Segments = segmentSummaries(cs.Customers, totalRevenue(t.Rows))

	cs.Distribution = models.SpendingDistribution{
		Min:    sorted[0],
		Q25:    quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q75:    quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(spending, nil),
	}
	if len(spending) > 1 {
		cs.Distribution.StdDev = stat.StdDev(spending, nil)
	}

	for _, m := range cs.Customers {
		if m.TransactionCount > 1 {
			cs.RepeatCustomers++
		}
	}
	cs.OneTimeCustomers = cs.TotalCustomers - cs.RepeatCustomers
	cs.RepeatPurchaseRate = percentOf(float64(cs.RepeatCustomers), float64(cs.TotalCustomers))
	cs.AvgVisitsPerCustomer = stat.Mean(visits, nil)
	cs.MaxVisits = int(floats.Max(visits))
	cs.FrequencyDistribution = frequencyDistribution(cs.Customers)
	return cs
}

// assignSegment treats both thresholds as inclusive lower bounds of the
// higher tier.
func assignSegment(spending, low, high float64) models.Segment {
	switch {
	case spending >= high:
		return models.SegmentHigh
	case spending >= low:
		return models.SegmentMedium
	default:
		return models.SegmentLow
	}
}

// customerMetrics returns one row per customer, biggest spender first.
func customerMetrics(t *models.Table) []models.CustomerMetrics {
	index := make(map[string]int)
	var out []models.CustomerMetrics
	amountN := make(map[string]int)

	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsMissing(models.ColCustomerID) {
			continue
		}
		j, ok := index[r.CustomerID]
		if !ok {
			j = len(out)
			index[r.CustomerID] = j
			out = append(out, models.CustomerMetrics{CustomerID: r.CustomerID})
		}
		m := &out[j]
		if !r.IsMissing(models.ColTotalAmount) {
			m.TotalSpending += r.TotalAmount
			amountN[r.CustomerID]++
		}
		if !r.IsMissing(models.ColTransactionID) {
			m.TransactionCount++
		}
		if !r.IsMissing(models.ColDate) && !r.Date.IsZero() {
			if m.FirstPurchase.IsZero() || r.Date.Before(m.FirstPurchase) {
				m.FirstPurchase = r.Date
			}
			if r.Date.After(m.LastPurchase) {
				m.LastPurchase = r.Date
			}
		}
	}

	for i := range out {
		out[i].AvgTransactionValue = ratio(out[i].TotalSpending, float64(amountN[out[i].CustomerID]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpending > out[j].TotalSpending })
	return out
}

// segmentSummaries rolls customers up per tier, High to Low, leaving out
// tiers nobody falls in.
func segmentSummaries(customers []models.CustomerMetrics, revenue float64) []models.SegmentSummary {
	type acc struct {
		n                        int
		spending, avgValue, txns float64
	}
	accs := make(map[models.Segment]*acc)
	for _, m := range customers {
		a := accs[m.Segment]
		if a == nil {
			a = &acc{}
			accs[m.Segment] = a
		}
		a.n++
		a.spending += m.TotalSpending
		a.avgValue += m.AvgTransactionValue
		a.txns += float64(m.TransactionCount)
	}

	var out []models.SegmentSummary
	for _, seg := range models.SegmentOrder {
		a, ok := accs[seg]
		if !ok {
			continue
		}
		n := float64(a.n)
		out = append(out, models.SegmentSummary{
			Segment:                seg,
			CustomerCount:          a.n,
			TotalRevenue:           a.spending,
			AvgSpendingPerCustomer: a.spending / n,
			AvgTransactionValue:    a.avgValue / n,
			AvgTransactionCount:    a.txns / n,
			CustomerPercentage:     percentOf(n, float64(len(customers))),
			RevenuePercentage:      percentOf(a.spending, revenue),
		})
	}
	return out
}

// frequencyDistribution counts customers per number of transactions, in
// ascending order of transactions, keeping the first ten.
func frequencyDistribution(customers []models.CustomerMetrics) []models.FrequencyBucket {
	counts := make(map[int]int)
	for _, m := range customers {
		counts[m.TransactionCount]++
	}
	out := make([]models.FrequencyBucket, 0, len(counts))
	for txns, n := range counts {
		out = append(out, models.FrequencyBucket{
			Transactions: txns,
			Customers:    n,
			Percentage:   percentOf(float64(n), float64(len(customers))),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transactions < out[j].Transactions })
	return topN(out, frequencyBuckets)
}

// ProductPreferenceBySegment joins transactions to customer tiers and lists
// the top five categories and products of each tier by revenue.
// Transactions whose customer has no tier are left out.
func ProductPreferenceBySegment(t *models.Table, segments map[string]models.Segment) []models.SegmentPreference {
	bySegment := make(map[models.Segment][]models.Transaction)
	for i := range t.Rows {
		r := &t.Rows[i]
		if r.IsMissing(models.ColCustomerID) {
			continue
		}
		seg, ok := segments[r.CustomerID]
		if !ok {
			continue
		}
		bySegment[seg] = append(bySegment[seg], *r)
	}

	var out []models.SegmentPreference
	for _, seg := range models.SegmentOrder {
		rows := bySegment[seg]
		if len(rows) == 0 {
			continue
		}
		revenue := totalRevenue(rows)
		pref := models.SegmentPreference{Segment: seg, Revenue: revenue, Transactions: len(rows)}

		cats := groupRows(rows, textKey(models.ColCategory))
		for _, cat := range topN(cats.byRevenue(), 5) {
			acc := cats.accs[cat]
			pref.TopCategories = append(pref.TopCategories, models.CategoryShare{
				Category:         cat,
				Revenue:          acc.revenue,
				TransactionCount: acc.transactions,
				RevenueShare:     percentOf(acc.revenue, revenue),
			})
		}

		pref.TopProducts = topProductRevenue(rows, productIDName, 5)
		out = append(out, pref)
	}
	return out
}

// topProductRevenue groups rows with key and returns the n biggest earners.
// Category comes from the key when grouped by it, else the first one seen.
func topProductRevenue(rows []models.Transaction, key func(*models.Transaction) (productKey, bool), n int) []models.ProductRevenue {
	g := groupRows(rows, key)
	category := make(map[productKey]string)
	for i := range rows {
		k, ok := key(&rows[i])
		if !ok {
			continue
		}
		if _, seen := category[k]; !seen && !rows[i].IsMissing(models.ColCategory) {
			category[k] = rows[i].Category
		}
	}

	var out []models.ProductRevenue
	for _, k := range topN(g.byRevenue(), n) {
		acc := g.accs[k]
		cat := k.Category
		if cat == "" {
			cat = category[k]
		}
		out = append(out, models.ProductRevenue{
			ProductID:   k.ID,
			ProductName: k.Name,
			Category:    cat,
			Revenue:     acc.revenue,
			Quantity:    acc.quantity,
		})
	}
	return out
}

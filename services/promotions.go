package services

import "retail-analytics/models"

// discountBuckets are right-closed ranges (Lower, Upper] of discount percent.
var discountBuckets = []models.DiscountBucket{
	{Label: "1-10%", Lower: 0, Upper: 10},
	{Label: "11-20%", Lower: 10, Upper: 20},
	{Label: "21-30%", Lower: 20, Upper: 30},
	{Label: "31-50%", Lower: 30, Upper: 50},
	{Label: "51-100%", Lower: 50, Upper: 100},
}

// topDiscountedProducts is the length of the discounted product ranking.
const topDiscountedProducts = 10

func hasDiscount(r *models.Transaction) bool {
	return !r.IsMissing(models.ColDiscount) && r.Discount > 0
}

// bucketIndex returns the discount bucket holding d, or -1 when d is outside
// (0, 100].
func bucketIndex(d float64) int {
	for i, b := range discountBuckets {
		if d > b.Lower && d <= b.Upper {
			return i
		}
	}
	return -1
}

// PromotionEffectiveness compares discounted with undiscounted transactions,
// buckets the discounted ones by discount level and derives the promotion
// ROI from the implied pre-discount amount TotalAmount*D/(100-D). That
// amount has no value at D >= 100, so any such row makes the totals not
// applicable and is listed instead.
func PromotionEffectiveness(t *models.Table) *models.PromotionEffectiveness {
	pe := &models.PromotionEffectiveness{}
	total := totalRevenue(t.Rows)

	split := groupRows(t.Rows, func(r *models.Transaction) (bool, bool) { return hasDiscount(r), true })
	if acc, ok := split.accs[true]; ok {
		pe.WithDiscount = discountGroup(true, acc, t.Len(), total)
	}
	if acc, ok := split.accs[false]; ok {
		pe.WithoutDiscount = discountGroup(false, acc, t.Len(), total)
	}
	if pe.WithDiscount != nil && pe.WithoutDiscount != nil && pe.WithoutDiscount.AvgQuantity != 0 {
		lift := (pe.WithDiscount.AvgQuantity - pe.WithoutDiscount.AvgQuantity) / pe.WithoutDiscount.AvgQuantity * 100
		pe.QuantityLift = &lift
	}

	var discounted []models.Transaction
	for i := range t.Rows {
		if hasDiscount(&t.Rows[i]) {
			discounted = append(discounted, t.Rows[i])
		}
	}
	if len(discounted) == 0 {
		zero, roi := 0.0, 0.0
		pe.TotalImpliedDiscount, pe.ROI = &zero, &roi
		return pe
	}

	pe.Buckets = bucketRollups(discounted)

	var implied, discountSum float64
	for i := range discounted {
		r := &discounted[i]
		discountSum += r.Discount
		if r.Discount >= 100 {
			pe.FullDiscountTransactions = append(pe.FullDiscountTransactions, r.TransactionID)
			continue
		}
		if !r.IsMissing(models.ColTotalAmount) {
			implied += r.TotalAmount * r.Discount / (100 - r.Discount)
		}
	}
	pe.DiscountedRevenue = totalRevenue(discounted)
	pe.AvgDiscountPercentage = discountSum / float64(len(discounted))

	if len(pe.FullDiscountTransactions) == 0 {
		pe.TotalImpliedDiscount = &implied
		if implied != 0 {
			roi := (pe.DiscountedRevenue - implied) / implied * 100
			pe.ROI = &roi
		}
	}

	products := groupRows(discounted, productIDName)
	for _, k := range topN(products.byRevenue(), topDiscountedProducts) {
		acc := products.accs[k]
		pe.TopDiscountedProducts = append(pe.TopDiscountedProducts, models.DiscountedProduct{
			ProductID:        k.ID,
			ProductName:      k.Name,
			TransactionCount: acc.transactions,
			TotalRevenue:     acc.revenue,
			TotalQuantity:    acc.quantity,
			AvgDiscount:      acc.avgDiscount(),
		})
	}
	return pe
}

func discountGroup(with bool, acc *groupAcc, rows int, revenue float64) *models.DiscountGroup {
	return &models.DiscountGroup{
		HasDiscount:           with,
		TransactionCount:      acc.transactions,
		TransactionPercentage: percentOf(float64(acc.transactions), float64(rows)),
		TotalRevenue:          acc.revenue,
		RevenuePercentage:     percentOf(acc.revenue, revenue),
		AvgTransactionValue:   acc.avgAmount(),
		TotalQuantity:         acc.quantity,
		AvgQuantity:           acc.avgQuantity(),
		UniqueCustomers:       len(acc.customers),
	}
}

// bucketRollups returns the buckets that hold at least one transaction, in
// ascending discount order.
func bucketRollups(discounted []models.Transaction) []models.DiscountBucket {
	g := groupRows(discounted, func(r *models.Transaction) (int, bool) {
		i := bucketIndex(r.Discount)
		return i, i >= 0
	})

	var out []models.DiscountBucket
	for i, b := range discountBuckets {
		acc, ok := g.accs[i]
		if !ok {
			continue
		}
		b.TransactionCount = acc.transactions
		b.TotalRevenue = acc.revenue
		b.AvgTransactionValue = acc.avgAmount()
		b.TotalQuantity = acc.quantity
		b.AvgQuantity = acc.avgQuantity()
		out = append(out, b)
	}
	return out
}

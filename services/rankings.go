package services

import "retail-analytics/models"

// TopProducts ranks products by revenue and keeps the best n.
func TopProducts(t *models.Table, n int) ([]models.ProductMetrics, error) {
	if err := validateTopN(n); err != nil {
		return nil, err
	}

	total := totalRevenue(t.Rows)
	g := groupRows(t.Rows, productIDName)
	keys := topN(g.byRevenue(), n)

	out := make([]models.ProductMetrics, 0, len(keys))
	for i, k := range keys {
		acc := g.accs[k]
		out = append(out, models.ProductMetrics{
			Rank:              i + 1,
			ProductID:         k.ID,
			ProductName:       k.Name,
			TotalQuantity:     acc.quantity,
			TotalRevenue:      acc.revenue,
			TransactionCount:  acc.transactions,
			AvgPrice:          acc.avgPrice(),
			RevenuePercentage: percentOf(acc.revenue, total),
		})
	}
	return out, nil
}

// TopCities ranks cities by revenue and keeps the best n.
func TopCities(t *models.Table, n int) ([]models.CityMetrics, error) {
	if err := validateTopN(n); err != nil {
		return nil, err
	}

	total := totalRevenue(t.Rows)
	g := groupRows(t.Rows, textKey(models.ColCity))
	keys := topN(g.byRevenue(), n)

	out := make([]models.CityMetrics, 0, len(keys))
	for i, city := range keys {
		acc := g.accs[city]
		out = append(out, models.CityMetrics{
			Rank:                i + 1,
			City:                city,
			TransactionCount:    acc.transactions,
			TotalRevenue:        acc.revenue,
			TotalQuantity:       acc.quantity,
			UniqueCustomers:     len(acc.customers),
			AvgTransactionValue: acc.avgAmount(),
			RevenuePercentage:   percentOf(acc.revenue, total),
		})
	}
	return out, nil
}

// StoreTypePreference rolls transactions up by store type, highest revenue first.
func StoreTypePreference(t *models.Table) []models.StoreTypeMetrics {
	total := totalRevenue(t.Rows)
	g := groupRows(t.Rows, textKey(models.ColStoreType))

	var out []models.StoreTypeMetrics
	for _, st := range g.byRevenue() {
		acc := g.accs[st]
		out = append(out, models.StoreTypeMetrics{
			StoreType:             st,
			TransactionCount:      acc.transactions,
			TransactionPercentage: percentOf(float64(acc.transactions), float64(t.Len())),
			TotalRevenue:          acc.revenue,
			RevenuePercentage:     percentOf(acc.revenue, total),
			AvgTransactionValue:   acc.avgAmount(),
			TotalQuantity:         acc.quantity,
			UniqueCustomers:       len(acc.customers),
			UniqueProducts:        len(acc.products),
			RevenuePerCustomer:    ratio(acc.revenue, float64(len(acc.customers))),
		})
	}
	return out
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/models"
)

func TestCustomerSpendingExample(t *testing.T) {
	cs := CustomerSpendingAnalysis(threeTransactions())

	assert.Equal(t, 2, cs.TotalCustomers)
	assert.Equal(t, 3, cs.TotalTransactions)
	assert.InDelta(t, 116.67, cs.AvgTransactionValue, 0.005)
	assert.Equal(t, 1.5, cs.AvgTransactionsPerCustomer)

	require.Len(t, cs.Customers, 2)
	b, a := cs.Customers[0], cs.Customers[1]
	assert.Equal(t, "B", b.CustomerID)
	assert.Equal(t, models.SegmentHigh, b.Segment)
	assert.Equal(t, "A", a.CustomerID)
	assert.Equal(t, 150.0, a.TotalSpending)
	assert.Equal(t, 75.0, a.AvgTransactionValue)
	assert.Equal(t, 2, a.TransactionCount)
	assert.Equal(t, 2, a.FirstPurchase.Day())
	assert.Equal(t, 3, a.LastPurchase.Day())

	assert.Equal(t, 1, cs.RepeatCustomers)
	assert.Equal(t, 1, cs.OneTimeCustomers)
	assert.Equal(t, 50.0, cs.RepeatPurchaseRate)
	assert.Equal(t, 2, cs.MaxVisits)
	require.Len(t, cs.FrequencyDistribution, 2)
	assert.Equal(t, 1, cs.FrequencyDistribution[0].Transactions)
	assert.Equal(t, 2, cs.FrequencyDistribution[1].Transactions)
}

func spendingTable() *models.Table {
	var rows []models.Transaction
	amounts := map[string][]float64{
		"C1": {10}, "C2": {20}, "C3": {30}, "C4": {40, 10}, "C5": {50},
		"C6": {60}, "C7": {70}, "C8": {80}, "C9": {90, 5, 5},
	}
	n := 0
	for _, id := range []string{"C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9"} {
		for _, amt := range amounts[id] {
			n++
			rows = append(rows, txn(id+"-"+string(rune('a'+n)), id, amt, 0, "2023-06-01"))
		}
	}
	return models.NewTable(rows)
}

func TestSegmentationThresholdsAreInclusive(t *testing.T) {
	cs := CustomerSpendingAnalysis(spendingTable())

	// Totals are 10, 20, 30, 50, 50, 60, 70, 80 and 100.
	assert.InDelta(t, 42.8, cs.LowThreshold, 1e-9)
	assert.InDelta(t, 63.6, cs.HighThreshold, 1e-9)
	for _, m := range cs.Customers {
		want := assignSegment(m.TotalSpending, cs.LowThreshold, cs.HighThreshold)
		assert.Equal(t, want, m.Segment)
	}

	total := 0
	for _, s := range cs.Segments {
		total += s.CustomerCount
	}
	assert.Equal(t, cs.TotalCustomers, total, "segment counts must cover every customer")

	require.Len(t, cs.Segments, 3)
	assert.Equal(t, models.SegmentHigh, cs.Segments[0].Segment)
	assert.Equal(t, models.SegmentMedium, cs.Segments[1].Segment)
	assert.Equal(t, models.SegmentLow, cs.Segments[2].Segment)

	var pct float64
	for _, s := range cs.Segments {
		pct += s.RevenuePercentage
	}
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestAssignSegmentBoundaries(t *testing.T) {
	assert.Equal(t, models.SegmentHigh, assignSegment(67, 33, 67))
	assert.Equal(t, models.SegmentMedium, assignSegment(33, 33, 67))
	assert.Equal(t, models.SegmentLow, assignSegment(32.99, 33, 67))
}

func TestSegmentationIsIdempotent(t *testing.T) {
	first := CustomerSpendingAnalysis(spendingTable()).SegmentAssignments()
	second := CustomerSpendingAnalysis(spendingTable()).SegmentAssignments()
	assert.Equal(t, first, second)
}

func TestCustomerSpendingEmpty(t *testing.T) {
	cs := CustomerSpendingAnalysis(models.NewTable(nil))
	assert.Equal(t, 0, cs.TotalCustomers)
	assert.Empty(t, cs.Segments)
	assert.Equal(t, 0.0, cs.RepeatPurchaseRate)
}

func TestProductPreferenceBySegment(t *testing.T) {
	rows := []models.Transaction{
		withProduct(txn("T1", "A", 100, 0, "2023-01-01"), "P1", "Lamp", "Home"),
		withProduct(txn("T2", "A", 300, 0, "2023-01-02"), "P2", "Desk", "Office"),
		withProduct(txn("T3", "B", 50, 0, "2023-01-03"), "P1", "Lamp", "Home"),
		withProduct(txn("T4", "Z", 999, 0, "2023-01-04"), "P9", "Sofa", "Home"),
	}
	segments := map[string]models.Segment{"A": models.SegmentHigh, "B": models.SegmentLow}

	got := ProductPreferenceBySegment(models.NewTable(rows), segments)
	require.Len(t, got, 2)

	high := got[0]
	assert.Equal(t, models.SegmentHigh, high.Segment)
	assert.Equal(t, 400.0, high.Revenue)
	require.Len(t, high.TopCategories, 2)
	assert.Equal(t, "Office", high.TopCategories[0].Category)
	assert.Equal(t, 75.0, high.TopCategories[0].RevenueShare)
	require.Len(t, high.TopProducts, 2)
	assert.Equal(t, "Desk", high.TopProducts[0].ProductName)
	assert.Equal(t, "Office", high.TopProducts[0].Category)

	low := got[1]
	assert.Equal(t, models.SegmentLow, low.Segment)
	assert.Equal(t, 1, low.Transactions)
}

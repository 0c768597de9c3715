package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/models"
)

func TestPromotionExample(t *testing.T) {
	pe := PromotionEffectiveness(threeTransactions())

	require.NotNil(t, pe.WithDiscount)
	require.NotNil(t, pe.WithoutDiscount)
	assert.Equal(t, 1, pe.WithDiscount.TransactionCount)
	assert.Equal(t, 2, pe.WithoutDiscount.TransactionCount)
	assert.Equal(t, 150.0, pe.WithoutDiscount.AvgTransactionValue)

	require.NotNil(t, pe.QuantityLift)
	assert.Equal(t, 0.0, *pe.QuantityLift)

	require.Len(t, pe.Buckets, 1)
	assert.Equal(t, "11-20%", pe.Buckets[0].Label)

	// 50 * 20 / 80 = 12.5 implied discount; (50 - 12.5) / 12.5 = 300%.
	require.NotNil(t, pe.TotalImpliedDiscount)
	assert.Equal(t, 12.5, *pe.TotalImpliedDiscount)
	require.NotNil(t, pe.ROI)
	assert.Equal(t, 300.0, *pe.ROI)
	assert.Equal(t, 20.0, pe.AvgDiscountPercentage)
	require.Len(t, pe.TopDiscountedProducts, 1)
	assert.Equal(t, "Product T2", pe.TopDiscountedProducts[0].ProductName)
}

func TestDiscountBucketsAreExclusive(t *testing.T) {
	discounts := []float64{0, 0.5, 10, 10.01, 20, 25, 30, 30.5, 50, 50.5, 99.9, 100}
	for _, d := range discounts {
		hits := 0
		for _, b := range discountBuckets {
			if d > b.Lower && d <= b.Upper {
				hits++
			}
		}
		if d == 0 {
			assert.Equal(t, 0, hits, "zero discount must fall in no bucket")
			assert.Equal(t, -1, bucketIndex(d))
			continue
		}
		assert.Equal(t, 1, hits, "discount %v", d)
		assert.GreaterOrEqual(t, bucketIndex(d), 0)
	}
	assert.Equal(t, 0, bucketIndex(10))
	assert.Equal(t, 1, bucketIndex(10.01))
	assert.Equal(t, 4, bucketIndex(100))
}

func TestPromotionBucketRollups(t *testing.T) {
	rows := []models.Transaction{
		txn("T1", "A", 10, 5, "2023-01-01"),
		txn("T2", "B", 20, 10, "2023-01-01"),
		txn("T3", "C", 30, 45, "2023-01-01"),
		txn("T4", "D", 40, 0, "2023-01-01"),
	}
	pe := PromotionEffectiveness(models.NewTable(rows))

	require.Len(t, pe.Buckets, 2)
	assert.Equal(t, "1-10%", pe.Buckets[0].Label)
	assert.Equal(t, 2, pe.Buckets[0].TransactionCount)
	assert.Equal(t, 30.0, pe.Buckets[0].TotalRevenue)
	assert.Equal(t, "31-50%", pe.Buckets[1].Label)

	total := 0
	for _, b := range pe.Buckets {
		total += b.TransactionCount
	}
	assert.Equal(t, pe.WithDiscount.TransactionCount, total)
}

func TestPromotionWithoutDiscounts(t *testing.T) {
	pe := PromotionEffectiveness(models.NewTable([]models.Transaction{
		txn("T1", "A", 10, 0, "2023-01-01"),
	}))
	assert.Nil(t, pe.WithDiscount)
	assert.Nil(t, pe.QuantityLift)
	assert.Empty(t, pe.Buckets)
	require.NotNil(t, pe.ROI)
	assert.Equal(t, 0.0, *pe.ROI)
}

func TestPromotionFullDiscount(t *testing.T) {
	rows := []models.Transaction{
		txn("T1", "A", 10, 20, "2023-01-01"),
		txn("T2", "B", 0, 100, "2023-01-01"),
		txn("T3", "C", 10, 0, "2023-01-01"),
	}
	pe := PromotionEffectiveness(models.NewTable(rows))

	assert.Nil(t, pe.ROI)
	assert.Nil(t, pe.TotalImpliedDiscount)
	assert.Equal(t, []string{"T2"}, pe.FullDiscountTransactions)
	assert.Equal(t, 60.0, pe.AvgDiscountPercentage)
	require.Len(t, pe.Buckets, 2)
	assert.Equal(t, "51-100%", pe.Buckets[1].Label)
}

func TestPromotionZeroQuantityBaseline(t *testing.T) {
	rows := []models.Transaction{
		txn("T1", "A", 10, 20, "2023-01-01"),
		txn("T2", "B", 10, 0, "2023-01-01"),
	}
	rows[1].Quantity = 0
	pe := PromotionEffectiveness(models.NewTable(rows))
	assert.Nil(t, pe.QuantityLift)
}

func TestPromotionNullDiscountCountsAsUndiscounted(t *testing.T) {
	rows := []models.Transaction{
		withMissing(txn("T1", "A", 10, 30, "2023-01-01"), models.ColDiscount),
	}
	pe := PromotionEffectiveness(models.NewTable(rows))
	assert.Nil(t, pe.WithDiscount)
	require.NotNil(t, pe.WithoutDiscount)
	assert.Equal(t, 1, pe.WithoutDiscount.TransactionCount)
}

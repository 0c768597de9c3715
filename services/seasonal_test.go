package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/models"
)

func TestSeasonalRequiresFeatures(t *testing.T) {
	_, err := SeasonalTrends(models.NewTable(nil))
	var mf *models.MissingFeatureError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, []string{"Year", "Month", "Quarter", "DayOfWeek"}, mf.Columns)
}

func TestSeasonalYearOverYear(t *testing.T) {
	st, err := SeasonalTrends(featured(
		txn("T1", "A", 400, 0, "2022-03-01"),
		txn("T2", "B", 600, 0, "2022-11-15"),
		txn("T3", "A", 1500, 0, "2023-05-10"),
	))
	require.NoError(t, err)

	require.True(t, st.YearOverYearApplicable)
	require.Len(t, st.YearOverYear, 2)
	assert.Equal(t, 1000.0, st.YearOverYear[0].TotalRevenue)
	assert.Equal(t, 1500.0, st.YearOverYear[1].TotalRevenue)

	require.Len(t, st.Growth, 1)
	g := st.Growth[0]
	assert.Equal(t, 2022, g.FromYear)
	assert.Equal(t, 2023, g.ToYear)
	require.NotNil(t, g.RevenueGrowth)
	assert.InDelta(t, 50.0, *g.RevenueGrowth, 1e-9)
	require.NotNil(t, g.TransactionGrowth)
	assert.InDelta(t, -50.0, *g.TransactionGrowth, 1e-9)
}

func TestSeasonalSingleYear(t *testing.T) {
	st, err := SeasonalTrends(threeTransactions())
	require.NoError(t, err)
	assert.False(t, st.YearOverYearApplicable)
	assert.Empty(t, st.YearOverYear)
	assert.Empty(t, st.Growth)
}

func TestSeasonalRollups(t *testing.T) {
	// 2023-01-02 and 2023-01-09 are Mondays, 2023-02-08 a Wednesday.
	st, err := SeasonalTrends(featured(
		txn("T1", "A", 10, 0, "2023-01-02"),
		txn("T2", "B", 20, 0, "2023-01-09"),
		txn("T3", "C", 300, 0, "2023-02-08"),
		txn("T4", "D", 40, 0, "2023-08-06"),
	))
	require.NoError(t, err)

	require.Len(t, st.Monthly, 3)
	assert.Equal(t, "January", st.Monthly[0].Label)
	assert.Equal(t, 2, st.Monthly[0].TransactionCount)
	assert.Equal(t, "August", st.Monthly[2].Label)
	require.NotNil(t, st.PeakMonth)
	assert.Equal(t, "February", st.PeakMonth.Label)

	require.Len(t, st.Quarterly, 2)
	assert.Equal(t, "Q1", st.Quarterly[0].Label)
	assert.Equal(t, 330.0, st.Quarterly[0].TotalRevenue)
	assert.Equal(t, "Q3", st.Quarterly[1].Label)

	require.Len(t, st.DayOfWeek, 3)
	assert.Equal(t, "Monday", st.DayOfWeek[0].Label)
	assert.Equal(t, "Wednesday", st.DayOfWeek[1].Label)
	assert.Equal(t, "Sunday", st.DayOfWeek[2].Label)
	require.NotNil(t, st.BusiestDay)
	assert.Equal(t, "Monday", st.BusiestDay.Label)

	require.Len(t, st.Seasons, 2)
	assert.Equal(t, "Winter", st.Seasons[0].Season)
	assert.Equal(t, "Product T3", st.Seasons[0].Products[0].ProductName)
	assert.Equal(t, "General", st.Seasons[0].Products[0].Category)
	assert.Equal(t, "Summer", st.Seasons[1].Season)
}

func TestYearGrowthFromZero(t *testing.T) {
	growth := yearGrowth([]models.YearMetrics{
		{Year: 2021, TotalRevenue: 0, TransactionCount: 0},
		{Year: 2022, TotalRevenue: 10, TransactionCount: 1},
	})
	require.Len(t, growth, 1)
	assert.Nil(t, growth[0].RevenueGrowth)
	assert.Nil(t, growth[0].TransactionGrowth)
}

package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-analytics/models"
)

func TestExtractTypedDates(t *testing.T) {
	in := models.NewTable([]models.Transaction{
		txn("T1", "A", 10, 0, "2023-03-31"),
		txn("T2", "B", 10, 0, "2024-10-06"),
		withMissing(txn("T3", "C", 10, 0, "2024-01-01"), models.ColDate),
	})

	out, summary, err := NewFeatureExtractor(newTestLogger()).Extract(in, "Date")
	require.NoError(t, err)
	require.True(t, out.HasFeatures)
	assert.False(t, in.HasFeatures, "input table must stay untouched")

	r := out.Rows[0]
	assert.Equal(t, 2023, r.Year)
	assert.Equal(t, 3, r.Month)
	assert.Equal(t, 31, r.Day)
	assert.Equal(t, "Friday", r.DayOfWeek)
	assert.Equal(t, 1, r.Quarter)

	assert.Equal(t, "Sunday", out.Rows[1].DayOfWeek)
	assert.Equal(t, 4, out.Rows[1].Quarter)

	for _, c := range models.FeatureColumns {
		assert.True(t, out.Rows[2].IsMissing(c), "row without a date should have null %s", c)
	}

	assert.Equal(t, 0, summary.InvalidDates)
	assert.Equal(t, 1, summary.NullDates)
	assert.Equal(t, []int{2023, 2024}, summary.Years)
	assert.True(t, summary.MinDate.Equal(time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)))
}

func TestExtractCoercesUntypedDates(t *testing.T) {
	rows := []models.Transaction{
		{TransactionID: "T1", RawDate: "2023-07-04"},
		{TransactionID: "T2", RawDate: "not a date"},
		{TransactionID: "T3", Missing: models.ColumnSet(0).With(models.ColDate)},
	}
	in := models.NewTable(rows)
	in.DateTyped = false

	out, summary, err := NewFeatureExtractor(newTestLogger()).Extract(in, "Date")
	require.NoError(t, err)

	assert.True(t, out.DateTyped)
	assert.Equal(t, 1, summary.InvalidDates)
	assert.Equal(t, 2, summary.NullDates)
	assert.Equal(t, 7, out.Rows[0].Month)
	assert.Equal(t, 3, out.Rows[0].Quarter)
	assert.True(t, out.Rows[1].IsMissing(models.ColDate), "unparseable date becomes null")
	assert.True(t, out.Rows[1].IsMissing(models.ColYear))
	assert.Equal(t, "not a date", in.Rows[1].RawDate)
}

func TestExtractMissingColumn(t *testing.T) {
	_, _, err := NewFeatureExtractor(newTestLogger()).Extract(models.NewTable(nil), "OrderDate")
	var mc *models.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "OrderDate", mc.Column)
}

func TestSeasonOf(t *testing.T) {
	assert.Equal(t, "Winter", SeasonOf(1))
	assert.Equal(t, "Spring", SeasonOf(2))
	assert.Equal(t, "Summer", SeasonOf(3))
	assert.Equal(t, "Fall", SeasonOf(4))
	assert.Equal(t, "", SeasonOf(0))
}

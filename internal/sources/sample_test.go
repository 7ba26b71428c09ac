package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahanpulse/internal/dataprocessing"
)

func TestGenerateSample(t *testing.T) {
	end := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	opts := SampleOptions{Months: 48, Seed: 42, End: end}

	table := GenerateSample(opts)
	assert.Equal(t, SampleColumns, table.Columns)
	require.Equal(t, 48*14, table.Len())

	assert.Equal(t, "2020-07-01", table.Records[0]["Date"])
	assert.Equal(t, "2024-06-01", table.Records[table.Len()-1]["Date"])

	again := GenerateSample(opts)
	assert.Equal(t, table, again, "same seed yields the same table")

	other := GenerateSample(SampleOptions{Months: 48, Seed: 7, End: end})
	assert.NotEqual(t, table.Records, other.Records)
}

func TestGenerateSample_Normalizes(t *testing.T) {
	table := GenerateSample(SampleOptions{Months: 12, Seed: 42, End: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)})

	result, err := dataprocessing.Normalize(table)
	require.NoError(t, err)

	// Bajaj and Mahindra sell in two segments each, so nothing merges.
	assert.Len(t, result.Records, 12*14)
	assert.Zero(t, result.Report.InvalidDates)
	assert.Zero(t, result.Report.NonNumericCount)

	for _, r := range result.Records {
		assert.True(t, r.VehicleCategory.IsKnown(), r.VehicleCategory)
		assert.Greater(t, r.Registrations, int64(0))
	}
}

func TestGenerateSample_Defaults(t *testing.T) {
	table := GenerateSample(SampleOptions{})
	assert.Equal(t, 48*14, table.Len())
}

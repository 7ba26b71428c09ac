package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahanpulse/internal/shared/testutil"
	"vahanpulse/pkg/contracts/domain"
)

func TestAggregateByYear_Grouped(t *testing.T) {
	got, err := AggregateByYear(testutil.SampleRegistrations(t), GroupByCategory)
	require.NoError(t, err)
	require.Len(t, got, 5)

	type row struct {
		period   string
		category string
		total    int64
	}
	want := []row{
		{"2022", "FOUR_WHEELER", 60},
		{"2022", "TWO_WHEELER", 140},
		{"2023", "FOUR_WHEELER", 90},
		{"2023", "THREE_WHEELER", 30},
		{"2023", "TWO_WHEELER", 180},
	}
	for i, w := range want {
		assert.Equal(t, w.period, got[i].Period)
		assert.Equal(t, w.category, got[i].Group["vehicle_category"])
		assert.Equal(t, w.total, got[i].Total)
	}

	assert.Nil(t, got[0].ChangePct)
	assert.Nil(t, got[1].ChangePct)
	require.NotNil(t, got[2].ChangePct)
	assert.InDelta(t, 50.0, *got[2].ChangePct, 1e-9)
	assert.Nil(t, got[3].ChangePct, "first period of a group has no change")
	require.NotNil(t, got[4].ChangePct)
	assert.InDelta(t, 40.0/140*100, *got[4].ChangePct, 1e-9)
}

func TestAggregateByQuarter(t *testing.T) {
	got, err := AggregateByQuarter(testutil.SampleRegistrations(t))
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "2022Q1", got[0].Period)
	assert.Equal(t, 2022, got[0].Year)
	assert.Equal(t, 1, got[0].QuarterNum)
	assert.Equal(t, int64(160), got[0].Total)
	assert.Nil(t, got[0].ChangePct)
	assert.Nil(t, got[0].Group)

	wantPct := []float64{-75, 350, -100.0 / 3}
	for i, pct := range wantPct {
		require.NotNil(t, got[i+1].ChangePct)
		assert.InDelta(t, pct, *got[i+1].ChangePct, 1e-9)
	}
}

func TestAggregateByQuarter_ZeroPredecessor(t *testing.T) {
	records := []domain.Registration{
		testutil.Reg(t, "2023-01-01", domain.TwoWheeler, "Hero", 0),
		testutil.Reg(t, "2023-04-01", domain.TwoWheeler, "Hero", 10),
		testutil.Reg(t, "2023-07-01", domain.TwoWheeler, "Hero", 15),
	}

	got, err := AggregateByQuarter(records, GroupByManufacturer)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Nil(t, got[1].ChangePct)
	require.NotNil(t, got[2].ChangePct)
	assert.InDelta(t, 50.0, *got[2].ChangePct, 1e-9)
}

func TestAggregateByYear_TwoKeys(t *testing.T) {
	got, err := AggregateByYear(testutil.SampleRegistrations(t), GroupByCategory, GroupByManufacturer)
	require.NoError(t, err)

	for _, agg := range got {
		assert.Len(t, agg.Group, 2)
	}
	total := int64(0)
	for _, agg := range got {
		total += agg.Total
	}
	assert.Equal(t, int64(500), total)
}

func TestAggregateBy_UnknownKey(t *testing.T) {
	_, err := AggregateByYear(nil, GroupKey("state"))
	assert.ErrorIs(t, err, ErrUnknownGroupKey)

	_, err = AggregateByQuarter(nil, GroupByCategory, GroupKey(""))
	assert.ErrorIs(t, err, ErrUnknownGroupKey)

	got, err := AggregateByYear(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseGroupKey(t *testing.T) {
	k, err := ParseGroupKey("manufacturer")
	require.NoError(t, err)
	assert.Equal(t, GroupByManufacturer, k)

	_, err = ParseGroupKey("Manufacturer")
	assert.ErrorIs(t, err, ErrUnknownGroupKey)
}

package metrics

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/stockreport/internal/models"
)

func bar(t int64, o, h, l, c, v float64) models.PriceBar {
	return models.PriceBar{
		Timestamp: t,
		Open:      decimal.NewFromFloat(o),
		High:      decimal.NewFromFloat(h),
		Low:       decimal.NewFromFloat(l),
		Close:     decimal.NewFromFloat(c),
		Volume:    decimal.NewFromFloat(v),
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "%s = %s, want %s", field, got, want)
}

func TestCompute_FixedSeries(t *testing.T) {
	series := &models.SymbolSeries{
		Symbol: "AAPL",
		Bars: []models.PriceBar{
			bar(1, 100, 110, 95, 105, 1000),
			bar(2, 105, 108, 100, 102, 2000),
		},
	}

	m, err := Compute(series)
	require.NoError(t, err)

	assertDecimal(t, "100", m.Opening, "opening")
	assertDecimal(t, "102", m.Closing, "closing")
	assertDecimal(t, "110", m.Highest, "highest")
	assertDecimal(t, "95", m.Lowest, "lowest")
	assertDecimal(t, "1500", m.AverageVolume, "average_volume")
	assertDecimal(t, "2", m.PercentageChange, "percentage_change")
	assert.Equal(t, 2, m.Bars)
}

func TestCompute_SingleBar(t *testing.T) {
	m, err := Compute(&models.SymbolSeries{Symbol: "X", Bars: []models.PriceBar{bar(1, 50, 55, 45, 40, 10)}})
	require.NoError(t, err)

	assertDecimal(t, "50", m.Opening, "opening")
	assertDecimal(t, "40", m.Closing, "closing")
	assertDecimal(t, "-20", m.PercentageChange, "percentage_change")
	assertDecimal(t, "10", m.AverageVolume, "average_volume")
}

func TestCompute_EmptySeries(t *testing.T) {
	tests := []struct {
		name   string
		series *models.SymbolSeries
	}{
		{"nil series", nil},
		{"no bars", &models.SymbolSeries{Symbol: "EMPTY"}},
		{"empty slice", &models.SymbolSeries{Symbol: "EMPTY", Bars: []models.PriceBar{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compute(tt.series)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrEmptySeries))

			var extractorErr *models.ExtractorError
			require.True(t, errors.As(err, &extractorErr))
			assert.Equal(t, models.ExtractorEmptySeries, extractorErr.Kind)
			assert.Equal(t, models.Metrics{}, m)
		})
	}
}

func TestCompute_ZeroOpening(t *testing.T) {
	_, err := Compute(&models.SymbolSeries{Symbol: "ZERO", Bars: []models.PriceBar{bar(1, 0, 1, 0, 1, 5)}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrZeroOpening))
	assert.False(t, errors.Is(err, models.ErrEmptySeries))
}

func TestCompute_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(40)
		bars := make([]models.PriceBar, n)
		minVol, maxVol := decimal.Zero, decimal.Zero
		for j := range bars {
			low := 1 + rng.Float64()*100
			high := low + rng.Float64()*20
			open := low + (high-low)*rng.Float64()
			closing := low + (high-low)*rng.Float64()
			volume := float64(rng.Intn(1_000_000))
			bars[j] = bar(int64(j+1), open, high, low, closing, volume)

			v := bars[j].Volume
			if j == 0 || v.LessThan(minVol) {
				minVol = v
			}
			if j == 0 || v.GreaterThan(maxVol) {
				maxVol = v
			}
		}

		m, err := Compute(&models.SymbolSeries{Symbol: "RND", Bars: bars})
		require.NoError(t, err)

		assert.True(t, m.Highest.GreaterThanOrEqual(m.Lowest), "highest %s < lowest %s", m.Highest, m.Lowest)
		assert.True(t, m.AverageVolume.GreaterThanOrEqual(minVol), "average volume %s below min %s", m.AverageVolume, minVol)
		assert.True(t, m.AverageVolume.LessThanOrEqual(maxVol), "average volume %s above max %s", m.AverageVolume, maxVol)
		assert.False(t, m.Opening.IsZero())
	}
}

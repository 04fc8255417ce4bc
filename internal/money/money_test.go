package money

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLegacyPrice(t *testing.T) {
	assert.Equal(t, Centavos(1500), FromLegacyPrice(150))
	assert.Equal(t, Centavos(125), FromLegacyPrice(12.5))
	assert.Equal(t, 150.0, Centavos(1500).LegacyPrice())
	assert.Equal(t, 15.0, Centavos(1500).Pesos())
}

func TestPercentRounding(t *testing.T) {
	tests := []struct {
		in   Centavos
		want Centavos
	}{
		{3000, 360},
		{1, 0},
		{5, 1},  // 0.6 rounds up
		{4, 0},  // 0.48 rounds down
		{-5, -1},
		{12345, 1481}, // 1481.4
	}
	for _, tt := range tests {
		got, ok := tt.in.Percent(12)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "Percent(%d)", tt.in)
	}
}

func TestArithmeticOverflow(t *testing.T) {
	v, ok := Centavos(1500).Times(3)
	assert.True(t, ok)
	assert.Equal(t, Centavos(4500), v)

	_, ok = Centavos(1500).Times(math.MaxInt64 / 1000)
	assert.False(t, ok)
	_, ok = Centavos(-1).Times(2)
	assert.False(t, ok)

	_, ok = Centavos(math.MaxInt64 - 1).Plus(2)
	assert.False(t, ok)
	v, ok = Centavos(100).Plus(-40)
	assert.True(t, ok)
	assert.Equal(t, Centavos(60), v)

	_, ok = Centavos(math.MaxInt64 / 10).Percent(12)
	assert.False(t, ok)
	_, ok = Centavos(math.MinInt64).Percent(12)
	assert.False(t, ok)
}

func TestStringAndJSON(t *testing.T) {
	assert.Equal(t, "33.60", Centavos(3360).String())
	assert.Equal(t, "0.05", Centavos(5).String())
	assert.Equal(t, "-1.20", Centavos(-120).String())

	out, err := json.Marshal(map[string]Centavos{"total": 3360})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total": 33.60}`, string(out))
	assert.Contains(t, string(out), "33.60")
}

package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireDecimal сравнивает значение с ожидаемой десятичной строкой.
func requireDecimal(t *testing.T, want string, got decimal.Decimal, name string) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"%s = %s, want %s", name, got.String(), want)
}

func TestFutureValue(t *testing.T) {
	rate := decimal.RequireFromString("0.0004")

	t.Run("compounds daily", func(t *testing.T) {
		got := FutureValue(decimal.RequireFromString("857143.20"), rate, 10)
		requireDecimal(t, "860577.95", got, "FutureValue")
	})

	t.Run("zero days returns principal", func(t *testing.T) {
		pv := decimal.RequireFromString("1000.00")
		assert.True(t, FutureValue(pv, rate, 0).Equal(pv))
	})

	t.Run("negative days returns principal", func(t *testing.T) {
		pv := decimal.RequireFromString("1000.00")
		assert.True(t, FutureValue(pv, rate, -5).Equal(pv))
	})

	t.Run("zero principal returns principal", func(t *testing.T) {
		assert.True(t, FutureValue(decimal.Zero, rate, 30).IsZero())
	})

	t.Run("negative principal untouched", func(t *testing.T) {
		pv := decimal.RequireFromString("-100")
		assert.True(t, FutureValue(pv, rate, 30).Equal(pv))
	})

	t.Run("grows with days", func(t *testing.T) {
		pv := decimal.NewFromInt(100000)
		prev := pv
		for _, days := range []int{1, 10, 30, 90} {
			fv := FutureValue(pv, rate, days)
			assert.True(t, fv.GreaterThan(prev), "FV(%d) = %s must exceed %s", days, fv, prev)
			prev = fv
		}
	})
}

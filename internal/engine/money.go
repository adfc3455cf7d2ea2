package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// Точность ключей распределения. Денежные значения квантуются до копеек в
// именованных точках конвейера, ключи держатся на 12 знаках, чтобы не
// накапливать дрейф при распределении сумм уровня КП.
const keyPrecision = 12

// cents квантует денежное значение до копеек (половина — от нуля).
func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// pctOf возвращает pct процентов от base.
func pctOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// onePlusPct возвращает множитель (1 + pct/100).
func onePlusPct(pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
}

// oneMinusPct возвращает множитель (1 - pct/100).
func oneMinusPct(pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Sub(pct.Div(decimal.NewFromInt(100)))
}

// FutureValue считает наращенную сумму principal за days дней под дневную
// ставку dailyRate: FV = PV * (1+r)^days. Вырожденные случаи (неположительный
// срок или основная сумма) возвращают principal без изменений.
//
// Возведение в степень идет через float64 — это единственное место, где
// точное десятичное представление теряется; результат немедленно квантуется
// до копеек.
func FutureValue(principal, dailyRate decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || principal.Sign() <= 0 {
		return principal
	}
	rate, _ := dailyRate.Float64()
	factor := math.Pow(1+rate, float64(days))
	return cents(principal.Mul(decimal.NewFromFloat(factor)))
}

package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func financingDefaults(advancePct int64) QuoteDefaults {
	return QuoteDefaults{
		AdvancePct:         decimal.NewFromInt(advancePct),
		DaysToAdvance:      0,
		DeliveryDays:       45,
		DaysToFinalPayment: 30,
	}
}

func TestSupplierFinancingAdvanceSweep(t *testing.T) {
	// Рост аванса клиента строго уменьшает проценты по финансированию;
	// при 100% авансе и нулевом сроке до аванса проценты ровно нулевые.
	totals := QuoteTotals{
		TotalBasePurchase: decimal.RequireFromString("857143.20"),
		TotalSaleBase:     decimal.RequireFromString("900000.36"),
	}
	keys := []decimal.Decimal{decimal.NewFromInt(1)}
	admin := AdminSettings{DailyInterestRate: decimal.RequireFromString("0.0004")}

	expected := map[int64]string{
		0:   "26098.60",
		25:  "19573.95",
		50:  "13049.30",
		75:  "6524.65",
		100: "0.00",
	}

	prev := decimal.RequireFromString("999999999")
	for _, advance := range []int64{0, 25, 50, 75, 100} {
		summary, _ := Distribute(totals, keys, financingDefaults(advance), admin)
		requireDecimal(t, expected[advance], summary.FinancingInterest, "financing interest")
		assert.True(t, summary.FinancingInterest.LessThan(prev),
			"interest must strictly decrease, advance=%d", advance)
		prev = summary.FinancingInterest
	}
}

func TestSupplierFinancingTwoStages(t *testing.T) {
	totals := QuoteTotals{TotalBasePurchase: decimal.RequireFromString("857143.20")}
	keys := []decimal.Decimal{decimal.NewFromInt(1)}
	admin := AdminSettings{DailyInterestRate: decimal.RequireFromString("0.0004")}

	defaults := QuoteDefaults{
		AdvancePct:         decimal.NewFromInt(50),
		DaysToAdvance:      10,
		DeliveryDays:       45,
		DaysToFinalPayment: 30,
	}

	summary, distributed := Distribute(totals, keys, defaults, admin)

	requireDecimal(t, "428571.60", summary.ClientAdvance, "client advance")
	requireDecimal(t, "860577.95", summary.SupplierPayment, "stage-1 future value")
	requireDecimal(t, "14811.90", summary.FinancingInterest, "financing interest")
	require.Len(t, distributed, 1)
	requireDecimal(t, "14811.90", distributed[0].FinancingShare, "single product takes all")
}

func TestSupplierFinancingDegenerateStages(t *testing.T) {
	totals := QuoteTotals{TotalBasePurchase: decimal.NewFromInt(500000)}
	keys := []decimal.Decimal{decimal.NewFromInt(1)}
	admin := AdminSettings{DailyInterestRate: decimal.RequireFromString("0.0004")}

	t.Run("zero day counts", func(t *testing.T) {
		summary, _ := Distribute(totals, keys, QuoteDefaults{AdvancePct: decimal.NewFromInt(30)}, admin)
		assert.True(t, summary.FinancingInterest.IsZero())
	})

	t.Run("negative stage-2 window", func(t *testing.T) {
		d := QuoteDefaults{
			AdvancePct:         decimal.NewFromInt(30),
			DaysToAdvance:      60,
			DeliveryDays:       10,
			DaysToFinalPayment: 20,
		}
		summary, _ := Distribute(totals, keys, d, admin)
		// Остается только этап 1.
		stage1 := FutureValue(totals.TotalBasePurchase, admin.DailyInterestRate, 60)
		assert.True(t, summary.FinancingInterest.Equal(stage1.Sub(totals.TotalBasePurchase)))
	})

	t.Run("zero principal", func(t *testing.T) {
		summary, _ := Distribute(QuoteTotals{}, keys, financingDefaults(50), admin)
		assert.True(t, summary.FinancingInterest.IsZero())
	})
}

func TestCreditSalesInterest(t *testing.T) {
	totals := QuoteTotals{
		TotalBasePurchase: decimal.RequireFromString("857143.20"),
		TotalSaleBase:     decimal.RequireFromString("900000.36"),
	}
	keys := []decimal.Decimal{decimal.NewFromInt(1)}
	admin := AdminSettings{DailyInterestRate: decimal.RequireFromString("0.0004")}

	defaults := QuoteDefaults{
		CreditSharePct: decimal.NewFromInt(30),
		CreditDays:     30,
	}

	summary, distributed := Distribute(totals, keys, defaults, admin)

	requireDecimal(t, "270000.11", summary.CreditPrincipal, "credit principal")
	requireDecimal(t, "3258.86", summary.CreditInterest, "credit interest")
	requireDecimal(t, "3258.86", distributed[0].CreditShare, "credit share")
}

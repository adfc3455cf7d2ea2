package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDefaults — условия референсного КП: поставка DDP, продавец РФ,
// закупка в Турции, аванс 50%, кредит 30% на 30 дней.
func scenarioDefaults() QuoteDefaults {
	return QuoteDefaults{
		Currency:            "USD",
		ExchangeRate:        decimal.RequireFromString("71.4286"),
		SupplierDiscountPct: decimal.Zero,
		SupplierCountry:     CountryTR,

		LogisticsSupplierToHub:   decimal.NewFromInt(30000),
		LogisticsHubToCustoms:    decimal.NewFromInt(18000),
		LogisticsCustomsToClient: decimal.NewFromInt(32000),
		InsuranceCost:            decimal.NewFromInt(7000),
		BrokerageCost:            decimal.NewFromInt(4500),
		WarehouseCost:            decimal.NewFromInt(6000),
		PackagingCost:            decimal.NewFromInt(2500),

		Incoterms:           IncotermsDDP,
		SaleType:            SaleSupply,
		CustomsDutyPct:      decimal.NewFromInt(4),
		CustomsClearanceFee: decimal.NewFromInt(10000),

		AdvancePct:         decimal.NewFromInt(50),
		DaysToAdvance:      10,
		DeliveryDays:       45,
		DaysToFinalPayment: 30,
		CreditDays:         30,
		CreditSharePct:     decimal.NewFromInt(30),

		MarginPct:  decimal.NewFromInt(7),
		DMFeeMode:  DMFeePercent,
		DMFeeValue: decimal.NewFromInt(1),
	}
}

func scenarioInput(seller string, products ...ProductLine) QuoteInput {
	return QuoteInput{
		QuoteDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DeliveryDate:  time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		SellerCompany: seller,
		ClientName:    "АО Заказчик",
		QuoteCurrency: "RUB",
		Defaults:      scenarioDefaults(),
		Products:      products,
	}
}

func pumpLine(price int64) ProductLine {
	return ProductLine{
		SKU:       "PUMP-100",
		Name:      "Насос центробежный",
		Quantity:  decimal.NewFromInt(10),
		UnitPrice: decimal.NewFromInt(price),
	}
}

func TestCalculateSingleProductSupplyDDP(t *testing.T) {
	input := scenarioInput("rustechsnab", pumpLine(1200))
	result, err := Calculate(input, validAdmin())
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Empty(t, result.Warnings)

	p := result.Products[0]
	requireDecimal(t, "857143.20", p.BasePurchasePrice, "base purchase price")
	requireDecimal(t, "900000.36", p.InternalSaleBase, "internal sale base")
	requireDecimal(t, "1", p.DistributionKey, "distribution key")
	requireDecimal(t, "100000.00", p.LogisticsShare, "logistics share")
	requireDecimal(t, "14811.90", p.FinancingShare, "financing share")
	requireDecimal(t, "3258.86", p.CreditShare, "credit share")
	requireDecimal(t, "46205.73", p.CustomsFee, "customs fee")
	requireDecimal(t, "1021419.69", p.COGS, "cogs")
	requireDecimal(t, "20000.01", p.AgentFee, "agent fee")
	requireDecimal(t, "20", p.VATRatePct, "vat rate")
	requireDecimal(t, "1123133.28", p.SaleExVAT, "sale price ex VAT")
	requireDecimal(t, "1347759.94", p.SaleIncVAT, "sale price inc VAT")
	requireDecimal(t, "71499.38", p.Profit, "profit")

	s := result.Summary
	requireDecimal(t, "857143.20", s.TotalBasePurchase, "total base")
	requireDecimal(t, "428571.60", s.ClientAdvance, "client advance")
	requireDecimal(t, "14811.90", s.FinancingInterest, "financing interest")
	requireDecimal(t, "3258.86", s.CreditInterest, "credit interest")
	requireDecimal(t, "1347759.94", s.TotalSaleIncVAT, "summary total matches product")
}

func TestCalculateTwoProductQuote(t *testing.T) {
	second := pumpLine(1650)
	second.SKU = "PUMP-200"
	second.Name = "Насос повышенной мощности"

	input := scenarioInput("rustechsnab", pumpLine(1200), second)
	// КП крупнее — логистика и оформление дороже.
	input.Defaults.LogisticsSupplierToHub = decimal.NewFromInt(65000)
	input.Defaults.LogisticsHubToCustoms = decimal.NewFromInt(40000)
	input.Defaults.LogisticsCustomsToClient = decimal.NewFromInt(70000)
	input.Defaults.InsuranceCost = decimal.NewFromInt(15000)
	input.Defaults.BrokerageCost = decimal.NewFromInt(10000)
	input.Defaults.WarehouseCost = decimal.NewFromInt(13000)
	input.Defaults.PackagingCost = decimal.NewFromInt(7000)
	input.Defaults.CustomsClearanceFee = decimal.NewFromInt(25000)

	result, err := Calculate(input, validAdmin())
	require.NoError(t, err)
	require.Len(t, result.Products, 2)

	first, secondRes := result.Products[0], result.Products[1]
	requireDecimal(t, "857143.20", first.BasePurchasePrice, "first base")
	requireDecimal(t, "1178571.90", secondRes.BasePurchasePrice, "second base")
	requireDecimal(t, "0.421052631579", first.DistributionKey, "first key")
	requireDecimal(t, "0.578947368421", secondRes.DistributionKey, "second key")

	// Проценты по финансированию считаются один раз на КП и делятся по ключам.
	requireDecimal(t, "35178.27", result.Summary.FinancingInterest, "quote financing interest")
	requireDecimal(t, "14811.90", first.FinancingShare, "first financing share")
	requireDecimal(t, "20366.37", secondRes.FinancingShare, "second financing share")

	requireDecimal(t, "1338519.28", first.SaleIncVAT, "first final price")
	requireDecimal(t, "1840464.00", secondRes.SaleIncVAT, "second final price")

	combined := first.SaleIncVAT.Add(secondRes.SaleIncVAT)
	requireDecimal(t, "3178983.28", combined, "combined quote total")
	assert.True(t, combined.Equal(result.Summary.TotalSaleIncVAT),
		"per-product sum must match separately accumulated quote total")
}

func TestCalculateSellerRegionSwap(t *testing.T) {
	// Одинаковые товары и условия; меняется только компания-продавец.
	ru, err := Calculate(scenarioInput("rustechsnab", pumpLine(1200)), validAdmin())
	require.NoError(t, err)
	tr, err := Calculate(scenarioInput("anadolu-tedarik", pumpLine(1200)), validAdmin())
	require.NoError(t, err)

	ruRes, trRes := ru.Products[0], tr.Products[0]

	// Закупка идентична, дешевле делают нулевая комиссия агента и
	// пониженная внутренняя наценка.
	requireDecimal(t, "857143.20", trRes.BasePurchasePrice, "same base either side")
	assert.True(t, trRes.AgentFee.IsZero())
	assert.True(t, ruRes.AgentFee.GreaterThan(decimal.Zero))
	assert.True(t, trRes.MarkupPct.LessThan(ruRes.MarkupPct))

	requireDecimal(t, "1102982.43", trRes.SaleExVAT, "TR sale ex VAT")
	assert.True(t, trRes.SaleExVAT.LessThan(ruRes.SaleExVAT),
		"TR ex-VAT price must undercut RU for shared inputs")
	assert.True(t, trRes.SaleIncVAT.LessThan(ruRes.SaleIncVAT))
}

func TestCalculateDeterministic(t *testing.T) {
	second := pumpLine(1650)
	second.SKU = "PUMP-200"
	input := scenarioInput("rustechsnab", pumpLine(1200), second)

	first, err := Calculate(input, validAdmin())
	require.NoError(t, err)
	again, err := Calculate(input, validAdmin())
	require.NoError(t, err)

	require.Equal(t, len(first.Products), len(again.Products))
	for i := range first.Products {
		a, b := first.Products[i].Values(), again.Products[i].Values()
		for name, v := range a {
			assert.True(t, v.Equal(b[name]), "%s differs between runs", name)
		}
	}
	assert.True(t, first.Summary.TotalSaleIncVAT.Equal(again.Summary.TotalSaleIncVAT))
}

func TestCalculateValidationFailureProducesNoPartialResult(t *testing.T) {
	input := scenarioInput("rustechsnab", pumpLine(1200))
	input.Products[0].Quantity = decimal.NewFromInt(-1)

	result, err := Calculate(input, validAdmin())
	require.Error(t, err)
	assert.Nil(t, result)
}

package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func finalizeFixture() (ResolvedParams, ProductBase, ProductDistributed) {
	params := ResolvedParams{
		SKU:                "PUMP-100",
		Quantity:           decimal.NewFromInt(10),
		SupplierCountry:    CountryTR,
		Incoterms:          IncotermsDDP,
		SaleType:           SaleSupply,
		CustomsDutyPct:     decimal.NewFromInt(4),
		MarginPct:          decimal.NewFromInt(7),
		DMFeeMode:          DMFeePercent,
		DMFeeValue:         decimal.NewFromInt(1),
		SellerRegion:       RegionRU,
		DeliveryDate:       time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		AgentCommissionPct: decimal.NewFromInt(2),
	}
	base := ProductBase{
		SKU:               "PUMP-100",
		BasePurchasePrice: decimal.RequireFromString("857143.20"),
		InternalSaleBase:  decimal.RequireFromString("900000.36"),
		MarkupPct:         decimal.NewFromInt(5),
	}
	dist := ProductDistributed{
		Key:                  decimal.NewFromInt(1),
		SupplierToHubShare:   decimal.NewFromInt(30000),
		HubToCustomsShare:    decimal.NewFromInt(18000),
		CustomsToClientShare: decimal.NewFromInt(32000),
		InsuranceShare:       decimal.NewFromInt(7000),
		BrokerageShare:       decimal.NewFromInt(4500),
		WarehouseShare:       decimal.NewFromInt(6000),
		PackagingShare:       decimal.NewFromInt(2500),
		ClearanceShare:       decimal.NewFromInt(10000),
		FinancingShare:       decimal.RequireFromString("14811.90"),
		CreditShare:          decimal.RequireFromString("3258.86"),
	}
	return params, base, dist
}

func TestFinalizeSupplyDDP(t *testing.T) {
	params, base, dist := finalizeFixture()

	r := Finalize(params, base, dist)

	requireDecimal(t, "905143.20", r.CustomsValue, "customs value")
	requireDecimal(t, "46205.73", r.CustomsFee, "customs fee")
	requireDecimal(t, "190269.79", r.ImportVAT, "import VAT")
	requireDecimal(t, "1021419.69", r.COGS, "cogs")
	requireDecimal(t, "20000.01", r.AgentFee, "agent fee")
	requireDecimal(t, "10214.20", r.DMFee, "dm fee")
	requireDecimal(t, "71499.38", r.Margin, "margin")
	requireDecimal(t, "1123133.28", r.SaleExVAT, "sale ex VAT")
	requireDecimal(t, "1347759.94", r.SaleIncVAT, "sale inc VAT")
	requireDecimal(t, "71499.38", r.Profit, "profit")
	assert.True(t, r.TransitCommission.IsZero())
}

func TestFinalizeDAPZeroesCustoms(t *testing.T) {
	params, base, dist := finalizeFixture()
	params.Incoterms = IncotermsDAP

	r := Finalize(params, base, dist)

	assert.True(t, r.CustomsFee.IsZero(), "customs fee must be zero for DAP")
	assert.True(t, r.ImportVAT.IsZero(), "import VAT must be zero for DAP")
}

func TestFinalizeExportZeroing(t *testing.T) {
	params, base, dist := finalizeFixture()
	params.SaleType = SaleExport
	params.ExcisePerUnit = decimal.NewFromInt(500)

	r := Finalize(params, base, dist)

	assert.True(t, r.CustomsFee.IsZero(), "no import, no customs fee")
	assert.True(t, r.ImportVAT.IsZero(), "no import VAT")
	assert.True(t, r.Excise.IsZero(), "no excise on export")
	assert.True(t, r.AgentFee.IsZero(), "financial agent fee forced to zero")
}

func TestFinalizeAgentFeeZeroing(t *testing.T) {
	t.Run("turkish seller", func(t *testing.T) {
		params, base, dist := finalizeFixture()
		params.SellerRegion = RegionTR

		r := Finalize(params, base, dist)
		assert.True(t, r.AgentFee.IsZero())
	})

	t.Run("export sale", func(t *testing.T) {
		params, base, dist := finalizeFixture()
		params.SaleType = SaleExport

		r := Finalize(params, base, dist)
		assert.True(t, r.AgentFee.IsZero())
	})

	t.Run("russian supply keeps fee", func(t *testing.T) {
		params, base, dist := finalizeFixture()

		r := Finalize(params, base, dist)
		assert.True(t, r.AgentFee.GreaterThan(decimal.Zero))
	})
}

func TestFinalizeTransitUsesRawBase(t *testing.T) {
	params, base, dist := finalizeFixture()
	params.SaleType = SaleTransit
	params.TransitCommissionPct = decimal.NewFromInt(3)

	r := Finalize(params, base, dist)

	// Маржа транзита считается от сырой закупки, не от себестоимости.
	requireDecimal(t, "60000.02", r.Margin, "transit margin: 7% of raw base")
	requireDecimal(t, "25714.30", r.TransitCommission, "transit commission: 3% of raw base")

	supply := Finalize(func() ResolvedParams { p, _, _ := finalizeFixture(); return p }(), base, dist)
	assert.True(t, r.Margin.LessThan(supply.Margin),
		"transit margin base must be below fully loaded cogs base")
}

func TestFinalizeDMFeeModes(t *testing.T) {
	t.Run("percent of cogs", func(t *testing.T) {
		params, base, dist := finalizeFixture()
		r := Finalize(params, base, dist)
		requireDecimal(t, "10214.20", r.DMFee, "1% of cogs")
	})

	t.Run("fixed split by key", func(t *testing.T) {
		params, base, dist := finalizeFixture()
		params.DMFeeMode = DMFeeFixed
		params.DMFeeValue = decimal.NewFromInt(50000)
		dist.Key = decimal.RequireFromString("0.25")

		r := Finalize(params, base, dist)
		requireDecimal(t, "12500.00", r.DMFee, "fixed fee share")
	})
}

func TestVATRateCalendarCliff(t *testing.T) {
	dec31 := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	requireDecimal(t, "20", VATRatePct(RegionRU, dec31), "RU before cliff")
	requireDecimal(t, "22", VATRatePct(RegionRU, jan1), "RU from cliff on")
	requireDecimal(t, "0", VATRatePct(RegionTR, dec31), "TR before")
	requireDecimal(t, "0", VATRatePct(RegionTR, jan1), "TR after")
	requireDecimal(t, "13", VATRatePct(RegionCN, jan1), "CN fixed")
	requireDecimal(t, "12", VATRatePct(RegionKZ, dec31), "KZ fixed")
}

func TestComputeBaseMarkupLookupMiss(t *testing.T) {
	params := ResolvedParams{
		SKU:             "X-1",
		Quantity:        decimal.NewFromInt(1),
		UnitPrice:       decimal.NewFromInt(100),
		ExchangeRate:    decimal.NewFromInt(90),
		SupplierCountry: SupplierCountry("BR"),
		SellerRegion:    RegionRU,
	}

	base, warnings := ComputeBase(params)

	// Промах по матрице — наценка 0% и предупреждение, не ошибка.
	assert.True(t, base.MarkupPct.IsZero())
	assert.True(t, base.InternalSaleBase.Equal(base.BasePurchasePrice))
	assert.Len(t, warnings, 1)
	assert.Equal(t, "internal_markup", warnings[0].Field)
}

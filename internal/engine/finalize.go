package engine

import "github.com/shopspring/decimal"

// ProductResult — итог расчета одной позиции. Неизменяем; каждое значение
// воспроизводимо из соседних без скрытого состояния.
type ProductResult struct {
	SKU      string
	Name     string
	Quantity decimal.Decimal

	BasePurchasePrice decimal.Decimal
	InternalSaleBase  decimal.Decimal
	MarkupPct         decimal.Decimal
	DistributionKey   decimal.Decimal

	LogisticsShare decimal.Decimal
	FinancingShare decimal.Decimal
	CreditShare    decimal.Decimal

	CustomsValue decimal.Decimal
	CustomsFee   decimal.Decimal
	Excise       decimal.Decimal
	ImportVAT    decimal.Decimal

	COGS              decimal.Decimal
	AgentFee          decimal.Decimal
	TransitCommission decimal.Decimal
	DMFee             decimal.Decimal
	Margin            decimal.Decimal

	VATRatePct decimal.Decimal
	SaleExVAT  decimal.Decimal
	SaleIncVAT decimal.Decimal
	Profit     decimal.Decimal
}

// Values разворачивает результат в плоскую карту имя-значение для экспорта
// и сохранения: потребителю не нужно знать фазовую структуру расчета.
func (r ProductResult) Values() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"base_purchase_price": r.BasePurchasePrice,
		"internal_sale_base":  r.InternalSaleBase,
		"markup_pct":          r.MarkupPct,
		"distribution_key":    r.DistributionKey,
		"logistics_share":     r.LogisticsShare,
		"financing_share":     r.FinancingShare,
		"credit_share":        r.CreditShare,
		"customs_value":       r.CustomsValue,
		"customs_fee":         r.CustomsFee,
		"excise":              r.Excise,
		"import_vat":          r.ImportVAT,
		"cogs":                r.COGS,
		"agent_fee":           r.AgentFee,
		"transit_commission":  r.TransitCommission,
		"dm_fee":              r.DMFee,
		"margin":              r.Margin,
		"vat_rate_pct":        r.VATRatePct,
		"sale_ex_vat":         r.SaleExVAT,
		"sale_inc_vat":        r.SaleIncVAT,
		"profit":              r.Profit,
	}
}

// ProductResultFromValues восстанавливает результат позиции из плоской
// карты, обратно к Values. Отсутствующие ключи дают нулевые значения.
func ProductResultFromValues(sku, name string, quantity decimal.Decimal, values map[string]decimal.Decimal) ProductResult {
	return ProductResult{
		SKU:      sku,
		Name:     name,
		Quantity: quantity,

		BasePurchasePrice: values["base_purchase_price"],
		InternalSaleBase:  values["internal_sale_base"],
		MarkupPct:         values["markup_pct"],
		DistributionKey:   values["distribution_key"],

		LogisticsShare: values["logistics_share"],
		FinancingShare: values["financing_share"],
		CreditShare:    values["credit_share"],

		CustomsValue: values["customs_value"],
		CustomsFee:   values["customs_fee"],
		Excise:       values["excise"],
		ImportVAT:    values["import_vat"],

		COGS:              values["cogs"],
		AgentFee:          values["agent_fee"],
		TransitCommission: values["transit_commission"],
		DMFee:             values["dm_fee"],
		Margin:            values["margin"],

		VATRatePct: values["vat_rate_pct"],
		SaleExVAT:  values["sale_ex_vat"],
		SaleIncVAT: values["sale_inc_vat"],
		Profit:     values["profit"],
	}
}

// Finalize применяет таможенные, налоговые и комиссионные формулы к позиции
// и выдает конечную цену.
//
// Ветвление закрытое: тип сделки меняет базу цены (транзит считается от
// сырой закупки, не от себестоимости), экспорт обнуляет пошлину, акциз,
// импортный НДС и вознаграждение фин. агента; пошлина и импортный НДС
// начисляются только при DDP. Вознаграждение фин. агента также обнуляется
// для турецкого продавца. Импортный НДС — возмещаемый входной налог, в
// себестоимость не входит и отражается отдельной величиной.
func Finalize(p ResolvedParams, base ProductBase, dist ProductDistributed) ProductResult {
	ddp := p.Incoterms == IncotermsDDP
	export := p.SaleType == SaleExport

	vatRate := VATRatePct(p.SellerRegion, p.DeliveryDate)

	customsValue := cents(base.BasePurchasePrice.
		Add(dist.SupplierToHubShare).
		Add(dist.HubToCustomsShare))

	customsFee := decimal.Zero
	importVAT := decimal.Zero
	excise := decimal.Zero
	if !export {
		excise = cents(p.ExcisePerUnit.Mul(p.Quantity))
	}
	if ddp && !export {
		customsFee = cents(pctOf(customsValue, p.CustomsDutyPct)).Add(dist.ClearanceShare)
		importVAT = cents(pctOf(customsValue.Add(customsFee).Add(excise), vatRate))
	}

	logistics := dist.LogisticsShare()
	cogs := cents(base.BasePurchasePrice.
		Add(logistics).
		Add(dist.FinancingShare).
		Add(dist.CreditShare).
		Add(customsFee).
		Add(excise).
		Add(dist.CertificationShare))

	agentFee := decimal.Zero
	if p.SellerRegion != RegionTR && !export {
		agentFee = cents(pctOf(base.InternalSaleBase.Add(logistics), p.AgentCommissionPct))
	}

	transitFee := decimal.Zero
	if p.SaleType == SaleTransit {
		transitFee = cents(pctOf(base.BasePurchasePrice, p.TransitCommissionPct))
	}

	var dmFee decimal.Decimal
	switch p.DMFeeMode {
	case DMFeeFixed:
		dmFee = cents(p.DMFeeValue.Mul(dist.Key))
	default:
		dmFee = cents(pctOf(cogs, p.DMFeeValue))
	}

	priceBase := cogs
	if p.SaleType == SaleTransit {
		priceBase = base.BasePurchasePrice
	}
	margin := cents(pctOf(priceBase, p.MarginPct))

	saleExVAT := cents(priceBase.
		Add(margin).
		Add(agentFee).
		Add(transitFee).
		Add(dmFee).
		Mul(oneMinusPct(p.ClientDiscountPct)))
	saleIncVAT := cents(saleExVAT.Mul(onePlusPct(vatRate)))
	profit := cents(saleExVAT.Sub(cogs).Sub(agentFee).Sub(dmFee))

	return ProductResult{
		SKU:      p.SKU,
		Name:     p.Name,
		Quantity: p.Quantity,

		BasePurchasePrice: base.BasePurchasePrice,
		InternalSaleBase:  base.InternalSaleBase,
		MarkupPct:         base.MarkupPct,
		DistributionKey:   dist.Key,

		LogisticsShare: logistics,
		FinancingShare: dist.FinancingShare,
		CreditShare:    dist.CreditShare,

		CustomsValue: customsValue,
		CustomsFee:   customsFee,
		Excise:       excise,
		ImportVAT:    importVAT,

		COGS:              cogs,
		AgentFee:          agentFee,
		TransitCommission: transitFee,
		DMFee:             dmFee,
		Margin:            margin,

		VATRatePct: vatRate,
		SaleExVAT:  saleExVAT,
		SaleIncVAT: saleIncVAT,
		Profit:     profit,
	}
}

package engine

import "github.com/shopspring/decimal"

// QuoteSummary — итоги уровня КП. Все значения считаются ровно один раз на
// расчет и распределяются по позициям через ключи; повторный пересчет на
// позицию исключен, чтобы не задвоить проценты.
type QuoteSummary struct {
	TotalBasePurchase decimal.Decimal
	TotalSaleBase     decimal.Decimal
	LogisticsTotal    decimal.Decimal
	ClientAdvance     decimal.Decimal
	SupplierPayment   decimal.Decimal // наращенная сумма платежа поставщику (этап 1)
	FinancingInterest decimal.Decimal
	CreditPrincipal   decimal.Decimal
	CreditInterest    decimal.Decimal

	// Заполняются финализатором.
	TotalCOGS       decimal.Decimal
	TotalSaleExVAT  decimal.Decimal
	TotalSaleIncVAT decimal.Decimal
	TotalProfit     decimal.Decimal
}

// ProductDistributed — доли позиции в суммах уровня КП.
type ProductDistributed struct {
	Key decimal.Decimal

	SupplierToHubShare   decimal.Decimal
	HubToCustomsShare    decimal.Decimal
	CustomsToClientShare decimal.Decimal
	InsuranceShare       decimal.Decimal
	BrokerageShare       decimal.Decimal
	WarehouseShare       decimal.Decimal
	PackagingShare       decimal.Decimal

	ClearanceShare     decimal.Decimal
	CertificationShare decimal.Decimal
	FinancingShare     decimal.Decimal
	CreditShare        decimal.Decimal
}

// LogisticsShare — суммарная логистическая доля позиции по всем семи
// статьям.
func (d ProductDistributed) LogisticsShare() decimal.Decimal {
	return d.SupplierToHubShare.
		Add(d.HubToCustomsShare).
		Add(d.CustomsToClientShare).
		Add(d.InsuranceShare).
		Add(d.BrokerageShare).
		Add(d.WarehouseShare).
		Add(d.PackagingShare)
}

// Distribute считает затраты уровня КП и раскладывает их по позициям.
//
// Финансирование поставщика двухэтапное: сначала вся сумма платежа
// наращивается за срок до аванса клиента, затем остаток после аванса — за
// оставшийся срок (доставка плюс отсрочка финального платежа минус срок
// аванса). Вырожденный этап (неположительный срок или остаток) дает ноль
// процентов без ошибки. Проценты по товарному кредиту — одноэтапное
// наращение доли продаж в кредит.
func Distribute(totals QuoteTotals, keys []decimal.Decimal, d QuoteDefaults, admin AdminSettings) (QuoteSummary, []ProductDistributed) {
	logisticsTotal := d.LogisticsSupplierToHub.
		Add(d.LogisticsHubToCustoms).
		Add(d.LogisticsCustomsToClient).
		Add(d.InsuranceCost).
		Add(d.BrokerageCost).
		Add(d.WarehouseCost).
		Add(d.PackagingCost)

	principal := totals.TotalBasePurchase
	advance := cents(pctOf(principal, d.AdvancePct))

	stage1 := FutureValue(principal, admin.DailyInterestRate, d.DaysToAdvance)
	stage1Interest := stage1.Sub(principal)

	stage2Principal := stage1.Sub(advance)
	stage2Days := d.DeliveryDays + d.DaysToFinalPayment - d.DaysToAdvance
	stage2 := FutureValue(stage2Principal, admin.DailyInterestRate, stage2Days)
	stage2Interest := stage2.Sub(stage2Principal)
	if stage2Interest.Sign() < 0 {
		stage2Interest = decimal.Zero
	}

	financing := cents(stage1Interest.Add(stage2Interest))

	creditPrincipal := cents(pctOf(totals.TotalSaleBase, d.CreditSharePct))
	credit := FutureValue(creditPrincipal, admin.DailyInterestRate, d.CreditDays).Sub(creditPrincipal)

	summary := QuoteSummary{
		TotalBasePurchase: totals.TotalBasePurchase,
		TotalSaleBase:     totals.TotalSaleBase,
		LogisticsTotal:    logisticsTotal,
		ClientAdvance:     advance,
		SupplierPayment:   stage1,
		FinancingInterest: financing,
		CreditPrincipal:   creditPrincipal,
		CreditInterest:    credit,
	}

	distributed := make([]ProductDistributed, len(keys))
	for i, key := range keys {
		distributed[i] = ProductDistributed{
			Key:                  key,
			SupplierToHubShare:   cents(d.LogisticsSupplierToHub.Mul(key)),
			HubToCustomsShare:    cents(d.LogisticsHubToCustoms.Mul(key)),
			CustomsToClientShare: cents(d.LogisticsCustomsToClient.Mul(key)),
			InsuranceShare:       cents(d.InsuranceCost.Mul(key)),
			BrokerageShare:       cents(d.BrokerageCost.Mul(key)),
			WarehouseShare:       cents(d.WarehouseCost.Mul(key)),
			PackagingShare:       cents(d.PackagingCost.Mul(key)),
			ClearanceShare:       cents(d.CustomsClearanceFee.Mul(key)),
			CertificationShare:   cents(d.CertificationCost.Mul(key)),
			FinancingShare:       cents(financing.Mul(key)),
			CreditShare:          cents(credit.Mul(key)),
		}
	}
	return summary, distributed
}

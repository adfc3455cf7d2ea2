package engine

import "github.com/shopspring/decimal"

// ProductBase — выход стадии 2 по одной позиции. BasePurchasePrice — цена
// закупки до логистики и таможни, InternalSaleBase — база продажи после
// внутренней наценки. Поля различны намеренно: финализатор выбирает одну
// из них в зависимости от типа сделки.
type ProductBase struct {
	SKU               string
	BasePurchasePrice decimal.Decimal
	InternalSaleBase  decimal.Decimal
	MarkupPct         decimal.Decimal
}

// ComputeBase считает базовые цены позиции: пересчет в валюту расчета по
// заданному курсу, скидка поставщика, валютный риск и внутренняя наценка по
// матрице (регион продавца × страна закупки). Промах по матрице — наценка
// 0% и предупреждение, не ошибка.
func ComputeBase(p ResolvedParams) (ProductBase, []Warning) {
	var warnings []Warning

	contract := cents(p.UnitPrice.Mul(p.Quantity).Mul(oneMinusPct(p.SupplierDiscountPct)))
	converted := cents(contract.Mul(p.ExchangeRate))
	basePurchase := cents(converted.Mul(onePlusPct(p.FXRiskPct)))

	markup, ok := InternalMarkupPct(p.SellerRegion, p.SupplierCountry)
	if !ok {
		warnings = append(warnings, Warning{
			SKU:     p.SKU,
			Field:   "internal_markup",
			Message: "no internal markup configured for seller region and supplier country, using 0%",
		})
	}
	saleBase := cents(basePurchase.Mul(onePlusPct(markup)))

	return ProductBase{
		SKU:               p.SKU,
		BasePurchasePrice: basePurchase,
		InternalSaleBase:  saleBase,
		MarkupPct:         markup,
	}, warnings
}

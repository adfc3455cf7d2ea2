package engine

import "github.com/shopspring/decimal"

// QuoteTotals — итоги стадии 3: суммы баз по всем позициям КП. Считаются
// ровно один раз; стадии 4-5 только читают их.
type QuoteTotals struct {
	TotalBasePurchase decimal.Decimal
	TotalSaleBase     decimal.Decimal
}

// Aggregate суммирует базы позиций и считает ключ распределения каждой:
// доля базы закупки позиции в общей базе КП. Сумма ключей равна единице в
// пределах точности keyPrecision.
//
// Нулевая общая база (все позиции бесплатные) распределяется поровну, 1/N
// на позицию — деление на ноль исключено, расчет остается тотальным.
// Допущение равного сплита не подтверждено бизнесом и ждет решения
// владельца продукта.
func Aggregate(bases []ProductBase) (QuoteTotals, []decimal.Decimal) {
	totals := QuoteTotals{
		TotalBasePurchase: decimal.Zero,
		TotalSaleBase:     decimal.Zero,
	}
	for _, b := range bases {
		totals.TotalBasePurchase = totals.TotalBasePurchase.Add(b.BasePurchasePrice)
		totals.TotalSaleBase = totals.TotalSaleBase.Add(b.InternalSaleBase)
	}

	keys := make([]decimal.Decimal, len(bases))
	if totals.TotalBasePurchase.IsZero() {
		if len(bases) > 0 {
			equal := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(int64(len(bases))), keyPrecision)
			for i := range keys {
				keys[i] = equal
			}
		}
		return totals, keys
	}

	for i, b := range bases {
		keys[i] = b.BasePurchasePrice.DivRound(totals.TotalBasePurchase, keyPrecision)
	}
	return totals, keys
}

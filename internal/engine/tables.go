package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// sellerRegions — закрытый справочник компаний-продавцов. Код компании
// однозначно определяет юрисдикцию; неизвестный код — ошибка валидации.
var sellerRegions = map[string]SellerRegion{
	"rustechsnab":     RegionRU,
	"volga-impex":     RegionRU,
	"uraltorgmash":    RegionRU,
	"anadolu-tedarik": RegionTR,
	"astana-supply":   RegionKZ,
	"shanghai-trade":  RegionCN,
}

// SellerRegionFor возвращает регион компании-продавца.
func SellerRegionFor(company string) (SellerRegion, bool) {
	region, ok := sellerRegions[company]
	return region, ok
}

// markupMatrix — внутренняя наценка, % по паре (регион продавца, страна
// закупки). Турецкий продавец работает с почти нулевой наценкой по любой
// стране. Промах по матрице трактуется как 0% с предупреждением, не как
// ошибка.
var markupMatrix = map[SellerRegion]map[SupplierCountry]decimal.Decimal{
	RegionRU: {
		CountryEU: decimal.NewFromInt(12),
		CountryTR: decimal.NewFromInt(5),
		CountryCN: decimal.NewFromInt(8),
		CountryRU: decimal.NewFromInt(3),
		CountryKZ: decimal.NewFromInt(4),
	},
	RegionTR: {
		CountryEU: decimal.NewFromFloat(0.5),
		CountryTR: decimal.NewFromFloat(0.5),
		CountryCN: decimal.NewFromFloat(0.5),
		CountryRU: decimal.NewFromFloat(0.5),
		CountryKZ: decimal.NewFromFloat(0.5),
	},
	RegionKZ: {
		CountryEU: decimal.NewFromInt(10),
		CountryTR: decimal.NewFromInt(4),
		CountryCN: decimal.NewFromInt(6),
		CountryRU: decimal.NewFromInt(3),
		CountryKZ: decimal.NewFromInt(2),
	},
	RegionCN: {
		CountryCN: decimal.NewFromInt(2),
		CountryEU: decimal.NewFromInt(7),
	},
}

// InternalMarkupPct возвращает наценку для пары регион/страна. Второй
// результат false означает промах по матрице.
func InternalMarkupPct(region SellerRegion, country SupplierCountry) (decimal.Decimal, bool) {
	row, ok := markupMatrix[region]
	if !ok {
		return decimal.Zero, false
	}
	pct, ok := row[country]
	if !ok {
		return decimal.Zero, false
	}
	return pct, true
}

// ruVATSwitch — дата перехода РФ с 20% на 22% НДС. Порог календарный и
// включающий: поставка 2026-01-01 уже облагается по 22%.
var ruVATSwitch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// VATRatePct возвращает ставку НДС, % по региону продавца и дате поставки.
// Для регионов вне РФ ставка фиксированная и от даты не зависит.
func VATRatePct(region SellerRegion, deliveryDate time.Time) decimal.Decimal {
	switch region {
	case RegionRU:
		if deliveryDate.Before(ruVATSwitch) {
			return decimal.NewFromInt(20)
		}
		return decimal.NewFromInt(22)
	case RegionTR:
		return decimal.Zero
	case RegionCN:
		return decimal.NewFromInt(13)
	case RegionKZ:
		return decimal.NewFromInt(12)
	default:
		return decimal.Zero
	}
}

// knownSupplierCountries и прочие закрытые наборы для валидации.
var knownSupplierCountries = map[SupplierCountry]struct{}{
	CountryEU: {}, CountryTR: {}, CountryCN: {}, CountryRU: {}, CountryKZ: {},
}

var knownSaleTypes = map[SaleType]struct{}{
	SaleSupply: {}, SaleTransit: {}, SaleExport: {},
}

var knownIncoterms = map[Incoterms]struct{}{
	IncotermsDDP: {}, IncotermsDAP: {},
}

var knownDMFeeModes = map[DMFeeMode]struct{}{
	DMFeeFixed: {}, DMFeePercent: {},
}

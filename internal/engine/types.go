package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleType определяет схему сделки и, как следствие, набор формул.
type SaleType string

const (
	SaleSupply  SaleType = "supply"  // Поставка
	SaleTransit SaleType = "transit" // Транзит
	SaleExport  SaleType = "export"  // Экспорт
)

// Incoterms — условия поставки. Закрытый набор: движок различает только
// DDP и DAP, прочие условия на расчет пошлин не влияют и не принимаются.
type Incoterms string

const (
	IncotermsDDP Incoterms = "DDP"
	IncotermsDAP Incoterms = "DAP"
)

// SellerRegion — юрисдикция компании-продавца, выводится из кода компании.
type SellerRegion string

const (
	RegionRU SellerRegion = "RU"
	RegionTR SellerRegion = "TR"
	RegionKZ SellerRegion = "KZ"
	RegionCN SellerRegion = "CN"
)

// SupplierCountry — страна закупки, ключ матрицы внутренней наценки.
type SupplierCountry string

const (
	CountryEU SupplierCountry = "EU"
	CountryTR SupplierCountry = "TR"
	CountryCN SupplierCountry = "CN"
	CountryRU SupplierCountry = "RU"
	CountryKZ SupplierCountry = "KZ"
)

// DMFeeMode выбирает способ расчета вознаграждения ДМ.
type DMFeeMode string

const (
	DMFeeFixed   DMFeeMode = "fixed"   // фиксированная сумма на КП
	DMFeePercent DMFeeMode = "percent" // процент от себестоимости
)

// AdminSettings — три ставки уровня организации. Задаются только
// привилегированной ролью и всегда перекрывают значения из КП и позиций.
type AdminSettings struct {
	FXRiskPct          decimal.Decimal // валютный риск, %
	AgentCommissionPct decimal.Decimal // комиссия фин. агента, %
	DailyInterestRate  decimal.Decimal // дневная ставка, доля (0.0004 = 0.04%/день)
}

// QuoteDefaults — значения параметров уровня КП. Каждое поле позиция может
// перекрыть через ProductOverrides; поля без переопределения наследуются.
type QuoteDefaults struct {
	// Закупка
	Currency            string
	ExchangeRate        decimal.Decimal
	SupplierDiscountPct decimal.Decimal
	SupplierCountry     SupplierCountry

	// Логистика (суммы уровня КП, распределяются по позициям)
	LogisticsSupplierToHub   decimal.Decimal
	LogisticsHubToCustoms    decimal.Decimal
	LogisticsCustomsToClient decimal.Decimal
	InsuranceCost            decimal.Decimal
	BrokerageCost            decimal.Decimal
	WarehouseCost            decimal.Decimal
	PackagingCost            decimal.Decimal

	// Таможня и налоги
	Incoterms           Incoterms
	SaleType            SaleType
	CustomsDutyPct      decimal.Decimal
	CustomsClearanceFee decimal.Decimal
	ExcisePerUnit       decimal.Decimal
	CertificationCost   decimal.Decimal

	// Финансирование и оплата
	AdvancePct         decimal.Decimal // аванс клиента, % [0,100]
	DaysToAdvance      int
	DeliveryDays       int
	DaysToFinalPayment int
	CreditDays         int
	CreditSharePct     decimal.Decimal

	// Коммерческие условия
	MarginPct            decimal.Decimal
	TransitCommissionPct decimal.Decimal
	DMFeeMode            DMFeeMode
	DMFeeValue           decimal.Decimal
	ClientDiscountPct    decimal.Decimal
}

// ProductOverrides — разреженный набор переопределений позиции. Нулевой
// указатель означает «наследовать значение КП»; каждое поле разрешается
// независимо от остальных.
type ProductOverrides struct {
	Currency             *string
	ExchangeRate         *decimal.Decimal
	SupplierDiscountPct  *decimal.Decimal
	SupplierCountry      *SupplierCountry
	CustomsDutyPct       *decimal.Decimal
	ExcisePerUnit        *decimal.Decimal
	MarginPct            *decimal.Decimal
	TransitCommissionPct *decimal.Decimal
	DMFeeMode            *DMFeeMode
	DMFeeValue           *decimal.Decimal
	ClientDiscountPct    *decimal.Decimal
}

// ProductLine — одна позиция КП. SKU, количество и цена задаются только
// здесь, это не переопределяемые значения по умолчанию.
type ProductLine struct {
	SKU       string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	WeightKg  decimal.Decimal
	Overrides *ProductOverrides
}

// QuoteInput — полный вход одного расчета: даты и идентичность КП, значения
// по умолчанию и упорядоченный список позиций.
type QuoteInput struct {
	QuoteDate     time.Time
	DeliveryDate  time.Time
	SellerCompany string
	ClientName    string
	QuoteCurrency string
	Defaults      QuoteDefaults
	Products      []ProductLine
}

// ResolvedParams — эффективные параметры одной позиции после слияния
// переопределений, значений КП и административных ставок. Неизменяемы.
type ResolvedParams struct {
	SKU       string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	WeightKg  decimal.Decimal

	Currency            string
	ExchangeRate        decimal.Decimal
	SupplierDiscountPct decimal.Decimal
	SupplierCountry     SupplierCountry

	Incoterms      Incoterms
	SaleType       SaleType
	CustomsDutyPct decimal.Decimal
	ExcisePerUnit  decimal.Decimal

	MarginPct            decimal.Decimal
	TransitCommissionPct decimal.Decimal
	DMFeeMode            DMFeeMode
	DMFeeValue           decimal.Decimal
	ClientDiscountPct    decimal.Decimal

	SellerRegion SellerRegion
	DeliveryDate time.Time

	// Административные ставки, продублированы для доступа на стадиях 2-5.
	FXRiskPct          decimal.Decimal
	AgentCommissionPct decimal.Decimal
	DailyInterestRate  decimal.Decimal
}

package server

import (
	"time"

	"github.com/shopspring/decimal"

	"kpcalc/internal/engine"
)

const dateLayout = "2006-01-02"

// quoteRequest — JSON-вход расчета. Денежные поля принимаются строками,
// числа с плавающей точкой на входе не допускаются.
type quoteRequest struct {
	OrgID         string `json:"org_id"`
	SellerCompany string `json:"seller_company"`
	ClientName    string `json:"client_name"`
	QuoteCurrency string `json:"quote_currency"`
	QuoteDate     string `json:"quote_date"`
	DeliveryDate  string `json:"delivery_date"`

	Defaults quoteDefaults `json:"defaults"`
	Products []productLine `json:"products"`
}

type quoteDefaults struct {
	Currency            string          `json:"currency"`
	ExchangeRate        decimal.Decimal `json:"exchange_rate"`
	SupplierDiscountPct decimal.Decimal `json:"supplier_discount_pct"`
	SupplierCountry     string          `json:"supplier_country"`

	LogisticsSupplierToHub   decimal.Decimal `json:"logistics_supplier_to_hub"`
	LogisticsHubToCustoms    decimal.Decimal `json:"logistics_hub_to_customs"`
	LogisticsCustomsToClient decimal.Decimal `json:"logistics_customs_to_client"`
	InsuranceCost            decimal.Decimal `json:"insurance_cost"`
	BrokerageCost            decimal.Decimal `json:"brokerage_cost"`
	WarehouseCost            decimal.Decimal `json:"warehouse_cost"`
	PackagingCost            decimal.Decimal `json:"packaging_cost"`

	Incoterms           string          `json:"incoterms"`
	SaleType            string          `json:"sale_type"`
	CustomsDutyPct      decimal.Decimal `json:"customs_duty_pct"`
	CustomsClearanceFee decimal.Decimal `json:"customs_clearance_fee"`
	ExcisePerUnit       decimal.Decimal `json:"excise_per_unit"`
	CertificationCost   decimal.Decimal `json:"certification_cost"`

	AdvancePct         decimal.Decimal `json:"advance_pct"`
	DaysToAdvance      int             `json:"days_to_advance"`
	DeliveryDays       int             `json:"delivery_days"`
	DaysToFinalPayment int             `json:"days_to_final_payment"`
	CreditDays         int             `json:"credit_days"`
	CreditSharePct     decimal.Decimal `json:"credit_share_pct"`

	MarginPct            decimal.Decimal `json:"margin_pct"`
	TransitCommissionPct decimal.Decimal `json:"transit_commission_pct"`
	DMFeeMode            string          `json:"dm_fee_mode"`
	DMFeeValue           decimal.Decimal `json:"dm_fee_value"`
	ClientDiscountPct    decimal.Decimal `json:"client_discount_pct"`
}

type productLine struct {
	SKU       string            `json:"sku"`
	Name      string            `json:"name"`
	Quantity  decimal.Decimal   `json:"quantity"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	WeightKg  decimal.Decimal   `json:"weight_kg"`
	Overrides *productOverrides `json:"overrides,omitempty"`
}

type productOverrides struct {
	Currency             *string          `json:"currency,omitempty"`
	ExchangeRate         *decimal.Decimal `json:"exchange_rate,omitempty"`
	SupplierDiscountPct  *decimal.Decimal `json:"supplier_discount_pct,omitempty"`
	SupplierCountry      *string          `json:"supplier_country,omitempty"`
	CustomsDutyPct       *decimal.Decimal `json:"customs_duty_pct,omitempty"`
	ExcisePerUnit        *decimal.Decimal `json:"excise_per_unit,omitempty"`
	MarginPct            *decimal.Decimal `json:"margin_pct,omitempty"`
	TransitCommissionPct *decimal.Decimal `json:"transit_commission_pct,omitempty"`
	DMFeeMode            *string          `json:"dm_fee_mode,omitempty"`
	DMFeeValue           *decimal.Decimal `json:"dm_fee_value,omitempty"`
	ClientDiscountPct    *decimal.Decimal `json:"client_discount_pct,omitempty"`
}

// toEngine переводит DTO во вход движка. Даты с неверным форматом
// собираются в список ошибок в том же виде, что и ошибки валидации
// движка; семантику значений проверяет сам движок.
func (q quoteRequest) toEngine() (engine.QuoteInput, engine.ValidationErrors) {
	var errs engine.ValidationErrors

	parseDate := func(field, raw string) time.Time {
		if raw == "" {
			errs = append(errs, engine.FieldError{
				Field:   field,
				Code:    engine.CodeRequired,
				Message: "дата обязательна",
			})
			return time.Time{}
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			errs = append(errs, engine.FieldError{
				Field:   field,
				Code:    engine.CodeUnknownEnum,
				Message: "ожидается дата в формате ГГГГ-ММ-ДД",
			})
			return time.Time{}
		}
		return t
	}

	input := engine.QuoteInput{
		QuoteDate:     parseDate("quote_date", q.QuoteDate),
		DeliveryDate:  parseDate("delivery_date", q.DeliveryDate),
		SellerCompany: q.SellerCompany,
		ClientName:    q.ClientName,
		QuoteCurrency: q.QuoteCurrency,
		Defaults:      q.Defaults.toEngine(),
	}

	for _, p := range q.Products {
		line := engine.ProductLine{
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			WeightKg:  p.WeightKg,
		}
		if p.Overrides != nil {
			line.Overrides = p.Overrides.toEngine()
		}
		input.Products = append(input.Products, line)
	}

	return input, errs
}

func (d quoteDefaults) toEngine() engine.QuoteDefaults {
	return engine.QuoteDefaults{
		Currency:            d.Currency,
		ExchangeRate:        d.ExchangeRate,
		SupplierDiscountPct: d.SupplierDiscountPct,
		SupplierCountry:     engine.SupplierCountry(d.SupplierCountry),

		LogisticsSupplierToHub:   d.LogisticsSupplierToHub,
		LogisticsHubToCustoms:    d.LogisticsHubToCustoms,
		LogisticsCustomsToClient: d.LogisticsCustomsToClient,
		InsuranceCost:            d.InsuranceCost,
		BrokerageCost:            d.BrokerageCost,
		WarehouseCost:            d.WarehouseCost,
		PackagingCost:            d.PackagingCost,

		Incoterms:           engine.Incoterms(d.Incoterms),
		SaleType:            engine.SaleType(d.SaleType),
		CustomsDutyPct:      d.CustomsDutyPct,
		CustomsClearanceFee: d.CustomsClearanceFee,
		ExcisePerUnit:       d.ExcisePerUnit,
		CertificationCost:   d.CertificationCost,

		AdvancePct:         d.AdvancePct,
		DaysToAdvance:      d.DaysToAdvance,
		DeliveryDays:       d.DeliveryDays,
		DaysToFinalPayment: d.DaysToFinalPayment,
		CreditDays:         d.CreditDays,
		CreditSharePct:     d.CreditSharePct,

		MarginPct:            d.MarginPct,
		TransitCommissionPct: d.TransitCommissionPct,
		DMFeeMode:            engine.DMFeeMode(d.DMFeeMode),
		DMFeeValue:           d.DMFeeValue,
		ClientDiscountPct:    d.ClientDiscountPct,
	}
}

func (o productOverrides) toEngine() *engine.ProductOverrides {
	out := &engine.ProductOverrides{
		Currency:             o.Currency,
		ExchangeRate:         o.ExchangeRate,
		SupplierDiscountPct:  o.SupplierDiscountPct,
		CustomsDutyPct:       o.CustomsDutyPct,
		ExcisePerUnit:        o.ExcisePerUnit,
		MarginPct:            o.MarginPct,
		TransitCommissionPct: o.TransitCommissionPct,
		DMFeeValue:           o.DMFeeValue,
		ClientDiscountPct:    o.ClientDiscountPct,
	}
	if o.SupplierCountry != nil {
		c := engine.SupplierCountry(*o.SupplierCountry)
		out.SupplierCountry = &c
	}
	if o.DMFeeMode != nil {
		m := engine.DMFeeMode(*o.DMFeeMode)
		out.DMFeeMode = &m
	}
	return out
}

// quoteResponse — JSON-ответ расчета: позиции с плоскими картами величин,
// итоги КП и предупреждения.
type quoteResponse struct {
	QuoteID  int64             `json:"quote_id,omitempty"`
	Products []productResponse `json:"products"`
	Summary  summaryResponse   `json:"summary"`
	Warnings []warningResponse `json:"warnings,omitempty"`
}

type productResponse struct {
	SKU      string                     `json:"sku"`
	Name     string                     `json:"name"`
	Quantity decimal.Decimal            `json:"quantity"`
	Values   map[string]decimal.Decimal `json:"values"`
}

type summaryResponse struct {
	TotalBasePurchase decimal.Decimal `json:"total_base_purchase"`
	TotalSaleBase     decimal.Decimal `json:"total_sale_base"`
	LogisticsTotal    decimal.Decimal `json:"logistics_total"`
	ClientAdvance     decimal.Decimal `json:"client_advance"`
	SupplierPayment   decimal.Decimal `json:"supplier_payment"`
	FinancingInterest decimal.Decimal `json:"financing_interest"`
	CreditPrincipal   decimal.Decimal `json:"credit_principal"`
	CreditInterest    decimal.Decimal `json:"credit_interest"`
	TotalCOGS         decimal.Decimal `json:"total_cogs"`
	TotalSaleExVAT    decimal.Decimal `json:"total_sale_ex_vat"`
	TotalSaleIncVAT   decimal.Decimal `json:"total_sale_inc_vat"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
}

type warningResponse struct {
	SKU     string `json:"sku,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type fieldErrorResponse struct {
	SKU     string `json:"sku,omitempty"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type adminSettingsDTO struct {
	FXRiskPct          decimal.Decimal `json:"fx_risk_pct"`
	AgentCommissionPct decimal.Decimal `json:"agent_commission_pct"`
	DailyInterestRate  decimal.Decimal `json:"daily_interest_rate"`
}

func newQuoteResponse(result *engine.Result) quoteResponse {
	resp := quoteResponse{
		Products: make([]productResponse, 0, len(result.Products)),
		Summary: summaryResponse{
			TotalBasePurchase: result.Summary.TotalBasePurchase,
			TotalSaleBase:     result.Summary.TotalSaleBase,
			LogisticsTotal:    result.Summary.LogisticsTotal,
			ClientAdvance:     result.Summary.ClientAdvance,
			SupplierPayment:   result.Summary.SupplierPayment,
			FinancingInterest: result.Summary.FinancingInterest,
			CreditPrincipal:   result.Summary.CreditPrincipal,
			CreditInterest:    result.Summary.CreditInterest,
			TotalCOGS:         result.Summary.TotalCOGS,
			TotalSaleExVAT:    result.Summary.TotalSaleExVAT,
			TotalSaleIncVAT:   result.Summary.TotalSaleIncVAT,
			TotalProfit:       result.Summary.TotalProfit,
		},
	}

	for _, p := range result.Products {
		resp.Products = append(resp.Products, productResponse{
			SKU:      p.SKU,
			Name:     p.Name,
			Quantity: p.Quantity,
			Values:   p.Values(),
		})
	}

	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, warningResponse{
			SKU:     w.SKU,
			Field:   w.Field,
			Message: w.Message,
		})
	}

	return resp
}

func newFieldErrorResponses(errs engine.ValidationErrors) []fieldErrorResponse {
	out := make([]fieldErrorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, fieldErrorResponse{
			SKU:     e.SKU,
			Field:   e.Field,
			Code:    e.Code,
			Message: e.Message,
		})
	}
	return out
}

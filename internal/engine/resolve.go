package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Resolve сливает значения уровня КП, переопределения позиций и
// административные ставки в эффективные параметры каждой позиции.
// Все нарушения собираются и возвращаются одним списком; при непустом
// списке параметры не возвращаются вовсе — стадии 2-5 работают только с
// проверенным входом и сами никогда не падают.
func Resolve(input QuoteInput, admin AdminSettings) ([]ResolvedParams, error) {
	var errs ValidationErrors

	region, regionKnown := SellerRegionFor(input.SellerCompany)
	switch {
	case input.SellerCompany == "":
		errs = append(errs, FieldError{Field: "seller_company", Code: CodeRequired, Message: "seller company is required"})
	case !regionKnown:
		errs = append(errs, FieldError{Field: "seller_company", Code: CodeUnknownSeller,
			Message: fmt.Sprintf("unknown seller company %q", input.SellerCompany)})
	}

	if input.QuoteDate.IsZero() {
		errs = append(errs, FieldError{Field: "quote_date", Code: CodeRequired, Message: "quote date is required"})
	}
	if input.DeliveryDate.IsZero() {
		errs = append(errs, FieldError{Field: "delivery_date", Code: CodeRequired, Message: "delivery date is required"})
	}
	if !input.QuoteDate.IsZero() && !input.DeliveryDate.IsZero() && input.DeliveryDate.Before(input.QuoteDate) {
		errs = append(errs, FieldError{Field: "delivery_date", Code: CodeDateOrder,
			Message: "delivery date must not precede quote date"})
	}
	if len(input.Products) == 0 {
		errs = append(errs, FieldError{Field: "products", Code: CodeEmptyQuote, Message: "quote has no products"})
	}

	errs = append(errs, validateDefaults(input.Defaults)...)

	resolved := make([]ResolvedParams, 0, len(input.Products))
	for i, line := range input.Products {
		params, lineErrs := resolveLine(input, line, i, region, admin)
		errs = append(errs, lineErrs...)
		resolved = append(resolved, params)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return resolved, nil
}

// resolveLine разрешает одну позицию: переопределение, иначе значение КП.
// Три административные ставки берутся только из admin, что бы ни пришло
// со стороны КП или позиции.
func resolveLine(input QuoteInput, line ProductLine, idx int, region SellerRegion, admin AdminSettings) (ResolvedParams, ValidationErrors) {
	var errs ValidationErrors

	sku := line.SKU
	if sku == "" {
		sku = fmt.Sprintf("#%d", idx+1)
		errs = append(errs, FieldError{SKU: sku, Field: "sku", Code: CodeRequired, Message: "sku is required"})
	}

	d := input.Defaults
	p := ResolvedParams{
		SKU:       sku,
		Name:      line.Name,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		WeightKg:  line.WeightKg,

		Currency:            d.Currency,
		ExchangeRate:        d.ExchangeRate,
		SupplierDiscountPct: d.SupplierDiscountPct,
		SupplierCountry:     d.SupplierCountry,

		Incoterms:      d.Incoterms,
		SaleType:       d.SaleType,
		CustomsDutyPct: d.CustomsDutyPct,
		ExcisePerUnit:  d.ExcisePerUnit,

		MarginPct:            d.MarginPct,
		TransitCommissionPct: d.TransitCommissionPct,
		DMFeeMode:            d.DMFeeMode,
		DMFeeValue:           d.DMFeeValue,
		ClientDiscountPct:    d.ClientDiscountPct,

		SellerRegion: region,
		DeliveryDate: input.DeliveryDate,

		FXRiskPct:          admin.FXRiskPct,
		AgentCommissionPct: admin.AgentCommissionPct,
		DailyInterestRate:  admin.DailyInterestRate,
	}

	if o := line.Overrides; o != nil {
		if o.Currency != nil {
			p.Currency = *o.Currency
		}
		if o.ExchangeRate != nil {
			p.ExchangeRate = *o.ExchangeRate
		}
		if o.SupplierDiscountPct != nil {
			p.SupplierDiscountPct = *o.SupplierDiscountPct
		}
		if o.SupplierCountry != nil {
			p.SupplierCountry = *o.SupplierCountry
		}
		if o.CustomsDutyPct != nil {
			p.CustomsDutyPct = *o.CustomsDutyPct
		}
		if o.ExcisePerUnit != nil {
			p.ExcisePerUnit = *o.ExcisePerUnit
		}
		if o.MarginPct != nil {
			p.MarginPct = *o.MarginPct
		}
		if o.TransitCommissionPct != nil {
			p.TransitCommissionPct = *o.TransitCommissionPct
		}
		if o.DMFeeMode != nil {
			p.DMFeeMode = *o.DMFeeMode
		}
		if o.DMFeeValue != nil {
			p.DMFeeValue = *o.DMFeeValue
		}
		if o.ClientDiscountPct != nil {
			p.ClientDiscountPct = *o.ClientDiscountPct
		}
	}

	errs = append(errs, validateResolved(p)...)
	return p, errs
}

// validateDefaults проверяет значения уровня КП, которые не зависят от
// позиций: суммы логистики и условия финансирования.
func validateDefaults(d QuoteDefaults) ValidationErrors {
	var errs ValidationErrors

	nonNegative := []struct {
		field string
		value decimal.Decimal
	}{
		{"logistics_supplier_to_hub", d.LogisticsSupplierToHub},
		{"logistics_hub_to_customs", d.LogisticsHubToCustoms},
		{"logistics_customs_to_client", d.LogisticsCustomsToClient},
		{"insurance_cost", d.InsuranceCost},
		{"brokerage_cost", d.BrokerageCost},
		{"warehouse_cost", d.WarehouseCost},
		{"packaging_cost", d.PackagingCost},
		{"customs_clearance_fee", d.CustomsClearanceFee},
		{"certification_cost", d.CertificationCost},
		{"credit_share_pct", d.CreditSharePct},
	}
	for _, f := range nonNegative {
		if f.value.IsNegative() {
			errs = append(errs, FieldError{Field: f.field, Code: CodeNegative,
				Message: fmt.Sprintf("%s must not be negative", f.field)})
		}
	}

	if d.AdvancePct.IsNegative() || d.AdvancePct.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, FieldError{Field: "advance_pct", Code: CodeOutOfRange,
			Message: "advance percentage must be within [0,100]"})
	}
	return errs
}

// validateResolved проверяет эффективные параметры позиции: 10 обязательных
// полей, знаки числовых значений и принадлежность закрытым наборам.
func validateResolved(p ResolvedParams) ValidationErrors {
	var errs ValidationErrors
	add := func(field, code, msg string) {
		errs = append(errs, FieldError{SKU: p.SKU, Field: field, Code: code, Message: msg})
	}

	if p.Quantity.Sign() <= 0 {
		add("quantity", CodeNonPositive, "quantity must be greater than zero")
	}
	if p.UnitPrice.IsNegative() {
		add("unit_price", CodeNegative, "unit price must not be negative")
	}
	if p.Currency == "" {
		add("currency", CodeRequired, "currency is required")
	}
	if p.ExchangeRate.Sign() <= 0 {
		add("exchange_rate", CodeNonPositive, "exchange rate must be greater than zero")
	}
	if p.SupplierDiscountPct.IsNegative() || p.SupplierDiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		add("supplier_discount_pct", CodeOutOfRange, "supplier discount must be within [0,100]")
	}
	if p.SupplierCountry == "" {
		add("supplier_country", CodeRequired, "supplier country is required")
	} else if _, ok := knownSupplierCountries[p.SupplierCountry]; !ok {
		add("supplier_country", CodeUnknownEnum, fmt.Sprintf("unknown supplier country %q", p.SupplierCountry))
	}
	if p.SaleType == "" {
		add("sale_type", CodeRequired, "sale type is required")
	} else if _, ok := knownSaleTypes[p.SaleType]; !ok {
		add("sale_type", CodeUnknownEnum, fmt.Sprintf("unknown sale type %q", p.SaleType))
	}
	if p.Incoterms == "" {
		add("incoterms", CodeRequired, "incoterms is required")
	} else if _, ok := knownIncoterms[p.Incoterms]; !ok {
		add("incoterms", CodeUnknownEnum, fmt.Sprintf("unknown incoterms %q", p.Incoterms))
	}
	if p.CustomsDutyPct.IsNegative() {
		add("customs_duty_pct", CodeNegative, "customs duty must not be negative")
	}
	if p.ExcisePerUnit.IsNegative() {
		add("excise_per_unit", CodeNegative, "excise must not be negative")
	}
	if p.MarginPct.IsNegative() {
		add("margin_pct", CodeNegative, "margin must not be negative")
	}
	if p.DMFeeMode != "" {
		if _, ok := knownDMFeeModes[p.DMFeeMode]; !ok {
			add("dm_fee_mode", CodeUnknownEnum, fmt.Sprintf("unknown dm fee mode %q", p.DMFeeMode))
		}
	}
	if p.DMFeeValue.IsNegative() {
		add("dm_fee_value", CodeNegative, "dm fee value must not be negative")
	}
	if p.ClientDiscountPct.IsNegative() || p.ClientDiscountPct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		add("client_discount_pct", CodeOutOfRange, "client discount must be within [0,100)")
	}
	return errs
}

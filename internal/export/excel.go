// Package export собирает xlsx-представление рассчитанного КП.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"kpcalc/internal/engine"
)

const (
	summarySheet  = "Quote"
	productsSheet = "Products"
)

// productColumns задает порядок колонок листа Products. Первые четыре —
// идентификация позиции, дальше рассчитанные величины в порядке фаз.
var productColumns = []struct {
	Header string
	Value  func(p engine.ProductResult) any
}{
	{"№", nil},
	{"Артикул", func(p engine.ProductResult) any { return p.SKU }},
	{"Наименование", func(p engine.ProductResult) any { return p.Name }},
	{"Кол-во", func(p engine.ProductResult) any { return num(p.Quantity) }},
	{"Закупка", func(p engine.ProductResult) any { return num(p.BasePurchasePrice) }},
	{"База продажи", func(p engine.ProductResult) any { return num(p.InternalSaleBase) }},
	{"Наценка, %", func(p engine.ProductResult) any { return num(p.MarkupPct) }},
	{"Ключ", func(p engine.ProductResult) any { return num(p.DistributionKey) }},
	{"Логистика", func(p engine.ProductResult) any { return num(p.LogisticsShare) }},
	{"Проценты фин.", func(p engine.ProductResult) any { return num(p.FinancingShare) }},
	{"Проценты кредита", func(p engine.ProductResult) any { return num(p.CreditShare) }},
	{"Там. стоимость", func(p engine.ProductResult) any { return num(p.CustomsValue) }},
	{"Пошлина", func(p engine.ProductResult) any { return num(p.CustomsFee) }},
	{"Акциз", func(p engine.ProductResult) any { return num(p.Excise) }},
	{"НДС импортный", func(p engine.ProductResult) any { return num(p.ImportVAT) }},
	{"Себестоимость", func(p engine.ProductResult) any { return num(p.COGS) }},
	{"Возн. фин. агента", func(p engine.ProductResult) any { return num(p.AgentFee) }},
	{"Комиссия транзита", func(p engine.ProductResult) any { return num(p.TransitCommission) }},
	{"Возн. DM", func(p engine.ProductResult) any { return num(p.DMFee) }},
	{"Маржа", func(p engine.ProductResult) any { return num(p.Margin) }},
	{"НДС, %", func(p engine.ProductResult) any { return num(p.VATRatePct) }},
	{"Цена без НДС", func(p engine.ProductResult) any { return num(p.SaleExVAT) }},
	{"Цена с НДС", func(p engine.ProductResult) any { return num(p.SaleIncVAT) }},
	{"Прибыль", func(p engine.ProductResult) any { return num(p.Profit) }},
}

// QuoteWorkbook описывает шапку выгружаемого КП.
type QuoteWorkbook struct {
	QuoteID       int64
	SellerCompany string
	ClientName    string
	QuoteDate     time.Time
	DeliveryDate  time.Time
}

// WriteQuote пишет книгу с листом итогов и листом позиций.
func WriteQuote(w io.Writer, header QuoteWorkbook, result *engine.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, header, result.Summary); err != nil {
		return err
	}
	if err := writeProductsSheet(f, result.Products); err != nil {
		return err
	}

	// Дефолтный Sheet1 не нужен.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, header QuoteWorkbook, s engine.QuoteSummary) error {
	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := []struct {
		Label string
		Value any
	}{
		{"КП №", header.QuoteID},
		{"Продавец", header.SellerCompany},
		{"Клиент", header.ClientName},
		{"Дата КП", header.QuoteDate.Format("2006-01-02")},
		{"Дата поставки", header.DeliveryDate.Format("2006-01-02")},
		{"", nil},
		{"Закупка, итого", num(s.TotalBasePurchase)},
		{"База продажи, итого", num(s.TotalSaleBase)},
		{"Логистика, итого", num(s.LogisticsTotal)},
		{"Аванс клиента", num(s.ClientAdvance)},
		{"Платеж поставщику", num(s.SupplierPayment)},
		{"Проценты финансирования", num(s.FinancingInterest)},
		{"Тело кредита", num(s.CreditPrincipal)},
		{"Проценты кредита", num(s.CreditInterest)},
		{"Себестоимость, итого", num(s.TotalCOGS)},
		{"Цена без НДС, итого", num(s.TotalSaleExVAT)},
		{"Цена с НДС, итого", num(s.TotalSaleIncVAT)},
		{"Прибыль, итого", num(s.TotalProfit)},
	}

	for i, row := range rows {
		if row.Label == "" {
			continue
		}
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), row.Label)
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), row.Value)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), style)

	f.SetActiveSheet(index)
	return nil
}

func writeProductsSheet(f *excelize.File, products []engine.ProductResult) error {
	if _, err := f.NewSheet(productsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	for col, c := range productColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		f.SetCellValue(productsSheet, cell, c.Header)
	}

	for row, p := range products {
		for col, c := range productColumns {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			if c.Value == nil {
				f.SetCellValue(productsSheet, cell, row+1)
				continue
			}
			f.SetCellValue(productsSheet, cell, c.Value(p))
		}
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	last, _ := excelize.CoordinatesToCellName(len(productColumns), 1)
	f.SetCellStyle(productsSheet, "A1", last, style)
	return nil
}

// num приводит decimal к float64 для записи в ячейку. Потеря точности
// допустима: книга — представление для человека, источником остаются
// значения из БД.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

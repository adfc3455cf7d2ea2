package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kpcalc/internal/engine"
)

func TestWriteQuote(t *testing.T) {
	result := &engine.Result{
		Products: []engine.ProductResult{
			{
				SKU:        "PUMP-100",
				Name:       "Насос центробежный",
				Quantity:   decimal.NewFromInt(10),
				SaleIncVAT: decimal.RequireFromString("1347759.94"),
			},
			{
				SKU:      "PUMP-200",
				Name:     "Насос повышенной мощности",
				Quantity: decimal.NewFromInt(10),
			},
		},
		Summary: engine.QuoteSummary{
			TotalSaleIncVAT: decimal.RequireFromString("1347759.94"),
			TotalProfit:     decimal.RequireFromString("71499.38"),
		},
	}

	header := QuoteWorkbook{
		QuoteID:       42,
		SellerCompany: "rustechsnab",
		ClientName:    "ООО Заказчик",
		QuoteDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DeliveryDate:  time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteQuote(&buf, header, result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Quote", "Products"}, f.GetSheetList())

	seller, err := f.GetCellValue("Quote", "B2")
	require.NoError(t, err)
	assert.Equal(t, "rustechsnab", seller)

	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 3) // шапка + две позиции
	assert.Equal(t, "Артикул", rows[0][1])
	assert.Equal(t, "PUMP-100", rows[1][1])
	assert.Equal(t, "PUMP-200", rows[2][1])
}

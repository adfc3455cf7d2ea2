// Package engine реализует пятистадийный расчет коммерческого предложения:
// разрешение параметров, базовые цены позиций, агрегация КП, распределение
// затрат уровня КП и финализация. Движок — чистая функция: без I/O, без
// состояния между вызовами, детерминированный с точностью до байта.
package engine

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

// Result — полный выход одного расчета: позиции в порядке входа, итоги КП
// и нефатальные предупреждения для логирования вызывающим.
type Result struct {
	Products []ProductResult
	Summary  QuoteSummary
	Warnings []Warning
}

// Calculate прогоняет КП через все пять стадий.
//
// Стадии 2 и 5 независимы по позициям и выполняются параллельно; агрегация
// — барьер: ключ распределения любой позиции зависит от баз всех позиций,
// поэтому стадия 4 не начинается, пока не посчитана последняя база.
func Calculate(input QuoteInput, admin AdminSettings) (*Result, error) {
	params, err := Resolve(input, admin)
	if err != nil {
		return nil, err
	}

	n := len(params)
	bases := make([]ProductBase, n)
	warnings := make([][]Warning, n)

	var g errgroup.Group
	for i := range params {
		i := i
		g.Go(func() error {
			bases[i], warnings[i] = ComputeBase(params[i])
			return nil
		})
	}
	// Стадии чистые и ошибок не возвращают; Wait нужен только как барьер.
	_ = g.Wait()

	totals, keys := Aggregate(bases)
	summary, distributed := Distribute(totals, keys, input.Defaults, admin)

	results := make([]ProductResult, n)
	var g2 errgroup.Group
	for i := range params {
		i := i
		g2.Go(func() error {
			results[i] = Finalize(params[i], bases[i], distributed[i])
			return nil
		})
	}
	_ = g2.Wait()

	for _, r := range results {
		summary.TotalCOGS = summary.TotalCOGS.Add(r.COGS)
		summary.TotalSaleExVAT = summary.TotalSaleExVAT.Add(r.SaleExVAT)
		summary.TotalSaleIncVAT = summary.TotalSaleIncVAT.Add(r.SaleIncVAT)
		summary.TotalProfit = summary.TotalProfit.Add(r.Profit)
	}

	flat := make([]Warning, 0, n)
	for _, w := range warnings {
		flat = append(flat, w...)
	}
	sort.SliceStable(flat, func(i, j int) bool { return flat[i].SKU < flat[j].SKU })

	return &Result{Products: results, Summary: summary, Warnings: flat}, nil
}

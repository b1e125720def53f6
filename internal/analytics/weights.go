package analytics

import (
	"folio/internal/domain"
	"folio/internal/timeseries"
)

// EqualWeights assigns 1/N to each symbol. An empty symbol list yields an
// empty weight set.
func EqualWeights(symbols []string) domain.Weights {
	w := make(domain.Weights, len(symbols))
	if len(symbols) == 0 {
		return w
	}
	share := 1.0 / float64(len(symbols))
	for _, s := range symbols {
		w[s] = share
	}
	return w
}

// PortfolioReturns collapses a per-symbol return table into one portfolio
// return series using fixed weights: r_p(t) = Σ w_i · r_i(t). Symbols
// absent from the weight set contribute nothing.
func PortfolioReturns(returns *timeseries.Table, w domain.Weights) []float64 {
	out := make([]float64, returns.NRows())
	for i, row := range returns.Values {
		var total float64
		for j, sym := range returns.Symbols {
			total += w[sym] * row[j]
		}
		out[i] = total
	}
	return out
}

package analytics

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"folio/internal/domain"
	"folio/internal/timeseries"
)

// Optimizer failure modes callers branch on. Both leave the equal-weight
// results of a report intact.
var (
	// ErrInsufficientData indicates fewer return observations than assets,
	// which makes the sample covariance rank deficient.
	ErrInsufficientData = errors.New("insufficient return history for optimization")

	// ErrSingularCovariance indicates the covariance matrix is not positive
	// definite, so the tangency system has no unique solution.
	ErrSingularCovariance = errors.New("covariance matrix is singular or not positive definite")

	// ErrInfeasible indicates no long-only weight set with positive total
	// allocation exists for the given inputs.
	ErrInfeasible = errors.New("no feasible long-only max-Sharpe portfolio")
)

// negTolerance is the threshold below which a solved weight counts as
// genuinely negative rather than numeric noise.
const negTolerance = 1e-10

// MeanHistoricalReturn computes the annualized mean daily return per symbol
// from a price table.
func MeanHistoricalReturn(prices *timeseries.Table) []float64 {
	returns := prices.Returns()
	mu := make([]float64, len(prices.Symbols))
	for j, sym := range prices.Symbols {
		mu[j] = stat.Mean(returns.Column(sym), nil) * TradingDaysPerYear
	}
	return mu
}

// SampleCovariance computes the annualized sample covariance matrix of
// daily returns derived from a price table.
func SampleCovariance(prices *timeseries.Table) *mat.SymDense {
	returns := prices.Returns()
	rows, cols := returns.NRows(), len(returns.Symbols)

	data := make([]float64, rows*cols)
	for i, row := range returns.Values {
		copy(data[i*cols:(i+1)*cols], row)
	}

	cov := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(cov, mat.NewDense(rows, cols, data), nil)
	cov.ScaleSym(TradingDaysPerYear, cov)
	return cov
}

// MaxSharpe computes the long-only tangency portfolio over the price
// history: the weight set maximizing (μ·w − rf) / sqrt(wᵀΣw) subject to
// w ≥ 0 and Σw = 1. The unconstrained tangency solution Σ⁻¹(μ−rf) is
// solved by Cholesky factorization; assets whose solved weight is negative
// are eliminated and the reduced system re-solved until only non-negative
// weights remain.
func MaxSharpe(prices *timeseries.Table, riskFree float64) (domain.Weights, error) {
	n := len(prices.Symbols)
	if n == 0 {
		return nil, ErrInfeasible
	}
	// Returns() drops one row, and the sample covariance needs at least as
	// many observations as assets to have full rank.
	if prices.NRows()-1 < n {
		return nil, fmt.Errorf("%w: %d observations for %d assets", ErrInsufficientData, prices.NRows()-1, n)
	}

	mu := MeanHistoricalReturn(prices)
	cov := SampleCovariance(prices)

	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	for len(active) > 0 {
		k := len(active)

		sub := mat.NewSymDense(k, nil)
		excess := mat.NewVecDense(k, nil)
		for a, i := range active {
			excess.SetVec(a, mu[i]-riskFree)
			for b := a; b < k; b++ {
				sub.SetSym(a, b, cov.At(i, active[b]))
			}
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(sub); !ok {
			return nil, ErrSingularCovariance
		}

		raw := mat.NewVecDense(k, nil)
		if err := chol.SolveVecTo(raw, excess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
		}

		total := mat.Sum(raw)
		if total <= 0 {
			return nil, ErrInfeasible
		}

		// Normalize, then drop any asset the unconstrained solution shorts.
		var next []int
		clean := true
		for a, i := range active {
			if raw.AtVec(a)/total < -negTolerance {
				clean = false
				continue
			}
			next = append(next, i)
		}

		if clean {
			// Eliminated assets stay in the mapping at zero weight.
			w := make(domain.Weights, n)
			for _, sym := range prices.Symbols {
				w[sym] = 0
			}
			for a, i := range active {
				v := raw.AtVec(a) / total
				if v < 0 {
					v = 0 // numeric noise within tolerance
				}
				w[prices.Symbols[i]] = v
			}
			renormalize(w)
			return w, nil
		}

		active = next
	}

	return nil, ErrInfeasible
}

func renormalize(w domain.Weights) {
	total := w.Sum()
	if total == 0 {
		return
	}
	for s, v := range w {
		w[s] = v / total
	}
}

package analyzer

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/replay-lab/replay-trading/internal/types"
)

// Analyzer derives performance metrics from a run's trade list and
// equity curve. It reads only those two inputs, so any two runs with
// identical trades and curves report identical metrics.
type Analyzer struct {
	timeframe types.Timeframe
}

// NewAnalyzer creates an analyzer annualizing at the given timeframe.
func NewAnalyzer(timeframe types.Timeframe) *Analyzer {
	return &Analyzer{timeframe: timeframe}
}

// Analyze builds the full performance report. Ratio metrics are None
// when their denominator is degenerate: win rate and profit factor need
// at least one trade (profit factor also needs at least one losing
// trade), the Sharpe ratio needs two returns and non-zero variance.
func (a *Analyzer) Analyze(trades []types.Trade, curve []types.EquityCurvePoint, costs types.CostBreakdown) types.PerformanceReport {
	report := types.PerformanceReport{
		Trades:       trades,
		EquityCurve:  curve,
		TotalTrades:  len(trades),
		WinRate:      optional.None[float64](),
		ProfitFactor: optional.None[float64](),
		SharpeRatio:  optional.None[float64](),
		RealizedPnL:  decimal.Zero,
		Costs:        costs,
	}

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero

	for i := range trades {
		t := &trades[i]
		report.RealizedPnL = report.RealizedPnL.Add(t.RealizedPnL)

		if t.IsForced() {
			report.ForcedCloses++
		}

		switch {
		case t.RealizedPnL.IsPositive():
			report.WinningTrades++
			grossProfit = grossProfit.Add(t.RealizedPnL)
		case t.RealizedPnL.IsNegative():
			report.LosingTrades++
			grossLoss = grossLoss.Add(t.RealizedPnL.Neg())
		}
	}

	if len(trades) > 0 {
		report.WinRate = optional.Some(float64(report.WinningTrades) / float64(len(trades)))
	}

	if grossLoss.IsPositive() {
		pf, _ := grossProfit.Div(grossLoss).Float64()
		report.ProfitFactor = optional.Some(pf)
	}

	report.MaxDrawdown = MaxDrawdown(curve)
	report.SharpeRatio = a.sharpe(curve)

	return report
}

// MaxDrawdown is the largest peak-to-trough fractional decline of the
// equity curve. A curve that never declines, or with fewer than two
// points, has zero drawdown.
func MaxDrawdown(curve []types.EquityCurvePoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	peak := curve[0].Equity
	worst := 0.0

	for i := 1; i < len(curve); i++ {
		equity := curve[i].Equity

		if equity.GreaterThan(peak) {
			peak = equity
			continue
		}

		if !peak.IsPositive() {
			continue
		}

		dd, _ := peak.Sub(equity).Div(peak).Float64()
		if dd > worst {
			worst = dd
		}
	}

	return worst
}

// sharpe computes the annualized Sharpe ratio over per-bar simple
// returns with a zero risk-free rate.
func (a *Analyzer) sharpe(curve []types.EquityCurvePoint) optional.Option[float64] {
	returns := barReturns(curve)
	if len(returns) < 2 {
		return optional.None[float64]()
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	if variance == 0 {
		return optional.None[float64]()
	}

	periods, err := a.timeframe.PeriodsPerYear()
	if err != nil {
		return optional.None[float64]()
	}

	return optional.Some(mean / math.Sqrt(variance) * math.Sqrt(periods))
}

// barReturns converts the equity curve into per-bar simple returns.
// Points following a non-positive equity value are skipped because a
// return on zero capital is undefined.
func barReturns(curve []types.EquityCurvePoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if !prev.IsPositive() {
			continue
		}

		r, _ := curve[i].Equity.Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}

	return returns
}

package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RunStatus is the lifecycle state of a backtest run.
type RunStatus string

const (
	RunStatusInitializing RunStatus = "INITIALIZING"
	RunStatusRunning      RunStatus = "RUNNING"
	RunStatusCompleted    RunStatus = "COMPLETED"
	// RunStatusCompletedWithWarnings marks runs that finished despite
	// non-fatal mid-run data anomalies.
	RunStatusCompletedWithWarnings RunStatus = "COMPLETED_WITH_WARNINGS"
	RunStatusFailed                RunStatus = "FAILED"
	RunStatusCancelled             RunStatus = "CANCELLED"
)

// IsTerminal reports whether the status is a final state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCompletedWithWarnings, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// EquityCurvePoint is the account equity after all fills on one bar.
// The curve has exactly one point per processed bar.
type EquityCurvePoint struct {
	Timestamp time.Time       `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Equity    decimal.Decimal `yaml:"equity" json:"equity" csv:"equity"`
}

// CostBreakdown aggregates the independent cost components over a run.
type CostBreakdown struct {
	Fees     decimal.Decimal `yaml:"fees" json:"fees"`
	Slippage decimal.Decimal `yaml:"slippage" json:"slippage"`
	Spread   decimal.Decimal `yaml:"spread" json:"spread"`
}

// Total sums all components.
func (c CostBreakdown) Total() decimal.Decimal {
	return c.Fees.Add(c.Slippage).Add(c.Spread)
}

// PerformanceReport is the analyzer output for a completed run. Ratio
// metrics are optional: None means "undefined for this run" (for
// example a zero-trade run), which is deliberately distinct from zero.
type PerformanceReport struct {
	Trades      []Trade            `yaml:"trades" json:"trades"`
	EquityCurve []EquityCurvePoint `yaml:"equity_curve" json:"equity_curve"`

	TotalTrades   int `yaml:"total_trades" json:"total_trades"`
	WinningTrades int `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades  int `yaml:"losing_trades" json:"losing_trades"`
	ForcedCloses  int `yaml:"forced_closes" json:"forced_closes"`

	WinRate      optional.Option[float64] `yaml:"-" json:"win_rate"`
	ProfitFactor optional.Option[float64] `yaml:"-" json:"profit_factor"`
	SharpeRatio  optional.Option[float64] `yaml:"-" json:"sharpe_ratio"`
	// MaxDrawdown is the largest peak-to-trough fractional decline of the
	// equity curve (0.25 = 25%). Zero for a curve that never declines.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`

	RealizedPnL decimal.Decimal `yaml:"realized_pnl" json:"realized_pnl"`
	Costs       CostBreakdown   `yaml:"costs" json:"costs"`
}

// MarshalYAML renders optional metrics as null when undefined so a
// zero-trade run is never mistaken for a zero-win-rate run.
func (r PerformanceReport) MarshalYAML() (interface{}, error) {
	type alias PerformanceReport

	toPtr := func(o optional.Option[float64]) *float64 {
		if o.IsNone() {
			return nil
		}

		v := o.Unwrap()

		return &v
	}

	return struct {
		alias        `yaml:",inline"`
		WinRate      *float64 `yaml:"win_rate"`
		ProfitFactor *float64 `yaml:"profit_factor"`
		SharpeRatio  *float64 `yaml:"sharpe_ratio"`
	}{
		alias:        alias(r),
		WinRate:      toPtr(r.WinRate),
		ProfitFactor: toPtr(r.ProfitFactor),
		SharpeRatio:  toPtr(r.SharpeRatio),
	}, nil
}

// Provenance identifies exactly what produced a run: the fingerprint of
// the input bars and the versions of the components whose logic shapes
// the numbers. Two runs with equal provenance and equal strategy are
// guaranteed byte-identical results.
type Provenance struct {
	// InputFingerprint is the content hash of the bar sequence.
	InputFingerprint string `yaml:"input_fingerprint" json:"input_fingerprint"`
	EngineVersion    string `yaml:"engine_version" json:"engine_version"`
	CompilerVersion  string `yaml:"compiler_version" json:"compiler_version"`
	BarCount         int    `yaml:"bar_count" json:"bar_count"`
	// Environment is a diagnostics snapshot of the build that produced
	// the run (go version, platform).
	Environment map[string]string `yaml:"environment" json:"environment"`
}

// CostComparison reports the assumed cost rate (from configuration)
// against the rate actually observed over the run's fills, both in
// fractions of traded notional.
type CostComparison struct {
	AssumedRate  decimal.Decimal `yaml:"assumed_rate" json:"assumed_rate"`
	ObservedRate decimal.Decimal `yaml:"observed_rate" json:"observed_rate"`
}

// Delta is observed minus assumed.
func (c *CostComparison) Delta() decimal.Decimal {
	return c.ObservedRate.Sub(c.AssumedRate)
}

// BacktestRun aggregates everything about one run. It is the only
// object that outlives the run and is never mutated once finalized.
type BacktestRun struct {
	ID        string             `yaml:"id" json:"id"`
	CreatedAt time.Time          `yaml:"created_at" json:"created_at"`
	Symbol    string             `yaml:"symbol" json:"symbol"`
	Timeframe Timeframe          `yaml:"timeframe" json:"timeframe"`
	Strategy  StrategyDefinition `yaml:"strategy" json:"strategy"`

	Status RunStatus `yaml:"status" json:"status"`
	// FailureReason is set when Status is FAILED.
	FailureReason string `yaml:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	// FailedBarIndex is the offending bar when a data problem failed the run.
	FailedBarIndex optional.Option[int] `yaml:"-" json:"failed_bar_index,omitempty"`
	// AnomalyCount is the number of non-fatal data anomalies encountered.
	AnomalyCount int `yaml:"anomaly_count" json:"anomaly_count"`

	Provenance Provenance        `yaml:"provenance" json:"provenance"`
	Costs      CostComparison    `yaml:"cost_comparison" json:"cost_comparison"`
	Report     PerformanceReport `yaml:"report" json:"report"`
}

// MarshalYAML renders the optional failed bar index as null when unset.
func (r BacktestRun) MarshalYAML() (interface{}, error) {
	type alias BacktestRun

	var failedBar *int

	if r.FailedBarIndex.IsSome() {
		v := r.FailedBarIndex.Unwrap()
		failedBar = &v
	}

	return struct {
		alias          `yaml:",inline"`
		FailedBarIndex *int `yaml:"failed_bar_index"`
	}{
		alias:          alias(r),
		FailedBarIndex: failedBar,
	}, nil
}

// WriteBacktestRun serializes a finalized run to a YAML file.
func WriteBacktestRun(path string, run BacktestRun) error {
	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest run to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest run to file: %w", err)
	}

	return nil
}

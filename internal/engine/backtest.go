package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/replay-lab/replay-trading/internal/diagnostics"
	"github.com/replay-lab/replay-trading/internal/engine/analyzer"
	"github.com/replay-lab/replay-trading/internal/engine/costmodel"
	"github.com/replay-lab/replay-trading/internal/engine/evaluator"
	"github.com/replay-lab/replay-trading/internal/engine/eventlog"
	"github.com/replay-lab/replay-trading/internal/engine/ledger"
	"github.com/replay-lab/replay-trading/internal/featureflag"
	"github.com/replay-lab/replay-trading/internal/indicator"
	"github.com/replay-lab/replay-trading/internal/logger"
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/internal/version"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// Backtest replays one bar sequence against one strategy. Construction
// validates the configuration and compiles the strategy, so every
// pre-run error surfaces before the first bar. A Backtest instance runs
// once; Run on a finalized instance is an error.
type Backtest struct {
	config    BacktestConfig
	log       *logger.Logger
	registry  indicator.Registry
	evaluator *evaluator.Evaluator
	status    types.RunStatus
	events    *eventlog.MemoryLog
}

// NewBacktest validates the config, compiles the strategy against the
// built-in indicator registry and returns a ready-to-run instance.
func NewBacktest(log *logger.Logger, config BacktestConfig, strategy types.StrategyDefinition) (*Backtest, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	registry := indicator.NewRegistry()

	eval, err := evaluator.NewEvaluator(log, registry, strategy)
	if err != nil {
		return nil, err
	}

	return &Backtest{
		config:    config,
		log:       log,
		registry:  registry,
		evaluator: eval,
		status:    types.RunStatusInitializing,
	}, nil
}

// Status returns the current lifecycle state.
func (b *Backtest) Status() types.RunStatus {
	return b.status
}

// Events returns the run's event stream. Empty before Run is called.
func (b *Backtest) Events() []eventlog.Record {
	if b.events == nil {
		return nil
	}

	return b.events.Records()
}

// pendingSignal carries a signal from the bar that produced it to the
// bar it fills on, for next-open fill timing.
type pendingSignal struct {
	signal evaluator.Signal
}

// runState is the mutable bookkeeping of one replay.
type runState struct {
	book      *ledger.Ledger
	costModel costmodel.Model
	cash      decimal.Decimal
	curve     []types.EquityCurvePoint

	// clean holds the bars that passed per-bar validation; indicator
	// windows are built from it so anomalous bars never feed a signal.
	clean []types.Bar

	// filledNotional accumulates traded notional for the observed cost rate.
	filledNotional decimal.Decimal

	anomalies int
	pending   *pendingSignal
	lastGood  optional.Option[decimal.Decimal]
}

// Run replays the bars in order and returns the finalized run record.
// The context is checked between bars; cancellation finalizes with
// status CANCELLED. A returned error always accompanies a run with
// status FAILED or CANCELLED so partial results stay inspectable.
func (b *Backtest) Run(ctx context.Context, bars []types.Bar) (types.BacktestRun, error) {
	if b.status != types.RunStatusInitializing {
		return types.BacktestRun{}, errors.Newf(errors.ErrCodeRunFinalized, "run already finalized with status %s", b.status)
	}

	bars = b.filterWindow(bars)

	runID := uuid.New().String()
	b.events = eventlog.NewMemoryLog(runID)

	run := types.BacktestRun{
		ID:             runID,
		CreatedAt:      time.Now().UTC(),
		Symbol:         b.config.Symbol,
		Timeframe:      b.config.Timeframe,
		Strategy:       b.evaluator.Strategy(),
		FailedBarIndex: optional.None[int](),
		Provenance: types.Provenance{
			InputFingerprint: Fingerprint(bars),
			EngineVersion:    version.GetVersion(),
			CompilerVersion:  version.GetCompilerVersion(),
			BarCount:         len(bars),
			Environment:      diagnostics.Snapshot(),
		},
	}

	if err := types.ValidateSeries(bars); err != nil {
		b.log.Error("bar sequence rejected", zap.Error(err))

		return b.fail(run, nil, err, optional.None[int]())
	}

	state := &runState{
		book:      ledger.NewLedger(b.log),
		costModel: costmodel.GetCostModel(b.config.CostProfile),
		cash:      b.config.InitialCapital,
		curve:     make([]types.EquityCurvePoint, 0, len(bars)),
		clean:     make([]types.Bar, 0, len(bars)),
		lastGood:  optional.None[decimal.Decimal](),
	}

	run.Costs.AssumedRate = state.costModel.AssumedRate()

	b.status = types.RunStatusRunning
	b.events.Append(eventlog.KindRunStart, bars[0].Timestamp, "run started", map[string]string{
		"symbol":      b.config.Symbol,
		"strategy":    b.evaluator.Strategy().Name,
		"fingerprint": run.Provenance.InputFingerprint,
	})

	verbose := featureflag.Enabled(featureflag.VerboseEventLog)
	strict := featureflag.Enabled(featureflag.StrictValidation)

	for i := range bars {
		if ctx.Err() != nil {
			b.log.Warn("run cancelled", zap.Int("bar", i))

			return b.cancel(run, state, bars[i].Timestamp)
		}

		bar := &bars[i]

		if err := bar.Validate(); err != nil {
			state.anomalies++
			b.events.Append(eventlog.KindError, bar.Timestamp, "bar anomaly", map[string]string{
				"index":  itoa(i),
				"reason": err.Error(),
			})

			if strict || state.anomalies > b.config.MaxBarAnomalies {
				thresholdErr := errors.Wrapf(errors.ErrCodeAnomalyThreshold, err,
					"anomaly threshold exceeded after %d anomalies", state.anomalies)

				return b.fail(run, state, thresholdErr, optional.Some(i))
			}

			// The anomalous bar contributes an equity point at the last
			// trusted mark but produces no signals or fills.
			b.appendEquity(state, bar.Timestamp, state.lastGood)

			continue
		}

		state.clean = append(state.clean, *bar)

		if err := b.processBar(state, bar, i == len(bars)-1); err != nil {
			return b.fail(run, state, err, optional.Some(i))
		}

		state.lastGood = optional.Some(bar.Close)
		b.appendEquity(state, bar.Timestamp, optional.Some(bar.Close))

		if verbose {
			b.events.Append(eventlog.KindBarProcessed, bar.Timestamp, "bar processed", map[string]string{
				"index": itoa(i),
			})
		}
	}

	b.forceClose(state, bars)

	return b.finalize(run, state, bars[len(bars)-1].Timestamp)
}

// filterWindow restricts the sequence to the configured time window.
func (b *Backtest) filterWindow(bars []types.Bar) []types.Bar {
	if b.config.StartTime.IsNone() && b.config.EndTime.IsNone() {
		return bars
	}

	out := make([]types.Bar, 0, len(bars))

	for i := range bars {
		ts := bars[i].Timestamp

		if b.config.StartTime.IsSome() && ts.Before(b.config.StartTime.Unwrap()) {
			continue
		}

		if b.config.EndTime.IsSome() && ts.After(b.config.EndTime.Unwrap()) {
			continue
		}

		out = append(out, bars[i])
	}

	return out
}

// processBar fills any pending signal at the bar's open, then evaluates
// the strategy at the bar's close.
func (b *Backtest) processBar(state *runState, bar *types.Bar, last bool) error {
	if state.pending != nil {
		signal := state.pending.signal
		state.pending = nil

		if err := b.execute(state, signal, bar, bar.Open); err != nil {
			return err
		}
	}

	signal, err := b.evaluator.Evaluate(state.clean, b.config.Symbol, state.book.Position(b.config.Symbol), bar.Close)
	if err != nil {
		return err
	}

	if signal.Action == evaluator.ActionNone {
		return nil
	}

	if b.config.FillTiming == FillTimingNextOpen {
		// A signal on the final bar has no bar left to fill on.
		if !last {
			state.pending = &pendingSignal{signal: signal}
		}

		return nil
	}

	return b.execute(state, signal, bar, bar.Close)
}

// execute books one fill against the ledger and the cash account.
func (b *Backtest) execute(state *runState, signal evaluator.Signal, bar *types.Bar, fillPrice decimal.Decimal) error {
	switch signal.Action {
	case evaluator.ActionEnter:
		return b.enter(state, signal, bar, fillPrice)
	case evaluator.ActionExit:
		return b.exit(state, signal.Reason, bar, fillPrice)
	default:
		return nil
	}
}

func (b *Backtest) enter(state *runState, signal evaluator.Signal, bar *types.Bar, fillPrice decimal.Decimal) error {
	if state.book.Position(b.config.Symbol).IsSome() {
		return nil
	}

	volume := b.evaluator.Volume(state.cash, fillPrice, b.config.DecimalPrecision)
	if !volume.IsPositive() {
		b.log.Debug("entry skipped, volume rounds to zero",
			zap.String("symbol", b.config.Symbol),
			zap.String("price", fillPrice.String()))

		return nil
	}

	costs := state.costModel.Calculate(costmodel.FillQuery{
		Side:           signal.Side,
		Price:          fillPrice,
		Volume:         volume,
		SpreadFraction: b.config.SpreadFraction,
		RecentVolume:   bar.Volume,
		Aggressive:     true,
	})

	notional := fillPrice.Mul(volume)

	if signal.Side == types.PositionSideLong {
		outlay := notional.Add(costs.Total())
		if outlay.GreaterThan(state.cash) {
			b.log.Debug("entry skipped, costs exceed available cash",
				zap.String("outlay", outlay.String()),
				zap.String("cash", state.cash.String()))

			return nil
		}
	}

	position, err := state.book.Open(b.config.Symbol, signal.Side, fillPrice, bar.Timestamp, volume, costs)
	if err != nil {
		return err
	}

	// A long pays the notional out of cash; a short books the sale
	// proceeds. Either way the fill costs come out of cash, and equity
	// stays cash plus signed market exposure.
	if signal.Side == types.PositionSideLong {
		state.cash = state.cash.Sub(notional).Sub(costs.Total())
	} else {
		state.cash = state.cash.Add(notional).Sub(costs.Total())
	}
	state.filledNotional = state.filledNotional.Add(notional)
	state.costModel.AddFilledNotional(notional)

	b.events.Append(eventlog.KindTrade, bar.Timestamp, "position opened", map[string]string{
		"position_id": position.ID,
		"side":        string(position.Side),
		"price":       fillPrice.String(),
		"volume":      volume.String(),
	})

	return nil
}

func (b *Backtest) exit(state *runState, reason types.CloseReason, bar *types.Bar, fillPrice decimal.Decimal) error {
	position := state.book.Position(b.config.Symbol)
	if position.IsNone() {
		return nil
	}

	volume := position.Unwrap().Volume

	costs := state.costModel.Calculate(costmodel.FillQuery{
		Side:           position.Unwrap().Side,
		Price:          fillPrice,
		Volume:         volume,
		SpreadFraction: b.config.SpreadFraction,
		RecentVolume:   bar.Volume,
		Aggressive:     true,
	})

	trade, err := state.book.Close(b.config.Symbol, fillPrice, bar.Timestamp, costs, reason)
	if err != nil {
		return err
	}

	notional := fillPrice.Mul(volume)

	// Closing a long sells the notional; closing a short buys it back.
	if trade.Side == types.PositionSideLong {
		state.cash = state.cash.Add(notional).Sub(costs.Total())
	} else {
		state.cash = state.cash.Sub(notional).Sub(costs.Total())
	}
	state.filledNotional = state.filledNotional.Add(notional)
	state.costModel.AddFilledNotional(notional)

	b.events.Append(eventlog.KindTrade, bar.Timestamp, "position closed", map[string]string{
		"position_id": trade.PositionID,
		"reason":      string(reason),
		"price":       fillPrice.String(),
		"pnl":         trade.RealizedPnL.String(),
	})

	return nil
}

// forceClose liquidates any position still open at the final bar close.
func (b *Backtest) forceClose(state *runState, bars []types.Bar) {
	if state.book.Position(b.config.Symbol).IsNone() {
		return
	}

	if state.lastGood.IsNone() {
		return
	}

	last := &bars[len(bars)-1]
	mark := state.lastGood.Unwrap()

	if err := b.exit(state, types.CloseReasonForced, last, mark); err != nil {
		b.log.Error("forced close failed", zap.Error(err))

		return
	}

	// The final equity point reflects the flat book.
	if len(state.curve) > 0 {
		state.curve[len(state.curve)-1].Equity = state.cash
	}
}

// appendEquity records the account equity at the given mark price.
func (b *Backtest) appendEquity(state *runState, at time.Time, mark optional.Option[decimal.Decimal]) {
	equity := state.cash

	if mark.IsSome() {
		marks := map[string]decimal.Decimal{b.config.Symbol: mark.Unwrap()}

		exposure, err := state.book.MarketExposure(marks)
		if err == nil {
			equity = equity.Add(exposure)
		}
	}

	state.curve = append(state.curve, types.EquityCurvePoint{Timestamp: at, Equity: equity})
}

// finalize assembles the completed run record.
func (b *Backtest) finalize(run types.BacktestRun, state *runState, at time.Time) (types.BacktestRun, error) {
	perf := analyzer.NewAnalyzer(b.config.Timeframe).Analyze(state.book.Trades(), state.curve, state.book.Costs())

	run.Report = perf
	run.AnomalyCount = state.anomalies
	run.Costs.ObservedRate = observedRate(state)

	run.Status = types.RunStatusCompleted
	if state.anomalies > 0 {
		run.Status = types.RunStatusCompletedWithWarnings
	}

	b.status = run.Status
	b.events.Append(eventlog.KindRunEnd, at, "run ended", map[string]string{
		"status": string(run.Status),
		"trades": itoa(perf.TotalTrades),
	})

	b.log.Info("run completed",
		zap.String("run_id", run.ID),
		zap.String("status", string(run.Status)),
		zap.Int("trades", perf.TotalTrades),
		zap.String("realized_pnl", perf.RealizedPnL.String()))

	return run, nil
}

// fail assembles a FAILED run record carrying whatever partial results
// exist, and returns the causing error alongside it.
func (b *Backtest) fail(run types.BacktestRun, state *runState, cause error, barIndex optional.Option[int]) (types.BacktestRun, error) {
	run.Status = types.RunStatusFailed
	run.FailureReason = cause.Error()
	run.FailedBarIndex = barIndex

	if state != nil {
		run.AnomalyCount = state.anomalies
		run.Costs.ObservedRate = observedRate(state)
		run.Report = analyzer.NewAnalyzer(b.config.Timeframe).Analyze(state.book.Trades(), state.curve, state.book.Costs())
	}

	b.status = types.RunStatusFailed

	if b.events != nil {
		b.events.Append(eventlog.KindRunEnd, run.CreatedAt, "run failed", map[string]string{
			"reason": cause.Error(),
		})
	}

	return run, cause
}

// cancel assembles a CANCELLED run record. Open positions stay open:
// a cancelled run never books fills the strategy did not request.
func (b *Backtest) cancel(run types.BacktestRun, state *runState, at time.Time) (types.BacktestRun, error) {
	cause := errors.New(errors.ErrCodeRunCancelled, "run cancelled by caller")

	run.Status = types.RunStatusCancelled
	run.FailureReason = cause.Error()
	run.AnomalyCount = state.anomalies
	run.Costs.ObservedRate = observedRate(state)
	run.Report = analyzer.NewAnalyzer(b.config.Timeframe).Analyze(state.book.Trades(), state.curve, state.book.Costs())

	b.status = types.RunStatusCancelled
	b.events.Append(eventlog.KindRunEnd, at, "run cancelled", nil)

	return run, cause
}

func observedRate(state *runState) decimal.Decimal {
	if !state.filledNotional.IsPositive() {
		return decimal.Zero
	}

	return state.book.Costs().Total().Div(state.filledNotional)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

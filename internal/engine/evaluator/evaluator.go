package evaluator

import (
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/replay-lab/replay-trading/internal/indicator"
	"github.com/replay-lab/replay-trading/internal/logger"
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// Action is the decision for one bar.
type Action string

const (
	ActionNone  Action = "NONE"
	ActionEnter Action = "ENTER"
	ActionExit  Action = "EXIT"
)

// Signal is the evaluator's verdict for one bar of one symbol.
type Signal struct {
	Action Action
	Side   types.PositionSide
	// Reason is set for ActionExit only.
	Reason types.CloseReason
}

var noSignal = Signal{Action: ActionNone}

// Evaluator turns a validated strategy definition into per-bar trading
// decisions. Construction compiles every condition tree and configures
// every referenced indicator, so a malformed strategy fails before the
// first bar rather than mid-replay.
type Evaluator struct {
	log      *logger.Logger
	strategy types.StrategyDefinition
	entry    []compiledNode
	exit     []compiledNode
}

// NewEvaluator compiles the strategy against the given indicator
// registry. Unknown indicators, bad periods, and invalid field
// selections surface here as strategy errors.
func NewEvaluator(log *logger.Logger, registry indicator.Registry, strategy types.StrategyDefinition) (*Evaluator, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	entry := make([]compiledNode, 0, len(strategy.Entry))

	for i := range strategy.Entry {
		node, err := compileNode(registry, &strategy.Entry[i])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidStrategy, err, "entry condition %d", i)
		}

		entry = append(entry, node)
	}

	exit := make([]compiledNode, 0, len(strategy.Exit))

	for i := range strategy.Exit {
		node, err := compileNode(registry, &strategy.Exit[i])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidStrategy, err, "exit condition %d", i)
		}

		exit = append(exit, node)
	}

	return &Evaluator{
		log:      log,
		strategy: strategy,
		entry:    entry,
		exit:     exit,
	}, nil
}

// Strategy returns the definition the evaluator was compiled from.
func (e *Evaluator) Strategy() types.StrategyDefinition {
	return e.strategy
}

// Evaluate decides the action for the current bar. The window holds all
// bars up to and including the current one. position is the open lot
// for the bar's symbol, if any, and mark is the price the bar is
// evaluated at. Risk exits (stop loss, then take profit) take priority
// over the strategy's own exit conditions.
func (e *Evaluator) Evaluate(window []types.Bar, symbol string, position optional.Option[types.Position], mark decimal.Decimal) (Signal, error) {
	if !e.strategy.EligibleFor(symbol) {
		return noSignal, nil
	}

	if position.IsNone() {
		for i := range e.entry {
			ok, err := e.entry[i].eval(window)
			if err != nil {
				return noSignal, err
			}

			if ok {
				e.log.Debug("entry condition fired",
					zap.String("strategy", e.strategy.Name),
					zap.String("symbol", symbol),
					zap.Int("condition", i))

				return Signal{Action: ActionEnter, Side: e.strategy.Side}, nil
			}
		}

		return noSignal, nil
	}

	pos := position.Unwrap()

	if reason, hit := e.riskExit(&pos, mark); hit {
		return Signal{Action: ActionExit, Side: pos.Side, Reason: reason}, nil
	}

	for i := range e.exit {
		ok, err := e.exit[i].eval(window)
		if err != nil {
			return noSignal, err
		}

		if ok {
			e.log.Debug("exit condition fired",
				zap.String("strategy", e.strategy.Name),
				zap.String("symbol", symbol),
				zap.Int("condition", i))

			return Signal{Action: ActionExit, Side: pos.Side, Reason: types.CloseReasonStrategyExit}, nil
		}
	}

	return noSignal, nil
}

// riskExit checks the stop loss and take profit levels against the mark
// price. Moves are measured as fractions of the entry price, with the
// sign flipped for shorts.
func (e *Evaluator) riskExit(pos *types.Position, mark decimal.Decimal) (types.CloseReason, bool) {
	if pos.EntryPrice.IsZero() {
		return "", false
	}

	move := mark.Sub(pos.EntryPrice).Div(pos.EntryPrice)
	if pos.Side == types.PositionSideShort {
		move = move.Neg()
	}

	if e.strategy.StopLossPct.IsSome() {
		limit := decimal.NewFromFloat(e.strategy.StopLossPct.Unwrap()).Neg()
		if move.LessThanOrEqual(limit) {
			return types.CloseReasonStopLoss, true
		}
	}

	if e.strategy.TakeProfitPct.IsSome() {
		target := decimal.NewFromFloat(e.strategy.TakeProfitPct.Unwrap())
		if move.GreaterThanOrEqual(target) {
			return types.CloseReasonTakeProfit, true
		}
	}

	return "", false
}

// Volume sizes a new position: size_fraction of current equity spent at
// the fill price, truncated to the configured decimal precision so the
// ledger never books more than the capital allows.
func (e *Evaluator) Volume(equity, fillPrice decimal.Decimal, precision int32) decimal.Decimal {
	if fillPrice.IsZero() || !equity.IsPositive() {
		return decimal.Zero
	}

	budget := equity.Mul(decimal.NewFromFloat(e.strategy.SizeFraction))

	return budget.Div(fillPrice).Truncate(precision)
}

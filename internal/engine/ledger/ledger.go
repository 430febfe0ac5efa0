package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/replay-lab/replay-trading/internal/engine/costmodel"
	"github.com/replay-lab/replay-trading/internal/logger"
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// openLot is an open position plus the entry-side slippage and spread
// cost, which only become part of a Trade once the lot closes.
type openLot struct {
	position types.Position
	slippage decimal.Decimal
	spread   decimal.Decimal
}

// Ledger owns every position of a run. It applies FIFO entry/exit
// matching with at most one open lot per symbol, tracks cost basis and
// realized P&L exactly, and never mutates a closed trade.
//
// All arithmetic is decimal; the ledger is where the engine's exactness
// guarantee lives, so contract violations (double close, non-positive
// volume) are returned as fatal errors and never silently corrected.
type Ledger struct {
	log    *logger.Logger
	open   map[string]*openLot
	closed map[string]bool
	trades []types.Trade
	costs  types.CostBreakdown
	seq    int
}

// positionID derives a lot identifier from the entry itself, so a run
// over the same input always produces the same IDs in its trades and
// events.
func positionID(symbol string, at time.Time, seq int) string {
	name := fmt.Sprintf("%s|%s|%d", symbol, at.UTC().Format(time.RFC3339Nano), seq)

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// NewLedger creates an empty ledger.
func NewLedger(log *logger.Logger) *Ledger {
	return &Ledger{
		log:    log,
		open:   make(map[string]*openLot),
		closed: make(map[string]bool),
		trades: nil,
		costs:  types.CostBreakdown{Fees: decimal.Zero, Slippage: decimal.Zero, Spread: decimal.Zero},
	}
}

// Open records a new lot. At most one lot per symbol may be open; an
// entry signal against an open symbol is the evaluator's bug, not a
// recoverable condition.
func (l *Ledger) Open(symbol string, side types.PositionSide, price decimal.Decimal, at time.Time, volume decimal.Decimal, entryCosts costmodel.Costs) (types.Position, error) {
	if !volume.IsPositive() {
		return types.Position{}, errors.Newf(errors.ErrCodeNegativeVolume, "cannot open %s with non-positive volume %s", symbol, volume)
	}

	if _, exists := l.open[symbol]; exists {
		return types.Position{}, errors.Newf(errors.ErrCodePositionAlreadyOpen, "symbol %s already has an open lot", symbol)
	}

	l.seq++
	position := types.Position{
		ID:         positionID(symbol, at, l.seq),
		Symbol:     symbol,
		Side:       side,
		EntryPrice: price,
		EntryTime:  at,
		EntryFee:   entryCosts.Fee,
		Volume:     volume,
		Status:     types.PositionStatusOpen,
	}

	l.open[symbol] = &openLot{
		position: position,
		slippage: entryCosts.Slippage,
		spread:   entryCosts.SpreadCost,
	}
	delete(l.closed, symbol)

	l.costs.Fees = l.costs.Fees.Add(entryCosts.Fee)
	l.costs.Slippage = l.costs.Slippage.Add(entryCosts.Slippage)
	l.costs.Spread = l.costs.Spread.Add(entryCosts.SpreadCost)

	l.log.Debug("lot opened",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("price", price.String()),
		zap.String("volume", volume.String()),
	)

	return position, nil
}

// Close matches the symbol's entire open lot against the exit fill and
// produces the immutable Trade. Closing a symbol without an open lot is
// a programming-contract violation: ErrCodeDoubleClose when the last
// lot was already closed, ErrCodePositionNotFound when none ever
// existed.
func (l *Ledger) Close(symbol string, price decimal.Decimal, at time.Time, exitCosts costmodel.Costs, reason types.CloseReason) (types.Trade, error) {
	lot, exists := l.open[symbol]
	if !exists {
		if l.closed[symbol] {
			return types.Trade{}, errors.Newf(errors.ErrCodeDoubleClose, "lot for %s is already closed", symbol)
		}

		return types.Trade{}, errors.Newf(errors.ErrCodePositionNotFound, "no open lot for %s", symbol)
	}

	position := lot.position

	// Gross P&L before costs, sign-adjusted for shorts.
	gross := price.Sub(position.EntryPrice).Mul(position.Volume)
	if position.Side == types.PositionSideShort {
		gross = gross.Neg()
	}

	slippage := lot.slippage.Add(exitCosts.Slippage)
	spread := lot.spread.Add(exitCosts.SpreadCost)
	totalCost := position.EntryFee.Add(exitCosts.Fee).Add(slippage).Add(spread)

	trade := types.Trade{
		PositionID:  position.ID,
		Symbol:      position.Symbol,
		Side:        position.Side,
		EntryPrice:  position.EntryPrice,
		ExitPrice:   price,
		EntryTime:   position.EntryTime,
		ExitTime:    at,
		Volume:      position.Volume,
		EntryFee:    position.EntryFee,
		ExitFee:     exitCosts.Fee,
		Slippage:    slippage,
		SpreadCost:  spread,
		RealizedPnL: gross.Sub(totalCost),
		Reason:      reason,
	}

	delete(l.open, symbol)
	l.closed[symbol] = true
	l.trades = append(l.trades, trade)

	l.costs.Fees = l.costs.Fees.Add(exitCosts.Fee)
	l.costs.Slippage = l.costs.Slippage.Add(exitCosts.Slippage)
	l.costs.Spread = l.costs.Spread.Add(exitCosts.SpreadCost)

	l.log.Debug("lot closed",
		zap.String("symbol", symbol),
		zap.String("reason", string(reason)),
		zap.String("realized_pnl", trade.RealizedPnL.String()),
	)

	return trade, nil
}

// Position returns the open lot for the symbol, if any.
func (l *Ledger) Position(symbol string) optional.Option[types.Position] {
	lot, exists := l.open[symbol]
	if !exists {
		return optional.None[types.Position]()
	}

	return optional.Some(lot.position)
}

// OpenPositions returns copies of every open lot, ordered by entry time
// so force-close processing is deterministic.
func (l *Ledger) OpenPositions() []types.Position {
	positions := make([]types.Position, 0, len(l.open))
	for _, lot := range l.open {
		positions = append(positions, lot.position)
	}

	sort.Slice(positions, func(i, j int) bool {
		if positions[i].EntryTime.Equal(positions[j].EntryTime) {
			return positions[i].Symbol < positions[j].Symbol
		}

		return positions[i].EntryTime.Before(positions[j].EntryTime)
	})

	return positions
}

// Trades returns the closed trades in close order.
func (l *Ledger) Trades() []types.Trade {
	return l.trades
}

// Costs returns the accumulated cost breakdown over every fill so far.
func (l *Ledger) Costs() types.CostBreakdown {
	return l.costs
}

// RealizedPnL sums realized P&L over all closed trades.
func (l *Ledger) RealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for i := range l.trades {
		total = total.Add(l.trades[i].RealizedPnL)
	}

	return total
}

// MarketExposure values the open lots at the given mark prices: +mark
// value for longs, -mark value for shorts. Equity is the caller's cash
// plus this exposure.
func (l *Ledger) MarketExposure(marks map[string]decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero

	for symbol, lot := range l.open {
		mark, ok := marks[symbol]
		if !ok {
			return decimal.Zero, errors.Newf(errors.ErrCodeDataNotFound, "no mark price for open symbol %s", symbol)
		}

		value := mark.Mul(lot.position.Volume)
		if lot.position.Side == types.PositionSideShort {
			value = value.Neg()
		}

		total = total.Add(value)
	}

	return total, nil
}

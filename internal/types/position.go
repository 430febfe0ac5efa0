package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a position.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// CloseReason records why a position left the book.
type CloseReason string

const (
	CloseReasonStrategyExit CloseReason = "strategy_exit"
	CloseReasonStopLoss     CloseReason = "stop_loss"
	CloseReasonTakeProfit   CloseReason = "take_profit"
	// CloseReasonForced marks the liquidation of positions still open at
	// the final bar of the sequence.
	CloseReasonForced CloseReason = "forced"
)

// Position is an open lot. It is owned exclusively by the ledger;
// other components receive copies and never mutate it.
type Position struct {
	ID         string          `yaml:"id" json:"id" csv:"id"`
	Symbol     string          `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side       PositionSide    `yaml:"side" json:"side" csv:"side"`
	EntryPrice decimal.Decimal `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryTime  time.Time       `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	EntryFee   decimal.Decimal `yaml:"entry_fee" json:"entry_fee" csv:"entry_fee"`
	Volume     decimal.Decimal `yaml:"volume" json:"volume" csv:"volume"`
	Status     PositionStatus  `yaml:"status" json:"status" csv:"status"`
}

// CostBasis is entry price * volume + entry fee.
func (p *Position) CostBasis() decimal.Decimal {
	return p.EntryPrice.Mul(p.Volume).Add(p.EntryFee)
}

// UnrealizedPnL marks the open lot against the given price without
// mutating the stored entry data. Sign-adjusted for shorts.
func (p *Position) UnrealizedPnL(markPrice decimal.Decimal) decimal.Decimal {
	market := markPrice.Mul(p.Volume)

	if p.Side == PositionSideShort {
		return p.EntryPrice.Mul(p.Volume).Sub(p.EntryFee).Sub(market)
	}

	return market.Sub(p.CostBasis())
}

// Trade is a closed position. Created on the OPEN -> CLOSED transition
// and immutable thereafter.
type Trade struct {
	PositionID string          `yaml:"position_id" json:"position_id" csv:"position_id"`
	Symbol     string          `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side       PositionSide    `yaml:"side" json:"side" csv:"side"`
	EntryPrice decimal.Decimal `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  decimal.Decimal `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	EntryTime  time.Time       `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime   time.Time       `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	Volume     decimal.Decimal `yaml:"volume" json:"volume" csv:"volume"`
	EntryFee   decimal.Decimal `yaml:"entry_fee" json:"entry_fee" csv:"entry_fee"`
	ExitFee    decimal.Decimal `yaml:"exit_fee" json:"exit_fee" csv:"exit_fee"`
	Slippage   decimal.Decimal `yaml:"slippage" json:"slippage" csv:"slippage"`
	SpreadCost decimal.Decimal `yaml:"spread_cost" json:"spread_cost" csv:"spread_cost"`
	// RealizedPnL is net of all four cost components.
	RealizedPnL decimal.Decimal `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
	Reason      CloseReason     `yaml:"reason" json:"reason" csv:"reason"`
}

// TotalCost sums the four cost components of the round trip.
func (t *Trade) TotalCost() decimal.Decimal {
	return t.EntryFee.Add(t.ExitFee).Add(t.Slippage).Add(t.SpreadCost)
}

// HoldingDuration is the time between entry and exit.
func (t *Trade) HoldingDuration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// IsForced reports whether the trade was a forced end-of-sequence
// liquidation.
func (t *Trade) IsForced() bool {
	return t.Reason == CloseReasonForced
}

// IsWinning reports whether the trade realized a strictly positive PnL.
func (t *Trade) IsWinning() bool {
	return t.RealizedPnL.IsPositive()
}

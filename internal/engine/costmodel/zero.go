package costmodel

import (
	"github.com/shopspring/decimal"
)

// ZeroCostModel charges nothing. Useful for isolating strategy P&L from
// cost assumptions in tests and golden runs.
type ZeroCostModel struct {
}

// NewZeroCostModel creates a cost model with all components at zero.
func NewZeroCostModel() Model {
	return &ZeroCostModel{}
}

// Calculate implements Model.
func (z *ZeroCostModel) Calculate(query FillQuery) Costs {
	return Costs{
		Fee:        decimal.Zero,
		Slippage:   decimal.Zero,
		SpreadCost: decimal.Zero,
	}
}

// AddFilledNotional implements Model.
func (z *ZeroCostModel) AddFilledNotional(notional decimal.Decimal) {
}

// AssumedRate implements Model.
func (z *ZeroCostModel) AssumedRate() decimal.Decimal {
	return decimal.Zero
}

// Name implements Model.
func (z *ZeroCostModel) Name() Profile {
	return ProfileZero
}

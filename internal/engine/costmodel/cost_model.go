package costmodel

import (
	"github.com/shopspring/decimal"

	"github.com/replay-lab/replay-trading/internal/types"
)

// Costs are the independent components of one simulated fill. They are
// reported separately and summed into the total charged against the
// account.
type Costs struct {
	Fee        decimal.Decimal `yaml:"fee" json:"fee"`
	Slippage   decimal.Decimal `yaml:"slippage" json:"slippage"`
	SpreadCost decimal.Decimal `yaml:"spread_cost" json:"spread_cost"`
}

// Total sums all components.
func (c Costs) Total() decimal.Decimal {
	return c.Fee.Add(c.Slippage).Add(c.SpreadCost)
}

// FillQuery describes one order against current market state.
type FillQuery struct {
	Side  types.PositionSide
	Price decimal.Decimal
	// Volume is the asset volume of the order.
	Volume decimal.Decimal
	// SpreadFraction is the current bid-ask spread as a fraction of price.
	SpreadFraction decimal.Decimal
	// RecentVolume is the liquidity proxy: traded volume of the bar
	// being filled against.
	RecentVolume decimal.Decimal
	// Aggressive marks the fill as taking liquidity (taker rate).
	Aggressive bool
}

// Notional is price * volume.
func (q FillQuery) Notional() decimal.Decimal {
	return q.Price.Mul(q.Volume)
}

// Model prices simulated fills. Implementations are stateless across
// calls except for the trailing-notional fee tier, which the
// orchestrator advances after each fill.
type Model interface {
	// Calculate returns the cost components for one fill. Queried
	// independently for entry and exit fills.
	Calculate(query FillQuery) Costs
	// AddFilledNotional advances the trailing-volume fee tier.
	AddFilledNotional(notional decimal.Decimal)
	// AssumedRate is the cost fraction of notional the model charges a
	// small aggressive order at the current tier, recorded in provenance
	// as the assumed cost.
	AssumedRate() decimal.Decimal
	// Name identifies the model in provenance records.
	Name() Profile
}

// Profile selects a cost model implementation.
type Profile string

const (
	ProfileZero   Profile = "zero"
	ProfileTiered Profile = "tiered"
)

// AllProfiles lists every cost model profile.
var AllProfiles = []any{
	ProfileZero,
	ProfileTiered,
}

// GetCostModel returns the model for the given profile, defaulting to
// the tiered model.
func GetCostModel(profile Profile) Model {
	switch profile {
	case ProfileZero:
		return NewZeroCostModel()
	case ProfileTiered:
		return NewTieredCostModel()
	default:
		return NewTieredCostModel()
	}
}

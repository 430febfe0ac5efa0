package costmodel

import (
	"github.com/shopspring/decimal"
)

// feeTier maps a trailing-notional floor onto maker/taker rates.
type feeTier struct {
	MinNotional decimal.Decimal
	MakerRate   decimal.Decimal
	TakerRate   decimal.Decimal
}

// defaultTiers resemble a spot exchange VIP ladder: rates drop as
// trailing traded notional grows.
func defaultTiers() []feeTier {
	return []feeTier{
		{MinNotional: decimal.Zero, MakerRate: decimal.NewFromFloat(0.0010), TakerRate: decimal.NewFromFloat(0.0010)},
		{MinNotional: decimal.NewFromInt(1_000_000), MakerRate: decimal.NewFromFloat(0.0009), TakerRate: decimal.NewFromFloat(0.0010)},
		{MinNotional: decimal.NewFromInt(5_000_000), MakerRate: decimal.NewFromFloat(0.0008), TakerRate: decimal.NewFromFloat(0.0009)},
		{MinNotional: decimal.NewFromInt(25_000_000), MakerRate: decimal.NewFromFloat(0.0007), TakerRate: decimal.NewFromFloat(0.0008)},
	}
}

// TieredCostModel prices fills with a tiered fee, size-dependent
// slippage, and half-spread cost. The only state across calls is the
// trailing filled notional that selects the fee tier.
type TieredCostModel struct {
	tiers            []feeTier
	impactCoeff      decimal.Decimal
	trailingNotional decimal.Decimal
}

// NewTieredCostModel creates a tiered cost model with default tiers and
// impact coefficient.
func NewTieredCostModel() Model {
	return &TieredCostModel{
		tiers:            defaultTiers(),
		impactCoeff:      decimal.NewFromFloat(0.001),
		trailingNotional: decimal.Zero,
	}
}

// currentTier returns the tier matching the trailing notional.
func (t *TieredCostModel) currentTier() feeTier {
	tier := t.tiers[0]

	for _, candidate := range t.tiers {
		if t.trailingNotional.GreaterThanOrEqual(candidate.MinNotional) {
			tier = candidate
		}
	}

	return tier
}

// Calculate implements Model.
//
// Fee is notional * maker-or-taker rate at the current tier. Slippage
// grows with the order's share of the bar's traded volume, so larger
// orders cost more per unit. Spread cost applies half the bid-ask
// spread against the notional.
func (t *TieredCostModel) Calculate(query FillQuery) Costs {
	notional := query.Notional()
	tier := t.currentTier()

	rate := tier.MakerRate
	if query.Aggressive {
		rate = tier.TakerRate
	}

	fee := notional.Mul(rate)

	// Participation of this order in the bar's volume, capped at 1.
	participation := decimal.NewFromInt(1)
	if query.RecentVolume.IsPositive() {
		participation = query.Volume.Div(query.RecentVolume)
		if participation.GreaterThan(decimal.NewFromInt(1)) {
			participation = decimal.NewFromInt(1)
		}
	}

	slippage := notional.Mul(t.impactCoeff).Mul(participation)
	spreadCost := notional.Mul(query.SpreadFraction).Div(decimal.NewFromInt(2))

	return Costs{
		Fee:        fee,
		Slippage:   slippage,
		SpreadCost: spreadCost,
	}
}

// AddFilledNotional implements Model.
func (t *TieredCostModel) AddFilledNotional(notional decimal.Decimal) {
	if notional.IsPositive() {
		t.trailingNotional = t.trailingNotional.Add(notional)
	}
}

// AssumedRate implements Model.
func (t *TieredCostModel) AssumedRate() decimal.Decimal {
	return t.currentTier().TakerRate
}

// Name implements Model.
func (t *TieredCostModel) Name() Profile {
	return ProfileTiered
}

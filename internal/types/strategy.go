package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// Comparator compares an indicator value against a threshold or another
// indicator value.
type Comparator string

const (
	ComparatorLT  Comparator = "lt"
	ComparatorLTE Comparator = "lte"
	ComparatorGT  Comparator = "gt"
	ComparatorGTE Comparator = "gte"
)

// PositionSide is the direction of a position.
type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// IndicatorRef names one indicator output. Field selects a component
// for multi-valued indicators (macd: "macd"/"signal"/"histogram",
// bollinger_bands: "upper"/"middle"/"lower"/"width"); empty means the
// indicator's primary value.
type IndicatorRef struct {
	Indicator IndicatorType `yaml:"indicator" json:"indicator" validate:"required"`
	Period    int           `yaml:"period" json:"period" validate:"gt=0"`
	Field     string        `yaml:"field,omitempty" json:"field,omitempty"`
}

// ConditionExpr is one node of a pre-parsed condition expression tree.
// A leaf node sets LHS plus Comparator and either Threshold or RHS.
// A composite node sets exactly one of All (logical AND) or Any
// (logical OR). Conditions are structured data, never runtime-parsed
// strings.
type ConditionExpr struct {
	LHS        *IndicatorRef `yaml:"lhs,omitempty" json:"lhs,omitempty"`
	Comparator Comparator    `yaml:"comparator,omitempty" json:"comparator,omitempty"`
	Threshold  *float64      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	RHS        *IndicatorRef `yaml:"rhs,omitempty" json:"rhs,omitempty"`

	All []ConditionExpr `yaml:"all,omitempty" json:"all,omitempty"`
	Any []ConditionExpr `yaml:"any,omitempty" json:"any,omitempty"`
}

// IsLeaf reports whether the node is a comparison rather than a composite.
func (c *ConditionExpr) IsLeaf() bool {
	return len(c.All) == 0 && len(c.Any) == 0
}

// Validate checks the structural invariants of the expression node and
// its children.
func (c *ConditionExpr) Validate() error {
	if len(c.All) > 0 && len(c.Any) > 0 {
		return errors.New(errors.ErrCodeInvalidCondition, "condition node sets both 'all' and 'any'")
	}

	if !c.IsLeaf() {
		if c.LHS != nil || c.Threshold != nil || c.RHS != nil {
			return errors.New(errors.ErrCodeInvalidCondition, "composite condition node also sets comparison fields")
		}

		children := c.All
		if len(c.Any) > 0 {
			children = c.Any
		}

		for i := range children {
			if err := children[i].Validate(); err != nil {
				return err
			}
		}

		return nil
	}

	if c.LHS == nil {
		return errors.New(errors.ErrCodeInvalidCondition, "leaf condition is missing 'lhs' indicator reference")
	}

	if c.LHS.Period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCondition, "indicator %s has non-positive period %d", c.LHS.Indicator, c.LHS.Period)
	}

	switch c.Comparator {
	case ComparatorLT, ComparatorLTE, ComparatorGT, ComparatorGTE:
	default:
		return errors.Newf(errors.ErrCodeUnknownComparator, "unknown comparator: %q", c.Comparator)
	}

	if c.Threshold == nil && c.RHS == nil {
		return errors.New(errors.ErrCodeInvalidCondition, "leaf condition needs a 'threshold' or an 'rhs' indicator")
	}

	if c.Threshold != nil && c.RHS != nil {
		return errors.New(errors.ErrCodeInvalidCondition, "leaf condition sets both 'threshold' and 'rhs'")
	}

	if c.RHS != nil && c.RHS.Period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCondition, "indicator %s has non-positive period %d", c.RHS.Indicator, c.RHS.Period)
	}

	return nil
}

// StrategyDefinition is the immutable description of a strategy for the
// duration of a run. Entry conditions are OR-ed: any one of them firing
// opens a position. Exit conditions are OR-ed the same way.
type StrategyDefinition struct {
	Name         string          `yaml:"name" json:"name" validate:"required"`
	Side         PositionSide    `yaml:"side" json:"side" validate:"required,oneof=LONG SHORT"`
	Symbols      []string        `yaml:"symbols" json:"symbols" validate:"required,min=1,dive,required"`
	Entry        []ConditionExpr `yaml:"entry" json:"entry" validate:"required,min=1"`
	Exit         []ConditionExpr `yaml:"exit" json:"exit"`
	SizeFraction float64         `yaml:"size_fraction" json:"size_fraction" validate:"required,gt=0,lte=1"`

	// StopLossPct closes the position when price moves against the entry
	// by this fraction (0.05 = 5%). None disables the stop.
	StopLossPct optional.Option[float64] `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	// TakeProfitPct closes the position when price moves in favor of the
	// entry by this fraction. None disables the target.
	TakeProfitPct optional.Option[float64] `yaml:"take_profit_pct" json:"take_profit_pct"`
}

// UnmarshalYAML implements custom unmarshaling for StrategyDefinition,
// mapping absent stop/target fields onto optional.None.
func (s *StrategyDefinition) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type definition struct {
		Name          string          `yaml:"name"`
		Side          PositionSide    `yaml:"side"`
		Symbols       []string        `yaml:"symbols"`
		Entry         []ConditionExpr `yaml:"entry"`
		Exit          []ConditionExpr `yaml:"exit"`
		SizeFraction  float64         `yaml:"size_fraction"`
		StopLossPct   *float64        `yaml:"stop_loss_pct"`
		TakeProfitPct *float64        `yaml:"take_profit_pct"`
	}

	var def definition
	if err := unmarshal(&def); err != nil {
		return err
	}

	s.Name = def.Name
	s.Side = def.Side
	s.Symbols = def.Symbols
	s.Entry = def.Entry
	s.Exit = def.Exit
	s.SizeFraction = def.SizeFraction

	if def.Side == "" {
		s.Side = PositionSideLong
	}

	s.StopLossPct = optional.None[float64]()
	if def.StopLossPct != nil {
		s.StopLossPct = optional.Some(*def.StopLossPct)
	}

	s.TakeProfitPct = optional.None[float64]()
	if def.TakeProfitPct != nil {
		s.TakeProfitPct = optional.Some(*def.TakeProfitPct)
	}

	return nil
}

// Validate rejects structurally invalid strategies before the bar loop
// ever starts.
func (s *StrategyDefinition) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStrategy, "invalid strategy definition", err)
	}

	if s.SizeFraction <= 0 || s.SizeFraction > 1 {
		return errors.Newf(errors.ErrCodeInvalidSizeFraction, "size fraction must be in (0, 1], got %v", s.SizeFraction)
	}

	for i := range s.Entry {
		if err := s.Entry[i].Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidStrategy, err, "entry condition %d", i)
		}
	}

	for i := range s.Exit {
		if err := s.Exit[i].Validate(); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidStrategy, err, "exit condition %d", i)
		}
	}

	if s.StopLossPct.IsSome() {
		v := s.StopLossPct.Unwrap()
		if v <= 0 || v >= 1 {
			return errors.Newf(errors.ErrCodeInvalidStrategy, "stop loss pct must be in (0, 1), got %v", v)
		}
	}

	if s.TakeProfitPct.IsSome() {
		v := s.TakeProfitPct.Unwrap()
		if v <= 0 {
			return errors.Newf(errors.ErrCodeInvalidStrategy, "take profit pct must be positive, got %v", v)
		}
	}

	return nil
}

// EligibleFor reports whether the strategy may trade the given symbol.
func (s *StrategyDefinition) EligibleFor(symbol string) bool {
	for _, sym := range s.Symbols {
		if sym == symbol {
			return true
		}
	}

	return false
}

package evaluator

import (
	"github.com/replay-lab/replay-trading/internal/indicator"
	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// validFields lists the selectable components per indicator type. An
// empty field always selects the primary value.
var validFields = map[types.IndicatorType]map[string]bool{
	types.IndicatorTypeMACD: {
		"macd":      true,
		"signal":    true,
		"histogram": true,
	},
	types.IndicatorTypeBollingerBands: {
		"upper":  true,
		"middle": true,
		"lower":  true,
		"width":  true,
	},
}

// operand is one configured indicator reference of a compiled leaf.
type operand struct {
	ref       types.IndicatorRef
	indicator indicator.Indicator
}

func (o *operand) value(window []types.Bar) (float64, error) {
	v, err := o.indicator.Compute(window)
	if err != nil {
		return 0, err
	}

	f, ok := v.Field(o.ref.Field)
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidCondition, "indicator %s has no field %q", o.ref.Indicator, o.ref.Field)
	}

	return f, nil
}

// compiledNode is one node of a compiled condition tree. Leaves hold
// configured indicator instances; composites hold children.
type compiledNode struct {
	lhs        *operand
	comparator types.Comparator
	threshold  float64
	rhs        *operand

	conj     bool // true = all children must hold, false = any
	children []compiledNode
}

// eval evaluates the node over the given window. A window too short for
// any referenced indicator makes the node false rather than erroring,
// so warmup bars simply produce no signals.
func (n *compiledNode) eval(window []types.Bar) (bool, error) {
	if len(n.children) > 0 {
		for i := range n.children {
			ok, err := n.children[i].eval(window)
			if err != nil {
				return false, err
			}

			if n.conj && !ok {
				return false, nil
			}

			if !n.conj && ok {
				return true, nil
			}
		}

		return n.conj, nil
	}

	left, err := n.lhs.value(window)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return false, nil
		}

		return false, err
	}

	right := n.threshold

	if n.rhs != nil {
		right, err = n.rhs.value(window)
		if err != nil {
			if errors.IsInsufficientDataError(err) {
				return false, nil
			}

			return false, err
		}
	}

	switch n.comparator {
	case types.ComparatorLT:
		return left < right, nil
	case types.ComparatorLTE:
		return left <= right, nil
	case types.ComparatorGT:
		return left > right, nil
	case types.ComparatorGTE:
		return left >= right, nil
	default:
		return false, errors.Newf(errors.ErrCodeUnknownComparator, "unknown comparator: %q", n.comparator)
	}
}

func compileOperand(registry indicator.Registry, ref types.IndicatorRef) (*operand, error) {
	if ref.Field != "" {
		fields, multi := validFields[ref.Indicator]
		if !multi || !fields[ref.Field] {
			return nil, errors.Newf(errors.ErrCodeInvalidCondition, "indicator %s has no field %q", ref.Indicator, ref.Field)
		}
	}

	ind, err := registry.Create(ref.Indicator)
	if err != nil {
		return nil, err
	}

	if err := ind.Config(ref.Period); err != nil {
		return nil, err
	}

	return &operand{ref: ref, indicator: ind}, nil
}

func compileNode(registry indicator.Registry, expr *types.ConditionExpr) (compiledNode, error) {
	if err := expr.Validate(); err != nil {
		return compiledNode{}, err
	}

	if !expr.IsLeaf() {
		exprs := expr.All
		conj := true

		if len(expr.Any) > 0 {
			exprs = expr.Any
			conj = false
		}

		children := make([]compiledNode, 0, len(exprs))

		for i := range exprs {
			child, err := compileNode(registry, &exprs[i])
			if err != nil {
				return compiledNode{}, err
			}

			children = append(children, child)
		}

		return compiledNode{conj: conj, children: children}, nil
	}

	lhs, err := compileOperand(registry, *expr.LHS)
	if err != nil {
		return compiledNode{}, err
	}

	node := compiledNode{
		lhs:        lhs,
		comparator: expr.Comparator,
	}

	if expr.RHS != nil {
		rhs, err := compileOperand(registry, *expr.RHS)
		if err != nil {
			return compiledNode{}, err
		}

		node.rhs = rhs
	} else {
		node.threshold = *expr.Threshold
	}

	return node, nil
}

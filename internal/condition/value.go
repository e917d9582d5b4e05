package condition

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

type valueKind int

const (
	valueIndicator valueKind = iota
	valueConstant
	valueField
)

// Value is one side of a condition: an indicator referenced by its index in
// the owning strategy's indicator list, a fixed constant, or a bar field.
type Value struct {
	kind     valueKind
	index    int
	constant float64
	field    types.BarField
}

// Indicator references the indicator at the given index.
func Indicator(index int) Value {
	return Value{kind: valueIndicator, index: index}
}

// Constant wraps a fixed threshold.
func Constant(v float64) Value {
	return Value{kind: valueConstant, constant: v}
}

// Field reads a component of the current bar.
func Field(f types.BarField) Value {
	return Value{kind: valueField, field: f}
}

// Evaluate resolves the value against the current row. Indicator references
// that are out of range or not yet available resolve to None.
func (v Value) Evaluate(indicators []indicator.Indicator, bar types.Bar) optional.Option[float64] {
	switch v.kind {
	case valueIndicator:
		if v.index < 0 || v.index >= len(indicators) {
			return optional.None[float64]()
		}

		return indicators[v.index].Value()
	case valueConstant:
		return optional.Some(v.constant)
	default:
		return optional.Some(v.field.Extract(bar))
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case valueIndicator:
		return fmt.Sprintf("indicator[%d]", v.index)
	case valueConstant:
		return fmt.Sprintf("%g", v.constant)
	default:
		return string(v.field)
	}
}

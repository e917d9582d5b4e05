package condition

import (
	"fmt"

	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// Op is a comparison operator.
type Op string

const (
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpEqual        Op = "=="
	OpNotEqual     Op = "!="
)

// Compare is a stateless relational test between two values. It is satisfied
// whenever both sides resolve and the relation holds on the current row.
type Compare struct {
	left  Value
	op    Op
	right Value
}

// NewCompare creates a Compare condition.
func NewCompare(left Value, op Op, right Value) *Compare {
	return &Compare{left: left, op: op, right: right}
}

// Update implements Condition. Compare has no state; Update is Check.
func (c *Compare) Update(indicators []indicator.Indicator, bar types.Bar) bool {
	return c.Check(indicators, bar)
}

// Check implements Condition.
func (c *Compare) Check(indicators []indicator.Indicator, bar types.Bar) bool {
	left := c.left.Evaluate(indicators, bar)
	right := c.right.Evaluate(indicators, bar)

	if left.IsNone() || right.IsNone() {
		return false
	}

	l, r := left.Unwrap(), right.Unwrap()

	switch c.op {
	case OpGreater:
		return l > r
	case OpGreaterEqual:
		return l >= r
	case OpLess:
		return l < r
	case OpLessEqual:
		return l <= r
	case OpEqual:
		return l == r
	case OpNotEqual:
		return l != r
	default:
		return false
	}
}

// Reset implements Condition.
func (c *Compare) Reset() {}

// Name implements Condition.
func (c *Compare) Name() string {
	return fmt.Sprintf("%s %s %s", c.left, c.op, c.right)
}

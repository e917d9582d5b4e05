// Package condition implements boolean predicates over indicator values and
// bar fields. Conditions may carry state (crossing detection keeps the
// previous row's values), so every owner that needs independent behavior
// builds its own instances from factories.
package condition

import (
	"github.com/rxtech-lab/strategy-tester/internal/indicator"
	"github.com/rxtech-lab/strategy-tester/internal/types"
)

// Condition is a predicate evaluated once per row.
type Condition interface {
	// Update advances internal state with the current row and reports
	// whether the condition is satisfied on it.
	Update(indicators []indicator.Indicator, bar types.Bar) bool
	// Check reports whether the condition would be satisfied on the current
	// row without advancing state.
	Check(indicators []indicator.Indicator, bar types.Bar) bool
	// Reset drops internal state.
	Reset()
	// Name returns a short diagnostic name.
	Name() string
}

// Factory builds a fresh Condition instance with independent state.
type Factory func() Condition

// Build instantiates a list of factories.
func Build(factories []Factory) []Condition {
	conditions := make([]Condition, 0, len(factories))
	for _, f := range factories {
		conditions = append(conditions, f())
	}

	return conditions
}

// UpdateAll advances every condition with the current row and reports
// whether all of them are satisfied. All conditions are updated even after
// one reports false, so crossing state keeps moving with the data. An empty
// list is never satisfied.
func UpdateAll(conditions []Condition, indicators []indicator.Indicator, bar types.Bar) bool {
	if len(conditions) == 0 {
		return false
	}

	all := true

	for _, c := range conditions {
		if !c.Update(indicators, bar) {
			all = false
		}
	}

	return all
}

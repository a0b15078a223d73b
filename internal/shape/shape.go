// Package shape decides whether a segment's moment descriptors match the
// target brick shape.
//
// The decision is a fixed conjunction of range checks over M1, M2, M3, M7,
// M8 and M9. The bounds are literals tuned against the reference photo set;
// they are not runtime configuration.
package shape

import (
	"fmt"
	"math"

	"github.com/ironsheep/brick-finder/internal/moments"
)

// Rule bounds one descriptor to the closed interval [Min, Max].
// Unbounded sides are ±Inf.
type Rule struct {
	Descriptor moments.Descriptor `json:"descriptor"`
	Min        float64            `json:"min"`
	Max        float64            `json:"max"`
}

// Allows reports whether v lies inside the rule's interval. NaN never does.
func (r Rule) Allows(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// String formats the rule, e.g. "0.15 <= M1 <= 0.2".
func (r Rule) String() string {
	switch {
	case math.IsInf(r.Min, -1) && math.IsInf(r.Max, 1):
		return fmt.Sprintf("%s unbounded", r.Descriptor)
	case math.IsInf(r.Min, -1):
		return fmt.Sprintf("%s <= %g", r.Descriptor, r.Max)
	case math.IsInf(r.Max, 1):
		return fmt.Sprintf("%s >= %g", r.Descriptor, r.Min)
	default:
		return fmt.Sprintf("%g <= %s <= %g", r.Min, r.Descriptor, r.Max)
	}
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// rules are checked in order; the first failure rejects.
var rules = [...]Rule{
	{Descriptor: moments.M1, Min: 0.15, Max: 0.2},
	{Descriptor: moments.M2, Min: negInf, Max: 0.002},
	{Descriptor: moments.M3, Min: negInf, Max: 0.001},
	{Descriptor: moments.M7, Min: negInf, Max: 0.1},
	{Descriptor: moments.M8, Min: negInf, Max: 0.002},
	{Descriptor: moments.M9, Min: -0.0005, Max: 0.0005},
}

// Rules returns a copy of the validation rules in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules[:])
	return out
}

// IsValid reports whether s passes every rule.
func IsValid(s moments.Set) bool {
	_, ok := Check(s)
	return ok
}

// Check evaluates the rules in order and returns the first one s violates.
// ok is true when every rule passes, in which case the returned Rule is zero.
func Check(s moments.Set) (failed Rule, ok bool) {
	for _, r := range rules {
		if !r.Allows(s.Get(r.Descriptor)) {
			return r, false
		}
	}
	return Rule{}, true
}

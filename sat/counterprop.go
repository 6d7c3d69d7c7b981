package sat

// CounterPropagator is a native (non-clausal) cardinality propagator: it
// watches a fixed set of literals and enforces "at most Bound of them are
// true" without re-encoding a totaliser every time the bound tightens.
// Linear upper-bound search (spec.md §4.5, C9) lowers Bound once per
// improving solution; rebuilding a Totaliser that often would dominate
// solve time, so the bound check is done natively instead.
type CounterPropagator struct {
	Literals []Lit
	Bound    int

	trail *Trail
	// trueInTrailOrder is not read: Check collects the currently true
	// watched literals, in trail order, into a local slice on every call.
	trueInTrailOrder []Lit
}

// NewCounterPropagator creates a counter over literals with the given
// initial bound.
func NewCounterPropagator(trail *Trail, literals []Lit, bound int) *CounterPropagator {
	return &CounterPropagator{Literals: literals, Bound: bound, trail: trail}
}

// Tighten lowers the bound in place; callers must re-run Check
// immediately since previously acceptable assignments may now conflict.
func (cp *CounterPropagator) Tighten(bound int) {
	if bound < cp.Bound {
		cp.Bound = bound
	}
}

// Check scans the trail for true watched literals and returns a conflict
// clause (the negation of the Bound+1 watched literals that became true
// earliest, forcing at least one of them false) if more than Bound of
// them are currently true. Returns nil if within bound.
//
// This is a simple O(trail length) scan rather than an incremental
// watcher scheme: linear upper-bound search calls it once per
// propagation fixpoint, not once per literal assignment, so the cost is
// amortised against the far more expensive clausal propagation pass it
// follows.
func (cp *CounterPropagator) Check() []Lit {
	trueLits := make([]Lit, 0, len(cp.Literals))
	watched := make(map[Lit]bool, len(cp.Literals))
	for _, l := range cp.Literals {
		watched[l] = true
	}
	for i := 0; i < cp.trail.Len(); i++ {
		l := cp.trail.At(i)
		if watched[l] {
			trueLits = append(trueLits, l)
		}
	}
	if len(trueLits) <= cp.Bound {
		return nil
	}
	conflict := make([]Lit, cp.Bound+1)
	for i := 0; i <= cp.Bound; i++ {
		conflict[i] = trueLits[i].Not()
	}
	return conflict
}

package sat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCore(nVars int, policy PolarityPolicy) (*CDCLCore, *Propagator, *VarPool, *Trail, *VariableHeuristic) {
	trail := NewTrail(nVars)
	arena := NewArena()
	prop := NewPropagator(arena, trail)
	prop.Grow(nVars)
	pool := NewVarPool()
	for i := 0; i < nVars-2; i++ {
		pool.NewVar()
	}
	heur := NewVariableHeuristic(pool.Len(), policy)
	restart := NewConstantRestart(1000)
	core := NewCDCLCore(trail, prop, heur, restart, pool, nil)
	return core, prop, pool, trail, heur
}

func TestCoreGuidedSearchFindsLowerBound(t *testing.T) {
	core, prop, pool, _, heur := newTestCore(12, PolarityPhaseSaving)

	// Two mutually exclusive soft literals: at most one of x2, x3 can be
	// true, so if both are "soft wants true", one must pay its weight.
	x2, x3 := MkLit(2, false), MkLit(3, false)
	must(t, prop.AddPermanent([]Lit{x2.Not(), x3.Not()}))

	cg := NewCoreGuidedSearch(core, prop, heur, pool, []Lit{x2, x3}, []int64{1, 1}, false)
	optimal, err := cg.Run(context.Background())
	require.NoError(t, err)
	require.True(t, optimal, "expected the search to prove a lower bound")
	require.GreaterOrEqual(t, cg.LowerBound, int64(1),
		"expected a lower bound of at least 1 given the mutual exclusion")
}

func TestCoreGuidedSearchStratificationLowersThreshold(t *testing.T) {
	core, prop, pool, _, heur := newTestCore(10, PolarityPhaseSaving)
	_ = core
	_ = prop

	cg := NewCoreGuidedSearch(core, prop, heur, pool, []Lit{MkLit(2, false), MkLit(3, false)}, []int64{10, 1}, true)
	require.Equal(t, int64(10), cg.threshold, "expected stratified search to start at the max weight 10")
	require.True(t, cg.lowerStratum(), "expected a lower stratum to exist")
	require.Equal(t, int64(1), cg.threshold, "expected threshold to drop to 1")
	require.False(t, cg.lowerStratum(), "expected no further stratum once the lowest weight is reached")
}

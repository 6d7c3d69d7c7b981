package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreprocessorFoldsUnitClauses(t *testing.T) {
	prop, trail := newTestPropagator(8)
	pool := NewVarPool()
	for i := 0; i < 6; i++ {
		pool.NewVar()
	}
	heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)
	x2, x3 := MkLit(2, false), MkLit(3, false)
	must(t, prop.AddPermanent([]Lit{x2}))
	must(t, prop.AddPermanent([]Lit{x2.Not(), x3}))

	pp := NewPreprocessor(prop, trail, pool, heur)
	require.NoError(t, pp.Run())
	require.Equal(t, True, trail.ValueOf(x2))
	require.Equal(t, True, trail.ValueOf(x3))
}

func TestPreprocessorMergesEquivalentLiterals(t *testing.T) {
	prop, trail := newTestPropagator(8)
	pool := NewVarPool()
	for i := 0; i < 6; i++ {
		pool.NewVar()
	}
	heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)
	a, b := MkLit(2, false), MkLit(3, false)
	// (~a v b) & (~b v a) makes a and b equivalent.
	must(t, prop.AddPermanent([]Lit{a.Not(), b}))
	must(t, prop.AddPermanent([]Lit{b.Not(), a}))

	pp := NewPreprocessor(prop, trail, pool, heur)
	require.NoError(t, pp.Run())
	require.Less(t, pp.Stats.EquivalentClasses, pool.Len(),
		"expected fewer classes than variables once a and b merged, got %d classes for %d vars",
		pp.Stats.EquivalentClasses, pool.Len())
}

func TestPreprocessorDeduplicatesClauses(t *testing.T) {
	prop, trail := newTestPropagator(8)
	pool := NewVarPool()
	for i := 0; i < 6; i++ {
		pool.NewVar()
	}
	heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)
	a, b := MkLit(4, false), MkLit(5, false)
	must(t, prop.AddPermanent([]Lit{a, b}))
	must(t, prop.AddPermanent([]Lit{a, b}))

	pp := NewPreprocessor(prop, trail, pool, heur)
	require.NoError(t, pp.Run())
	require.NotZero(t, pp.Stats.ClausesDeduped, "expected the duplicate clause to be detected and removed")
}

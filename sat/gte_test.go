package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneralizedTotaliserWeightedBound(t *testing.T) {
	prop, trail := newTestPropagator(20)
	pool := NewVarPool()
	for i := 0; i < 10; i++ {
		pool.NewVar()
	}
	heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)

	a, b, c := MkLit(2, false), MkLit(3, false), MkLit(4, false)
	terms := []WeightedLiteral{
		{Literal: a, Weight: 3},
		{Literal: b, Weight: 5},
		{Literal: c, Weight: 2},
	}
	gte, err := BuildGTE(prop, heur, pool, terms, 10)
	require.NoError(t, err)

	require.Equal(t, LitTrue, gte.GEq(0), "GEq(0) should be trivially true")
	require.Equal(t, LitFalse, gte.GEq(11), "GEq(cap+1) should be trivially false")

	// Force a and c true (weight 3+2=5); LEq(4) must become false, LEq(5) true.
	must(t, prop.AddPermanent([]Lit{a}))
	must(t, prop.AddPermanent([]Lit{c}))
	must(t, prop.AddPermanent([]Lit{b.Not()}))
	require.Equal(t, RefNull, prop.Propagate(), "unexpected conflict")

	require.Equal(t, False, trail.ValueOf(gte.LEq(4)), "expected sum<=4 to be false once sum=5 is forced")
	require.Equal(t, True, trail.ValueOf(gte.LEq(5)), "expected sum<=5 to be true once sum=5 is forced")
}

package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotaliserAtLeastAtMostBounds(t *testing.T) {
	prop, trail := newTestPropagator(20)
	pool := NewVarPool()
	for i := 0; i < 10; i++ {
		pool.NewVar()
	}
	heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)

	leaves := []Lit{MkLit(2, false), MkLit(3, false), MkLit(4, false)}
	tot, err := BuildTotaliser(prop, heur, pool, leaves)
	require.NoError(t, err)

	require.Equal(t, LitTrue, tot.AtMost(3), "AtMost(size) should be trivially true")
	require.Equal(t, LitTrue, tot.AtLeast(0), "AtLeast(0) should be trivially true")
	require.Equal(t, LitFalse, tot.AtLeast(4), "AtLeast(size+1) should be trivially false")

	// Force all three leaves true; propagation should force AtLeast(3) true.
	for _, l := range leaves {
		require.NoError(t, prop.AddPermanent([]Lit{l}))
	}
	require.Equal(t, RefNull, prop.Propagate(), "unexpected conflict propagating unit leaves")
	require.Equal(t, True, trail.ValueOf(tot.AtLeast(3)), "expected AtLeast(3) forced true once all leaves are true")
}

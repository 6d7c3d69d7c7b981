package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolutionTrackerRecordsImprovement(t *testing.T) {
	prop, trail := newTestPropagator(8)
	pool := NewVarPool()
	for i := 0; i < 6; i++ {
		pool.NewVar()
	}
	x2 := MkLit(2, false)
	obj := LinearFunction{Terms: []WeightedLiteral{{Literal: x2, Weight: 5}}}
	tracker := NewSolutionTracker([]LinearFunction{obj})

	var improved int
	tracker.OnImprovement = func(costs []int64, model []Value) { improved++ }

	must(t, prop.AddPermanent([]Lit{x2}))
	prop.Propagate()
	require.True(t, tracker.ConsiderSolution(trail, pool), "first solution should always be recorded")
	require.Equal(t, int64(5), tracker.BestCosts()[0])
	require.Equal(t, 1, improved, "expected OnImprovement called once")
	require.False(t, tracker.ConsiderSolution(trail, pool), "an identical-cost solution should not count as an improvement")
}

func TestLexLess(t *testing.T) {
	cases := []struct {
		a, b []int64
		want bool
	}{
		{[]int64{1, 5}, []int64{2, 0}, true},
		{[]int64{2, 0}, []int64{1, 5}, false},
		{[]int64{3, 3}, []int64{3, 3}, false},
		{[]int64{3, 2}, []int64{3, 3}, true},
	}
	for _, c := range cases {
		require.Equal(t, c.want, lexLess(c.a, c.b), "lexLess(%v, %v)", c.a, c.b)
	}
}

func TestIsBMOSoundDetectsOverlap(t *testing.T) {
	a := LinearFunction{Terms: []WeightedLiteral{{Literal: MkLit(2, false), Weight: 10}}}
	b := LinearFunction{Terms: []WeightedLiteral{{Literal: MkLit(3, false), Weight: 5}, {Literal: MkLit(4, false), Weight: 20}}}
	require.False(t, IsBMOSound([]LinearFunction{a, b}),
		"expected unsound: objective b's range (25) can outweigh a single unit of a (10)")

	c := LinearFunction{Terms: []WeightedLiteral{{Literal: MkLit(3, false), Weight: 1}}}
	require.True(t, IsBMOSound([]LinearFunction{a, c}),
		"expected sound: objective c's range (1) cannot outweigh a's unit (10)")
}

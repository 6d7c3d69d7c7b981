package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrailEnqueueAndBacktrack(t *testing.T) {
	trail := NewTrail(10)
	l1 := MkLit(2, false)
	l2 := MkLit(3, true)

	trail.Enqueue(l1, DecisionReason)
	trail.NewDecisionLevel()
	trail.Enqueue(l2, DecisionReason)

	require.Equal(t, 1, trail.CurrentLevel())
	require.Equal(t, True, trail.ValueOf(l1))
	require.Equal(t, True, trail.ValueOf(l2))
	require.Equal(t, False, trail.ValueOf(l2.Not()))

	trail.BacktrackTo(0)
	require.Equal(t, 0, trail.CurrentLevel())
	require.Equal(t, Unassigned, trail.ValueOf(l2), "l2 should be unassigned after backtrack past its level")
	require.Equal(t, True, trail.ValueOf(l1), "l1 at level 0 should survive a backtrack to 0")
}

func TestTrailMonotonicity(t *testing.T) {
	// spec property: trail length is non-decreasing between backtracks,
	// and every literal at a lower trail position has level <= any
	// literal at a higher position.
	trail := NewTrail(20)
	for i := 0; i < 5; i++ {
		trail.NewDecisionLevel()
		trail.Enqueue(MkLit(Var(2+i), false), DecisionReason)
	}
	prevLevel := -1
	for i := 0; i < trail.Len(); i++ {
		lv := trail.LevelOf(trail.At(i).Var())
		require.GreaterOrEqual(t, lv, prevLevel, "trail level decreased at position %d", i)
		prevLevel = lv
	}
}

func TestTrailReset(t *testing.T) {
	trail := NewTrail(5)
	trail.Enqueue(MkLit(2, false), DecisionReason)
	trail.NewDecisionLevel()
	trail.Enqueue(MkLit(3, false), DecisionReason)
	trail.Reset()
	require.Equal(t, 0, trail.Len())
	require.Equal(t, 0, trail.CurrentLevel())
	require.Equal(t, Unassigned, trail.ValueOf(MkLit(2, false)), "variable still assigned after reset")
}

package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVariableHeuristicBumpReordersHeap(t *testing.T) {
	h := NewVariableHeuristic(6, PolarityPhaseSaving)
	trail := NewTrail(6)

	h.Bump(Var(5))
	h.Bump(Var(5))
	h.Bump(Var(4))

	lit, ok := h.NextDecision(trail)
	require.True(t, ok, "expected a decision to be available")
	require.Equal(t, Var(5), lit.Var(), "expected var 5 (highest bumped activity) first")
}

func TestVariableHeuristicFreezeExcludesFromDecisions(t *testing.T) {
	h := NewVariableHeuristic(4, PolarityPhaseSaving)
	trail := NewTrail(4)

	h.Freeze(Var(2))
	h.Freeze(Var(3))

	_, ok := h.NextDecision(trail)
	require.False(t, ok, "expected no decision available once all free variables are frozen")
}

func TestVariableHeuristicUnfreezeRestoresEligibility(t *testing.T) {
	h := NewVariableHeuristic(4, PolarityPhaseSaving)
	trail := NewTrail(4)

	h.Freeze(Var(2))
	h.Freeze(Var(3))
	h.Unfreeze(Var(3))

	lit, ok := h.NextDecision(trail)
	require.True(t, ok, "expected var 3 to be decidable after unfreeze")
	require.Equal(t, Var(3), lit.Var())
}

func TestVariableHeuristicSkipsAssignedVariables(t *testing.T) {
	h := NewVariableHeuristic(4, PolarityPhaseSaving)
	trail := NewTrail(4)

	trail.NewDecisionLevel()
	trail.Enqueue(MkLit(2, false), DecisionReason)

	lit, ok := h.NextDecision(trail)
	require.True(t, ok, "expected a decision among remaining unassigned variables")
	require.NotEqual(t, Var(2), lit.Var(), "heuristic returned an already-assigned variable")
}

func TestVariableHeuristicSolutionGuidedPolarity(t *testing.T) {
	h := NewVariableHeuristic(4, PolaritySolutionGuided)
	trail := NewTrail(4)
	h.SetBestSolution([]Value{Unassigned, Unassigned, True, False})

	h.Freeze(Var(3))
	lit, ok := h.NextDecision(trail)
	require.True(t, ok, "expected a decision")
	require.Equal(t, Var(2), lit.Var())
	require.False(t, lit.Negated(), "expected positive literal for var 2 per incumbent solution")
}

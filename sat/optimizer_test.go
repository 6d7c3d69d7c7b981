package sat

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xDarkicex/maxsat/dimacs"
)

func TestOptimiserSolveFindsMinimum(t *testing.T) {
	core, prop, pool, _, _ := newTestCore(12, PolarityPhaseSaving)
	x2, x3 := MkLit(2, false), MkLit(3, false)
	// Exactly one of x2, x3 must be true; minimise x2+x3 (each weight 1).
	must(t, prop.AddPermanent([]Lit{x2, x3}))
	must(t, prop.AddPermanent([]Lit{x2.Not(), x3.Not()}))

	objective := LinearFunction{Terms: []WeightedLiteral{{Literal: x2, Weight: 1}, {Literal: x3, Weight: 1}}}
	opt := NewOptimiser(core, prop, pool, nil, nil)
	objective, err := opt.Preprocess(objective)
	require.NoError(t, err)

	out, err := opt.Solve(context.Background(), objective)
	require.NoError(t, err)
	require.True(t, out.IsOptimal(), "expected an optimal outcome, got %v", out.Kind)
	require.Equal(t, int64(1), out.Costs[0], "expected optimum cost 1 (exactly one of x2/x3 true)")
}

func TestOptimiserSolveDetectsInfeasible(t *testing.T) {
	core, prop, pool, _, _ := newTestCore(10, PolarityPhaseSaving)
	x2, x3 := MkLit(2, false), MkLit(3, false)
	// x2 is a root unit, and the two binary clauses together force not x2;
	// AddPermanent itself rejects only a unit that is already false at the root.
	must(t, prop.AddPermanent([]Lit{x2}))
	must(t, prop.AddPermanent([]Lit{x2.Not(), x3}))
	must(t, prop.AddPermanent([]Lit{x2.Not(), x3.Not()}))

	opt := NewOptimiser(core, prop, pool, nil, nil)
	objective := LinearFunction{Terms: []WeightedLiteral{{Literal: x2, Weight: 1}}}
	objective, err := opt.Preprocess(objective)
	if err == nil {
		out, serr := opt.Solve(context.Background(), objective)
		require.NoError(t, serr)
		require.True(t, out.IsInfeasible(), "expected infeasible outcome, got %v", out.Kind)
		return
	}
	require.True(t, IsKind(err, ErrRootUnsat), "expected ErrRootUnsat from Preprocess on a contradictory root, got %v", err)
}

// buildWCNFOptimiser wires a fresh solver instance from WCNF text, the same
// path cmd/maxsatcli's runSolve takes for a .wcnf input.
func buildWCNFOptimiser(t *testing.T, text string) (*Optimiser, LinearFunction) {
	t.Helper()
	w, err := dimacs.ReadWCNF(strings.NewReader(text))
	require.NoError(t, err)

	trail := NewTrail(2)
	arena := NewArena()
	prop := NewPropagator(arena, trail)
	pool := NewVarPool()
	heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)
	softLits, softWeights, objective, err := LoadWCNF(prop, pool, heur, trail, w)
	require.NoError(t, err)

	core := NewCDCLCore(trail, prop, heur, NewConstantRestart(1000), pool, nil)
	opt := NewOptimiser(core, prop, pool, nil, nil)
	opt.SoftLits, opt.SoftWeights = softLits, softWeights
	return opt, objective
}

// TestWCNFScenarios drives spec.md's S1-S3 concrete Weighted Partial
// MaxSAT scenarios end to end: parse WCNF text, preprocess, solve, and
// check the proven-optimal cost.
func TestWCNFScenarios(t *testing.T) {
	cases := []struct {
		name string
		wcnf string
		cost int64
	}{
		{"S1", "p wcnf 1 1 10\n10 1 0\n", 0},
		{"S2", "p wcnf 1 2 10\n10 1 0\n5 -1 0\n", 5},
		{"S3", "p wcnf 2 3 10\n10 1 2 0\n3 -1 0\n4 -2 0\n", 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			opt, objective := buildWCNFOptimiser(t, c.wcnf)
			objective, err := opt.Preprocess(objective)
			require.NoError(t, err)

			out, err := opt.SolveWeighted(context.Background(), objective)
			require.NoError(t, err)
			require.True(t, out.IsOptimal(), "expected proven-optimal outcome, got %v", out.Kind)
			require.Equal(t, c.cost, out.Costs[0])
		})
	}
}

// TestCNFScenarios drives spec.md's S4-S5 plain-CNF scenarios end to end.
func TestCNFScenarios(t *testing.T) {
	t.Run("S4_satisfiable", func(t *testing.T) {
		cnf, err := dimacs.ReadCNF(strings.NewReader("p cnf 2 2\n1 2 0\n-1 -2 0\n"))
		require.NoError(t, err)

		trail := NewTrail(2)
		arena := NewArena()
		prop := NewPropagator(arena, trail)
		pool := NewVarPool()
		heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)
		must(t, LoadCNF(prop, pool, heur, trail, cnf))

		core := NewCDCLCore(trail, prop, heur, NewConstantRestart(1000), pool, nil)
		status, err := core.Solve(context.Background())
		require.NoError(t, err)
		require.Equal(t, Satisfiable, status)
	})

	t.Run("S5_infeasible", func(t *testing.T) {
		cnf, err := dimacs.ReadCNF(strings.NewReader("p cnf 1 2\n1 0\n-1 0\n"))
		require.NoError(t, err)

		trail := NewTrail(2)
		arena := NewArena()
		prop := NewPropagator(arena, trail)
		pool := NewVarPool()
		heur := NewVariableHeuristic(pool.Len(), PolarityPhaseSaving)
		err = LoadCNF(prop, pool, heur, trail, cnf)
		if err != nil {
			require.True(t, IsKind(err, ErrRootUnsat), "expected ErrRootUnsat, got %v", err)
			return
		}
		core := NewCDCLCore(trail, prop, heur, NewConstantRestart(1000), pool, nil)
		status, err := core.Solve(context.Background())
		require.NoError(t, err)
		require.Equal(t, Unsatisfiable, status)
	})
}

// TestAMOCliqueScenario drives spec.md's S6: three mutually exclusive soft
// unit clauses, where the preprocessor's at-most-one clique rewriter
// should recognize the exclusion directly from the hard clauses.
func TestAMOCliqueScenario(t *testing.T) {
	wcnf := "p wcnf 3 6 10\n" +
		"1 1 0\n1 2 0\n1 3 0\n" +
		"10 -1 -2 0\n10 -1 -3 0\n10 -2 -3 0\n"
	opt, objective := buildWCNFOptimiser(t, wcnf)
	objective, err := opt.Preprocess(objective)
	require.NoError(t, err)
	require.NotZero(t, opt.prep.Stats.AMOClauses,
		"expected the preprocessor to detect the at-most-one clique among x1,x2,x3")

	out, err := opt.SolveWeighted(context.Background(), objective)
	require.NoError(t, err)
	require.True(t, out.IsOptimal(), "expected proven-optimal outcome, got %v", out.Kind)
	require.Equal(t, int64(2), out.Costs[0],
		"expected cost 2 (exactly one of three mutually exclusive softs satisfied)")
}

package sat

import "context"

// Solver is the contract the optimiser driver (C13) depends on rather
// than on *CDCLCore directly, so tests can substitute a stub core without
// dragging in the whole propagation stack.
type Solver interface {
	Solve(ctx context.Context) (Status, error)
	SolveAssumptions(ctx context.Context, assumptions []Lit) (Status, []Lit, error)
	Stats() SolveStats
}

var _ Solver = (*CDCLCore)(nil)

// ConflictAnalyzer is the contract AnalyseConflict satisfies, broken out
// so a propagator substitute in tests can supply canned conflict analysis
// without a full two-watched-literal implementation.
type ConflictAnalyzer interface {
	AnalyseConflict(conflict ClauseRef) (learned []Lit, backjumpLevel int, lbd int)
}

var _ ConflictAnalyzer = (*Propagator)(nil)

// DecisionHeuristic is the contract CDCLCore needs from a variable
// heuristic: pick the next decision literal, and be told about bumps and
// backtracking. VariableHeuristic is the only implementation, but the
// interface keeps CDCLCore's dependency on it explicit and narrow.
type DecisionHeuristic interface {
	NextDecision(trail *Trail) (Lit, bool)
	Bump(v Var)
	Decay()
	SavePhase(v Var, positive bool)
	Restore(v Var)
}

var _ DecisionHeuristic = (*VariableHeuristic)(nil)

// ExternalChecker is a native (non-clausal) propagator consulted once
// clausal propagation reaches a fixpoint. CounterPropagator is the only
// implementation today; the interface exists so linear upper-bound
// search's bound check is swappable without touching CDCLCore (spec.md §9
// "native propagator extension point").
type ExternalChecker interface {
	// Check returns a falsified clause (every literal currently false)
	// if the checker's invariant is violated by the current trail, or
	// nil if it holds.
	Check() []Lit
}

var _ ExternalChecker = (*CounterPropagator)(nil)

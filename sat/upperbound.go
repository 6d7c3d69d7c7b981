package sat

import "context"

// UpperBoundSearch repeatedly solves under a tightening `objective <=
// UB-1` constraint, recording each strictly improving model, until the
// constrained formula becomes unsatisfiable — at which point the last
// recorded model is optimal (spec.md §4.5, C9).
type UpperBoundSearch struct {
	Core      *CDCLCore
	Objective LinearFunction

	// Exactly one of GTE or Counter is set: weighted objectives build a
	// GeneralizedTotaliser so `objective <= UB-1` is a reusable unit
	// assumption; unweighted (plain cardinality) objectives instead
	// register a CounterPropagator on Core.Counters, since a native
	// bound check costs nothing to tighten between iterations while a
	// cardinality network would have to be rebuilt (spec.md §4.5).
	GTE     *GeneralizedTotaliser
	Counter *CounterPropagator

	// BestCost and BestModel hold the incumbent; BestModel is nil until
	// the first feasible solution is found.
	BestCost  int64
	BestModel []Value

	// Tracker, if set, is given every improving solution alongside this
	// search's own incumbent bookkeeping, so a caller comparing against
	// other objectives (BMO) or streaming progress via OnImprovement sees
	// the same solutions this search does (spec.md §4.9, C12).
	Tracker *SolutionTracker

	// PruneOnImprovement, if set, is called with the new incumbent cost
	// once the trail has been backtracked to the root after each
	// improving solution, so the caller can tighten objective-term
	// domains against the new bound (spec.md §4.8 step 2, §4.9 step 5)
	// while the solver is in a safe state to add root-level clauses.
	PruneOnImprovement func(cost int64) error
}

// NewUpperBoundSearch prepares the bounding constraint for objective,
// capped at its maximum possible value (the sum of all term weights), so
// the same encoding serves every tightening iteration without rebuilding.
func NewUpperBoundSearch(core *CDCLCore, prop *Propagator, heur *VariableHeuristic, pool *VarPool, objective LinearFunction) (*UpperBoundSearch, error) {
	cap := objective.TotalWeight()
	u := &UpperBoundSearch{Core: core, Objective: objective, BestCost: cap + 1}

	if isUnweighted(objective) {
		lits := make([]Lit, len(objective.Terms))
		for i, t := range objective.Terms {
			lits[i] = t.Literal
		}
		u.Counter = NewCounterPropagator(core.Trail, lits, len(lits))
		core.Counters = append(core.Counters, u.Counter)
		return u, nil
	}

	gte, err := BuildGTE(prop, heur, pool, objective.Terms, cap)
	if err != nil {
		return nil, err
	}
	u.GTE = gte
	return u, nil
}

func isUnweighted(obj LinearFunction) bool {
	for _, t := range obj.Terms {
		if t.Weight != 1 {
			return false
		}
	}
	return len(obj.Terms) > 0
}

// Run drives the search to completion (or until ctx is cancelled),
// returning true if at least one feasible solution was found, and
// whether the last one found is proven optimal (i.e. the bounded formula
// became UNSAT rather than search being cut short by the deadline).
func (u *UpperBoundSearch) Run(ctx context.Context) (found bool, optimal bool, err error) {
	for {
		var assumptions []Lit
		if u.BestModel != nil {
			bound := u.BestCost - 1 - u.Objective.Constant // bound on the terms alone
			if bound < 0 {
				return found, true, nil // the constant, the lowest possible cost, is already reached
			}
			if u.Counter != nil {
				if bound >= int64(len(u.Counter.Literals)) {
					return found, true, nil
				}
				u.Counter.Tighten(int(bound))
			} else {
				l := u.GTE.LEq(bound)
				if l == LitFalse {
					return found, true, nil
				}
				if l != LitTrue {
					assumptions = []Lit{l}
				}
			}
		}

		status, _, serr := u.Core.SolveAssumptions(ctx, assumptions)
		if serr != nil {
			return found, false, serr
		}
		switch status {
		case Unsatisfiable:
			return found, true, nil
		case Unknown:
			return found, false, nil
		case Satisfiable:
			cost := evaluateObjective(u.Objective, u.Core.Trail)
			found = true
			u.BestCost = cost
			u.BestModel = snapshotAssignment(u.Core.Trail, u.Core.Pool)
			if u.Tracker != nil {
				u.Tracker.ConsiderSolution(u.Core.Trail, u.Core.Pool)
			}
			u.Core.backtrackTo(0)
			u.Core.Prop.ResetQueue()
			if u.PruneOnImprovement != nil {
				if err := u.PruneOnImprovement(u.BestCost); err != nil {
					return found, false, err
				}
			}
		}
	}
}

func evaluateObjective(obj LinearFunction, trail *Trail) int64 {
	total := obj.Constant
	for _, t := range obj.Terms {
		if trail.ValueOf(t.Literal) == True {
			total += t.Weight
		}
	}
	return total
}

func snapshotAssignment(trail *Trail, pool *VarPool) []Value {
	n := pool.Len()
	out := make([]Value, n)
	for v := Var(0); int(v) < n; v++ {
		out[v] = trail.ValueOf(MkLit(v, false))
	}
	return out
}

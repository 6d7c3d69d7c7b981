package sat

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
)

// OutcomeKind classifies a SolverOutput's result, mirroring the original
// solver's solver_output predicates (spec.md §11, supplemented from
// original_source/.../solver_output.h): a caller asks "is this proven
// optimal", "is this infeasible", "did we run out of time", rather than
// switching on an ad-hoc status code.
type OutcomeKind int

const (
	OutcomeInfeasible OutcomeKind = iota
	OutcomeOptimal
	OutcomeFeasibleSuboptimal // a solution was found but the bound search didn't finish
	OutcomeUnknown            // no solution found and no proof of infeasibility (deadline)
)

// SolverOutput is the result object the optimiser driver hands back to a
// caller: a conclusion plus, when applicable, a model and its objective
// cost(s) (spec.md §11, A3).
type SolverOutput struct {
	Kind  OutcomeKind
	Model []Value
	Costs []int64
	Stats SolveStats
}

func (o *SolverOutput) IsOptimal() bool       { return o.Kind == OutcomeOptimal }
func (o *SolverOutput) IsInfeasible() bool    { return o.Kind == OutcomeInfeasible }
func (o *SolverOutput) HasSolution() bool     { return o.Model != nil }
func (o *SolverOutput) IsProvenComplete() bool { return o.Kind == OutcomeOptimal || o.Kind == OutcomeInfeasible }

// Optimiser is the top-level driver (spec.md §4.10, C13): it wires a
// propagator, trail, heuristic, restart strategy, and preprocessor into a
// CDCLCore, runs preprocessing once, then dispatches to linear
// upper-bound search, core-guided lower-bound search, or a BMO/
// lexicographic-stratified loop, depending on how it's configured.
type Optimiser struct {
	Core    *CDCLCore
	Prop    *Propagator
	Pool    *VarPool
	Params  *ParamRegistry
	Log     *logrus.Entry
	Tracker *SolutionTracker

	// SoftLits and SoftWeights describe the weighted partial MaxSAT
	// soft constraints for core-guided search; nil if this instance only
	// does a single-objective linear search. SoftLits[i] costs
	// SoftWeights[i] when true (the objective's convention, as LoadWCNF
	// returns them); SolveWeighted hands their negations to
	// CoreGuidedSearch.
	SoftLits    []Lit
	SoftWeights []int64

	prep *Preprocessor
}

// NewOptimiser wires one solver instance together from its components,
// defaulting Params to DefaultParamRegistry() if nil.
func NewOptimiser(core *CDCLCore, prop *Propagator, pool *VarPool, params *ParamRegistry, log *logrus.Entry) *Optimiser {
	if params == nil {
		params = DefaultParamRegistry()
	}
	return &Optimiser{Core: core, Prop: prop, Pool: pool, Params: params, Log: log}
}

// Preprocess runs the structural preprocessor once, before any search,
// over objective (the zero LinearFunction is a valid argument for a
// plain-CNF caller with nothing to optimise). It returns the objective as
// rewritten by preprocessing (folded, UF-rewritten, AMO-restaffed), which
// callers must pass on to Solve/SolveWeighted/SolveBMO instead of their
// original copy. Safe to call at most once per instance.
func (o *Optimiser) Preprocess(objective LinearFunction) (LinearFunction, error) {
	obj := objective.CanonicalForm()
	o.prep = NewPreprocessor(o.Prop, o.Core.Trail, o.Pool, o.Core.Heur)
	o.prep.Objective = obj
	if err := o.prep.Run(); err != nil {
		return LinearFunction{}, err
	}
	return *o.prep.Objective, nil
}

// PruneDomainsForUB re-runs the preprocessor's domain-pruning step against
// a tightened upper bound, folding any objective term whose weight alone
// now exceeds ub (spec.md §4.8 step 2, §4.9 step 5). A no-op if Preprocess
// was never called.
func (o *Optimiser) PruneDomainsForUB(ub int64) error {
	if o.prep == nil {
		return nil
	}
	return o.prep.PruneDomainsByUB(ub)
}

// optimisticInitialSolution runs one assumption-based solve with every
// objective literal assumed to its cost-free polarity (spec.md §4.9 step
// 3): if the formula is satisfiable with no objective term paying
// anything, that's an immediate zero-cost optimum; otherwise the
// assumption conflict still warms the heuristic's learned clauses before
// the real search begins. The trail is unwound back to the root
// afterwards either way, mirroring UpperBoundSearch.Run's own
// backtrack-and-reset-queue idiom.
func (o *Optimiser) optimisticInitialSolution(ctx context.Context, objective LinearFunction, tracker *SolutionTracker) (bool, error) {
	if o.Params != nil && !o.Params.GetBool("optimistic-initial-solution") {
		return false, nil
	}
	if len(objective.Terms) == 0 {
		return false, nil
	}
	assumptions := make([]Lit, len(objective.Terms))
	for i, t := range objective.Terms {
		assumptions[i] = t.Literal.Not()
	}
	status, _, err := o.Core.SolveAssumptions(ctx, assumptions)
	if err != nil {
		return false, err
	}
	found := status == Satisfiable
	if found && tracker != nil {
		tracker.ConsiderSolution(o.Core.Trail, o.Pool)
	}
	o.Core.backtrackTo(0)
	o.Core.Prop.ResetQueue()
	return found, nil
}

// Solve runs single-objective Weighted Partial MaxSAT optimisation via
// linear upper-bound search (spec.md §4.10's "solve" operation). When the
// "lexicographical" parameter is set, the objective is first partitioned
// into weight strata and solved highest-weight stratum first, each
// proven-optimal stratum cost fixed as a hard constraint before the next
// (spec.md §4.9 steps 6-7).
func (o *Optimiser) Solve(ctx context.Context, objective LinearFunction) (*SolverOutput, error) {
	objective = *objective.CanonicalForm()

	if o.Params != nil && o.Params.GetBool("lexicographical") {
		if strata, ok := o.lexicographicStrata(objective); ok {
			return o.solveStratified(ctx, strata)
		}
	}
	return o.solveFlat(ctx, objective)
}

// lexicographicStrata partitions objective's terms into weight strata
// (spec.md §4.9 step 6: a new stratum starts whenever the next term's
// weight exceeds the running sum of every term collected so far), then
// checks IsBMOSound over the resulting per-stratum ranges before
// recommending the stratified path — the construction is designed to
// always satisfy this precondition, so a false return means the
// objective had fewer than two strata worth splitting, not an error.
func (o *Optimiser) lexicographicStrata(objective LinearFunction) ([]LinearFunction, bool) {
	if len(objective.Terms) < 2 {
		return nil, false
	}
	terms := append([]WeightedLiteral(nil), objective.Terms...)
	sort.Slice(terms, func(i, j int) bool { return terms[i].Weight < terms[j].Weight })

	var strata [][]WeightedLiteral
	var runningSum int64
	for _, t := range terms {
		if len(strata) == 0 || t.Weight > runningSum {
			strata = append(strata, nil)
		}
		strata[len(strata)-1] = append(strata[len(strata)-1], t)
		runningSum += t.Weight
	}
	if len(strata) < 2 {
		return nil, false
	}
	out := make([]LinearFunction, len(strata))
	for i, s := range strata {
		out[i] = LinearFunction{Terms: s}
	}
	if !IsBMOSound(out) {
		return nil, false
	}
	return out, true
}

// solveStratified solves strata highest-weight-first to proven optimality,
// fixing each stratum's cost as a hard constraint before moving to the
// next and summing costs across strata (one flat objective's strata are
// not independent BMO objectives, so costs add rather than staying
// separate per entry).
func (o *Optimiser) solveStratified(ctx context.Context, strata []LinearFunction) (*SolverOutput, error) {
	out := &SolverOutput{Kind: OutcomeUnknown}
	var total int64

	for i := len(strata) - 1; i >= 0; i-- {
		res, err := o.solveFlat(ctx, strata[i])
		if err != nil {
			return nil, err
		}
		out.Stats = res.Stats
		if res.IsInfeasible() {
			out.Kind = OutcomeInfeasible
			return out, nil
		}
		if !res.HasSolution() {
			out.Kind = OutcomeUnknown
			return out, nil
		}
		total += res.Costs[0]
		out.Model = res.Model
		if !res.IsOptimal() {
			out.Kind = OutcomeFeasibleSuboptimal
			out.Costs = []int64{total}
			return out, nil
		}
		if i > 0 {
			if err := o.fixObjectiveAt(strata[i], res.Costs[0]); err != nil {
				return nil, err
			}
		}
	}

	out.Kind = OutcomeOptimal
	out.Costs = []int64{total}
	return out, nil
}

// solveFlat is the non-stratified linear upper-bound search body shared
// by Solve and each stratum of solveStratified.
func (o *Optimiser) solveFlat(ctx context.Context, objective LinearFunction) (*SolverOutput, error) {
	out := &SolverOutput{Kind: OutcomeUnknown}

	tracker := NewSolutionTracker([]LinearFunction{objective})
	o.Tracker = tracker

	if _, err := o.optimisticInitialSolution(ctx, objective, tracker); err != nil {
		return nil, err
	}

	ub, err := NewUpperBoundSearch(o.Core, o.Prop, o.Core.Heur, o.Pool, objective)
	if err != nil {
		return nil, err
	}
	ub.Tracker = tracker
	ub.PruneOnImprovement = o.PruneDomainsForUB

	found, optimalUB, err := ub.Run(ctx)
	if err != nil {
		return nil, err
	}
	out.Stats = o.Core.Stats()

	if !found {
		if optimalUB {
			out.Kind = OutcomeInfeasible
			return out, nil
		}
		return out, nil // Unknown: deadline hit before any model was found
	}

	out.Model = tracker.BestModel()
	out.Costs = tracker.BestCosts()
	if optimalUB {
		out.Kind = OutcomeOptimal
	} else {
		out.Kind = OutcomeFeasibleSuboptimal
	}
	return out, nil
}

// SolveWeighted runs core-guided lower-bound search over the configured
// soft clauses alongside linear upper-bound search on the same objective,
// returning once the proven lower bound meets the best found upper bound
// (spec.md §4.10).
func (o *Optimiser) SolveWeighted(ctx context.Context, objective LinearFunction) (*SolverOutput, error) {
	objective = *objective.CanonicalForm()
	out := &SolverOutput{Kind: OutcomeUnknown}

	tracker := NewSolutionTracker([]LinearFunction{objective})
	o.Tracker = tracker

	if _, err := o.optimisticInitialSolution(ctx, objective, tracker); err != nil {
		return nil, err
	}

	weightAware := o.Params != nil && o.Params.GetBool("weight-aware-core-extraction")
	softLits := make([]Lit, len(o.SoftLits))
	for i, l := range o.SoftLits {
		softLits[i] = l.Not() // core-guided search assumes the cost-free value
	}
	cg := NewCoreGuidedSearch(o.Core, o.Prop, o.Core.Heur, o.Pool, softLits, o.SoftWeights, o.Params.GetBool("stratified-core-guided"))
	cg.WeightAwareExtraction = weightAware
	ub, err := NewUpperBoundSearch(o.Core, o.Prop, o.Core.Heur, o.Pool, objective)
	if err != nil {
		return nil, err
	}
	ub.Tracker = tracker
	ub.PruneOnImprovement = o.PruneDomainsForUB

	for {
		found, optimalUB, err := ub.Run(ctx)
		if err != nil {
			return nil, err
		}
		out.Stats = o.Core.Stats()
		if found {
			out.Model = tracker.BestModel()
			out.Costs = tracker.BestCosts()
		}
		if !found && optimalUB {
			out.Kind = OutcomeInfeasible
			return out, nil
		}
		if !found {
			return out, nil
		}
		if tracker.BestCosts()[0] == cg.LowerBound {
			out.Kind = OutcomeOptimal
			return out, nil
		}

		lbOptimal, err := cg.Run(ctx)
		if err != nil {
			return nil, err
		}
		out.Stats = o.Core.Stats()
		if lbOptimal && cg.LowerBound == tracker.BestCosts()[0] {
			out.Kind = OutcomeOptimal
			return out, nil
		}
		if !lbOptimal {
			out.Kind = OutcomeFeasibleSuboptimal
			return out, nil
		}
		if optimalUB {
			out.Kind = OutcomeOptimal
			return out, nil
		}
	}
}

// SolveBMO runs Boolean Multi-objective Optimisation: objectives are
// optimised in priority order, each earlier objective's optimum fixed as
// a hard constraint before the next is considered (spec.md §7, BMO
// supplement from original_source). Callers must ensure IsBMOSound
// first; SolveBMO does not re-check it.
func (o *Optimiser) SolveBMO(ctx context.Context, objectives []LinearFunction) (*SolverOutput, error) {
	out := &SolverOutput{Kind: OutcomeUnknown}
	costs := make([]int64, 0, len(objectives))

	for _, obj := range objectives {
		res, err := o.solveFlat(ctx, *obj.CanonicalForm())
		if err != nil {
			return nil, err
		}
		out.Stats = res.Stats
		if res.IsInfeasible() {
			out.Kind = OutcomeInfeasible
			return out, nil
		}
		if !res.HasSolution() {
			out.Kind = OutcomeUnknown
			return out, nil
		}
		costs = append(costs, res.Costs[0])
		out.Model = res.Model
		if err := o.fixObjectiveAt(obj, res.Costs[0]); err != nil {
			return nil, err
		}
		if !res.IsOptimal() {
			out.Kind = OutcomeFeasibleSuboptimal
			out.Costs = costs
			return out, nil
		}
	}

	out.Kind = OutcomeOptimal
	out.Costs = costs
	return out, nil
}

// fixObjectiveAt asserts `objective <= cost` as a permanent constraint via
// a fresh GTE so the next objective in priority order is optimised
// without regressing this one.
func (o *Optimiser) fixObjectiveAt(objective LinearFunction, cost int64) error {
	gte, err := BuildGTE(o.Prop, o.Core.Heur, o.Pool, objective.Terms, objective.TotalWeight())
	if err != nil {
		return err
	}
	bound := gte.LEq(cost)
	if bound == LitTrue {
		return nil
	}
	if bound == LitFalse {
		return NewError(ErrRootUnsat, "Optimiser.fixObjectiveAt", "fixing a prior objective made the formula unsat")
	}
	o.Core.backtrackTo(0)
	o.Core.Prop.ResetQueue()
	return o.Prop.AddPermanent([]Lit{bound})
}

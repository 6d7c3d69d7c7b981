package sat

import (
	"context"
	"sort"
)

// CoreGuidedSearch implements OLL/WCE lower-bound search (spec.md §4.7,
// C10): repeatedly solve under the current soft-clause assumptions, and
// whenever the result is unsatisfiable, reformulate the returned core by
// relaxing each of its literals with a fresh totaliser and raising the
// lower bound by the core's minimum weight — stratifying by weight so
// heavy soft clauses are relaxed before light ones. With
// WeightAwareExtraction set, multiple disjoint cores are harvested
// between reformulation rounds (spec.md §4.7 step 5): after a core is
// found its literals are excluded from the next SolveAssumptions call
// within the same round, continuing until SAT or nothing left to try,
// and only then are all the round's cores reformulated in sequence.
type CoreGuidedSearch struct {
	Core *CDCLCore
	Prop *Propagator
	Heur *VariableHeuristic
	Pool *VarPool

	// softLits and softWeight hold the remaining (not yet satisfied-for-
	// free) soft clauses, each represented by the single literal whose
	// falsity costs softWeight[i].
	softLits   []Lit
	softWeight []int64

	// totalisers accumulates the cardinality constraints introduced by
	// each reformulation round, needed so AtMost bounds on merged groups
	// can be tightened as the search continues.
	totalisers []*Totaliser

	LowerBound int64

	// Stratified enables weight stratification: only soft clauses at or
	// above the current weight threshold participate in each round,
	// descending the threshold once no core is found at it (spec.md §4.7
	// stratification).
	Stratified bool
	threshold  int64

	// WeightAwareExtraction enables harvesting every disjoint core
	// reachable in a round (under shrinking assumptions) before
	// reformulating any of them, rather than reformulating after the
	// first core found (spec.md §4.7 step 5).
	WeightAwareExtraction bool
}

// NewCoreGuidedSearch creates a search over the given soft clauses, each
// contributing weight if its literal ends up false.
func NewCoreGuidedSearch(core *CDCLCore, prop *Propagator, heur *VariableHeuristic, pool *VarPool, softLits []Lit, softWeight []int64, stratified bool) *CoreGuidedSearch {
	cg := &CoreGuidedSearch{
		Core: core, Prop: prop, Heur: heur, Pool: pool,
		softLits: append([]Lit(nil), softLits...), softWeight: append([]int64(nil), softWeight...),
		Stratified: stratified,
	}
	if stratified && len(softWeight) > 0 {
		cg.threshold = maxWeight(softWeight)
	}
	return cg
}

func maxWeight(ws []int64) int64 {
	m := int64(0)
	for _, w := range ws {
		if w > m {
			m = w
		}
	}
	return m
}

// Run drives core-guided search to a proven lower bound, returning true
// iff the bound is proven optimal (the soft assumptions became
// satisfiable with every stratum active, no soft clause is left to
// assume, or the hard clauses alone are UNSAT) and false when the search
// is cut short.
func (cg *CoreGuidedSearch) Run(ctx context.Context) (optimal bool, err error) {
	for {
		_, activeIdx := cg.activeAssumptions()
		if len(activeIdx) == 0 {
			if cg.lowerStratum() {
				continue
			}
			return true, nil
		}

		if !cg.WeightAwareExtraction {
			status, core, serr := cg.solveOver(ctx, activeIdx)
			if serr != nil {
				return false, serr
			}
			switch status {
			case Satisfiable:
				if cg.lowerStratum() {
					continue
				}
				return true, nil
			case Unknown:
				return false, nil
			case Unsatisfiable:
				if len(core) == 0 {
					return true, nil // root-level conflict: formula itself unsat under hard clauses
				}
				if err := cg.reformulate(core); err != nil {
					return false, err
				}
			}
			continue
		}

		cores, rootUnsat, unknown, serr := cg.harvestCores(ctx, activeIdx)
		if serr != nil {
			return false, serr
		}
		if unknown {
			return false, nil
		}
		if rootUnsat {
			return true, nil
		}
		if len(cores) == 0 {
			if cg.lowerStratum() {
				continue
			}
			return true, nil
		}
		for _, core := range cores {
			if err := cg.reformulate(core); err != nil {
				return false, err
			}
		}
	}
}

// solveOver runs one SolveAssumptions call restricted to the soft
// literals named by idx (indices into cg.softLits/cg.softWeight).
func (cg *CoreGuidedSearch) solveOver(ctx context.Context, idx []int) (Status, []Lit, error) {
	lits := make([]Lit, len(idx))
	for i, j := range idx {
		lits[i] = cg.softLits[j]
	}
	return cg.Core.SolveAssumptions(ctx, lits)
}

// harvestCores repeatedly solves under a shrinking subset of activeIdx,
// marking each found core's member indices inactive for the rest of the
// round, until the remaining assumptions are satisfiable or exhausted
// (spec.md §4.7 step 5). It returns every disjoint core found this round.
func (cg *CoreGuidedSearch) harvestCores(ctx context.Context, activeIdx []int) (cores [][]Lit, rootUnsat bool, unknown bool, err error) {
	remaining := append([]int(nil), activeIdx...)
	for len(remaining) > 0 {
		status, core, serr := cg.solveOver(ctx, remaining)
		if serr != nil {
			return cores, false, false, serr
		}
		switch status {
		case Satisfiable:
			return cores, false, false, nil
		case Unknown:
			return cores, false, true, nil
		case Unsatisfiable:
			if len(core) == 0 {
				return cores, true, false, nil
			}
			cores = append(cores, core)
			remaining = excludeCoreMembers(remaining, core, cg.softLits)
		}
	}
	return cores, false, false, nil
}

// excludeCoreMembers drops every index in idx whose soft literal appears
// in core, so the next harvestCores iteration solves under the
// remaining, not-yet-explained assumptions only.
func excludeCoreMembers(idx []int, core []Lit, softLits []Lit) []int {
	inCore := make(map[Lit]bool, len(core))
	for _, l := range core {
		inCore[l] = true
	}
	out := idx[:0]
	for _, i := range idx {
		if !inCore[softLits[i]] {
			out = append(out, i)
		}
	}
	return out
}

// activeAssumptions returns the soft-clause literals participating in
// this round (all of them unless stratification restricts to those at or
// above threshold), and their indices into softLits/softWeight.
func (cg *CoreGuidedSearch) activeAssumptions() ([]Lit, []int) {
	var lits []Lit
	var idx []int
	for i, l := range cg.softLits {
		if cg.Stratified && cg.softWeight[i] < cg.threshold {
			continue
		}
		lits = append(lits, l)
		idx = append(idx, i)
	}
	return lits, idx
}

// lowerStratum drops the weight threshold to the next distinct weight
// below it. Returns false once every soft clause participates.
func (cg *CoreGuidedSearch) lowerStratum() bool {
	if !cg.Stratified {
		return false
	}
	next := int64(0)
	for _, w := range cg.softWeight {
		if w < cg.threshold && w > next {
			next = w
		}
	}
	if next == 0 {
		return false
	}
	cg.threshold = next
	return true
}

// reformulate implements one OLL step: find the core's minimum weight,
// raise the lower bound by it, split any core member with weight above
// the minimum into a (minimum-weight, remainder-weight) pair, build a
// totaliser over the core's relaxation literals, and replace the core
// members in softLits with the totaliser's "at most 1 more true" output
// so future rounds can discharge more than one unit of the core at once.
//
// Indices are looked up fresh against the current softLits/softWeight
// rather than against a caller-supplied snapshot: weight-aware
// extraction reformulates several cores back to back within one round,
// and each call rewrites softLits, invalidating any index computed
// before it.
func (cg *CoreGuidedSearch) reformulate(core []Lit) error {
	coreSet := make(map[Lit]int) // literal -> index into softLits
	for _, l := range core {
		for i, sl := range cg.softLits {
			if sl == l {
				coreSet[l] = i
			}
		}
	}
	if len(coreSet) == 0 {
		return nil
	}

	minWeight := int64(-1)
	for l := range coreSet {
		w := cg.softWeight[coreSet[l]]
		if minWeight == -1 || w < minWeight {
			minWeight = w
		}
	}
	cg.LowerBound += minWeight

	relaxLits := make([]Lit, 0, len(coreSet))
	consumed := make(map[int]bool)
	for l, i := range coreSet {
		if cg.softWeight[i] > minWeight {
			cg.softWeight[i] -= minWeight
			cg.softLits = append(cg.softLits, l)
			cg.softWeight = append(cg.softWeight, minWeight)
		}
		r, err := cg.relax(l)
		if err != nil {
			return err
		}
		relaxLits = append(relaxLits, r)
		consumed[i] = true
	}
	sort.Slice(relaxLits, func(i, j int) bool { return relaxLits[i] < relaxLits[j] })

	tot, err := BuildTotaliser(cg.Prop, cg.Heur, cg.Pool, relaxLits)
	if err != nil {
		return err
	}
	cg.totalisers = append(cg.totalisers, tot)

	out := cg.softLits[:0]
	outW := cg.softWeight[:0]
	for i, l := range cg.softLits {
		if consumed[i] {
			continue
		}
		out = append(out, l)
		outW = append(outW, cg.softWeight[i])
	}
	cg.softLits = append(out, tot.AtMost(1))
	cg.softWeight = append(outW, minWeight)
	return nil
}

// relax returns a fresh literal equivalent to "l was false" (a relaxation
// variable r with the clause l v r asserted), the standard OLL move that
// turns a falsified soft-clause literal into a totaliser leaf.
func (cg *CoreGuidedSearch) relax(l Lit) (Lit, error) {
	v := cg.Pool.NewVar()
	cg.Heur.Grow(int(v) + 1)
	cg.Prop.trail.Grow(int(v) + 1)
	cg.Prop.Grow(int(v) + 1)
	r := MkLit(v, false)
	if err := cg.Prop.AddPermanent([]Lit{l, r}); err != nil {
		return LitNull, err
	}
	return r, nil
}

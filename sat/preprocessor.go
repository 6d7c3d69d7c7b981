package sat

import "sort"

// Preprocessor runs the fixed sequence of structural simplifications
// spec.md §4.8 (C11) performs before search starts: fixed-assignment
// folding (propagation plus objective absorption), domain pruning against
// the current upper bound, failed-literal probing, equivalent-literal
// merging via Tarjan's SCC over the binary-clause implication graph
// (rewriting both clauses and the objective through the resulting
// representative map), clause deduplication, and at-most-one clique
// reformulation of the objective. Each clausal step only ever strengthens
// the formula (removes or shortens clauses, merges variables); the
// objective-side steps only ever shrink or re-weight its term list.
type Preprocessor struct {
	Prop  *Propagator
	Trail *Trail
	Pool  *VarPool
	Heur  *VariableHeuristic

	// Objective is rewritten in place by every step below that touches
	// it. Nil is a valid value (plain-CNF callers have no objective) and
	// every objective-side step becomes a no-op.
	Objective *LinearFunction

	uf *UnionFind

	Stats PreprocessStats
}

// PreprocessStats reports what each step accomplished, surfaced to the
// caller's logger the way the teacher's inprocessor.go reports pass
// statistics.
type PreprocessStats struct {
	ClausesRemoved    int
	LiteralsRemoved   int
	EquivalentClasses int
	ClausesDeduped    int
	// AMOClauses counts the new selector clauses introduced by
	// rewriteAMOCliques — one per clique member below the heaviest, since
	// the heaviest member is reused directly rather than given a fresh
	// selector (so a clique of size 2 contributes exactly 1).
	AMOClauses int
	// ObjectiveFolded is the total weight absorbed into Objective.Constant
	// by root-level folding (fixed assignments and UF canonicalisation).
	ObjectiveFolded int64
	// DomainsPruned counts objective literals forced false because their
	// weight alone exceeded the upper bound in force at the time.
	DomainsPruned int
}

// NewPreprocessor creates a preprocessor over an already-populated
// propagator (all original clauses added via AddPermanent). heur may be
// nil if the caller never needs freeze-on-merge (e.g. a plain-CNF-only
// instance with no decision heuristic constructed yet).
func NewPreprocessor(prop *Propagator, trail *Trail, pool *VarPool, heur *VariableHeuristic) *Preprocessor {
	return &Preprocessor{Prop: prop, Trail: trail, Pool: pool, Heur: heur}
}

// Run executes the preprocessing pipeline in order. It returns an error
// only if a contradiction is derived (the formula is root-unsat).
func (pp *Preprocessor) Run() error {
	if err := pp.foldFixedAssignments(); err != nil {
		return err
	}
	pp.probeImplications()
	pp.foldObjectiveAtRoot()
	if pp.Objective != nil {
		// No real upper bound exists yet before search starts; the sum of
		// all term weights is the trivial bound every assignment already
		// satisfies, but pruning against it still catches the degenerate
		// case of a single-term objective (weight == total == trivial UB).
		// The optimiser driver calls PruneDomainsByUB again, with a real
		// bound, after every improving solution (spec.md §4.9 step 5).
		if err := pp.PruneDomainsByUB(pp.Objective.TotalWeight()); err != nil {
			return err
		}
	}
	if err := pp.mergeEquivalentLiterals(); err != nil {
		return err
	}
	pp.deduplicateClauses()
	pp.rewriteAMOCliques()
	return nil
}

// foldFixedAssignments is step 1: propagate every unit clause to a
// fixpoint at the root and strip satisfied clauses / falsified literals.
func (pp *Preprocessor) foldFixedAssignments() error {
	if pp.Prop.Propagate() != RefNull {
		return NewError(ErrRootUnsat, "Preprocessor.foldFixedAssignments", "unit propagation reached a conflict at the root")
	}
	before := pp.Prop.Arena().Len()
	if err := pp.Prop.SimplifyAtRoot(); err != nil {
		return err
	}
	pp.Stats.ClausesRemoved += before - pp.Prop.Arena().Len()
	return nil
}

// foldObjectiveAtRoot is the objective-side half of step 1: a term whose
// literal is already assigned True at the root pays unconditionally (fold
// its weight into the constant); one assigned False never pays (drop it).
// Called after every pass that can newly fix a literal at the root
// (propagation, probing), so the objective never carries dead weight into
// search.
func (pp *Preprocessor) foldObjectiveAtRoot() {
	if pp.Objective == nil {
		return
	}
	kept := pp.Objective.Terms[:0]
	for _, t := range pp.Objective.Terms {
		switch pp.Trail.ValueOf(t.Literal) {
		case True:
			pp.Objective.Constant += t.Weight
			pp.Stats.ObjectiveFolded += t.Weight
		case False:
			// dropped: this term can never cost anything again
		default:
			kept = append(kept, t)
		}
	}
	pp.Objective.Terms = kept
}

// PruneDomainsByUB is step 2: any objective term whose weight alone
// exceeds ub can never be paid without blowing the bound, so its literal
// is forced false at the root — "tighten the variable's domain to
// ⌊ub/weight⌋ = 0". Any literal this newly fixes feeds back into step 1.
// The optimiser driver calls this again with each improving solution's
// cost as ub (spec.md §4.9 step 5); Run calls it once up front with the
// objective's total weight as a trivial initial bound.
func (pp *Preprocessor) PruneDomainsByUB(ub int64) error {
	if pp.Objective == nil || ub < 0 {
		return nil
	}
	var forced []Lit
	for _, t := range pp.Objective.Terms {
		if t.Weight > ub && pp.Trail.ValueOf(t.Literal) == Unassigned {
			forced = append(forced, t.Literal.Not())
		}
	}
	if len(forced) == 0 {
		return nil
	}
	for _, l := range forced {
		if err := pp.Prop.AddPermanent([]Lit{l}); err != nil {
			return err
		}
	}
	pp.Stats.DomainsPruned += len(forced)
	if err := pp.foldFixedAssignments(); err != nil {
		return err
	}
	pp.foldObjectiveAtRoot()
	return nil
}

// probeImplications is step 2 of the original five-step layout ("failed
// literal" probing): for every unassigned literal l, tentatively assume l
// and run propagation; if that derives a conflict, ~l is implied at the
// root. Restricted here to the single-probe-per-variable form spec.md
// §4.8 names, the same technique the teacher's FailedLiteralProber used.
func (pp *Preprocessor) probeImplications() {
	n := pp.Pool.Len()
	for v := Var(firstFreeVar); int(v) < n; v++ {
		if pp.Trail.LevelOf(v) >= 0 {
			continue
		}
		for _, candidate := range [2]Lit{MkLit(v, false), MkLit(v, true)} {
			if pp.Trail.ValueOf(candidate) != Unassigned {
				continue
			}
			pp.Trail.NewDecisionLevel()
			pp.Trail.Enqueue(candidate, DecisionReason)
			conflict := pp.Prop.Propagate()
			pp.Trail.BacktrackTo(0)
			pp.Prop.ResetQueue()
			if conflict != RefNull {
				if pp.Trail.ValueOf(candidate.Not()) == Unassigned {
					pp.Prop.enqueueRoot(candidate.Not(), RefNull) //nolint:errcheck // just derived consistent
					pp.Prop.Propagate()
				}
				break // this variable is now fixed; no need to probe its other polarity
			}
		}
	}
	pp.Prop.SimplifyAtRoot() //nolint:errcheck // best-effort cleanup after probing
}

// mergeEquivalentLiterals is steps 3-4: build the implication graph from
// binary clauses, compute its SCCs, and union-find-merge every literal
// within a non-trivial SCC, then rewrite every clause and the objective
// through the resulting representative map. Variables that lost their
// representative status are frozen out of the decision heuristic, since
// deciding on them is now redundant — their value follows their
// representative.
func (pp *Preprocessor) mergeEquivalentLiterals() error {
	n := pp.Pool.Len()
	pp.uf = NewUnionFind(n)

	refs := append(append([]ClauseRef(nil), pp.Prop.Permanent()...), pp.Prop.Learned()...)
	graph := NewImplicationGraph(n, pp.Prop.Arena(), refs)
	sccs := graph.StronglyConnectedComponents()

	for _, scc := range sccs {
		rep := scc[0]
		for _, l := range scc[1:] {
			if !pp.uf.Union(rep, l) {
				return NewError(ErrRootUnsat, "Preprocessor.mergeEquivalentLiterals", "equivalence merge derived a contradiction")
			}
		}
	}
	pp.Stats.EquivalentClasses = pp.uf.NumEquivalentIDs()

	pp.Prop.DetachAll()
	rewrite := func(refs []ClauseRef) []ClauseRef {
		out := refs[:0]
		for _, ref := range refs {
			c := pp.Prop.Arena().Get(ref)
			if c.Deleted {
				continue
			}
			changed := false
			tautology := false
			for i, l := range c.Literals {
				r := pp.uf.Find(l)
				if r != l {
					c.Literals[i] = r
					changed = true
				}
			}
			if changed {
				clean, taut := sortDedupTautology(c.Literals)
				c.Literals = clean
				tautology = taut
			}
			if tautology {
				pp.Prop.Arena().MarkDeleted(ref)
				continue
			}
			out = append(out, ref)
		}
		return out
	}
	pp.Prop.SetPermanent(rewrite(pp.Prop.Permanent()))
	pp.Prop.SetLearned(rewrite(pp.Prop.Learned()))
	pp.Prop.ReattachAll()

	pp.rewriteObjectiveThroughUF()
	pp.freezeNonRepresentatives()
	return nil
}

// rewriteObjectiveThroughUF maps every objective term onto its union-find
// representative and accumulates weight per representative. When both a
// representative r and its negation end up holding separate weight (both
// "r true" and "r false" were being priced, which merging literals can
// produce when two previously distinct objective literals turn out
// equivalent or complementary), the smaller of the two weights is folded
// into the constant and a single term on the larger-weight side keeps the
// difference — the same canonical-polarity move CanonicalForm applies for
// negative weights, here triggered by the merge instead of by sign.
func (pp *Preprocessor) rewriteObjectiveThroughUF() {
	if pp.Objective == nil || pp.uf == nil || len(pp.Objective.Terms) == 0 {
		return
	}
	byRep := make(map[Lit]int64, len(pp.Objective.Terms))
	for _, t := range pp.Objective.Terms {
		byRep[pp.uf.Find(t.Literal)] += t.Weight
	}

	seen := make(map[Lit]bool, len(byRep))
	terms := make([]WeightedLiteral, 0, len(byRep))
	for r, w := range byRep {
		if seen[r] || seen[r.Not()] {
			continue
		}
		seen[r] = true
		wn := byRep[r.Not()]
		switch {
		case wn == 0:
			terms = append(terms, WeightedLiteral{Literal: r, Weight: w})
		case w >= wn:
			pp.Objective.Constant += wn
			pp.Stats.ObjectiveFolded += wn
			if w > wn {
				terms = append(terms, WeightedLiteral{Literal: r, Weight: w - wn})
			}
		default:
			pp.Objective.Constant += w
			pp.Stats.ObjectiveFolded += w
			terms = append(terms, WeightedLiteral{Literal: r.Not(), Weight: wn - w})
		}
	}
	pp.Objective.Terms = terms
}

// freezeNonRepresentatives excludes every variable that lost its
// representative status during merging from the decision heuristic's
// candidate pool (spec.md §4.8 step 3).
func (pp *Preprocessor) freezeNonRepresentatives() {
	if pp.Heur == nil || pp.uf == nil {
		return
	}
	n := pp.Pool.Len()
	for v := Var(firstFreeVar); int(v) < n; v++ {
		l := MkLit(v, false)
		if pp.uf.Find(l) != l {
			pp.Heur.Freeze(v)
		}
	}
}

// deduplicateClauses is step 5a: drop clauses that are exact duplicates
// of another (by sorted literal content) already kept.
func (pp *Preprocessor) deduplicateClauses() {
	seen := make(map[string]bool)
	key := func(lits []Lit) string {
		buf := make([]byte, 0, len(lits)*4)
		for _, l := range lits {
			buf = append(buf, byte(l), byte(l>>8), byte(l>>16), byte(l>>24))
		}
		return string(buf)
	}

	dedup := func(refs []ClauseRef) []ClauseRef {
		out := refs[:0]
		for _, ref := range refs {
			c := pp.Prop.Arena().Get(ref)
			if c.Deleted {
				continue
			}
			k := key(c.Literals)
			if seen[k] {
				pp.Prop.Arena().MarkDeleted(ref)
				pp.Stats.ClausesDeduped++
				continue
			}
			seen[k] = true
			out = append(out, ref)
		}
		return out
	}

	pp.Prop.DetachAll()
	pp.Prop.SetPermanent(dedup(pp.Prop.Permanent()))
	pp.Prop.SetLearned(dedup(pp.Prop.Learned()))
	pp.Prop.ReattachAll()
}

// rewriteAMOCliques is step 5b: build a secondary graph where two
// objective-term literals a, b are adjacent iff a permanent binary clause
// (a v b) exists between them (so at most one member of a clique can be
// false), enumerate disjoint
// cliques greedily (vertices sorted by degree descending, extended
// greedily, kept only at size >= 2), and replace each clique's objective
// terms with the spec.md §4.8 step 5 staircase encoding.
//
// Sorted ascending by weight w(1) <= ... <= w(k), with W = sum(w(i)):
// W - w(k) is an unconditional cost folded into the constant, since at
// most one member is false, so the true members always pay at least
// W - w(k). For j = 1..k-1, a fresh selector g(j) is forced true
// whenever all of members j..k are true (clause
// ~L(j) v ... v ~L(k) v g(j)) and carries weight d(j) = w(j) - w(j-1)
// (d(1) = w(1)). The top increment d(k) = w(k) - w(k-1) is charged
// directly to L(k) itself rather than a new selector, since "all of the
// length-1 suffix {L(k)} are true" is just "L(k) is true" — the reason a
// clique of size 2 produces exactly one new selector, not two.
func (pp *Preprocessor) rewriteAMOCliques() {
	if pp.Objective == nil || len(pp.Objective.Terms) == 0 {
		return
	}
	weightOf := make(map[Lit]int64, len(pp.Objective.Terms))
	for _, t := range pp.Objective.Terms {
		weightOf[t.Literal] = t.Weight
	}

	adjacent := make(map[Lit]map[Lit]bool)
	addEdge := func(a, b Lit) {
		if adjacent[a] == nil {
			adjacent[a] = make(map[Lit]bool)
		}
		if adjacent[b] == nil {
			adjacent[b] = make(map[Lit]bool)
		}
		adjacent[a][b] = true
		adjacent[b][a] = true
	}

	for _, ref := range pp.Prop.Permanent() {
		c := pp.Prop.Arena().Get(ref)
		if c.Deleted || len(c.Literals) != 2 {
			continue
		}
		a, b := c.Literals[0], c.Literals[1]
		if _, ok := weightOf[a]; !ok {
			continue
		}
		if _, ok := weightOf[b]; !ok {
			continue
		}
		addEdge(a, b)
	}
	if len(adjacent) == 0 {
		return
	}

	candidates := make([]Lit, 0, len(adjacent))
	for l := range adjacent {
		candidates = append(candidates, l)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(adjacent[candidates[i]]) != len(adjacent[candidates[j]]) {
			return len(adjacent[candidates[i]]) > len(adjacent[candidates[j]])
		}
		return candidates[i] < candidates[j]
	})

	visited := make(map[Lit]bool)
	var cliques [][]Lit
	for _, start := range candidates {
		if visited[start] {
			continue
		}
		clique := []Lit{start}
		for _, cand := range candidates {
			if cand == start || visited[cand] {
				continue
			}
			if allConflict(clique, cand, adjacent) {
				clique = append(clique, cand)
			}
		}
		if len(clique) >= 2 {
			for _, l := range clique {
				visited[l] = true
			}
			cliques = append(cliques, clique)
		}
	}

	for _, clique := range cliques {
		pp.rewriteClique(clique, weightOf)
	}
}

// rewriteClique applies the staircase encoding described on
// rewriteAMOCliques to one clique, mutating pp.Objective in place.
func (pp *Preprocessor) rewriteClique(clique []Lit, weightOf map[Lit]int64) {
	sorted := append([]Lit(nil), clique...)
	sort.Slice(sorted, func(i, j int) bool { return weightOf[sorted[i]] < weightOf[sorted[j]] })

	k := len(sorted)
	var total int64
	for _, l := range sorted {
		total += weightOf[l]
	}
	wmax := weightOf[sorted[k-1]]
	pp.Objective.Constant += total - wmax

	newTerms := make([]WeightedLiteral, 0, k)
	prev := int64(0)
	for j := 0; j < k-1; j++ {
		d := weightOf[sorted[j]] - prev
		prev = weightOf[sorted[j]]

		v := pp.Pool.NewVar()
		if pp.Heur != nil {
			pp.Heur.Grow(int(v) + 1)
			pp.Heur.Freeze(v)
		}
		pp.Trail.Grow(int(v) + 1)
		pp.Prop.Grow(int(v) + 1)
		g := MkLit(v, false)

		clause := make([]Lit, 0, len(sorted)-j+1)
		for _, l := range sorted[j:] {
			clause = append(clause, l.Not())
		}
		clause = append(clause, g)
		pp.Prop.AddPermanent(clause) //nolint:errcheck // clique members already coexist; cannot newly conflict

		pp.Stats.AMOClauses++
		newTerms = append(newTerms, WeightedLiteral{Literal: g, Weight: d})
	}
	newTerms = append(newTerms, WeightedLiteral{Literal: sorted[k-1], Weight: wmax - prev})

	in := make(map[Lit]bool, k)
	for _, l := range sorted {
		in[l] = true
	}
	kept := pp.Objective.Terms[:0]
	for _, t := range pp.Objective.Terms {
		if in[t.Literal] {
			continue
		}
		kept = append(kept, t)
	}
	pp.Objective.Terms = append(kept, newTerms...)
}

func allConflict(clique []Lit, cand Lit, adjacent map[Lit]map[Lit]bool) bool {
	for _, l := range clique {
		if !adjacent[l][cand] {
			return false
		}
	}
	return true
}

package sat

// Totaliser builds a totaliser cardinality network (Bailleux & Boufkhad)
// over a set of literals: a balanced binary merge tree of unary counters,
// each node's output literals o_1..o_k meaning "at least i of my inputs are
// true" for o_i. It is shared by linear upper-bound search (clauses
// `objective <= UB-1`, C9) and core-guided lower-bound search (reformulated
// cores, C10) — spec.md §4.5/§4.7 both build on the same encoder.
type Totaliser struct {
	prop *Propagator
	heur *VariableHeuristic
	pool *VarPool

	// Root is the top-level output: Root[i] (0-indexed) is the literal
	// "at least i+1 of the leaves are true".
	Root []Lit
	size int // number of leaves
}

// BuildTotaliser constructs a totaliser over leaves, freezing every
// auxiliary variable it introduces so the variable heuristic never
// branches on them directly. Clauses are installed through prop so they
// are watched like any other permanent clause.
func BuildTotaliser(prop *Propagator, heur *VariableHeuristic, pool *VarPool, leaves []Lit) (*Totaliser, error) {
	t := &Totaliser{prop: prop, heur: heur, pool: pool, size: len(leaves)}
	root, err := t.build(leaves)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

func (t *Totaliser) build(leaves []Lit) ([]Lit, error) {
	if len(leaves) == 1 {
		return leaves, nil
	}
	mid := len(leaves) / 2
	left, err := t.build(leaves[:mid])
	if err != nil {
		return nil, err
	}
	right, err := t.build(leaves[mid:])
	if err != nil {
		return nil, err
	}
	return t.merge(left, right)
}

// merge produces the output literals for node with child outputs a and b
// (|a| = p, |b| = q), allocating p+q fresh output literals and clauses
// encoding both directions of "at least i of p+q" (spec.md §4.5's
// `objective <= UB-1` uses only the upward direction, but core-guided
// reformulation needs both, so both are encoded unconditionally).
func (t *Totaliser) merge(a, b []Lit) ([]Lit, error) {
	n := len(a) + len(b)
	out := make([]Lit, n)
	for i := range out {
		v := t.pool.NewVar()
		t.heur.Grow(int(v) + 1)
		t.prop.trail.Grow(int(v) + 1)
		t.prop.Grow(int(v) + 1)
		t.heur.Freeze(v)
		out[i] = MkLit(v, false)
	}

	add := func(lits []Lit) error {
		return t.prop.AddPermanent(lits)
	}

	// Upward: if i of a and j of b are true, at least i+j of out are true.
	for i := 0; i <= len(a); i++ {
		for j := 0; j <= len(b); j++ {
			if i+j == 0 || i+j > n {
				continue
			}
			lits := make([]Lit, 0, 3)
			if i > 0 {
				lits = append(lits, a[i-1].Not())
			}
			if j > 0 {
				lits = append(lits, b[j-1].Not())
			}
			lits = append(lits, out[i+j-1])
			if err := add(lits); err != nil {
				return nil, err
			}
		}
	}

	// Downward: if at least i+j of out are true, at least i of a are
	// true or at least j of b are true (the clause form of the converse
	// implication, needed so unit propagation also prunes a/b from out).
	// With i or j zero that side's half ("at least 0") holds trivially, so
	// no clause is needed.
	for i := 0; i <= len(a); i++ {
		for j := 0; j <= len(b); j++ {
			if i == 0 || j == 0 || i+j > n {
				continue
			}
			lits := []Lit{out[i+j-1].Not()}
			if i > 0 {
				lits = append(lits, a[i-1])
			}
			if j > 0 {
				lits = append(lits, b[j-1])
			}
			if err := add(lits); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// AtMost returns the literal asserting "at most k of the totaliser's
// leaves are true", suitable as a unit assumption or a permanent clause
// for `objective <= UB-1`-style bounding.
func (t *Totaliser) AtMost(k int) Lit {
	if k >= t.size {
		return LitTrue
	}
	if k < 0 {
		return LitFalse
	}
	return t.Root[k].Not()
}

// AtLeast returns the literal asserting "at least k of the totaliser's
// leaves are true".
func (t *Totaliser) AtLeast(k int) Lit {
	if k <= 0 {
		return LitTrue
	}
	if k > t.size {
		return LitFalse
	}
	return t.Root[k-1]
}

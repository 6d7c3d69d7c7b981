package sat

import "sort"

// GeneralizedTotaliser encodes a sum of weighted literals as a monotone
// chain of "sum >= threshold" literals, one per achievable partial sum, by
// merging leaves pairwise the way Totaliser merges unit-weight leaves
// (Joshi, Kumar & Martins' generalized totaliser encoding). It backs both
// linear upper-bound search's `objective <= UB-1` constraint (C9) and
// core-guided search's weight-aware reformulated cores (C10), which is
// why it lives alongside Totaliser rather than inside either search.
type GeneralizedTotaliser struct {
	prop *Propagator
	heur *VariableHeuristic
	pool *VarPool
	cap  int64 // partial sums above cap are never represented

	// sums is the ascending, deduplicated list of achievable partial
	// sums (excluding 0) at the root; out[i] is the literal "sum >= sums[i]".
	sums []int64
	out  []Lit
}

// BuildGTE constructs a generalized totaliser over terms, refusing to
// represent partial sums above cap (pass the current upper bound so the
// encoding stays polynomial rather than enumerating every subset sum).
// Clauses are installed through prop so they are watched like any other
// permanent clause.
func BuildGTE(prop *Propagator, heur *VariableHeuristic, pool *VarPool, terms []WeightedLiteral, cap int64) (*GeneralizedTotaliser, error) {
	g := &GeneralizedTotaliser{prop: prop, heur: heur, pool: pool, cap: cap}
	leaves := make([]node, len(terms))
	for i, t := range terms {
		leaves[i] = node{sums: []int64{t.Weight}, out: []Lit{t.Literal}}
	}
	root, err := g.buildTree(leaves)
	if err != nil {
		return nil, err
	}
	g.sums, g.out = root.sums, root.out
	return g, nil
}

type node struct {
	sums []int64 // ascending, deduplicated, excludes 0
	out  []Lit   // out[i] is "sum >= sums[i]"
}

func (g *GeneralizedTotaliser) buildTree(leaves []node) (node, error) {
	if len(leaves) == 0 {
		return node{}, nil
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}
	mid := len(leaves) / 2
	left, err := g.buildTree(leaves[:mid])
	if err != nil {
		return node{}, err
	}
	right, err := g.buildTree(leaves[mid:])
	if err != nil {
		return node{}, err
	}
	return g.merge(left, right)
}

func (g *GeneralizedTotaliser) merge(a, b node) (node, error) {
	sumSet := make(map[int64]bool)
	for _, sa := range append([]int64{0}, a.sums...) {
		for _, sb := range append([]int64{0}, b.sums...) {
			s := sa + sb
			if s > 0 && s <= g.cap {
				sumSet[s] = true
			}
		}
	}
	sums := make([]int64, 0, len(sumSet))
	for s := range sumSet {
		sums = append(sums, s)
	}
	sort.Slice(sums, func(i, j int) bool { return sums[i] < sums[j] })

	out := make([]Lit, len(sums))
	for i := range out {
		v := g.pool.NewVar()
		g.heur.Grow(int(v) + 1)
		g.prop.trail.Grow(int(v) + 1)
		g.prop.Grow(int(v) + 1)
		g.heur.Freeze(v)
		out[i] = MkLit(v, false)
	}
	outFor := func(s int64) Lit {
		i := sort.Search(len(sums), func(i int) bool { return sums[i] >= s })
		if i < len(sums) && sums[i] == s {
			return out[i]
		}
		return LitNull
	}

	litGEq := func(n node, s int64) Lit {
		if s <= 0 {
			return LitTrue
		}
		i := sort.Search(len(n.sums), func(i int) bool { return n.sums[i] >= s })
		if i < len(n.sums) && n.sums[i] == s {
			return n.out[i]
		}
		return LitFalse // s not achievable by this side alone at all
	}

	add := func(lits []Lit) error {
		return g.prop.AddPermanent(lits)
	}

	for _, sa := range append([]int64{0}, a.sums...) {
		for _, sb := range append([]int64{0}, b.sums...) {
			s := sa + sb
			if s <= 0 || s > g.cap {
				continue
			}
			target := outFor(s)
			lits := make([]Lit, 0, 3)
			if sa > 0 {
				if l := litGEq(a, sa); l != LitFalse {
					lits = append(lits, l.Not())
				}
			}
			if sb > 0 {
				if l := litGEq(b, sb); l != LitFalse {
					lits = append(lits, l.Not())
				}
			}
			lits = append(lits, target)
			if err := add(lits); err != nil {
				return node{}, err
			}

			// downward direction: sum >= sa+sb implies a >= sa or b >= sb;
			// with a zero side that side's half holds trivially, so no clause
			if sa == 0 || sb == 0 {
				continue
			}
			down := []Lit{target.Not()}
			if sa > 0 {
				down = append(down, litGEq(a, sa))
			}
			if sb > 0 {
				down = append(down, litGEq(b, sb))
			}
			if err := add(down); err != nil {
				return node{}, err
			}
		}
	}

	return node{sums: sums, out: out}, nil
}

// GEq returns the literal "sum >= threshold", or LitTrue/LitFalse if that
// holds unconditionally given the encoding's cap.
func (g *GeneralizedTotaliser) GEq(threshold int64) Lit {
	if threshold <= 0 {
		return LitTrue
	}
	if threshold > g.cap {
		return LitFalse
	}
	i := sort.Search(len(g.sums), func(i int) bool { return g.sums[i] >= threshold })
	if i == len(g.sums) {
		return LitFalse
	}
	return g.out[i]
}

// LEq returns the literal "sum <= bound".
func (g *GeneralizedTotaliser) LEq(bound int64) Lit {
	return g.GEq(bound + 1).Not()
}

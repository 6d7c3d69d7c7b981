package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnionFindComplementaryInvariant(t *testing.T) {
	uf := NewUnionFind(10)
	a := MkLit(2, false)
	b := MkLit(3, false)
	require.True(t, uf.Union(a, b), "union should succeed")
	require.Equal(t, uf.Find(a), uf.Find(b), "a and b should be in the same class")
	require.Equal(t, uf.Find(a.Not()), uf.Find(b.Not()), "complementary invariant broken: rep(~a) != rep(~b)")
	require.Equal(t, uf.Find(a), uf.Find(b.Not()).Not(), "rep(x) != ~rep(~x)")
}

func TestUnionFindContradiction(t *testing.T) {
	uf := NewUnionFind(10)
	a := MkLit(2, false)
	require.False(t, uf.Union(a, a.Not()), "unioning a literal with its own negation must fail")
}

func TestStronglyConnectedComponentsFindsEquivalence(t *testing.T) {
	// Binary clauses (~a v b) and (~b v a) mean a <-> b: a SCC of {a, b}.
	arena := NewArena()
	a, b := MkLit(2, false), MkLit(3, false)
	ref1, _ := arena.Allocate([]Lit{a.Not(), b}, true)
	ref2, _ := arena.Allocate([]Lit{b.Not(), a}, true)

	g := NewImplicationGraph(4, arena, []ClauseRef{ref1, ref2})
	sccs := g.StronglyConnectedComponents()

	found := false
	for _, scc := range sccs {
		members := make(map[Lit]bool)
		for _, l := range scc {
			members[l] = true
		}
		if members[a] && members[b] {
			found = true
		}
	}
	require.True(t, found, "expected an SCC containing both a and b, got %v", sccs)
}

package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocateAndGet(t *testing.T) {
	a := NewArena()
	lits := []Lit{MkLit(2, false), MkLit(3, true)}
	ref, err := a.Allocate(lits, true)
	require.NoError(t, err)
	c := a.Get(ref)
	require.Equal(t, lits, c.Literals)
}

func TestArenaCompactRewritesReferences(t *testing.T) {
	a := NewArena()
	a.GarbageTolerance = 0 // force NeedsCompaction to trip on any garbage

	var refs []ClauseRef
	for i := 0; i < 5; i++ {
		ref, err := a.Allocate([]Lit{MkLit(Var(2+i), false), MkLit(Var(3+i), true)}, true)
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	// Delete the first two clauses, keep the rest.
	a.MarkDeleted(refs[0])
	a.MarkDeleted(refs[1])

	survivors := refs[2:]
	want := make([][]Lit, len(survivors))
	for i, ref := range survivors {
		want[i] = append([]Lit(nil), a.Get(ref).Literals...)
	}

	require.True(t, a.NeedsCompaction(), "expected compaction to be needed")
	refPtrs := make([]*ClauseRef, len(survivors))
	for i := range survivors {
		refPtrs[i] = &survivors[i]
	}
	stats := a.Compact(refPtrs)
	require.Equal(t, len(survivors), stats.ClausesAfter)

	for i, ref := range survivors {
		got := a.Get(ref).Literals
		require.Equal(t, want[i], got, "survivor %d literals changed across compaction", i)
	}
}

func TestArenaMaxLiteralsExhausted(t *testing.T) {
	a := NewArena()
	a.MaxLiterals = 3
	_, err := a.Allocate([]Lit{MkLit(2, false), MkLit(3, false)}, true)
	require.NoError(t, err, "first allocate should fit")

	_, err = a.Allocate([]Lit{MkLit(4, false), MkLit(5, false)}, true)
	require.True(t, IsKind(err, ErrArenaExhausted), "expected ErrArenaExhausted, got %v", err)
}

package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLitNegation(t *testing.T) {
	l := MkLit(Var(5), false)
	require.False(t, l.Negated(), "positive literal reported as negated")
	n := l.Not()
	require.True(t, n.Negated(), "negated literal reported as positive")
	require.Equal(t, l.Var(), n.Var(), "negation changed variable")
	require.Equal(t, l, n.Not(), "double negation did not round-trip")
}

func TestLitIndexIsDense(t *testing.T) {
	seen := make(map[int]bool)
	for v := Var(0); v < 10; v++ {
		for _, neg := range []bool{false, true} {
			l := MkLit(v, neg)
			require.False(t, seen[l.Index()], "duplicate index %d for var %d neg %v", l.Index(), v, neg)
			seen[l.Index()] = true
		}
	}
}

func TestLinearFunctionCanonicalForm(t *testing.T) {
	f := &LinearFunction{
		Constant: 0,
		Terms: []WeightedLiteral{
			{Literal: MkLit(2, false), Weight: 3},
			{Literal: MkLit(3, false), Weight: -5},
		},
	}
	canon := f.CanonicalForm()
	require.True(t, canon.IsCanonical(), "canonical form not canonical: %+v", canon)
	require.Equal(t, int64(-5), canon.Constant)
	require.Len(t, canon.Terms, 2)
	for _, term := range canon.Terms {
		require.Positive(t, term.Weight, "non-positive weight survived canonicalisation: %+v", term)
	}
}

func TestValueFlip(t *testing.T) {
	require.Equal(t, False, True.Flip())
	require.Equal(t, True, False.Flip())
	require.Equal(t, Unassigned, Unassigned.Flip())
}

package dimacs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReadCNFParsesClauses(t *testing.T) {
	input := `c a comment
p cnf 3 2
1 -2 0
2 3 0
`
	cnf, err := ReadCNF(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, cnf.NumVars)
	want := []Clause{{1, -2}, {2, 3}}
	if diff := cmp.Diff(want, cnf.Clauses); diff != "" {
		t.Fatalf("clauses mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCNFWithoutProblemLineInfersVars(t *testing.T) {
	input := "1 2 0\n-3 0\n"
	cnf, err := ReadCNF(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, cnf.NumVars)
}

func TestReadCNFRejectsOutOfRangeVariable(t *testing.T) {
	input := "p cnf 2 1\n5 0\n"
	_, err := ReadCNF(strings.NewReader(input))
	require.Error(t, err)
}

func TestReadWCNFClassicFormatSplitsHardAndSoft(t *testing.T) {
	input := `p wcnf 2 2 10
10 1 2 0
3 -1 0
`
	w, err := ReadWCNF(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, w.HardClauses, 1)
	require.Len(t, w.SoftClauses, 1)
	require.Equal(t, int64(3), w.SoftWeights[0])
}

func TestReadWCNFHPrefixFormat(t *testing.T) {
	input := `p wcnf 2 2
h 1 2 0
5 -1 0
`
	w, err := ReadWCNF(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, w.HardClauses, 1)
	require.Len(t, w.SoftClauses, 1)
}

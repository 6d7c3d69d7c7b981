package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLubySequence(t *testing.T) {
	// Known prefix of the Luby sequence: 1,1,2,1,1,2,4,1,1,2,1,1,2,4,8
	want := []int{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	for i, w := range want {
		require.Equal(t, w, luby(i+1), "luby(%d)", i+1)
	}
}

func TestConstantRestartFiresAtPeriod(t *testing.T) {
	r := NewConstantRestart(3)
	for i := 0; i < 2; i++ {
		require.False(t, r.ShouldRestart(0), "restart fired too early at conflict %d", i)
	}
	require.True(t, r.ShouldRestart(0), "restart did not fire at period")
	r.Reset()
	require.False(t, r.ShouldRestart(0), "restart fired immediately after reset")
}

func TestGlucoseRestartNeedsWarmup(t *testing.T) {
	r := NewGlucoseRestart()
	r.MinConflicts = 2
	require.False(t, r.ShouldRestart(5), "restart should not fire before MinConflicts elapses")
}

package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamRegistryDefaultsAreValid(t *testing.T) {
	r := DefaultParamRegistry()
	require.NoError(t, r.Validate(), "default registry should validate cleanly")
}

func TestParamRegistrySetIntRejectsOutOfRange(t *testing.T) {
	r := DefaultParamRegistry()
	err := r.SetInt("restart-multiplication-coefficient", 0)
	require.True(t, IsKind(err, ErrInvalidOption), "expected ErrInvalidOption for below-min value, got %v", err)

	require.NoError(t, r.SetInt("restart-multiplication-coefficient", 500), "in-range set should succeed")
	require.Equal(t, int64(500), r.GetInt("restart-multiplication-coefficient"))
}

func TestParamRegistrySetEnumRejectsUnknownValue(t *testing.T) {
	r := DefaultParamRegistry()
	err := r.SetEnum("restart-strategy", "bogus")
	require.True(t, IsKind(err, ErrInvalidOption), "expected ErrInvalidOption for unknown enum value, got %v", err)

	require.NoError(t, r.SetEnum("restart-strategy", "luby"), "valid enum value should be accepted")
}

func TestParamRegistryUnknownNameErrors(t *testing.T) {
	r := DefaultParamRegistry()
	err := r.SetBool("does-not-exist", true)
	require.True(t, IsKind(err, ErrInvalidOption), "expected ErrInvalidOption for unknown parameter, got %v", err)
}

func TestParamRegistryRegisterPanicsOnDuplicate(t *testing.T) {
	defer func() {
		require.NotNil(t, recover(), "expected a panic on duplicate registration")
	}()
	r := NewParamRegistry()
	r.Register(ParamSpec{Name: "x", Kind: ParamBool, Default: false})
	r.Register(ParamSpec{Name: "x", Kind: ParamBool, Default: true})
}

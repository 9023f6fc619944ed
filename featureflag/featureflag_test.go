package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	f := New([]string{" hide_ghosts", "", "ENABLE_PPROF", "enable_pprof"})
	require.Len(t, f, 2)
	require.True(t, f.IsSet(FlagHideGhosts))
	require.True(t, f.IsSet(FlagEnablePprof))
	require.False(t, f.IsSet(FlagCrossCheckIndex))
	require.Equal(t, []string{"ENABLE_PPROF", "HIDE_GHOSTS"}, f.Strings())
}

func TestFeatureFlag(t *testing.T) {
	f := New([]string{string(FlagCrossCheckIndex)})

	t.Run("run if enabled", func(t *testing.T) {
		var crossCheck bool
		f.IfSet(FlagCrossCheckIndex, func() {
			crossCheck = true
		})
		require.True(t, crossCheck)

		var hideGhosts bool
		f.IfSet(FlagHideGhosts, func() {
			hideGhosts = true
		})
		require.False(t, hideGhosts)
	})

	t.Run("run if disabled", func(t *testing.T) {
		var crossCheck bool
		f.IfNotSet(FlagCrossCheckIndex, func() {
			crossCheck = true
		})
		require.False(t, crossCheck)

		var hideGhosts bool
		f.IfNotSet(FlagHideGhosts, func() {
			hideGhosts = true
		})
		require.True(t, hideGhosts)
	})

	t.Run("empty set", func(t *testing.T) {
		empty := New(nil)
		require.False(t, empty.IsSet(FlagEnablePprof))
		require.Empty(t, empty.Strings())
	})
}

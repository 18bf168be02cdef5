package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func TestGraphErrorUnwrapsToUnderlyingSentinel(t *testing.T) {
	gerr := &engine.GraphError{Err: engine.ErrSelfLoop, Connection: engine.Connection{FromPlugin: 1, ToPlugin: 1}}
	require.True(t, errors.Is(gerr, engine.ErrSelfLoop))
	require.Equal(t, engine.ErrSelfLoop.Error(), gerr.Error())
}

func TestRuntimeErrorIncludesPluginID(t *testing.T) {
	rerr := &engine.RuntimeError{PluginID: 7, Err: errors.New("divide by zero")}
	require.Equal(t, "runtime: plugin 7: divide by zero", rerr.Error())
	require.True(t, errors.Is(rerr, rerr.Err))
}

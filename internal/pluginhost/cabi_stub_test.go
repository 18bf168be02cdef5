//go:build !cgo

package pluginhost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenSharedLibraryWithoutCgoReturnsDescriptiveError(t *testing.T) {
	_, ctor, err := openSharedLibrary("/plugins/gain/libgain.so")
	require.Nil(t, ctor)
	require.Error(t, err)
	require.Contains(t, err.Error(), "CGO_ENABLED=1")
}

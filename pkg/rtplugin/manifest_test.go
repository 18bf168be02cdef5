package rtplugin_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "plugin.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadManifestRequiresKindAndName(t *testing.T) {
	dir := t.TempDir()

	path := writeManifest(t, dir, "name: Oscillator\n")
	_, err := rtplugin.LoadManifest(path)
	require.ErrorContains(t, err, "kind")

	path = writeManifest(t, dir, "kind: osc\n")
	_, err = rtplugin.LoadManifest(path)
	require.ErrorContains(t, err, "name")
}

func TestLoadManifestParsesOptionalFields(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "kind: osc\nname: Oscillator\nversion: 1.2.0\nlibrary: lib/osc.so\n")

	m, err := rtplugin.LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "osc", m.Kind)
	require.Equal(t, "Oscillator", m.Name)
	require.Equal(t, "1.2.0", m.Version)
}

func TestResolveLibraryPathRelativeToManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "kind: osc\nname: Oscillator\nlibrary: lib/osc.so\n")
	m, err := rtplugin.LoadManifest(path)
	require.NoError(t, err)

	resolved := m.ResolveLibraryPath(path)
	require.Equal(t, filepath.Join(dir, "lib", "osc.so"), resolved)
}

func TestResolveLibraryPathAbsolutePassesThrough(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs", "osc.so")
	path := writeManifest(t, dir, "kind: osc\nname: Oscillator\nlibrary: "+abs+"\n")
	m, err := rtplugin.LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, abs, m.ResolveLibraryPath(path))
}

func TestResolveLibraryPathEmptyWhenUnset(t *testing.T) {
	m := &rtplugin.Manifest{Kind: "osc", Name: "Oscillator"}
	require.Equal(t, "", m.ResolveLibraryPath("/anything/plugin.yaml"))
}

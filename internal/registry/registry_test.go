package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/registry"
	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

func TestOpenStartsEmptyWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	reg, err := registry.Open(filepath.Join(dir, "plugins.json"))
	require.NoError(t, err)
	require.Empty(t, reg.List())
}

func TestPutAndResolveLibraryRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plugins.json")
	reg, err := registry.Open(path)
	require.NoError(t, err)

	rec := registry.Record{
		Manifest:    rtplugin.Manifest{Kind: "osc", Name: "Oscillator"},
		Path:        filepath.Join(dir, "osc", "plugin.yaml"),
		LibraryPath: filepath.Join(dir, "osc", "osc.so"),
		Removable:   true,
	}
	require.NoError(t, reg.Put(rec))

	resolved, err := reg.ResolveLibrary("osc")
	require.NoError(t, err)
	require.Equal(t, rec.LibraryPath, resolved)

	// Reopen from disk to confirm the atomic write actually persisted.
	reopened, err := registry.Open(path)
	require.NoError(t, err)
	require.Len(t, reopened.List(), 1)
}

func TestResolveLibraryUnknownKind(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "plugins.json"))
	require.NoError(t, err)
	_, err = reg.ResolveLibrary("missing")
	require.Error(t, err)
}

func TestRemoveRefusesNonRemovable(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "plugins.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Put(registry.Record{
		Manifest:  rtplugin.Manifest{Kind: "builtin_meter", Name: "Meter"},
		Removable: false,
	}))
	require.Error(t, reg.Remove("builtin_meter"))
	require.Len(t, reg.List(), 1)
}

func TestRemoveDeletesRemovableRecord(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "plugins.json"))
	require.NoError(t, err)
	require.NoError(t, reg.Put(registry.Record{
		Manifest:  rtplugin.Manifest{Kind: "osc", Name: "Oscillator"},
		Removable: true,
	}))
	require.NoError(t, reg.Remove("osc"))
	require.Empty(t, reg.List())
}

func TestScanInstallsNewManifestsOnly(t *testing.T) {
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "osc")
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	manifest := "kind: osc\nname: Oscillator\nlibrary: osc.so\n"
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, "plugin.yaml"), []byte(manifest), 0o644))

	reg, err := registry.Open(filepath.Join(dir, "plugins.json"))
	require.NoError(t, err)

	added, err := reg.Scan(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"osc"}, added)

	// A second scan with nothing new on disk installs nothing further.
	added, err = reg.Scan(dir)
	require.NoError(t, err)
	require.Empty(t, added)

	rec := reg.List()[0]
	require.True(t, rec.Removable)
	require.Equal(t, filepath.Join(pluginDir, "osc.so"), rec.LibraryPath)
}

func TestScanTreatsMissingDirAsEmpty(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "plugins.json"))
	require.NoError(t, err)
	added, err := reg.Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	require.Empty(t, added)
}

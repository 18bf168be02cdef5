// Package registry persists the installed-plugins list to disk as JSON
// (spec §6, component C15): one record per installed plugin, written
// atomically via a temp-file-then-rename so a crash mid-write never
// leaves a truncated registry behind.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

const manifestFileName = "plugin.yaml"

// Record is one installed plugin (spec §6: "list of {manifest, path,
// library_path, removable} records").
type Record struct {
	Manifest    rtplugin.Manifest `json:"manifest"`
	Path        string            `json:"path"`         // manifest file path
	LibraryPath string            `json:"library_path"` // resolved shared-library path
	Removable   bool              `json:"removable"`
}

// Registry is an in-memory, disk-backed list of Records keyed by
// manifest Kind.
type Registry struct {
	mu      sync.RWMutex
	path    string
	records map[string]Record
}

// Open loads path if it exists, or starts empty if it does not.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path, records: make(map[string]Record)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var list []Record
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	for _, rec := range list {
		r.records[rec.Manifest.Kind] = rec
	}
	return r, nil
}

// ResolveLibrary implements pluginhost.LibraryResolver.
func (r *Registry) ResolveLibrary(kind string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[kind]
	if !ok {
		return "", fmt.Errorf("no installed plugin registered for kind %q", kind)
	}
	return rec.LibraryPath, nil
}

// Put inserts or replaces rec and flushes the registry to disk.
func (r *Registry) Put(rec Record) error {
	r.mu.Lock()
	r.records[rec.Manifest.Kind] = rec
	err := r.flushLocked()
	r.mu.Unlock()
	return err
}

// Remove deletes kind's record, refusing if it is not Removable.
func (r *Registry) Remove(kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[kind]
	if !ok {
		return fmt.Errorf("no installed plugin registered for kind %q", kind)
	}
	if !rec.Removable {
		return fmt.Errorf("plugin kind %q is not removable", kind)
	}
	delete(r.records, kind)
	return r.flushLocked()
}

// List returns a snapshot of every record, sorted by kind for stable
// output.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.Kind < out[j].Manifest.Kind })
	return out
}

// Scan walks dir one level deep looking for <subdir>/plugin.yaml
// manifests, installing any kind it does not already know about (spec
// §6's "refresh" operation: discover plugins dropped into the plugin
// directory outside the running host, e.g. by a package manager, and
// fold them into the registry without requiring a restart). Installed
// this way, a plugin is marked Removable since nothing but the scan
// itself vouched for it. It returns the kinds newly installed.
func (r *Registry) Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan plugin dir %s: %w", dir, err)
	}
	var added []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(dir, entry.Name(), manifestFileName)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}
		m, err := rtplugin.LoadManifest(manifestPath)
		if err != nil {
			continue
		}
		r.mu.RLock()
		_, known := r.records[m.Kind]
		r.mu.RUnlock()
		if known {
			continue
		}
		rec := Record{
			Manifest:    *m,
			Path:        manifestPath,
			LibraryPath: m.ResolveLibraryPath(manifestPath),
			Removable:   true,
		}
		if err := r.Put(rec); err != nil {
			return added, err
		}
		added = append(added, m.Kind)
	}
	return added, nil
}

func (r *Registry) flushLocked() error {
	list := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		list = append(list, rec)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".rtsynd-registry-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp registry file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp registry file into place: %w", err)
	}
	return nil
}

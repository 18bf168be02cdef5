package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeWorkspaceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunValidateAcceptsWellFormedWorkspace(t *testing.T) {
	path := writeWorkspaceFile(t, `{
		"plugins": [
			{"id": 1, "kind": "source", "priority": 0},
			{"id": 2, "kind": "gain", "priority": 1}
		],
		"connections": [
			{"from_plugin": 1, "from_port": "out", "to_plugin": 2, "to_port": "in", "kind": "in_process"}
		]
	}`)
	require.NoError(t, runValidate(path))
}

func TestRunValidateRejectsSchemaViolation(t *testing.T) {
	path := writeWorkspaceFile(t, `{"plugins": [{"id": 1}]}`)
	err := runValidate(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid workspace")
}

func TestRunValidateRejectsUnknownConnectionTarget(t *testing.T) {
	path := writeWorkspaceFile(t, `{
		"plugins": [{"id": 1, "kind": "source"}],
		"connections": [
			{"from_plugin": 1, "from_port": "out", "to_plugin": 99, "to_port": "in", "kind": "in_process"}
		]
	}`)
	err := runValidate(path)
	require.Error(t, err)
}

func TestRunValidateReturnsErrorForMissingFile(t *testing.T) {
	err := runValidate(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read workspace file")
}

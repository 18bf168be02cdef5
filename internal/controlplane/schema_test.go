package controlplane_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/controlplane"
)

func TestValidateWorkspaceDocumentAcceptsWellFormedWorkspace(t *testing.T) {
	doc := []byte(`{
		"name": "bench",
		"plugins": [{"id": 1, "kind": "osc"}],
		"connections": []
	}`)
	require.NoError(t, controlplane.ValidateWorkspaceDocument(doc))
}

func TestValidateWorkspaceDocumentRejectsMissingKind(t *testing.T) {
	doc := []byte(`{
		"plugins": [{"id": 1}],
		"connections": []
	}`)
	err := controlplane.ValidateWorkspaceDocument(doc)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kind")
}

func TestValidateWorkspaceDocumentRejectsMissingConnectionsField(t *testing.T) {
	doc := []byte(`{"plugins": []}`)
	err := controlplane.ValidateWorkspaceDocument(doc)
	require.Error(t, err)
}

func TestValidateWorkspaceDocumentRejectsMalformedJSON(t *testing.T) {
	err := controlplane.ValidateWorkspaceDocument([]byte(`{not json`))
	require.Error(t, err)
}

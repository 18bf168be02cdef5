package controlplane

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// workspaceSchema describes the wire shape POST /workspace and the
// `rtsynd validate` CLI command both accept, used to reject a malformed
// document with a readable error before it ever reaches the control
// channel (spec §7's "workspace-io" error kind covers read/write
// failure; a schema-invalid document is rejected even earlier, at parse
// time).
const workspaceSchema = `{
  "type": "object",
  "required": ["plugins", "connections"],
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "plugins": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "kind"],
        "properties": {
          "id": {"type": "integer", "minimum": 1},
          "kind": {"type": "string", "minLength": 1},
          "priority": {"type": "integer", "minimum": 0, "maximum": 99},
          "running": {"type": "boolean"},
          "config": {"type": "object"}
        }
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from_plugin", "from_port", "to_plugin", "to_port"],
        "properties": {
          "from_plugin": {"type": "integer"},
          "from_port": {"type": "string"},
          "to_plugin": {"type": "integer"},
          "to_port": {"type": "string"},
          "kind": {"type": "string", "enum": ["shared_memory", "pipe", "in_process"]}
        }
      }
    },
    "settings": {"type": "object"}
  }
}`

var workspaceSchemaLoader = gojsonschema.NewStringLoader(workspaceSchema)

// ValidateWorkspaceDocument checks raw JSON against the workspace wire
// schema, returning every violation found (not just the first) so a UI
// can surface them all at once.
func ValidateWorkspaceDocument(raw []byte) error {
	result, err := gojsonschema.Validate(workspaceSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msg := "workspace document does not match schema:"
	for _, e := range result.Errors() {
		msg += "\n  - " + e.String()
	}
	return fmt.Errorf("%s", msg)
}

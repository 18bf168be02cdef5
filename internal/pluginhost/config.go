package pluginhost

import "encoding/json"

// encodeConfig serializes a plugin's config map to the JSON patch shape
// set_config expects, omitting the loader-only "library_path" hint
// (spec §4.10) so a plugin never receives a key it did not declare.
func encodeConfig(config map[string]any) ([]byte, error) {
	if len(config) == 0 {
		return []byte("{}"), nil
	}
	clean := make(map[string]any, len(config))
	for k, v := range config {
		if k == "library_path" {
			continue
		}
		clean[k] = v
	}
	return json.Marshal(clean)
}

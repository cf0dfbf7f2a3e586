package aci

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// compileRawSchema compiles a raw JSON Schema map into a resolved validator. The map is not mutated.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}

// cloneJSON deep-copies maps and slices of a decoded JSON value. Scalars are shared.
func cloneJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneJSONMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneJSON(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func cloneJSONMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneJSON(v)
	}
	return out
}

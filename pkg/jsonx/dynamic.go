// Package jsonx contains JSON conversion helpers shared by the connectors.
package jsonx

import json "github.com/goccy/go-json"

// ToDynamicJSON round-trips a value through JSON into a map[string]any.
// Provider SDKs frequently want schemas and payloads as loose maps rather
// than typed structs; this is the lossy but convenient bridge.
func ToDynamicJSON(val any) (map[string]any, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any)
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Package types holds the small shared type definitions used across the
// connector packages.
package types

import json "github.com/goccy/go-json"

// ContextVars is the key-value bag of caller-supplied state that flows
// through a completion run. Tool functions can declare a ContextVars
// parameter to receive it; the invocation loop injects the current bag
// instead of exposing it to the model as a schema parameter.
//
// ContextVars is a plain map and is not safe for concurrent mutation.
type ContextVars map[string]any

// String renders the variables as JSON, or an empty string when marshaling
// fails.
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}

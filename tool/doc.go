// Package tool describes the functions a model may invoke during a
// completion run. A Definition pairs a plain Go function with the name,
// description, and parameter labels the provider advertises to the model;
// the JSON Schema for the function signature is derived by reflection so
// callers never hand-write parameter schemas.
package tool

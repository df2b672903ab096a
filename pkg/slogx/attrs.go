// Package slogx carries small helpers for building log/slog attributes.
package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns an attribute with key "error" holding the error message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ByteString returns a string attribute for a byte slice value.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer returns a string attribute from a fmt.Stringer value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

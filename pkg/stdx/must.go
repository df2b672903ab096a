package stdx

// Must0 panics when err is not nil. It is meant for initialization code
// where an error indicates a programming mistake rather than a runtime
// condition worth handling.
func Must0(err error) {
	if err != nil {
		panic(err)
	}
}

// Must1 returns v when err is nil and panics otherwise. It collapses the
// common (value, error) return shape at call sites that cannot fail at
// runtime.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Must2 returns both values when err is nil and panics otherwise.
func Must2[T any, V any](t T, v V, err error) (T, V) {
	if err != nil {
		panic(err)
	}
	return t, v
}

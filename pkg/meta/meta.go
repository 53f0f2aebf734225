// Package meta holds the free-form key/value annotations a Resource[T] or
// Task[In,Out] can attach via its builder's Meta(key, value) call (spec.md
// §6's construction surface has no first-class "annotation" node kind, so
// these live as a loose map rather than a Node of their own). graphctl's
// `inspect` subcommand is the consumer: it walks every registered node's
// annotations and prints the "description" key when present.
package meta

import "fmt"

// Get retrieves a typed annotation from source, the map a Resource[T] or
// Task[In,Out] stores its Meta(key, value) calls in.
func Get[T any](source map[string]any, key string) (T, error) {
	var zero T
	if source == nil {
		return zero, fmt.Errorf("meta: source has no annotations")
	}
	value, ok := source[key]
	if !ok {
		return zero, fmt.Errorf("meta: key %q not set", key)
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("meta: key %q has type %T, not %T", key, value, zero)
	}
	return typed, nil
}

// Set stores value under key on a node's own annotation map, used by
// Resource[T].Meta/Task[In,Out].Meta. source is always non-nil by the time
// Set is called — the builder allocates the map on the node's first Meta
// call.
func Set(source map[string]any, key string, value any) {
	if source == nil {
		return
	}
	source[key] = value
}

// Description is a convenience reader for the "description" annotation,
// the one key this repo's own demo graph always sets and the one graphctl's
// `inspect` subcommand surfaces alongside a node's id, kind and owner.
func Description(source map[string]any) (string, bool) {
	desc, err := Get[string](source, "description")
	return desc, err == nil
}

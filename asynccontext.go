package apprun

import "context"

// AsyncContext is a named, typed value carrier scoped by Provide/Use
// (spec.md §4.6). On Go there is no native-vs-polyfill distinction worth
// making the way the spec's source platform needed one: goroutines always
// carry a real context.Context, so AsyncContext is simply a typed key into
// it — this *is* Go's native propagation mechanism, not a second
// implementation alongside it. That collapse is recorded as an Open
// Question resolution in DESIGN.md rather than left ambiguous.
type AsyncContext[T any] struct {
	id  NodeID
	key ctxKey
}

type ctxKey struct {
	id NodeID
}

// NewAsyncContext declares a new named async context. id is used only for
// diagnostics (the contextError message when Use is called outside Provide).
func NewAsyncContext[T any](id string) *AsyncContext[T] {
	nid := NodeID(id)
	return &AsyncContext[T]{id: nid, key: ctxKey{id: nid}}
}

// Provide scopes value to fn's call tree: any AsyncContext[T].Use(ctx) call
// made by code reached transitively from fn observes value, without value
// having to be threaded through every intervening function signature.
func (a *AsyncContext[T]) Provide(ctx context.Context, value T, fn func(context.Context) error) error {
	return fn(context.WithValue(ctx, a.key, value))
}

// Use retrieves the value currently scoped by the nearest enclosing
// Provide call. A context not under any Provide raises contextError
// (spec.md §4.6).
func (a *AsyncContext[T]) Use(ctx context.Context) (T, error) {
	v := ctx.Value(a.key)
	if v == nil {
		var zero T
		return zero, newError(ErrContext,
			"async context "+string(a.id)+" is not provided in this call tree", nil)
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, newError(ErrContext,
			"async context "+string(a.id)+" has unexpected type", nil)
	}
	return typed, nil
}

// MustUse is Use but panics on error, for call sites that have already
// established invariants (e.g. inside a task they know runs under Provide).
func (a *AsyncContext[T]) MustUse(ctx context.Context) T {
	v, err := a.Use(ctx)
	if err != nil {
		panic(err)
	}
	return v
}

// AsyncContextBuilder exists purely for construction-surface symmetry with
// the other builders (spec.md §6 lists asyncContext among the fluent
// builders); NewAsyncContext already returns the usable value directly.
type AsyncContextBuilder[T any] struct {
	id string
}

func NewAsyncContextBuilder[T any](id string) *AsyncContextBuilder[T] {
	return &AsyncContextBuilder[T]{id: id}
}

func (b *AsyncContextBuilder[T]) Build() *AsyncContext[T] {
	return NewAsyncContext[T](b.id)
}

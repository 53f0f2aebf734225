package apprun

// DependencyMode controls how a dependency edge behaves once wired, mirroring
// the teacher's Dependency/DependencyMode pair (pumped-go/executor.go) — the
// spec itself only requires static resolution, but the teacher's reactive and
// lazy modes are cheap to carry forward (see SPEC_FULL.md, Supplemented
// features) since DependencyRef already has to wrap an AnyExecutor-shaped
// target with a mode tag.
type DependencyMode int

const (
	DepStatic DependencyMode = iota
	DepLazy
	DepReactive
)

// DependencyRef is the type-erased shape a dependency map value takes before
// wiring. Concrete refs are produced by Resource[T]/Task[In,Out]/Event[T]/Tag
// values themselves (they double as their own static dependency ref) or via
// .Lazy()/.Reactive() wrappers.
type DependencyRef interface {
	targetID() NodeID
	targetKind() NodeKind
	mode() DependencyMode
	// resolve is invoked by the initializer once the target's runtime value
	// is available; it produces the value handed to a factory/run function
	// under the dependency's map key (a resource value, an Invoker, an
	// Emitter or a TagAccessor). consumerID is the node doing the depending,
	// needed so tag dependencies can filter membership through the policy
	// chain active at the consumer's position (spec.md §4.5, §9).
	resolve(rt *runtimeState, consumerID NodeID) (any, error)
}

type modeWrapper struct {
	inner DependencyRef
	m     DependencyMode
}

func (w *modeWrapper) targetID() NodeID    { return w.inner.targetID() }
func (w *modeWrapper) targetKind() NodeKind { return w.inner.targetKind() }
func (w *modeWrapper) mode() DependencyMode { return w.m }
func (w *modeWrapper) resolve(rt *runtimeState, consumerID NodeID) (any, error) {
	return w.inner.resolve(rt, consumerID)
}

// Lazy wraps a dependency so the initializer defers resolving its target
// until the dependant's own value is touched instead of eagerly at wiring
// time.
func Lazy(d DependencyRef) DependencyRef {
	return &modeWrapper{inner: d, m: DepLazy}
}

// Reactive wraps a dependency so updates to the target's value invalidate and
// re-resolve the dependant (teacher: Executor.Reactive() in
// pumped-go/executor.go).
func Reactive(d DependencyRef) DependencyRef {
	return &modeWrapper{inner: d, m: DepReactive}
}

// Deps is the declared dependency map a resource/task/hook/middleware carries
// before wiring. Keys starting with "__runner" are reserved for internal
// injections and are exempt from policy checks (spec.md §4.2 step 1).
type Deps map[string]DependencyRef

// DepsFactory lets a node declare its dependency map lazily, which is how
// forward/cyclic references expressed through events are written (spec.md
// §9, "Cyclic graphs"): the factory is invoked once, on first touch, and its
// result is memoized.
type DepsFactory func() Deps

func isInternalKey(key string) bool {
	return len(key) >= 8 && key[:8] == "__runner"
}

// ResolvedDeps is what a factory/run function actually receives: the same
// keys as the declared Deps map, but with every DependencyRef replaced by its
// resolved runtime value.
type ResolvedDeps map[string]any

// DepValue fetches a named dependency out of ResolvedDeps with the expected
// Go type, panicking with a descriptive message on mismatch — mirroring the
// teacher's pattern of unchecked type assertions inside generated factory
// wrappers (executor_generated.go), which is safe here because the shape is
// fixed at wiring time and checked once per node, not per call.
func DepValue[T any](d ResolvedDeps, key string) T {
	v, ok := d[key]
	if !ok {
		panic("apprun: dependency " + key + " was not wired")
	}
	typed, ok := v.(T)
	if !ok {
		panic("apprun: dependency " + key + " has unexpected type")
	}
	return typed
}

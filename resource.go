package apprun

import (
	"context"

	"github.com/graphkernel/apprun/pkg/meta"
)

// ResourceLifecyclePayload is the payload shared by a resource's three
// implicit lifecycle events (spec.md: "Resource events (beforeInit,
// afterInit, onError) are registered implicitly").
type ResourceLifecyclePayload struct {
	ResourceID NodeID
	Config     any
	Deps       ResolvedDeps
	Value      any
	Err        error
	suppressed *bool
}

// Suppress silences propagation of an onError lifecycle failure, letting
// initialization continue with an undefined value (spec.md §4.2 step 7).
func (p *ResourceLifecyclePayload) Suppress() {
	if p.suppressed != nil {
		*p.suppressed = true
	}
}

// AnyResource is the type-erased shape of Resource[T], used by Store, the
// DependencyProcessor and the policy engine.
type AnyResource interface {
	Node
	DependencyRef

	configDefault() any
	computeRegister(config any) ([]registerItem, error)
	initAny(ctx *InitCtx, config any, deps ResolvedDeps) (any, error)
	disposeAny(ctx context.Context, value any, config any, deps ResolvedDeps) error
	exportsList() ([]Ref, bool) // bool: whether exports was declared at all
	wiringPolicy() *WiringAccessPolicy
	beforeInitEvent() *Event[ResourceLifecyclePayload]
	afterInitEvent() *Event[ResourceLifecyclePayload]
	onErrorEvent() *Event[ResourceLifecyclePayload]
	resourceMiddleware() []*ResourceMiddleware
	isPrivate() bool
	metadata() map[string]any
}

// Resource is a stateful singleton with an init/dispose lifecycle.
type Resource[T any] struct {
	id NodeID

	depsFactory DepsFactory
	resolvedDep Deps // memoized result of depsFactory, filled at wiring time

	registerFactory func(config any) []registerItem

	configFactory func() any

	initFn    func(ctx *InitCtx, config any, deps ResolvedDeps) (T, error)
	disposeFn func(ctx context.Context, value T, config any, deps ResolvedDeps) error

	exports        []Ref
	exportsSet     bool
	policy         *WiringAccessPolicy
	tagList        []TaggedRef
	middlewareList []*ResourceMiddleware
	private        bool
	meta           map[string]any

	beforeInit *Event[ResourceLifecyclePayload]
	afterInit  *Event[ResourceLifecyclePayload]
	onError    *Event[ResourceLifecyclePayload]
}

func (r *Resource[T]) ID() NodeID     { return r.id }
func (r *Resource[T]) Kind() NodeKind { return KindResource }

func (r *Resource[T]) deps() map[string]DependencyRef {
	if r.resolvedDep == nil && r.depsFactory != nil {
		r.resolvedDep = r.depsFactory()
	}
	return r.resolvedDep
}

func (r *Resource[T]) tagRefs() []TaggedRef { return r.tagList }

func (r *Resource[T]) targetID() NodeID     { return r.id }
func (r *Resource[T]) targetKind() NodeKind { return KindResource }
func (r *Resource[T]) mode() DependencyMode { return DepStatic }

func (r *Resource[T]) resolve(rt *runtimeState, consumerID NodeID) (any, error) {
	if v, ok := rt.getResourceValue(r.id); ok {
		return v, nil
	}
	if !rt.lazy {
		return nil, newError(ErrDependencyNotFound,
			"resource "+string(r.id)+" was not initialized", nil)
	}
	return initializeLazyResource(rt, r.id)
}

func (r *Resource[T]) configDefault() any {
	if r.configFactory == nil {
		return nil
	}
	return r.configFactory()
}

func (r *Resource[T]) computeRegister(config any) ([]registerItem, error) {
	if r.registerFactory == nil {
		return nil, nil
	}
	return r.registerFactory(config), nil
}

func (r *Resource[T]) initAny(ctx *InitCtx, config any, deps ResolvedDeps) (any, error) {
	if r.initFn == nil {
		var zero T
		return zero, nil
	}
	var typedCfg T
	_ = typedCfg
	return r.initFn(ctx, config, deps)
}

func (r *Resource[T]) disposeAny(ctx context.Context, value any, config any, deps ResolvedDeps) error {
	if r.disposeFn == nil {
		return nil
	}
	typedVal, _ := value.(T)
	return r.disposeFn(ctx, typedVal, config, deps)
}

func (r *Resource[T]) exportsList() ([]Ref, bool) { return r.exports, r.exportsSet }
func (r *Resource[T]) wiringPolicy() *WiringAccessPolicy { return r.policy }
func (r *Resource[T]) resourceMiddleware() []*ResourceMiddleware { return r.middlewareList }
func (r *Resource[T]) isPrivate() bool { return r.private }

// metadata returns the resource's free-form annotations (graphctl's
// `inspect` subcommand prints these alongside a node's id and kind), backed
// by pkg/meta's map-keyed Get/Set helpers rather than a bespoke accessor.
func (r *Resource[T]) metadata() map[string]any { return r.meta }

// Meta attaches a key/value annotation, retrievable later via
// meta.Get[T](resource.metadata(), key).
func (r *Resource[T]) Meta(key string, value any) *Resource[T] {
	if r.meta == nil {
		r.meta = make(map[string]any)
	}
	meta.Set(r.meta, key, value)
	return r
}

func (r *Resource[T]) beforeInitEvent() *Event[ResourceLifecyclePayload] { return r.beforeInit }
func (r *Resource[T]) afterInitEvent() *Event[ResourceLifecyclePayload]  { return r.afterInit }
func (r *Resource[T]) onErrorEvent() *Event[ResourceLifecyclePayload]    { return r.onError }

// InitCtx is threaded through a resource's init function, the equivalent of
// the teacher's ResolveCtx (context.go) generalized with OnCleanup and
// context propagation.
type InitCtx struct {
	ctx      context.Context
	resource AnyResource
	cleanups []func() error
}

func (c *InitCtx) Context() context.Context { return c.ctx }

// OnCleanup registers an additional cleanup function run (in LIFO order,
// after dispose) when the resource is disposed or, for reactive resources,
// invalidated. Mirrors the teacher's ResolveCtx.OnCleanup.
func (c *InitCtx) OnCleanup(fn func() error) {
	c.cleanups = append(c.cleanups, fn)
}

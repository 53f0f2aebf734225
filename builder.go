package apprun

import "context"

// This file is the fluent construction surface described in spec.md §6:
// resource(id).register([...]).dependencies({...}).init(fn).dispose(fn).exports([...]).build(),
// and the analogous builders for task, hook, tag, middleware.task,
// middleware.resource (events are built directly with NewEvent). Direct struct-literal construction of Resource[T] /
// Task[In,Out] / etc. is semantically identical; the builders exist purely
// for chainability, mirroring the teacher's Provide/Derive-plus-opts pattern
// (pumped-go/executor.go) but spelled as a fluent struct because the spec
// explicitly asks for dot-chained configuration rather than variadic options.

// ResourceBuilder builds a Resource[T].
type ResourceBuilder[T any] struct {
	r *Resource[T]
}

// NewResource starts building a resource with the given id.
func NewResource[T any](id string) *ResourceBuilder[T] {
	return &ResourceBuilder[T]{r: &Resource[T]{id: NodeID(id)}}
}

func (b *ResourceBuilder[T]) Config(factory func() any) *ResourceBuilder[T] {
	b.r.configFactory = factory
	return b
}

func (b *ResourceBuilder[T]) Register(items ...registerItem) *ResourceBuilder[T] {
	b.r.registerFactory = func(any) []registerItem { return items }
	return b
}

func (b *ResourceBuilder[T]) RegisterFunc(fn func(config any) []registerItem) *ResourceBuilder[T] {
	b.r.registerFactory = fn
	return b
}

func (b *ResourceBuilder[T]) Dependencies(d Deps) *ResourceBuilder[T] {
	b.r.depsFactory = func() Deps { return d }
	return b
}

func (b *ResourceBuilder[T]) DependenciesFunc(f DepsFactory) *ResourceBuilder[T] {
	b.r.depsFactory = f
	return b
}

func (b *ResourceBuilder[T]) Init(fn func(ctx *InitCtx, config any, deps ResolvedDeps) (T, error)) *ResourceBuilder[T] {
	b.r.initFn = fn
	return b
}

func (b *ResourceBuilder[T]) Dispose(fn func(ctx context.Context, value T, config any, deps ResolvedDeps) error) *ResourceBuilder[T] {
	b.r.disposeFn = fn
	return b
}

// Exports declares which register-subtree items are visible to consumers
// outside this resource's subtree. Declaring Exports at all — even with zero
// refs — switches the resource from "allow all children" (the default when
// Exports is never called) to "deny unless listed" (spec.md §4.5).
func (b *ResourceBuilder[T]) Exports(refs ...Ref) *ResourceBuilder[T] {
	b.r.exports = refs
	b.r.exportsSet = true
	return b
}

func (b *ResourceBuilder[T]) WiringAccessPolicy(p *WiringAccessPolicy) *ResourceBuilder[T] {
	b.r.policy = p
	return b
}

func (b *ResourceBuilder[T]) Tags(refs ...TaggedRef) *ResourceBuilder[T] {
	b.r.tagList = refs
	return b
}

func (b *ResourceBuilder[T]) Middleware(mw ...*ResourceMiddleware) *ResourceBuilder[T] {
	b.r.middlewareList = mw
	return b
}

// Private marks the resource so no other node can take it as a dependency
// (a stronger form of exports=[]; such an edge fails wiring with
// visibilityViolation), matching spec.md's "optional
// private state factory" note for resources that only exist for side effects.
func (b *ResourceBuilder[T]) Private() *ResourceBuilder[T] {
	b.r.private = true
	return b
}

// Meta attaches a free-form annotation to the built resource, surfaced by
// graphctl's `inspect` subcommand.
func (b *ResourceBuilder[T]) Meta(key string, value any) *ResourceBuilder[T] {
	b.r.Meta(key, value)
	return b
}

func (b *ResourceBuilder[T]) Build() *Resource[T] {
	id := string(b.r.id)
	b.r.beforeInit = &Event[ResourceLifecyclePayload]{id: NodeID(id + ".beforeInit"), system: true}
	b.r.afterInit = &Event[ResourceLifecyclePayload]{id: NodeID(id + ".afterInit"), system: true}
	b.r.onError = &Event[ResourceLifecyclePayload]{id: NodeID(id + ".onError"), system: true}
	return b.r
}

// TaskBuilder builds a Task[In, Out].
type TaskBuilder[In any, Out any] struct {
	t *Task[In, Out]
}

func NewTask[In any, Out any](id string) *TaskBuilder[In, Out] {
	return &TaskBuilder[In, Out]{t: &Task[In, Out]{id: NodeID(id)}}
}

func (b *TaskBuilder[In, Out]) Dependencies(d Deps) *TaskBuilder[In, Out] {
	b.t.depsFactory = func() Deps { return d }
	return b
}

func (b *TaskBuilder[In, Out]) DependenciesFunc(f DepsFactory) *TaskBuilder[In, Out] {
	b.t.depsFactory = f
	return b
}

func (b *TaskBuilder[In, Out]) Run(fn func(ctx context.Context, input In, deps ResolvedDeps) (Out, error)) *TaskBuilder[In, Out] {
	b.t.runFn = fn
	return b
}

func (b *TaskBuilder[In, Out]) Middleware(mw ...*TaskMiddleware) *TaskBuilder[In, Out] {
	b.t.middleware = mw
	return b
}

func (b *TaskBuilder[In, Out]) Tags(refs ...TaggedRef) *TaskBuilder[In, Out] {
	b.t.tagList = refs
	return b
}

func (b *TaskBuilder[In, Out]) InputSchema(s Schema) *TaskBuilder[In, Out] {
	b.t.inputSchema = s
	return b
}

func (b *TaskBuilder[In, Out]) ResultSchema(s Schema) *TaskBuilder[In, Out] {
	b.t.resultSchema = s
	return b
}

// On promotes this task to a hook on the given event (spec.md: "optional on:
// event|'*'").
func (b *TaskBuilder[In, Out]) On(event Node) *TaskBuilder[In, Out] {
	b.t.onTarget = event
	return b
}

// Meta attaches a free-form annotation to the built task, surfaced by
// graphctl's `inspect` subcommand.
func (b *TaskBuilder[In, Out]) Meta(key string, value any) *TaskBuilder[In, Out] {
	b.t.Meta(key, value)
	return b
}

func (b *TaskBuilder[In, Out]) Build() *Task[In, Out] {
	id := string(b.t.id)
	b.t.beforeRun = &Event[TaskLifecyclePayload]{id: NodeID(id + ".beforeRun"), system: true}
	b.t.afterRun = &Event[TaskLifecyclePayload]{id: NodeID(id + ".afterRun"), system: true}
	b.t.onError = &Event[TaskLifecyclePayload]{id: NodeID(id + ".onError"), system: true}
	return b.t
}

// HookBuilder builds a Hook.
type HookBuilder struct {
	h *Hook
}

func NewHook(id string) *HookBuilder {
	return &HookBuilder{h: &Hook{id: NodeID(id)}}
}

func (b *HookBuilder) Dependencies(d Deps) *HookBuilder {
	b.h.depsFactory = func() Deps { return d }
	return b
}

// On registers this hook on one or more specific events.
func (b *HookBuilder) On(events ...Node) *HookBuilder {
	b.h.onEvents = events
	return b
}

// OnAll registers this hook on every non-system event ("*").
func (b *HookBuilder) OnAll() *HookBuilder {
	b.h.onAll = true
	return b
}

func (b *HookBuilder) Order(order int) *HookBuilder {
	b.h.ord = order
	return b
}

// Filter skips delivery to this hook when fn(emission) returns false.
func (b *HookBuilder) Filter(fn func(*Emission) bool) *HookBuilder {
	b.h.filter = fn
	return b
}

func (b *HookBuilder) Run(fn func(ctx context.Context, emission *Emission, deps ResolvedDeps) error) *HookBuilder {
	b.h.runFn = fn
	return b
}

func (b *HookBuilder) Build() *Hook {
	return b.h
}

// TaskMiddlewareBuilder builds a TaskMiddleware.
type TaskMiddlewareBuilder struct {
	m *TaskMiddleware
}

func NewTaskMiddleware(id string) *TaskMiddlewareBuilder {
	return &TaskMiddlewareBuilder{m: &TaskMiddleware{id: NodeID(id)}}
}

func (b *TaskMiddlewareBuilder) Dependencies(d Deps) *TaskMiddlewareBuilder {
	b.m.depsFactory = func() Deps { return d }
	return b
}

func (b *TaskMiddlewareBuilder) Run(fn func(ctx context.Context, mctx *TaskMiddlewareCtx, deps ResolvedDeps, config any) (any, error)) *TaskMiddlewareBuilder {
	b.m.runFn = fn
	return b
}

// Global attaches this middleware to every task's chain.
func (b *TaskMiddlewareBuilder) Global() *TaskMiddlewareBuilder {
	b.m.global = true
	return b
}

// Everywhere attaches this middleware globally to every task for which
// predicate returns true, excluding the middleware's own dependency closure.
func (b *TaskMiddlewareBuilder) Everywhere(predicate func(task AnyTask) bool) *TaskMiddlewareBuilder {
	b.m.everyWhen = predicate
	return b
}

func (b *TaskMiddlewareBuilder) Build() *TaskMiddleware {
	return b.m
}

// ResourceMiddlewareBuilder builds a ResourceMiddleware.
type ResourceMiddlewareBuilder struct {
	m *ResourceMiddleware
}

func NewResourceMiddleware(id string) *ResourceMiddlewareBuilder {
	return &ResourceMiddlewareBuilder{m: &ResourceMiddleware{id: NodeID(id)}}
}

func (b *ResourceMiddlewareBuilder) Dependencies(d Deps) *ResourceMiddlewareBuilder {
	b.m.depsFactory = func() Deps { return d }
	return b
}

func (b *ResourceMiddlewareBuilder) Run(fn func(ctx *InitCtx, mctx *ResourceMiddlewareCtx, deps ResolvedDeps, config any) (any, error)) *ResourceMiddlewareBuilder {
	b.m.runFn = fn
	return b
}

// Everywhere attaches this middleware to every resource for which predicate
// returns true. Resource middleware can never be unconditionally global
// (spec.md §4.3: "cannot be declared everywhere without a predicate guard").
func (b *ResourceMiddlewareBuilder) Everywhere(predicate func(resource AnyResource) bool) *ResourceMiddlewareBuilder {
	b.m.everyWhen = predicate
	return b
}

func (b *ResourceMiddlewareBuilder) Build() *ResourceMiddleware {
	return b.m
}

// TagBuilder builds a Tag. Tags carry no behavior, so the builder only
// exists for symmetry with the other node builders.
type TagBuilder struct {
	id string
}

func NewTagBuilder(id string) *TagBuilder {
	return &TagBuilder{id: id}
}

func (b *TagBuilder) Build() *Tag {
	return NewTag(b.id)
}

package apprun

import "context"

// TaskMiddlewareCtx is the context handed to a task middleware's run
// function: the task being executed, the input as it arrived at this layer,
// and next, which invokes the remainder of the chain. A middleware reads
// Input to observe or transform what the task (or the next middleware) will
// receive; it forwards by passing a (possibly mutated) value to Next, not by
// re-reading Input (spec.md §4.3: "Middleware may mutate input passed to
// next").
type TaskMiddlewareCtx struct {
	Task  AnyTask
	Input any
	next  func(ctx context.Context, input any) (any, error)
}

func (c *TaskMiddlewareCtx) Next(ctx context.Context, input any) (any, error) {
	return c.next(ctx, input)
}

// TaskMiddleware wraps a single stage of task execution. Composable as an
// onion, same as the teacher's extension Wrap chain (scope.go Resolve/Update)
// generalized from "wraps one scope-wide operation" to "wraps one task's run".
type TaskMiddleware struct {
	id NodeID

	depsFactory DepsFactory
	resolvedDep Deps

	runFn func(ctx context.Context, mctx *TaskMiddlewareCtx, deps ResolvedDeps, config any) (any, error)

	global    bool
	everyWhen func(task AnyTask) bool
}

func (m *TaskMiddleware) ID() NodeID     { return m.id }
func (m *TaskMiddleware) Kind() NodeKind { return KindTaskMiddleware }

func (m *TaskMiddleware) deps() map[string]DependencyRef {
	if m.resolvedDep == nil && m.depsFactory != nil {
		m.resolvedDep = m.depsFactory()
	}
	return m.resolvedDep
}

func (m *TaskMiddleware) tagRefs() []TaggedRef { return nil }

func (m *TaskMiddleware) isGlobal() bool { return m.global }

// appliesEverywhere reports whether this middleware should be prepended
// globally to task, per its everywhere() predicate, excluding the
// middleware's own dependency closure to prevent feedback loops (spec.md
// §4.3).
func (m *TaskMiddleware) appliesEverywhere(task AnyTask, inOwnClosure bool) bool {
	if m.everyWhen == nil {
		return false
	}
	if inOwnClosure {
		return false
	}
	return m.everyWhen(task)
}

// ResourceMiddlewareCtx is the context handed to a resource middleware's run
// function.
type ResourceMiddlewareCtx struct {
	Resource AnyResource
	next     func(ctx *InitCtx, config any) (any, error)
}

func (c *ResourceMiddlewareCtx) Next(ctx *InitCtx, config any) (any, error) {
	return c.next(ctx, config)
}

// ResourceMiddleware wraps init instead of run. Cannot be declared
// "everywhere" without a predicate guard (spec.md §4.3).
type ResourceMiddleware struct {
	id NodeID

	depsFactory DepsFactory
	resolvedDep Deps

	runFn func(ctx *InitCtx, mctx *ResourceMiddlewareCtx, deps ResolvedDeps, config any) (any, error)

	everyWhen func(resource AnyResource) bool
}

func (m *ResourceMiddleware) ID() NodeID     { return m.id }
func (m *ResourceMiddleware) Kind() NodeKind { return KindResourceMiddleware }

func (m *ResourceMiddleware) deps() map[string]DependencyRef {
	if m.resolvedDep == nil && m.depsFactory != nil {
		m.resolvedDep = m.depsFactory()
	}
	return m.resolvedDep
}

func (m *ResourceMiddleware) tagRefs() []TaggedRef { return nil }

func (m *ResourceMiddleware) appliesEverywhere(resource AnyResource) bool {
	if m.everyWhen == nil {
		return false
	}
	return m.everyWhen(resource)
}

package apprun

import (
	"context"

	"github.com/graphkernel/apprun/pkg/meta"
)

// TaskLifecyclePayload is the payload shared by a task's three implicit
// lifecycle events (beforeRun, afterRun, onError).
type TaskLifecyclePayload struct {
	TaskID     NodeID
	Input      any
	Output     any
	Err        error
	suppressed *bool
}

func (p *TaskLifecyclePayload) Suppress() {
	if p.suppressed != nil {
		*p.suppressed = true
	}
}

// AnyTask is the type-erased shape of Task[In, Out].
type AnyTask interface {
	Node
	DependencyRef

	middlewareList() []*TaskMiddleware
	runAny(ctx context.Context, deps ResolvedDeps, input any) (any, error)
	onEvent() (Node, bool) // the event/hook-on-event target this task is promoted from, if any
	beforeRunEvent() *Event[TaskLifecyclePayload]
	afterRunEvent() *Event[TaskLifecyclePayload]
	onErrorEvent() *Event[TaskLifecyclePayload]
	validateInput(v any) (any, error)
	validateResult(v any) (any, error)
	interceptorList() []TaskInterceptor
	addInterceptor(fn TaskInterceptor)
	metadata() map[string]any
}

// Task is an invocable function run through a middleware chain.
type Task[In any, Out any] struct {
	id NodeID

	depsFactory DepsFactory
	resolvedDep Deps

	runFn func(ctx context.Context, input In, deps ResolvedDeps) (Out, error)

	middleware []*TaskMiddleware
	tagList    []TaggedRef

	inputSchema  Schema
	resultSchema Schema

	onTarget Node // set when this task was declared with `on: event`

	interceptors []TaskInterceptor
	meta         map[string]any

	beforeRun *Event[TaskLifecyclePayload]
	afterRun  *Event[TaskLifecyclePayload]
	onError   *Event[TaskLifecyclePayload]
}

func (t *Task[In, Out]) ID() NodeID     { return t.id }
func (t *Task[In, Out]) Kind() NodeKind { return KindTask }

func (t *Task[In, Out]) deps() map[string]DependencyRef {
	if t.resolvedDep == nil && t.depsFactory != nil {
		t.resolvedDep = t.depsFactory()
	}
	return t.resolvedDep
}

func (t *Task[In, Out]) tagRefs() []TaggedRef { return t.tagList }

func (t *Task[In, Out]) targetID() NodeID     { return t.id }
func (t *Task[In, Out]) targetKind() NodeKind { return KindTask }
func (t *Task[In, Out]) mode() DependencyMode { return DepStatic }

// resolve, for a task dependency, yields an Invoker that the consumer calls
// directly (spec.md §4.2 step 4: "task → an invoker (input)=>TaskRunner.run").
func (t *Task[In, Out]) resolve(rt *runtimeState, consumerID NodeID) (any, error) {
	return Invoker[In, Out](func(ctx context.Context, input In) (Out, error) {
		out, err := rt.tasks.Run(ctx, t, input)
		var zero Out
		if err != nil {
			return zero, err
		}
		if out == nil {
			return zero, nil
		}
		typed, ok := out.(Out)
		if !ok {
			return zero, nil
		}
		return typed, nil
	}), nil
}

// Invoker is what a task dependency resolves to.
type Invoker[In any, Out any] func(ctx context.Context, input In) (Out, error)

func (t *Task[In, Out]) middlewareList() []*TaskMiddleware { return t.middleware }

// TaskInterceptor wraps a task's entire middleware chain, composed LIFO
// across however many are installed (spec.md §4.3, "task.intercept(fn)").
type TaskInterceptor func(ctx context.Context, next func(context.Context, any) (any, error), input any) (any, error)

func (t *Task[In, Out]) interceptorList() []TaskInterceptor { return t.interceptors }

func (t *Task[In, Out]) addInterceptor(fn TaskInterceptor) {
	t.interceptors = append(t.interceptors, fn)
}

func (t *Task[In, Out]) metadata() map[string]any { return t.meta }

// Meta attaches a free-form annotation to the task, mirroring
// Resource[T].Meta.
func (t *Task[In, Out]) Meta(key string, value any) *Task[In, Out] {
	if t.meta == nil {
		t.meta = make(map[string]any)
	}
	meta.Set(t.meta, key, value)
	return t
}

func (t *Task[In, Out]) runAny(ctx context.Context, deps ResolvedDeps, input any) (any, error) {
	typedInput, _ := input.(In)
	return t.runFn(ctx, typedInput, deps)
}

func (t *Task[In, Out]) onEvent() (Node, bool) { return t.onTarget, t.onTarget != nil }

func (t *Task[In, Out]) beforeRunEvent() *Event[TaskLifecyclePayload] { return t.beforeRun }
func (t *Task[In, Out]) afterRunEvent() *Event[TaskLifecyclePayload]  { return t.afterRun }
func (t *Task[In, Out]) onErrorEvent() *Event[TaskLifecyclePayload]   { return t.onError }

func (t *Task[In, Out]) validateInput(v any) (any, error) {
	if t.inputSchema == nil {
		return v, nil
	}
	return t.inputSchema.Validate(v)
}

func (t *Task[In, Out]) validateResult(v any) (any, error) {
	if t.resultSchema == nil {
		return v, nil
	}
	return t.resultSchema.Validate(v)
}

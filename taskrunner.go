package apprun

import (
	"context"
	"runtime/debug"
)

// TaskRunner executes a task through its composed middleware chain,
// generalizing the teacher's extension-wrapping loop in Scope.Resolve/Update
// (scope.go) — which composes "last registered wraps first" around a single
// resolve call — into the spec's explicit chain order: global middleware
// first (outermost), then the task's own middleware in declaration order,
// the first declared outermost (spec.md §4.3).
type TaskRunner struct {
	store *Store
	rt    *runtimeState
	tree  *ExecutionTree

	globalBeforeRun *Event[TaskLifecyclePayload]
	globalAfterRun  *Event[TaskLifecyclePayload]
	globalOnError   *Event[TaskLifecyclePayload]
}

func newTaskRunner(store *Store) *TaskRunner {
	return &TaskRunner{
		store:           store,
		tree:            newExecutionTree(),
		globalBeforeRun: &Event[TaskLifecyclePayload]{id: "__runner.tasks.beforeRun", system: true},
		globalAfterRun:  &Event[TaskLifecyclePayload]{id: "__runner.tasks.afterRun", system: true},
		globalOnError:   &Event[TaskLifecyclePayload]{id: "__runner.tasks.onError", system: true},
	}
}

// attach wires the runtimeState back into the TaskRunner once it exists,
// breaking the construction cycle between runtimeState and TaskRunner (both
// reference each other).
func (tr *TaskRunner) attach(rt *runtimeState) { tr.rt = rt }

// Run executes task with input, following the six-step contract of
// spec.md §4.3.
func (tr *TaskRunner) Run(ctx context.Context, task AnyTask, input any) (result any, err error) {
	validated, verr := task.validateInput(input)
	if verr != nil {
		return nil, wrapError(ErrContext, "input validation failed for "+string(task.ID()), verr)
	}
	input = validated

	inv := tr.rt.pool.getInvocation()
	defer tr.rt.pool.putInvocation(inv)

	beforePayload := TaskLifecyclePayload{TaskID: task.ID(), Input: input, suppressed: &inv.beforeSuppressed}
	if _, _, berr := tr.rt.events.EmitLifecycle(tr.globalBeforeRun.id, &beforePayload, task); berr != nil {
		return nil, berr
	}
	if _, _, berr := tr.rt.events.EmitLifecycle(task.beforeRunEvent().ID(), &beforePayload, task); berr != nil {
		return nil, berr
	}
	if inv.beforeSuppressed {
		return nil, nil
	}

	chain := tr.composeChain(task)

	nodeID := newExecutionID()
	parentID := executionParentOf(ctx)
	execCtx := withExecutionParent(ctx, nodeID)

	tr.rt.markRunning(task.ID())
	result, err = tr.runCooperatively(execCtx, chain, input)
	tr.rt.clearRunning(task.ID())

	tr.tree.addNode(&ExecutionNode{
		ID: nodeID, ParentID: parentID, TaskID: task.ID(), Input: input, Output: result, Err: err,
	})

	if err != nil {
		errPayload := TaskLifecyclePayload{TaskID: task.ID(), Input: input, Err: err, suppressed: &inv.errSuppressed}
		tr.rt.events.EmitLifecycle(tr.globalOnError.id, &errPayload, task)
		tr.rt.events.EmitLifecycle(task.onErrorEvent().ID(), &errPayload, task)
		if inv.errSuppressed {
			return nil, nil
		}
		return nil, err
	}

	validatedResult, rverr := task.validateResult(result)
	if rverr != nil {
		return nil, wrapError(ErrContext, "result validation failed for "+string(task.ID()), rverr)
	}
	result = validatedResult

	afterPayload := TaskLifecyclePayload{TaskID: task.ID(), Input: input, Output: result}
	tr.rt.events.EmitLifecycle(tr.globalAfterRun.id, &afterPayload, task)
	tr.rt.events.EmitLifecycle(task.afterRunEvent().ID(), &afterPayload, task)

	return result, nil
}

// composeChain builds [globalTaskMiddlewares − excluded] ++ task.middleware,
// then wraps them around task's own run, outermost first, and finally wraps
// the whole thing in the task's registered interceptors (LIFO).
func (tr *TaskRunner) composeChain(task AnyTask) func(ctx context.Context, input any) (any, error) {
	own := closureOf(task)

	var layers []*TaskMiddleware
	for _, mw := range tr.store.globalTaskMiddleware() {
		if !own[mw.id] {
			layers = append(layers, mw)
		}
	}
	for _, mw := range tr.store.everywhereTaskMiddleware() {
		if mw.appliesEverywhere(task, closuresIntersect(own, closureOf(mw))) {
			layers = append(layers, mw)
		}
	}
	layers = append(layers, task.middlewareList()...)

	base := func(ctx context.Context, input any) (any, error) {
		return task.runAny(ctx, tr.rt.getDepValues(task.ID()), input)
	}

	chain := base
	for i := len(layers) - 1; i >= 0; i-- {
		mw := layers[i]
		next := chain
		chain = func(ctx context.Context, input any) (any, error) {
			mctx := &TaskMiddlewareCtx{Task: task, Input: input, next: next}
			return mw.runFn(ctx, mctx, tr.rt.getDepValues(mw.id), nil)
		}
	}

	for _, interceptor := range task.interceptorList() {
		next := chain
		fn := interceptor
		chain = func(ctx context.Context, input any) (any, error) {
			return fn(ctx, next, input)
		}
	}

	return chain
}

// closureOf returns the set of node ids n's own dependency map reaches
// (including n itself), for any node that declares dependencies — a task or
// a middleware alike, since both satisfy Node.
func closureOf(n Node) map[NodeID]bool {
	closure := map[NodeID]bool{n.ID(): true}
	for _, d := range n.deps() {
		closure[d.targetID()] = true
	}
	return closure
}

// closuresIntersect reports whether a and b share any node id, used to
// exclude an everywhere() middleware from wrapping a task whose own
// dependency closure overlaps the middleware's (spec.md §4.3: "excluding the
// middleware's own dependency closure, to prevent feedback loops").
func closuresIntersect(a, b map[NodeID]bool) bool {
	small, large := a, b
	if len(large) < len(small) {
		small, large = large, small
	}
	for id := range small {
		if large[id] {
			return true
		}
	}
	return false
}

// runCooperatively runs chain on its own goroutine and selects on
// ctx.Done(), the teacher's executeFlow pattern (flow.go): goroutine +
// select + panic recovery via recover()+debug.Stack(), generalized from
// flow execution to task execution.
func (tr *TaskRunner) runCooperatively(ctx context.Context, chain func(context.Context, any) (any, error), input any) (any, error) {
	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{nil, wrapError(ErrContext, "task panicked", &panicError{value: r, stack: debug.Stack()})}
			}
		}()
		result, err := chain(ctx, input)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		return nil, &CancellationError{Reason: ctx.Err().Error()}
	case o := <-done:
		return o.result, o.err
	}
}

type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return "panic: " + formatPanic(p.value)
}

func formatPanic(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}

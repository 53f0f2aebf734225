package apprun

import (
	"context"
	"errors"
	"testing"
)

func TestTaskMiddlewareOrderIsGlobalThenOwn(t *testing.T) {
	var order []string

	global := NewTaskMiddleware("orderGlobalMW").
		Global().
		Run(func(ctx context.Context, mctx *TaskMiddlewareCtx, _ ResolvedDeps, _ any) (any, error) {
			order = append(order, "global-before")
			out, err := mctx.Next(ctx, mctx.Input)
			order = append(order, "global-after")
			return out, err
		}).
		Build()

	own := NewTaskMiddleware("orderOwnMW").
		Run(func(ctx context.Context, mctx *TaskMiddlewareCtx, _ ResolvedDeps, _ any) (any, error) {
			order = append(order, "own-before")
			out, err := mctx.Next(ctx, mctx.Input)
			order = append(order, "own-after")
			return out, err
		}).
		Build()

	task := NewTask[int, int]("orderedTask").
		Middleware(own).
		Run(func(_ context.Context, input int, _ ResolvedDeps) (int, error) {
			order = append(order, "run")
			return input, nil
		}).
		Build()

	root := NewResource[int]("orderRoot").
		Register(global, task).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	result, err := RunTask(context.Background(), rt, task, 1)
	if err != nil {
		t.Fatalf("expected task to succeed, got %v", err)
	}
	if result != 1 {
		t.Fatalf("expected middleware chain to forward input 1 through to run, got %d", result)
	}

	expected := []string{"global-before", "own-before", "run", "own-after", "global-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i, step := range expected {
		if order[i] != step {
			t.Errorf("expected step %d to be %s, got %s", i, step, order[i])
		}
	}
}

func TestEverywhereMiddlewareExcludesOwnDependencyClosure(t *testing.T) {
	var wrapped []string

	dep := NewResource[int]("everywhereDep").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 1, nil }).
		Build()

	mw := NewTaskMiddleware("everywhereMW").
		Dependencies(Deps{"dep": dep}).
		Everywhere(func(task AnyTask) bool { return true }).
		Run(func(ctx context.Context, mctx *TaskMiddlewareCtx, _ ResolvedDeps, _ any) (any, error) {
			wrapped = append(wrapped, string(mctx.Task.ID()))
			return mctx.Next(ctx, mctx.Input)
		}).
		Build()

	usesDep := NewTask[int, int]("usesDepTask").
		Dependencies(Deps{"dep": dep}).
		Run(func(_ context.Context, input int, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "dep") + input, nil
		}).
		Build()

	plain := NewTask[int, int]("plainTask").
		Run(func(_ context.Context, input int, _ ResolvedDeps) (int, error) { return input, nil }).
		Build()

	root := NewResource[int]("everywhereRoot").
		Register(dep, mw, usesDep, plain).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := RunTask(context.Background(), rt, usesDep, 1); err != nil {
		t.Fatalf("expected usesDepTask to succeed, got %v", err)
	}
	if _, err := RunTask(context.Background(), rt, plain, 1); err != nil {
		t.Fatalf("expected plainTask to succeed, got %v", err)
	}

	for _, w := range wrapped {
		if w == "usesDepTask" {
			t.Fatal("expected everywhere() middleware to skip a task in its own dependency closure")
		}
	}
	found := false
	for _, w := range wrapped {
		if w == "plainTask" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected everywhere() middleware to wrap plainTask")
	}
}

func TestTaskInterceptorsComposeLIFO(t *testing.T) {
	var order []string

	task := NewTask[int, int]("interceptedTask").
		Run(func(_ context.Context, input int, _ ResolvedDeps) (int, error) {
			order = append(order, "run")
			return input, nil
		}).
		Build()

	task.addInterceptor(func(ctx context.Context, next func(context.Context, any) (any, error), input any) (any, error) {
		order = append(order, "first-before")
		out, err := next(ctx, input)
		order = append(order, "first-after")
		return out, err
	})
	task.addInterceptor(func(ctx context.Context, next func(context.Context, any) (any, error), input any) (any, error) {
		order = append(order, "second-before")
		out, err := next(ctx, input)
		order = append(order, "second-after")
		return out, err
	})

	root := NewResource[int]("interceptorRoot").
		Register(task).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := RunTask(context.Background(), rt, task, 1); err != nil {
		t.Fatalf("expected task to succeed, got %v", err)
	}

	expected := []string{"second-before", "first-before", "run", "first-after", "second-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i, step := range expected {
		if order[i] != step {
			t.Errorf("expected step %d to be %s, got %s", i, step, order[i])
		}
	}
}

func TestTaskCancellationSurfacesCancellationError(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	task := NewTask[int, int]("cancellableTask").
		Run(func(ctx context.Context, input int, _ ResolvedDeps) (int, error) {
			close(started)
			<-release
			return input, nil
		}).
		Build()

	root := NewResource[int]("cancelRoot").
		Register(task).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err = RunTask(ctx, rt, task, 1)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !IsCancellationError(err) {
		t.Fatalf("expected a CancellationError, got %v (%T)", err, err)
	}
}

func TestTaskPanicIsRecoveredAsError(t *testing.T) {
	task := NewTask[int, int]("panickingTask").
		Run(func(_ context.Context, _ int, _ ResolvedDeps) (int, error) {
			panic("boom")
		}).
		Build()

	root := NewResource[int]("panicRoot").
		Register(task).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	_, err = RunTask(context.Background(), rt, task, 1)
	if err == nil {
		t.Fatal("expected panic inside a task to surface as an error")
	}
}

func TestTaskSchemaValidationRejectsBadInput(t *testing.T) {
	task := NewTask[any, any]("schemaTask").
		InputSchema(NumberSchema().WithMin(0)).
		Run(func(_ context.Context, input any, _ ResolvedDeps) (any, error) {
			return input, nil
		}).
		Build()

	root := NewResource[int]("schemaRoot").
		Register(task).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := RunTask[any, any](context.Background(), rt, task, -1); err == nil {
		t.Fatal("expected schema validation to reject a negative number")
	}
	if _, err := RunTask[any, any](context.Background(), rt, task, 5); err != nil {
		t.Fatalf("expected schema validation to accept 5, got %v", err)
	}
}

var errBoom = errors.New("boom")

func TestTaskOnErrorSuppressConvertsFailureToNilResult(t *testing.T) {
	task := NewTask[int, int]("suppressedTask").
		Run(func(_ context.Context, _ int, _ ResolvedDeps) (int, error) {
			return 0, errBoom
		}).
		Build()

	hook := NewHook("suppressHook").
		On(task.onErrorEvent()).
		Run(func(_ context.Context, emission *Emission, _ ResolvedDeps) error {
			if payload, ok := emission.Data.(*TaskLifecyclePayload); ok {
				payload.Suppress()
			}
			return nil
		}).
		Build()

	root := NewResource[int]("suppressRoot").
		Register(task, hook).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	result, err := RunTask(context.Background(), rt, task, 1)
	if err != nil {
		t.Fatalf("expected suppressed error to surface as nil error, got %v", err)
	}
	if result != 0 {
		t.Fatalf("expected zero-value result for a suppressed failure, got %v", result)
	}
}

package apprun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInitializesAndDisposesInOrder(t *testing.T) {
	var initOrder []string
	var disposeOrder []string

	base := NewResource[int]("base").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) {
			initOrder = append(initOrder, "base")
			return 1, nil
		}).
		Dispose(func(_ context.Context, _ int, _ any, _ ResolvedDeps) error {
			disposeOrder = append(disposeOrder, "base")
			return nil
		}).
		Build()

	derived := NewResource[int]("derived").
		Dependencies(Deps{"base": base}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			initOrder = append(initOrder, "derived")
			return DepValue[int](deps, "base") + 1, nil
		}).
		Dispose(func(_ context.Context, _ int, _ any, _ ResolvedDeps) error {
			disposeOrder = append(disposeOrder, "derived")
			return nil
		}).
		Build()

	root := NewResource[int]("root").
		Register(base, derived).
		Dependencies(Deps{"derived": derived}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			initOrder = append(initOrder, "root")
			return DepValue[int](deps, "derived"), nil
		}).
		Dispose(func(_ context.Context, _ int, _ any, _ ResolvedDeps) error {
			disposeOrder = append(disposeOrder, "root")
			return nil
		}).
		Build()

	rt, err := Run(context.Background(), root)
	require.NoError(t, err)

	value, err := rt.Value()
	require.NoError(t, err)
	require.Equal(t, 2, value)

	require.Equal(t, []string{"base", "derived", "root"}, initOrder)

	require.NoError(t, rt.Dispose(context.Background()))
	require.Equal(t, []string{"root", "derived", "base"}, disposeOrder)
}

func TestRunRejectsDirectCycle(t *testing.T) {
	var a, b *Resource[int]
	a = NewResource[int]("a").
		DependenciesFunc(func() Deps { return Deps{"b": b} }).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()
	b = NewResource[int]("b").
		Register(a).
		DependenciesFunc(func() Deps { return Deps{"a": a} }).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	_, err := Run(context.Background(), b)
	require.Error(t, err)
	require.True(t, IsErrorID(err, ErrCircularDependencies))
}

func TestRunToleratesLazyBrokenCycle(t *testing.T) {
	var a, b, c *Resource[int]
	a = NewResource[int]("la").
		DependenciesFunc(func() Deps { return Deps{"c": Lazy(c)} }).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 1, nil }).
		Build()
	b = NewResource[int]("lb").
		Dependencies(Deps{"a": a}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "a") + 1, nil
		}).
		Build()
	c = NewResource[int]("lc").
		Register(a, b).
		Dependencies(Deps{"b": b}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "b") + 1, nil
		}).
		Build()

	rt, err := Run(context.Background(), c)
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	value, err := rt.Value()
	require.NoError(t, err)
	require.Equal(t, 3, value)
}

func TestRunTaskResolvesResourceDependency(t *testing.T) {
	counter := NewResource[int]("counter2").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 10, nil }).
		Build()

	double := NewTask[int, int]("double2").
		Dependencies(Deps{"counter": counter}).
		Run(func(_ context.Context, input int, deps ResolvedDeps) (int, error) {
			return (DepValue[int](deps, "counter") + input) * 2, nil
		}).
		Build()

	root := NewResource[string]("root2").
		Register(counter, double).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (string, error) { return "ready", nil }).
		Build()

	rt, err := Run(context.Background(), root)
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	result, err := RunTask(context.Background(), rt, double, 5)
	require.NoError(t, err)
	require.Equal(t, 30, result)
}

func TestRunTaskAfterDisposeIsRejected(t *testing.T) {
	task := NewTask[int, int]("disposeGuardTask").
		Run(func(_ context.Context, input int, _ ResolvedDeps) (int, error) { return input, nil }).
		Build()
	root := NewResource[int]("disposeGuardRoot").
		Register(task).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	require.NoError(t, err)
	require.NoError(t, rt.Dispose(context.Background()))

	_, err = RunTask(context.Background(), rt, task, 1)
	require.Error(t, err)
	require.True(t, IsErrorID(err, ErrRuntimeDisposed))
}

func TestExecutionTreeRecordsNestedTaskInvocation(t *testing.T) {
	inner := NewTask[int, int]("executionInner").
		Run(func(_ context.Context, input int, _ ResolvedDeps) (int, error) { return input + 1, nil }).
		Build()

	outer := NewTask[int, int]("executionOuter").
		Dependencies(Deps{"inner": inner}).
		Run(func(ctx context.Context, input int, deps ResolvedDeps) (int, error) {
			invoke := DepValue[Invoker[int, int]](deps, "inner")
			return invoke(ctx, input)
		}).
		Build()

	root := NewResource[int]("executionRoot").
		Register(inner, outer).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	result, err := RunTask(context.Background(), rt, outer, 5)
	require.NoError(t, err)
	require.Equal(t, 6, result)

	roots := rt.ExecutionTree().GetRoots()
	require.Len(t, roots, 1)
	require.Equal(t, NodeID("executionOuter"), roots[0].TaskID)

	children := rt.ExecutionTree().GetChildren(roots[0].ID)
	require.Len(t, children, 1)
	require.Equal(t, NodeID("executionInner"), children[0].TaskID)
}

func TestLazyRunDefersInit(t *testing.T) {
	var initialized bool
	never := NewResource[int]("neverEagerlyInitialized").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) {
			initialized = true
			return 7, nil
		}).
		Build()

	root := NewResource[int]("lazyRoot").
		Register(never).
		Dependencies(Deps{"never": Lazy(never)}).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root, WithLazy())
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	require.False(t, initialized)
}

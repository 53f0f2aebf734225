package apprun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportsHidesUnlistedChildFromOutsideConsumer(t *testing.T) {
	hidden := NewResource[int]("hiddenChild").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 1, nil }).
		Build()

	subtree := NewResource[int]("exportingSubtree").
		Register(hidden).
		Exports(). // declares exports with zero refs: deny-unless-listed
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 2, nil }).
		Build()

	outsider := NewResource[int]("outsiderConsumer").
		Dependencies(Deps{"hidden": hidden}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "hidden"), nil
		}).
		Build()

	root := NewResource[int]("visibilityRoot").
		Register(subtree, outsider).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	_, err := Run(context.Background(), root)
	require.Error(t, err)
	require.True(t, IsErrorID(err, ErrVisibilityViolation))
}

func TestExportsAllowsListedChild(t *testing.T) {
	child := NewResource[int]("exportedChild").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 3, nil }).
		Build()

	subtree := NewResource[int]("exportingSubtree2").
		Register(child).
		Exports(RefTo(child)).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 4, nil }).
		Build()

	outsider := NewResource[int]("outsiderConsumer2").
		Dependencies(Deps{"child": child}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "child"), nil
		}).
		Build()

	root := NewResource[int]("visibilityRoot2").
		Register(subtree, outsider).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	require.NoError(t, err)
	defer rt.Dispose(context.Background())
}

func TestWiringAccessDenyRejectsEdgeEvenWhenExported(t *testing.T) {
	target := NewResource[int]("deniedTarget").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 5, nil }).
		Build()

	consumer := NewResource[int]("policedConsumer").
		Dependencies(Deps{"target": target}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "target"), nil
		}).
		Build()

	root := NewResource[int]("policyRoot").
		Register(target, consumer).
		WiringAccessPolicy(&WiringAccessPolicy{Deny: []Ref{RefTo(target)}}).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	_, err := Run(context.Background(), root)
	require.Error(t, err)
	require.True(t, IsErrorID(err, ErrWiringAccessPolicyViolation))
}

// TestVisibilityCheckedBeforeWiringAccess pins the documented precedence
// decision: when both an exports violation and a wiring-access violation
// could apply to the same edge, the visibility error surfaces.
func TestVisibilityCheckedBeforeWiringAccess(t *testing.T) {
	hidden := NewResource[int]("bothViolationsTarget").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 6, nil }).
		Build()

	subtree := NewResource[int]("bothViolationsSubtree").
		Register(hidden).
		Exports().
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 7, nil }).
		Build()

	outsider := NewResource[int]("bothViolationsConsumer").
		Dependencies(Deps{"hidden": hidden}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			return DepValue[int](deps, "hidden"), nil
		}).
		Build()

	root := NewResource[int]("bothViolationsRoot").
		Register(subtree, outsider).
		WiringAccessPolicy(&WiringAccessPolicy{Deny: []Ref{RefTo(hidden)}}).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	_, err := Run(context.Background(), root)
	require.Error(t, err)
	require.True(t, IsErrorID(err, ErrVisibilityViolation))
	require.False(t, IsErrorID(err, ErrWiringAccessPolicyViolation))
}

func TestWiringAccessPolicyConflictRejectsDenyAndOnlyTogether(t *testing.T) {
	target := NewResource[int]("conflictTarget").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 8, nil }).
		Build()

	root := NewResource[int]("conflictRoot").
		Register(target).
		WiringAccessPolicy(&WiringAccessPolicy{
			Deny: []Ref{RefTo(target)},
			Only: []Ref{RefTo(target)},
		}).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	_, err := Run(context.Background(), root)
	require.Error(t, err)
	require.True(t, IsErrorID(err, ErrWiringAccessPolicyConflict))
}

func TestTagAccessorOmitsMembersOutsideConsumerReach(t *testing.T) {
	tag := NewTag("policedTag")

	visible := NewResource[int]("taggedVisible").
		Tags(tag.Bare()).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 1, nil }).
		Build()

	hidden := NewResource[int]("taggedHidden").
		Tags(tag.Bare()).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 2, nil }).
		Build()

	subtree := NewResource[int]("taggedSubtree").
		Register(hidden).
		Exports(). // hides taggedHidden from the consumer below
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 3, nil }).
		Build()

	var accessor *TagAccessor
	consumer := NewResource[int]("tagConsumer").
		Dependencies(Deps{"members": DependsOnTag(tag)}).
		Init(func(_ *InitCtx, _ any, deps ResolvedDeps) (int, error) {
			accessor = DepValue[*TagAccessor](deps, "members")
			return 0, nil
		}).
		Build()

	root := NewResource[int]("tagRoot").
		Register(visible, subtree, consumer, tag).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	require.NoError(t, err)
	defer rt.Dispose(context.Background())

	require.NotNil(t, accessor)
	ids := accessor.Resources()
	require.Contains(t, ids, NodeID("taggedVisible"))
	require.NotContains(t, ids, NodeID("taggedHidden"))
}

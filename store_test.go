package apprun

import (
	"context"
	"strings"
	"testing"
)

func TestDuplicateRegistrationIsRejected(t *testing.T) {
	child := NewResource[int]("dupChild").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 1, nil }).
		Build()

	root := NewResource[int]("dupRoot").
		Register(child, child).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	_, err := Run(context.Background(), root)
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if !IsErrorID(err, ErrDuplicateRegistration) {
		t.Fatalf("expected ErrDuplicateRegistration, got %v", err)
	}
}

// TestTopoSortIsStableForRegistrationOrder pins spec.md's first testable
// property: resources with no dependency ordering constraint between them
// initialize in registration order, not map-iteration order.
func TestTopoSortIsStableForRegistrationOrder(t *testing.T) {
	var order []string
	record := func(name string) func(*InitCtx, any, ResolvedDeps) (int, error) {
		return func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) {
			order = append(order, name)
			return 0, nil
		}
	}

	r1 := NewResource[int]("independentOne").Init(record("independentOne")).Build()
	r2 := NewResource[int]("independentTwo").Init(record("independentTwo")).Build()
	r3 := NewResource[int]("independentThree").Init(record("independentThree")).Build()

	root := NewResource[int]("stableOrderRoot").
		Register(r1, r2, r3).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	expected := []string{"independentOne", "independentTwo", "independentThree"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d inits, got %d (%v)", len(expected), len(order), order)
	}
	for i, name := range expected {
		if order[i] != name {
			t.Errorf("expected position %d to be %s, got %s", i, name, order[i])
		}
	}
}

func TestStoreInspectListsOwnerAndMetadata(t *testing.T) {
	child := NewResource[int]("inspectedChild").
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 1, nil }).
		Meta("owner", "store-test").
		Build()

	root := NewResource[int]("inspectRoot").
		Register(child).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	owner, ok := rt.Store().OwnerOf(child.ID())
	if !ok || owner != root.ID() {
		t.Fatalf("expected inspectedChild's owner to be %s, got %s (found=%v)", root.ID(), owner, ok)
	}

	md := rt.Store().MetadataOf(child.ID())
	if md["owner"] != "store-test" {
		t.Fatalf("expected metadata owner=store-test, got %v", md)
	}

	found := false
	for _, line := range rt.Store().Inspect() {
		if strings.HasPrefix(line, string(child.ID())) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected Inspect to include a line for inspectedChild")
	}
}

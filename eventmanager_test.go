package apprun

import (
	"context"
	"testing"
)

func TestEventListenersRunInAscendingOrder(t *testing.T) {
	var order []string

	event := NewEvent[string]("orderedEvent")

	first := NewHook("firstListener").On(event).Order(1).
		Run(func(_ context.Context, _ *Emission, _ ResolvedDeps) error {
			order = append(order, "first")
			return nil
		}).Build()
	second := NewHook("secondListener").On(event).Order(2).
		Run(func(_ context.Context, _ *Emission, _ ResolvedDeps) error {
			order = append(order, "second")
			return nil
		}).Build()

	root := NewResource[int]("listenerOrderRoot").
		Register(event, first, second).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := rt.EmitEvent(event, "payload"); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected [first second], got %v", order)
	}
}

func TestGlobalListenerExcludesSystemEvents(t *testing.T) {
	var seen []string

	global := NewHook("globalListener").OnAll().
		Run(func(_ context.Context, emission *Emission, _ ResolvedDeps) error {
			seen = append(seen, string(emission.EventID))
			return nil
		}).Build()

	event := NewEvent[string]("customEvent")

	root := NewResource[int]("globalListenerRoot").
		Register(event, global).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := rt.EmitEvent(event, "payload"); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}

	for _, id := range seen {
		if id != "customEvent" {
			t.Fatalf("expected the global listener to only see customEvent, saw %s", id)
		}
	}
	if len(seen) != 1 {
		t.Fatalf("expected the global listener to fire exactly once for customEvent, fired %d times (%v)", len(seen), seen)
	}
}

func TestEmissionStopPropagationSkipsRemainingListeners(t *testing.T) {
	var ran []string

	event := NewEvent[string]("stoppableEvent")

	stopper := NewHook("stopper").On(event).Order(1).
		Run(func(_ context.Context, emission *Emission, _ ResolvedDeps) error {
			ran = append(ran, "stopper")
			emission.StopPropagation()
			return nil
		}).Build()
	never := NewHook("neverRuns").On(event).Order(2).
		Run(func(_ context.Context, _ *Emission, _ ResolvedDeps) error {
			ran = append(ran, "neverRuns")
			return nil
		}).Build()

	root := NewResource[int]("stopPropagationRoot").
		Register(event, stopper, never).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	report, err := rt.EmitEvent(event, "payload")
	if err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}
	if !report.Stopped {
		t.Fatal("expected the emit report to record that propagation was stopped")
	}
	if len(ran) != 1 || ran[0] != "stopper" {
		t.Fatalf("expected only stopper to run, got %v", ran)
	}
}

func TestHookFilterSkipsDelivery(t *testing.T) {
	var ran bool

	event := NewEvent[int]("filteredEvent")

	hook := NewHook("filteredHook").On(event).
		Filter(func(emission *Emission) bool {
			n, _ := emission.Data.(int)
			return n > 10
		}).
		Run(func(_ context.Context, _ *Emission, _ ResolvedDeps) error {
			ran = true
			return nil
		}).Build()

	root := NewResource[int]("filterRoot").
		Register(event, hook).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := rt.EmitEvent(event, 5); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}
	if ran {
		t.Fatal("expected filter to skip delivery for a payload <= 10")
	}

	if _, err := rt.EmitEvent(event, 20); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}
	if !ran {
		t.Fatal("expected filter to allow delivery for a payload > 10")
	}
}

func TestOnEventPromotesTaskToHook(t *testing.T) {
	ran := make(chan struct{}, 1)

	event := NewEvent[int]("promotionEvent")

	promoted := NewTask[int, int]("promotedTask").
		On(event).
		Run(func(_ context.Context, input int, _ ResolvedDeps) (int, error) {
			ran <- struct{}{}
			return input, nil
		}).
		Build()

	root := NewResource[int]("promotionRoot").
		Register(event, promoted).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (int, error) { return 0, nil }).
		Build()

	rt, err := Run(context.Background(), root)
	if err != nil {
		t.Fatalf("expected run to succeed, got %v", err)
	}
	defer rt.Dispose(context.Background())

	if _, err := rt.EmitEvent(event, 7); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}

	select {
	case <-ran:
	default:
		t.Fatal("expected the task promoted via On(event) to run synchronously during Emit")
	}
}

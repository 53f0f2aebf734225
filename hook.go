package apprun

import "context"

// AnyHook is the type-erased shape of Hook.
type AnyHook interface {
	Node
	listener

	on() []Node // event(s) this hook listens to; nil + wildcard() true means "*"
	wildcard() bool
}

// listener is what EventManager's delivery loop dispatches to — satisfied by
// *Hook directly, and by the task-on-event adapter the processor builds when
// a task declares `on: event` (spec.md §4.4, "a task declared with on: event
// is promoted at wiring time to a hook on that event").
type listener interface {
	order() int
	filterFn() func(*Emission) bool
	runAny(ctx context.Context, emission *Emission, deps ResolvedDeps) error
}

// Hook listens to one or more events (or every event, via "*").
type Hook struct {
	id NodeID

	depsFactory DepsFactory
	resolvedDep Deps

	onEvents []Node
	onAll    bool
	ord      int
	filter   func(*Emission) bool

	runFn func(ctx context.Context, emission *Emission, deps ResolvedDeps) error
}

func (h *Hook) ID() NodeID     { return h.id }
func (h *Hook) Kind() NodeKind { return KindHook }

func (h *Hook) deps() map[string]DependencyRef {
	if h.resolvedDep == nil && h.depsFactory != nil {
		h.resolvedDep = h.depsFactory()
	}
	return h.resolvedDep
}

func (h *Hook) tagRefs() []TaggedRef { return nil }

func (h *Hook) on() []Node     { return h.onEvents }
func (h *Hook) wildcard() bool { return h.onAll }
func (h *Hook) order() int     { return h.ord }
func (h *Hook) filterFn() func(*Emission) bool { return h.filter }

func (h *Hook) runAny(ctx context.Context, emission *Emission, deps ResolvedDeps) error {
	return h.runFn(ctx, emission, deps)
}

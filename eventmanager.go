package apprun

import (
	"context"
	"sort"
	"sync"
)

// Emission is a single event delivery attempt, the "immutable small struct
// carried through a chain" shape the teacher uses for its ExecutionCtx/Operation
// pair in flow.go, generalized here to a pub/sub record (spec.md §4.4).
type Emission struct {
	ID      string
	EventID NodeID
	Data    any
	Source  Node

	stopped    bool
	suppressed bool
}

// StopPropagation halts delivery to any remaining listener in this emission.
func (e *Emission) StopPropagation() { e.stopped = true }

// Suppress marks the emission as suppressed. For lifecycle emissions,
// EmitLifecycle forwards this to the payload's own Suppress()
// (ResourceLifecyclePayload/TaskLifecyclePayload) once delivery ends, so
// either Suppress() call has the same effect.
func (e *Emission) Suppress() { e.suppressed = true }

func (e *Emission) Stopped() bool    { return e.stopped }
func (e *Emission) Suppressed() bool { return e.suppressed }

func (e *Emission) reset() {
	e.ID = ""
	e.EventID = ""
	e.Data = nil
	e.Source = nil
	e.stopped = false
	e.suppressed = false
}

type hookBinding struct {
	listener listener
	deps     ResolvedDeps
}

// EmitOption configures one call to EventManager.Emit.
type EmitOption func(*emitConfig)

type emitConfig struct {
	report bool
}

// WithReport requests a populated EmitReport back from Emit (the
// "options.report === true" switch of spec.md §4.4). Emit always returns a
// report; this option only affects whether callers are expected to inspect
// it, kept for spec-shape fidelity.
func WithReport() EmitOption {
	return func(c *emitConfig) { c.report = true }
}

// EmitReport summarizes one emission.
type EmitReport struct {
	EmissionID      string
	ListenersRun    int
	Stopped         bool
	Suppressed      bool
}

// EventManager delivers emissions to event-specific and global ("*")
// listeners, synchronously and in ascending order, matching spec.md §4.4.
// New to this repo — the teacher has no pub/sub bus, only Extension
// lifecycle hooks (extension.go) and Flow execution (flow.go) — but it is
// built in the teacher's idiom: listeners are kept in an order-sorted slice
// exactly like Scope.UseExtension sorts extensions by Order(), and emissions
// are pooled the way the teacher pools flow Operations (pool_manager.go).
type EventManager struct {
	mu           sync.Mutex
	store        *Store
	listeners    map[NodeID][]*hookBinding
	global       []*hookBinding
	interceptors []func(next func(*Emission) error, em *Emission) error
	pool         *pool

	recursionGuard map[NodeID]map[NodeID]bool // eventID -> set of task ids currently running, guards invariant 10
}

func newEventManager(store *Store, p *pool) *EventManager {
	return &EventManager{
		store:          store,
		listeners:      make(map[NodeID][]*hookBinding),
		pool:           p,
		recursionGuard: make(map[NodeID]map[NodeID]bool),
	}
}

func (m *EventManager) addListener(eventID NodeID, l listener, deps ResolvedDeps) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[eventID] = append(m.listeners[eventID], &hookBinding{listener: l, deps: deps})
	sort.SliceStable(m.listeners[eventID], func(i, j int) bool {
		return m.listeners[eventID][i].listener.order() < m.listeners[eventID][j].listener.order()
	})
}

func (m *EventManager) addGlobalListener(l listener, deps ResolvedDeps) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = append(m.global, &hookBinding{listener: l, deps: deps})
	sort.SliceStable(m.global, func(i, j int) bool {
		return m.global[i].listener.order() < m.global[j].listener.order()
	})
}

// intercept pushes an emission interceptor; interceptors compose LIFO (the
// most recently registered wraps outermost), same composition order as the
// teacher's Scope.Resolve extension chain (scope.go).
func (m *EventManager) intercept(fn func(next func(*Emission) error, em *Emission) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interceptors = append(m.interceptors, fn)
}

func (m *EventManager) isSystemEvent(id NodeID) bool {
	if m.store == nil {
		return false
	}
	entry, ok := m.store.lookupAny(id)
	if !ok {
		return false
	}
	ev, ok := entry.node.(AnyEvent)
	return ok && ev.isSystem()
}

// Emit constructs an emission for event carrying payload and delivers it to
// every matching listener in ascending order.
func (m *EventManager) Emit(event AnyEvent, payload any, source Node, opts ...EmitOption) (*EmitReport, error) {
	cfg := &emitConfig{}
	for _, o := range opts {
		o(cfg)
	}
	em := m.pool.getEmission()
	em.ID = newEmissionID()
	em.EventID = event.ID()
	em.Data = payload
	em.Source = source

	ran, err := m.deliverWithInterceptors(context.Background(), em)
	report := &EmitReport{
		EmissionID:   em.ID,
		ListenersRun: ran,
		Stopped:      em.stopped,
		Suppressed:   em.suppressed,
	}
	m.pool.putEmission(em)
	return report, err
}

// EmitLifecycle is the internal path the initializer and task runner use for
// beforeInit/afterInit/onError and beforeRun/afterRun/onError. It bypasses
// the pool so the caller can keep a live pointer to payload after delivery
// (pooled Emissions get reset and reused once returned).
func (m *EventManager) EmitLifecycle(eventID NodeID, payload any, source Node) (*Emission, int, error) {
	em := &Emission{ID: newEmissionID(), EventID: eventID, Data: payload, Source: source}
	ran, err := m.deliverWithInterceptors(context.Background(), em)
	if em.suppressed {
		if s, ok := payload.(interface{ Suppress() }); ok {
			s.Suppress()
		}
	}
	return em, ran, err
}

func (m *EventManager) deliverWithInterceptors(ctx context.Context, em *Emission) (int, error) {
	ran := 0
	base := func(e *Emission) error {
		n, err := m.deliver(ctx, e)
		ran = n
		return err
	}
	chain := base
	m.mu.Lock()
	interceptors := append([]func(next func(*Emission) error, em *Emission) error{}, m.interceptors...)
	m.mu.Unlock()
	for i := len(interceptors) - 1; i >= 0; i-- {
		next := chain
		fn := interceptors[i]
		chain = func(e *Emission) error { return fn(next, e) }
	}
	err := chain(em)
	return ran, err
}

func (m *EventManager) deliver(ctx context.Context, em *Emission) (int, error) {
	m.mu.Lock()
	specific := append([]*hookBinding{}, m.listeners[em.EventID]...)
	var global []*hookBinding
	if !m.isSystemEvent(em.EventID) {
		global = append([]*hookBinding{}, m.global...)
	}
	m.mu.Unlock()

	merged := make([]*hookBinding, 0, len(specific)+len(global))
	merged = append(merged, specific...)
	merged = append(merged, global...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].listener.order() < merged[j].listener.order()
	})

	ran := 0
	for _, b := range merged {
		if em.stopped {
			break
		}
		if f := b.listener.filterFn(); f != nil && !f(em) {
			continue
		}
		ran++
		if err := b.listener.runAny(ctx, em, b.deps); err != nil {
			return ran, err
		}
	}
	return ran, nil
}

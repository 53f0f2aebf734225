package apprun

import "sync"

// runtimeState is the mutable wiring/init-time state threaded through the
// DependencyProcessor, ResourceInitializer, TaskRunner and EventManager. It
// is distinct from Store (the locked, long-lived registry) because it also
// carries caches that only make sense while a single Run() is alive.
type runtimeState struct {
	mu sync.RWMutex

	store   *Store
	events  *EventManager
	tasks   *TaskRunner
	logger  *runtimeLogger
	pool    *pool

	lazy bool

	// resourceValues holds the initialized value of every resource that has
	// completed init, keyed by id. Guarded by mu.
	resourceValues map[NodeID]any

	// rollbackStack lists resources in the exact reverse order their afterInit
	// was emitted (spec.md invariant 5).
	rollbackStack []NodeID

	// tagAccessorCache memoizes the per-consumer TagAccessor snapshot, since
	// tag membership is fixed once the Store is locked (spec.md §9, "Tag
	// accessors").
	tagAccessorCache map[tagAccessorKey]*TagAccessor

	// depValues holds the resolved dependency map of every wired node (task,
	// hook, middleware, or resource), keyed by id. Populated once during the
	// wiring pass and read-only afterward.
	depValues map[NodeID]ResolvedDeps

	// running tracks tasks currently executing, to enforce invariant 10 (an
	// emission from inside a task never re-enters that task's own on-handler).
	running map[NodeID]bool

	// cleanups holds the extra OnCleanup functions a resource's InitCtx
	// registered during init, run LIFO right before that resource's own
	// dispose (mirrors the teacher's Scope.cleanupRegistry in scope.go).
	cleanups map[NodeID][]func() error

	root NodeID

	// disposed is set once Dispose() has run. Per spec.md invariant 6, after
	// this point the runtime facade refuses further task invocations.
	disposed bool
}

func (rt *runtimeState) markDisposed() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.disposed = true
}

func (rt *runtimeState) isDisposed() bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.disposed
}

type tagAccessorKey struct {
	tagID      NodeID
	consumerID NodeID
}

func newRuntimeState() *runtimeState {
	return &runtimeState{
		resourceValues:   make(map[NodeID]any),
		tagAccessorCache: make(map[tagAccessorKey]*TagAccessor),
		depValues:        make(map[NodeID]ResolvedDeps),
		running:          make(map[NodeID]bool),
		cleanups:         make(map[NodeID][]func() error),
	}
}

func (rt *runtimeState) getDepValues(id NodeID) ResolvedDeps {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.depValues[id]
}

func (rt *runtimeState) setDepValues(id NodeID, deps ResolvedDeps) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.depValues[id] = deps
}

func (rt *runtimeState) markRunning(id NodeID) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.running[id] {
		return false
	}
	rt.running[id] = true
	return true
}

func (rt *runtimeState) clearRunning(id NodeID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.running, id)
}

func (rt *runtimeState) isRunning(id NodeID) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.running[id]
}

func (rt *runtimeState) getResourceValue(id NodeID) (any, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	v, ok := rt.resourceValues[id]
	return v, ok
}

func (rt *runtimeState) setResourceValue(id NodeID, v any) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.resourceValues[id] = v
}

func (rt *runtimeState) pushRollback(id NodeID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.rollbackStack = append(rt.rollbackStack, id)
}

func (rt *runtimeState) addCleanup(id NodeID, fn func() error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.cleanups[id] = append(rt.cleanups[id], fn)
}

// cleanupsFor returns id's registered cleanups in LIFO order (most recently
// registered runs first, right before dispose).
func (rt *runtimeState) cleanupsFor(id NodeID) []func() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	fns := rt.cleanups[id]
	out := make([]func() error, len(fns))
	for i, f := range fns {
		out[len(fns)-1-i] = f
	}
	delete(rt.cleanups, id)
	return out
}

package apprun

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// DependencyProcessor turns a registered-but-unwired Store into a locked,
// fully initialized Runtime, following the five remaining passes of spec.md
// §2: Validate, Wire, Initialize, Ready, Dispose. Registration itself
// (pass 1) is handled by Register below, grounded in the teacher's
// Scope-construction style (scope.go NewScope/UseExtension) generalized
// from a flat executor map to the spec's owned-subtree tree.
//
// ResourceInitializer (spec.md's name for the init/rollback half of this
// algorithm) is not a separate Go type: the topological init pass and
// rollback stack are just another method set on the same processor, since
// both halves share the Store and runtimeState they operate on.
type DependencyProcessor struct {
	store *Store
	rt    *runtimeState
}

func newDependencyProcessor(store *Store, rt *runtimeState) *DependencyProcessor {
	return &DependencyProcessor{store: store, rt: rt}
}

// Register walks root's transitive register list and adds every item to the
// Store, failing fast on a duplicate id (spec.md §2 step 1).
func (p *DependencyProcessor) Register(root AnyResource, rootConfig any) error {
	return p.registerResource(root, rootConfig, "")
}

func (p *DependencyProcessor) registerResource(res AnyResource, config any, owner NodeID) error {
	if err := p.store.register(res, owner); err != nil {
		return err
	}
	if entry, ok := p.store.lookupAny(res.ID()); ok {
		entry.config = config
	}
	for _, ev := range []Node{res.beforeInitEvent(), res.afterInitEvent(), res.onErrorEvent()} {
		if err := p.store.register(ev, res.ID()); err != nil {
			return err
		}
	}
	for _, mw := range res.resourceMiddleware() {
		if err := p.store.register(mw, res.ID()); err != nil {
			return err
		}
	}
	items, err := res.computeRegister(config)
	if err != nil {
		return wrapError(ErrContext, "computing register list of "+string(res.ID()), err)
	}
	for _, item := range items {
		if err := p.registerGeneric(item, res.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (p *DependencyProcessor) registerGeneric(n Node, owner NodeID) error {
	switch v := n.(type) {
	case AnyResource:
		return p.registerResource(v, v.configDefault(), owner)
	case AnyTask:
		if err := p.store.register(v, owner); err != nil {
			return err
		}
		for _, ev := range []Node{v.beforeRunEvent(), v.afterRunEvent(), v.onErrorEvent()} {
			if err := p.store.register(ev, v.ID()); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.store.register(n, owner)
	}
}

// depGraphEdge is one outgoing edge in the dependency graph used for both
// cycle detection and resource topological sort.
type depGraphEdge struct {
	target NodeID
	kind   NodeKind
	mode   DependencyMode
}

func (p *DependencyProcessor) buildGraph() map[NodeID][]depGraphEdge {
	graph := make(map[NodeID][]depGraphEdge)
	for _, e := range p.store.allWireable() {
		var edges []depGraphEdge
		for _, d := range e.node.deps() {
			edges = append(edges, depGraphEdge{target: d.targetID(), kind: d.targetKind(), mode: d.mode()})
		}
		graph[e.node.ID()] = edges
	}
	return graph
}

// DetectCycles runs a DFS over the dependency graph using an explicit stack
// with path tracking (ported from the teacher's ReactiveGraph.FindDependents
// traversal style in graph.go — "iterative traversal... explicit stack
// instead of recursion" — extended here to also remember the path, which
// FindDependents never needed since it only collects reachable nodes, not
// cycles).
//
// Per spec.md §9 ("Cyclic graphs"): a direct two-node cycle (A depends on B,
// B depends on A) is always rejected. A longer cycle is tolerated only if at
// least one of its edges is a Lazy dependency, on the theory that the
// initializer never needs to resolve that edge eagerly and so never actually
// walks into the cycle at wiring time.
func (p *DependencyProcessor) DetectCycles() error {
	graph := p.buildGraph()

	ids := make([]NodeID, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	const (
		white = iota
		gray
		black
	)
	color := make(map[NodeID]int, len(graph))

	type frame struct {
		id  NodeID
		idx int
	}

	for _, start := range ids {
		if color[start] != white {
			continue
		}
		stack := []frame{{id: start}}
		path := []NodeID{start}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := graph[top.id]
			if top.idx >= len(edges) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}
			edge := edges[top.idx]
			top.idx++

			switch color[edge.target] {
			case gray:
				idx := indexOfNodeID(path, edge.target)
				cyclePath := append(append([]NodeID{}, path[idx:]...), edge.target)
				if cycleTolerated(graph, cyclePath) {
					continue
				}
				return p.buildCycleError(cyclePath)
			case white:
				color[edge.target] = gray
				stack = append(stack, frame{id: edge.target})
				path = append(path, edge.target)
			}
		}
	}
	return nil
}

func indexOfNodeID(path []NodeID, id NodeID) int {
	for i, p := range path {
		if p == id {
			return i
		}
	}
	return 0
}

// cycleTolerated reports whether cyclePath (a closed walk, first==last)
// should be allowed through per spec.md §9: direct A->B->A is never
// tolerated; a longer cycle is tolerated if any edge along it is Lazy.
func cycleTolerated(graph map[NodeID][]depGraphEdge, cyclePath []NodeID) bool {
	if len(cyclePath) <= 3 { // A -> B -> A has 3 entries: [A, B, A]
		return false
	}
	for i := 0; i < len(cyclePath)-1; i++ {
		from, to := cyclePath[i], cyclePath[i+1]
		for _, e := range graph[from] {
			if e.target == to && e.mode == DepLazy {
				return true
			}
		}
	}
	return false
}

func (p *DependencyProcessor) buildCycleError(cyclePath []NodeID) error {
	strs := make([]string, len(cyclePath))
	hasMiddleware := false
	for i, id := range cyclePath {
		strs[i] = string(id)
		if entry, ok := p.store.lookupAny(id); ok {
			if entry.node.Kind() == KindTaskMiddleware || entry.node.Kind() == KindResourceMiddleware {
				hasMiddleware = true
			}
		}
	}
	msg := fmt.Sprintf("circular dependency: %s", joinArrows(strs))
	if hasMiddleware {
		msg += " (remediation: a middleware is part of this cycle — middleware that needs its own target's output should declare the dependency Lazy() instead of depending on it directly)"
	}
	return newError(ErrCircularDependencies, msg, map[string]any{"path": strs})
}

func joinArrows(strs []string) string {
	out := ""
	for i, s := range strs {
		if i > 0 {
			out += " -> "
		}
		out += s
	}
	return out
}

// ValidatePolicies runs spec.md §4.2 step 3 over every registered resource.
func (p *DependencyProcessor) ValidatePolicies() error {
	for _, e := range p.store.allResources() {
		res := e.node.(AnyResource)
		if err := validateWiringAccessPolicy(p.store, res.ID(), res.wiringPolicy()); err != nil {
			return err
		}
	}
	return nil
}

// topoSortResources computes a Kahn's-algorithm topological order over
// resource-to-resource edges only (a resource may also depend on tasks,
// events or tags, which don't participate in init ordering). Ties are
// broken by registration order, making the sort stable for a given
// registration order (spec.md §5, testable property 1).
func (p *DependencyProcessor) topoSortResources() ([]AnyResource, error) {
	entries := p.store.allResources()
	idToRes := make(map[NodeID]AnyResource, len(entries))
	inDeg := make(map[NodeID]int, len(entries))
	dependents := make(map[NodeID][]NodeID)
	order := make(map[NodeID]int, len(entries))

	for i, e := range entries {
		res := e.node.(AnyResource)
		idToRes[res.ID()] = res
		inDeg[res.ID()] = 0
		order[res.ID()] = i
	}
	for _, e := range entries {
		res := e.node.(AnyResource)
		for _, d := range res.deps() {
			if d.targetKind() != KindResource {
				continue
			}
			if _, ok := idToRes[d.targetID()]; !ok {
				continue
			}
			dependents[d.targetID()] = append(dependents[d.targetID()], res.ID())
			inDeg[res.ID()]++
		}
	}

	var ready []NodeID
	for _, e := range entries {
		id := e.node.ID()
		if inDeg[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool { return order[ready[i]] < order[ready[j]] })

	sorted := make([]NodeID, 0, len(entries))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		sorted = append(sorted, id)

		next := append([]NodeID{}, dependents[id]...)
		sort.SliceStable(next, func(i, j int) bool { return order[next[i]] < order[next[j]] })
		for _, dep := range next {
			inDeg[dep]--
			if inDeg[dep] == 0 {
				inserted := false
				for i, r := range ready {
					if order[dep] < order[r] {
						ready = append(ready[:i], append([]NodeID{dep}, ready[i:]...)...)
						inserted = true
						break
					}
				}
				if !inserted {
					ready = append(ready, dep)
				}
			}
		}
	}

	if len(sorted) != len(entries) {
		return nil, newError(ErrCircularDependencies, "cycle detected among resource init dependencies", nil)
	}

	out := make([]AnyResource, 0, len(sorted))
	for _, id := range sorted {
		out = append(out, idToRes[id])
	}
	return out, nil
}

// wireDeps resolves n's declared dependency map to runtime values, checking
// visibility and wiring-access policy on every non-internal-key edge (spec.md
// §4.2 steps 4-6), and memoizes the result on runtimeState.
func (p *DependencyProcessor) wireDeps(n Node) error {
	resolved := make(ResolvedDeps)
	for key, ref := range n.deps() {
		targetEntry, ok := p.store.lookupAny(ref.targetID())
		if !ok {
			return newError(ErrDependencyNotFound,
				fmt.Sprintf("%s depends on unknown node %s", n.ID(), ref.targetID()), nil)
		}
		if !isInternalKey(key) {
			if err := checkEdge(p.store, n.ID(), targetEntry); err != nil {
				return err
			}
		}
		val, err := ref.resolve(p.rt, n.ID())
		if err != nil {
			return err
		}
		resolved[key] = val
	}
	p.rt.setDepValues(n.ID(), resolved)
	return nil
}

// InitializeResources drives the topological init pass (spec.md §4.2 step 7
// and §2 step 4): wire each resource's dependencies, run its middleware-
// wrapped init, emit its lifecycle events, and push it onto the rollback
// stack on success. On an unsuppressed failure it rolls back everything
// initialized so far and returns the original error.
func (p *DependencyProcessor) InitializeResources(ctx context.Context, events *EventManager) error {
	order, err := p.topoSortResources()
	if err != nil {
		return err
	}

	globalBeforeInit := &Event[ResourceLifecyclePayload]{id: "__runner.resources.beforeInit", system: true}
	globalAfterInit := &Event[ResourceLifecyclePayload]{id: "__runner.resources.afterInit", system: true}
	globalOnError := &Event[ResourceLifecyclePayload]{id: "__runner.resources.onError", system: true}

	if p.rt.lazy {
		// lazy mode: resources boot on first dependency use (spec.md §6,
		// "lazy: bool"); nothing is eagerly initialized here.
		return nil
	}

	for _, res := range order {
		if err := p.initOneResource(ctx, res, events, globalBeforeInit, globalAfterInit, globalOnError); err != nil {
			p.rollback(ctx)
			return err
		}
	}
	return nil
}

func (p *DependencyProcessor) initOneResource(ctx context.Context, res AnyResource, events *EventManager,
	globalBeforeInit, globalAfterInit, globalOnError *Event[ResourceLifecyclePayload]) error {

	if err := p.wireDeps(res); err != nil {
		return err
	}
	// Resources don't declare config as a dependency key; it was snapshotted
	// onto the store entry at registration time (registerResource) and is
	// threaded separately through initAny.
	entry, _ := p.store.lookupAny(res.ID())
	cfg := entry.config

	suppressed := false
	before := ResourceLifecyclePayload{ResourceID: res.ID(), Config: cfg, Deps: p.rt.getDepValues(res.ID()), suppressed: &suppressed}
	events.EmitLifecycle(globalBeforeInit.id, &before, res)
	events.EmitLifecycle(res.beforeInitEvent().ID(), &before, res)

	initCtx := &InitCtx{ctx: ctx, resource: res}
	value, err := composeResourceInit(p.store, p.rt, res, initCtx, cfg)
	if err != nil {
		errSuppressed := false
		onErr := ResourceLifecyclePayload{ResourceID: res.ID(), Config: cfg, Deps: p.rt.getDepValues(res.ID()), Err: err, suppressed: &errSuppressed}
		events.EmitLifecycle(globalOnError.id, &onErr, res)
		events.EmitLifecycle(res.onErrorEvent().ID(), &onErr, res)
		if errSuppressed {
			p.rt.setResourceValue(res.ID(), nil)
			return nil
		}
		return err
	}

	p.rt.setResourceValue(res.ID(), value)
	p.rt.pushRollback(res.ID())

	for _, cleanup := range initCtx.cleanups {
		p.rt.addCleanup(res.ID(), cleanup)
	}

	after := ResourceLifecyclePayload{ResourceID: res.ID(), Config: cfg, Deps: p.rt.getDepValues(res.ID()), Value: value}
	events.EmitLifecycle(globalAfterInit.id, &after, res)
	events.EmitLifecycle(res.afterInitEvent().ID(), &after, res)
	return nil
}

// composeResourceInit wraps res.init in its own declared middleware plus any
// everywhere()-matched resource middleware, outermost first — the same
// onion composition TaskRunner.composeChain uses for task middleware
// (taskrunner.go), generalized from wrapping run to wrapping init.
func composeResourceInit(store *Store, rt *runtimeState, res AnyResource, initCtx *InitCtx, config any) (any, error) {
	layers := append([]*ResourceMiddleware{}, res.resourceMiddleware()...)
	own := make(map[NodeID]bool, len(layers)+1)
	own[res.ID()] = true
	for _, mw := range layers {
		own[mw.id] = true
	}
	for _, mw := range store.everywhereResourceMiddleware() {
		if !own[mw.id] && mw.appliesEverywhere(res) {
			layers = append(layers, mw)
		}
	}

	base := func(ctx *InitCtx, cfg any) (any, error) {
		return res.initAny(ctx, cfg, rt.getDepValues(res.ID()))
	}

	chain := base
	for i := len(layers) - 1; i >= 0; i-- {
		mw := layers[i]
		next := chain
		chain = func(ctx *InitCtx, cfg any) (any, error) {
			mctx := &ResourceMiddlewareCtx{Resource: res, next: next}
			return mw.runFn(ctx, mctx, rt.getDepValues(mw.id), cfg)
		}
	}
	return chain(initCtx, config)
}

// rollback disposes every resource on the rollback stack in reverse order
// (spec.md invariant 5/8), used both for init-failure rollback and for an
// explicit, successful Dispose().
func (p *DependencyProcessor) rollback(ctx context.Context) error {
	var errs []error
	for i := len(p.rt.rollbackStack) - 1; i >= 0; i-- {
		id := p.rt.rollbackStack[i]
		entry, ok := p.store.lookupAny(id)
		if !ok {
			continue
		}
		res, ok := entry.node.(AnyResource)
		if !ok {
			continue
		}
		value, _ := p.rt.getResourceValue(id)
		for _, cleanup := range p.rt.cleanupsFor(id) {
			if cerr := cleanup(); cerr != nil {
				errs = append(errs, wrapError(ErrContext, "cleanup for "+string(id), cerr))
			}
		}
		if err := res.disposeAny(ctx, value, entry.config, p.rt.getDepValues(id)); err != nil {
			errs = append(errs, wrapError(ErrContext, "disposing "+string(id), err))
		}
	}
	p.rt.rollbackStack = nil
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// WireAncillary resolves dependency maps for every task, hook and middleware
// still unwired (resources were wired during InitializeResources), then
// promotes `on: event` tasks to hooks and attaches every declared hook to the
// EventManager (spec.md §4.4, "a task declared with on: event is promoted at
// wiring time to a hook on that event").
func (p *DependencyProcessor) WireAncillary(events *EventManager) error {
	for _, e := range p.store.allTasks() {
		task := e.node.(AnyTask)
		if err := p.wireDeps(task); err != nil {
			return err
		}
	}
	for _, e := range p.store.allHooks() {
		hook := e.node.(AnyHook)
		if err := p.wireDeps(hook); err != nil {
			return err
		}
	}
	for _, e := range p.store.allTaskMiddleware() {
		mw := e.node.(*TaskMiddleware)
		if err := p.wireDeps(mw); err != nil {
			return err
		}
	}
	for _, e := range p.store.allResourceMiddleware() {
		mw := e.node.(*ResourceMiddleware)
		if err := p.wireDeps(mw); err != nil {
			return err
		}
	}

	for _, e := range p.store.allHooks() {
		hook := e.node.(AnyHook)
		deps := p.rt.getDepValues(hook.ID())
		if hook.wildcard() {
			events.addGlobalListener(hook, deps)
			continue
		}
		for _, ev := range hook.on() {
			events.addListener(ev.ID(), hook, deps)
		}
	}

	for _, e := range p.store.allTasks() {
		task := e.node.(AnyTask)
		target, ok := task.onEvent()
		if !ok {
			continue
		}
		adapter := &taskEventAdapter{task: task, runner: p.rt.tasks}
		events.addListener(target.ID(), adapter, p.rt.getDepValues(task.ID()))
	}
	return nil
}

// taskEventAdapter makes a `Task[In,Out]` declared with `On(event)` satisfy
// the listener interface, the adapter spec.md §4.4 calls "promoted at wiring
// time to a hook on that event". Invocation goes through TaskRunner.Run so
// the task's normal beforeRun/afterRun/onError contract still applies.
type taskEventAdapter struct {
	task   AnyTask
	runner *TaskRunner
}

func (a *taskEventAdapter) order() int { return 0 }
func (a *taskEventAdapter) filterFn() func(*Emission) bool { return nil }
func (a *taskEventAdapter) runAny(ctx context.Context, emission *Emission, _ ResolvedDeps) error {
	if a.runner.rt.isRunning(a.task.ID()) {
		// invariant 10: an emission from inside a task never re-enters that
		// task's own on-handler.
		return nil
	}
	_, err := a.runner.Run(ctx, a.task, emission.Data)
	return err
}

// initializeLazyResource initializes a single resource on first use, for
// `lazy: true` runs (spec.md §6). It does not run the topological pass;
// instead it resolves the one resource's own dependencies (recursively
// lazy-initializing anything it needs) and runs its init in isolation.
func initializeLazyResource(rt *runtimeState, id NodeID) (any, error) {
	rt.mu.Lock()
	if v, ok := rt.resourceValues[id]; ok {
		rt.mu.Unlock()
		return v, nil
	}
	rt.mu.Unlock()

	entry, ok := rt.store.lookupAny(id)
	if !ok {
		return nil, newError(ErrResourceNotFound, "lazy resource "+string(id)+" not found", nil)
	}
	res, ok := entry.node.(AnyResource)
	if !ok {
		return nil, newError(ErrResourceNotFound, string(id)+" is not a resource", nil)
	}

	proc := &DependencyProcessor{store: rt.store, rt: rt}
	if err := proc.wireDeps(res); err != nil {
		return nil, err
	}
	initCtx := &InitCtx{ctx: context.Background(), resource: res}
	value, err := composeResourceInit(rt.store, rt, res, initCtx, entry.config)
	if err != nil {
		return nil, err
	}
	rt.setResourceValue(id, value)
	rt.pushRollback(id)
	for _, cleanup := range initCtx.cleanups {
		rt.addCleanup(id, cleanup)
	}
	return value, nil
}

package apprun

import (
	"fmt"
	"sort"
	"sync"

	"github.com/graphkernel/apprun/pkg/meta"
)

// storeEntry wraps one registered node together with the bookkeeping the
// processor and policy engine need once the graph is frozen: who owns it
// (its parent resource's subtree, for exports/wiring-access resolution) and
// its computed register/config, if it's a resource.
type storeEntry struct {
	node   Node
	owner  NodeID // the resource whose Register produced this entry; zero value for the root and for directly-Run ad hoc tasks
	config any    // resource config snapshot, set once the config factory has run
	seq    int    // registration order, used for a topological sort that is stable for a given registration order (spec.md §5)
}

// Store is the locked, long-lived registry built by the DependencyProcessor
// during Build()/Run() and consulted by the TaskRunner, EventManager and
// policy engine afterward. Structurally this generalizes the teacher's Scope
// (scope.go), which held a single flat map of executors keyed by id; Store
// splits that into one LockableMap per node kind (seven: resources, tasks,
// events, hooks, task middleware, resource middleware, tags) plus a tag
// index, because each kind needs slightly different lookups.
type Store struct {
	resources *LockableMap[NodeID, *storeEntry]
	tasks     *LockableMap[NodeID, *storeEntry]
	events    *LockableMap[NodeID, *storeEntry]
	hooks     *LockableMap[NodeID, *storeEntry]
	taskMW    *LockableMap[NodeID, *storeEntry]
	resMW     *LockableMap[NodeID, *storeEntry]
	tags      *LockableMap[NodeID, *storeEntry]

	// tagMembers maps a tag id to every node id that carries it, populated as
	// nodes are registered (spec.md §9, "Tag accessors").
	tagMembers map[NodeID][]NodeID

	root        NodeID
	seqMu       sync.Mutex
	nextSeq     int
	initialized bool
}

// initializeStore marks the Store as initialized (spec.md §4.1); the
// runtime's own introspection resources are seeded separately, by
// registerBuiltins (builtin.go). Calling it twice on the same Store is a
// programming error (Run() always builds a fresh Store per invocation) and
// fails with storeAlreadyInitialized.
func (s *Store) initializeStore() error {
	if s.initialized {
		return newError(ErrStoreAlreadyInitialized, "store already initialized", nil)
	}
	s.initialized = true
	return nil
}

func newStore() *Store {
	return &Store{
		resources:  NewLockableMap[NodeID, *storeEntry]("resources"),
		tasks:      NewLockableMap[NodeID, *storeEntry]("tasks"),
		events:     NewLockableMap[NodeID, *storeEntry]("events"),
		hooks:      NewLockableMap[NodeID, *storeEntry]("hooks"),
		taskMW:     NewLockableMap[NodeID, *storeEntry]("taskMiddleware"),
		resMW:      NewLockableMap[NodeID, *storeEntry]("resourceMiddleware"),
		tags:       NewLockableMap[NodeID, *storeEntry]("tags"),
		tagMembers: make(map[NodeID][]NodeID),
	}
}

func (s *Store) registryFor(kind NodeKind) (*LockableMap[NodeID, *storeEntry], error) {
	switch kind {
	case KindResource:
		return s.resources, nil
	case KindTask:
		return s.tasks, nil
	case KindEvent:
		return s.events, nil
	case KindHook:
		return s.hooks, nil
	case KindTaskMiddleware:
		return s.taskMW, nil
	case KindResourceMiddleware:
		return s.resMW, nil
	case KindTag:
		return s.tags, nil
	default:
		return nil, newError(ErrContext, fmt.Sprintf("unknown node kind %d", int(kind)), nil)
	}
}

// checkIfIDExists reports whether id is already registered under ANY
// registry, since ids must be globally unique across all node kinds
// (spec.md invariant: "ids are unique across the whole graph, not just
// within a kind").
func (s *Store) checkIfIDExists(id NodeID) bool {
	for _, reg := range []*LockableMap[NodeID, *storeEntry]{
		s.resources, s.tasks, s.events, s.hooks, s.taskMW, s.resMW, s.tags,
	} {
		if reg.Has(id) {
			return true
		}
	}
	return false
}

// register adds node to its kind's registry under owner, failing on a
// duplicate id anywhere in the graph (spec.md §6, ErrDuplicateRegistration).
func (s *Store) register(node Node, owner NodeID) error {
	if s.checkIfIDExists(node.ID()) {
		return newError(ErrDuplicateRegistration,
			"a node with id "+string(node.ID())+" is already registered", nil)
	}
	reg, err := s.registryFor(node.Kind())
	if err != nil {
		return err
	}
	s.seqMu.Lock()
	seq := s.nextSeq
	s.nextSeq++
	s.seqMu.Unlock()
	entry := &storeEntry{node: node, owner: owner, seq: seq}
	if err := reg.Set(node.ID(), entry); err != nil {
		return err
	}
	if node.Kind() == KindTag {
		return nil
	}
	for _, ref := range node.tagRefs() {
		s.tagMembers[ref.Tag.id] = append(s.tagMembers[ref.Tag.id], node.ID())
	}
	return nil
}

// Inspect renders one line per registered node — id, kind, owner and any
// attached metadata — for graphctl's `inspect` subcommand.
func (s *Store) Inspect() []string {
	var lines []string
	for _, reg := range []*LockableMap[NodeID, *storeEntry]{
		s.resources, s.tasks, s.events, s.hooks, s.taskMW, s.resMW, s.tags,
	} {
		for _, e := range orderedValues(reg) {
			line := fmt.Sprintf("%s (%s) owner=%q", e.node.ID(), e.node.Kind(), e.owner)
			if md := s.MetadataOf(e.node.ID()); len(md) > 0 {
				line += fmt.Sprintf(" meta=%v", md)
				if desc, ok := meta.Description(md); ok {
					line += fmt.Sprintf(" — %s", desc)
				}
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// MetadataOf returns the free-form annotations attached via Resource[T].Meta
// or Task[In,Out].Meta, for nodes that carry any (spec.md's component table
// budgets a CLI `inspect` surface; these annotations are what it prints
// beyond id/kind/owner).
func (s *Store) MetadataOf(id NodeID) map[string]any {
	e, ok := s.lookupAny(id)
	if !ok {
		return nil
	}
	switch n := e.node.(type) {
	case AnyResource:
		return n.metadata()
	case AnyTask:
		return n.metadata()
	default:
		return nil
	}
}

// OwnerOf returns the resource id that registered id, or "" if id was
// registered at the root or isn't found. Exported for extensions/graphctl,
// which need to walk ownership chains without reaching into storeEntry.
func (s *Store) OwnerOf(id NodeID) (NodeID, bool) {
	e, ok := s.lookupAny(id)
	if !ok {
		return "", false
	}
	return e.owner, true
}

func (s *Store) lookup(id NodeID, kind NodeKind) (*storeEntry, bool) {
	reg, err := s.registryFor(kind)
	if err != nil {
		return nil, false
	}
	return reg.Get(id)
}

// lookupAny scans every registry for id, used by the policy engine and CLI
// inspection commands where the kind isn't known up front.
func (s *Store) lookupAny(id NodeID) (*storeEntry, bool) {
	for _, reg := range []*LockableMap[NodeID, *storeEntry]{
		s.resources, s.tasks, s.events, s.hooks, s.taskMW, s.resMW, s.tags,
	} {
		if e, ok := reg.Get(id); ok {
			return e, true
		}
	}
	return nil, false
}

// membersOf returns every registered node currently tagged t.
func (s *Store) membersOf(t *Tag) []*storeEntry {
	ids := s.tagMembers[t.id]
	out := make([]*storeEntry, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.lookupAny(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// allResources/allTasks/allEvents/allHooks return every entry of a kind,
// ordered by registration sequence so callers that need a deterministic walk
// (the initializer's topological pass, tie-breaking in sort.SliceStable)
// don't depend on Go's randomized map iteration.
func (s *Store) allResources() []*storeEntry { return orderedValues(s.resources) }
func (s *Store) allTasks() []*storeEntry     { return orderedValues(s.tasks) }
func (s *Store) allEvents() []*storeEntry    { return orderedValues(s.events) }
func (s *Store) allHooks() []*storeEntry     { return orderedValues(s.hooks) }
func (s *Store) allTaskMiddleware() []*storeEntry     { return orderedValues(s.taskMW) }
func (s *Store) allResourceMiddleware() []*storeEntry { return orderedValues(s.resMW) }

func orderedValues(reg *LockableMap[NodeID, *storeEntry]) []*storeEntry {
	out := reg.Values()
	sort.SliceStable(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (s *Store) globalTaskMiddleware() []*TaskMiddleware {
	var out []*TaskMiddleware
	for _, e := range s.taskMW.Values() {
		if mw, ok := e.node.(*TaskMiddleware); ok && mw.isGlobal() {
			out = append(out, mw)
		}
	}
	return out
}

func (s *Store) everywhereTaskMiddleware() []*TaskMiddleware {
	var out []*TaskMiddleware
	for _, e := range s.taskMW.Values() {
		if mw, ok := e.node.(*TaskMiddleware); ok && mw.everyWhen != nil {
			out = append(out, mw)
		}
	}
	return out
}

func (s *Store) everywhereResourceMiddleware() []*ResourceMiddleware {
	var out []*ResourceMiddleware
	for _, e := range s.resMW.Values() {
		if mw, ok := e.node.(*ResourceMiddleware); ok && mw.everyWhen != nil {
			out = append(out, mw)
		}
	}
	return out
}

// allWireable returns every node whose dependency map participates in cycle
// detection and wiring: resources, tasks, hooks, and both middleware kinds.
// Events and tags are excluded — they carry no dependencies of their own.
func (s *Store) allWireable() []*storeEntry {
	out := make([]*storeEntry, 0)
	out = append(out, s.allResources()...)
	out = append(out, s.allTasks()...)
	out = append(out, s.allHooks()...)
	out = append(out, s.allTaskMiddleware()...)
	out = append(out, s.allResourceMiddleware()...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// lock freezes every registry, matching the point at which the teacher's
// Scope stops accepting new executor registrations once Run() begins
// resolving (scope.go).
func (s *Store) lock() {
	for _, reg := range []*LockableMap[NodeID, *storeEntry]{
		s.resources, s.tasks, s.events, s.hooks, s.taskMW, s.resMW, s.tags,
	} {
		reg.Lock()
	}
}

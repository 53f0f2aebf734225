package apprun

import (
	"context"
	"sync"
)

// ExecutionNode records one task invocation for observability, adapted from
// the teacher's ExecutionNode/ExecutionTree (flow.go), which tracked Flow
// executions the same way. Here a node corresponds to one TaskRunner.Run
// call instead of one Flow execution, and its TaskID/Input/Output/Err
// fields carry the same data the debug resource's log records already attach
// (logger.go's taskLifecycleFields), so ExecutionTree gives a caller the
// nested-call shape those flat log lines don't.
type ExecutionNode struct {
	ID       string
	ParentID string
	TaskID   NodeID
	Input    any
	Output   any
	Err      error
}

// ExecutionTree is a bounded, parent-indexed record of task invocations,
// ported from the teacher's ExecutionTree (flow.go): same node/byParent/
// roots/limit shape and the same oldest-root eviction policy, generalized
// from Flow executions to Task invocations.
type ExecutionTree struct {
	mu       sync.RWMutex
	nodes    map[string]*ExecutionNode
	byParent map[string][]string
	roots    []string
	limit    int
}

const defaultExecutionTreeLimit = 4096

func newExecutionTree() *ExecutionTree {
	return &ExecutionTree{
		nodes:    make(map[string]*ExecutionNode),
		byParent: make(map[string][]string),
		limit:    defaultExecutionTreeLimit,
	}
}

func (t *ExecutionTree) addNode(node *ExecutionNode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nodes[node.ID] = node
	if node.ParentID == "" {
		t.roots = append(t.roots, node.ID)
	} else {
		t.byParent[node.ParentID] = append(t.byParent[node.ParentID], node.ID)
	}

	if len(t.nodes) > t.limit {
		t.evictOldest()
	}
}

func (t *ExecutionTree) evictOldest() {
	if len(t.roots) == 0 {
		return
	}
	oldest := t.roots[0]
	t.roots = t.roots[1:]
	t.removeSubtree(oldest)
}

func (t *ExecutionTree) removeSubtree(id string) {
	delete(t.nodes, id)
	children := t.byParent[id]
	delete(t.byParent, id)
	for _, child := range children {
		t.removeSubtree(child)
	}
}

// GetNode returns the node recorded under id, if any.
func (t *ExecutionTree) GetNode(id string) *ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[id]
}

// GetChildren returns every node whose ParentID is id.
func (t *ExecutionTree) GetChildren(id string) []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	childIDs := t.byParent[id]
	out := make([]*ExecutionNode, 0, len(childIDs))
	for _, cid := range childIDs {
		if n := t.nodes[cid]; n != nil {
			out = append(out, n)
		}
	}
	return out
}

// GetRoots returns every node with no recorded parent, i.e. every
// top-level task invocation (one not run from inside another task).
func (t *ExecutionTree) GetRoots() []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*ExecutionNode, 0, len(t.roots))
	for _, id := range t.roots {
		if n := t.nodes[id]; n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Filter returns every recorded node matching predicate, in no particular
// order, for the debug resource or a CLI command to query by task id or
// error presence.
func (t *ExecutionTree) Filter(predicate func(*ExecutionNode) bool) []*ExecutionNode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*ExecutionNode
	for _, n := range t.nodes {
		if predicate(n) {
			out = append(out, n)
		}
	}
	return out
}

type executionParentKey struct{}

// withExecutionParent scopes id as the execution-tree parent for any task
// run from inside ctx's call tree, the same nesting Flow.Execute threads
// through ExecutionCtx.parent in the teacher (flow.go).
func withExecutionParent(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, executionParentKey{}, id)
}

func executionParentOf(ctx context.Context) string {
	id, _ := ctx.Value(executionParentKey{}).(string)
	return id
}

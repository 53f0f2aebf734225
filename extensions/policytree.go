// Package extensions holds optional diagnostics that sit outside the core
// runtime package, consuming only its exported surface.
package extensions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/m1gwings/treedrawer/tree"

	apprun "github.com/graphkernel/apprun"
)

// PolicyViolationTree renders the ownership chain a rejected dependency edge
// walked through, so a RuntimeError carrying an owner/target pair (the
// map[string]any Data attached by checkVisibility/checkWiringAccess in
// policy.go) can be shown to a human as a remediation tree instead of a flat
// error string. Adapted from the teacher's GraphDebugExtension
// (graph_debug.go), which rendered a resolved-executor dependency graph with
// treedrawer the same way; here the tree is the ownership chain a policy
// check walked, marked with where the violation occurred, not the whole
// dependency graph.
type PolicyViolationTree struct {
	store *apprun.Store
}

// NewPolicyViolationTree builds a renderer bound to store, obtained from
// Runtime.Store().
func NewPolicyViolationTree(store *apprun.Store) *PolicyViolationTree {
	return &PolicyViolationTree{store: store}
}

// Render walks from rejectedID up to the root, building a vertical treedrawer
// tree with the rejected node marked, and returns its string form. rejectedID
// is the "target" field of a visibilityViolation or wiringAccessPolicyViolation
// error's Data map.
func (p *PolicyViolationTree) Render(rejectedID string, cause string) string {
	chain := p.ownerChain(apprun.NodeID(rejectedID))
	if len(chain) == 0 {
		return fmt.Sprintf("(no ownership chain found for %s)", rejectedID)
	}

	// chain is root-last (rejected node first); treedrawer builds root-first,
	// so walk it in reverse to grow the tree from the top down.
	root := tree.NewTree(tree.NodeString(describeNode(chain[len(chain)-1])))
	cursor := root
	for i := len(chain) - 2; i >= 0; i-- {
		label := describeNode(chain[i])
		if i == 0 {
			label += fmt.Sprintf("  <-- %s", cause)
		}
		cursor = cursor.AddChild(tree.NodeString(label))
	}
	return root.String()
}

// ownerChain returns id followed by each of its owners up to the root,
// nearest first, using the same lookup the policy engine itself walks
// (ancestorsInclusive in policy.go is unexported, so this reimplements the
// identical owner-pointer walk against the exported Store surface).
func (p *PolicyViolationTree) ownerChain(id apprun.NodeID) []apprun.NodeID {
	var chain []apprun.NodeID
	cur := id
	seen := make(map[apprun.NodeID]bool)
	for {
		if seen[cur] {
			break
		}
		seen[cur] = true
		chain = append(chain, cur)
		owner, ok := p.store.OwnerOf(cur)
		if !ok || owner == "" {
			break
		}
		cur = owner
	}
	return chain
}

func describeNode(id apprun.NodeID) string {
	return string(id)
}

// RenderForest renders the ownership chain of each id in ids (that node up
// to the root), one tree per id, sorted by id for deterministic output —
// used by graphctl's `tree` subcommand. Chains that share a root are
// rendered as separate trees, not merged.
func (p *PolicyViolationTree) RenderForest(ids []string) string {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	var b strings.Builder
	for _, id := range sorted {
		b.WriteString(p.Render(id, ""))
		b.WriteString("\n")
	}
	return b.String()
}

package apprun

import "fmt"

// WiringAccessPolicy is a resource's additional deny/only capability
// restriction on top of structural exports visibility (spec.md §4.5). Deny
// and Only are mutually exclusive; both set raises wiringAccessPolicyConflict
// at wiring time.
type WiringAccessPolicy struct {
	Deny []Ref
	Only []Ref
}

// ancestorsInclusive walks owner pointers from id up to the root, returning
// id itself followed by every owning resource above it, terminated by the
// sentinel "" (meaning "no further owner" / top of the tree). Grounded in the
// nested Graph.owner-walk idiom of examples/health-monitor/graph.go,
// generalized from a fixed two-level nesting to an arbitrary chain.
func ancestorsInclusive(s *Store, id NodeID) []NodeID {
	chain := []NodeID{id}
	cur := id
	for {
		e, ok := s.lookupAny(cur)
		if !ok || e.owner == "" {
			break
		}
		chain = append(chain, e.owner)
		cur = e.owner
	}
	chain = append(chain, "")
	return chain
}

// isInsideSubtreeOf reports whether consumerID is the given subtree root or
// nested anywhere beneath it.
func isInsideSubtreeOf(s *Store, consumerID, subtreeRoot NodeID) bool {
	if subtreeRoot == "" {
		return true
	}
	for _, a := range ancestorsInclusive(s, consumerID) {
		if a == subtreeRoot {
			return true
		}
		if a == "" {
			break
		}
	}
	return false
}

// nearestCommonAncestor returns the first resource id common to both chains,
// walking from each id upward. Always terminates at "" since both chains end
// with the "" sentinel.
func nearestCommonAncestor(a, b []NodeID) NodeID {
	set := make(map[NodeID]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	for _, id := range a {
		if set[id] {
			return id
		}
	}
	return ""
}

// checkVisibility implements spec.md §4.2 step 5 / §4.5's exports rule: an
// internal edge (consumer inside target's owning subtree) is always legal;
// an external edge is legal only if every resource strictly between the
// target's owner and the nearest ancestor shared with the consumer has
// re-exported the target.
func checkVisibility(s *Store, consumerID NodeID, target *storeEntry) error {
	targetOwner := target.owner
	if targetOwner == "" {
		return nil // root-level / process-wide item (middleware, tags): always visible
	}
	if isInsideSubtreeOf(s, consumerID, targetOwner) {
		return nil
	}

	consumerChain := ancestorsInclusive(s, consumerID)
	targetOwnerChain := ancestorsInclusive(s, targetOwner)
	common := nearestCommonAncestor(consumerChain, targetOwnerChain)

	for _, r := range targetOwnerChain {
		if r == common {
			break
		}
		if r == "" {
			break
		}
		entry, ok := s.lookupAny(r)
		if !ok {
			continue
		}
		res, ok := entry.node.(AnyResource)
		if !ok {
			continue
		}
		exports, declared := res.exportsList()
		if !declared {
			continue // absent exports => allow all children, backward-compat default
		}
		if !refsMatch(exports, target.node) {
			return newError(ErrVisibilityViolation, fmt.Sprintf(
				"%s is internal to %s: not present in its exports %v",
				target.node.ID(), r, describeRefs(exports)), map[string]any{
				"owner":   string(r),
				"target":  string(target.node.ID()),
				"exports": describeRefs(exports),
			})
		}
	}
	return nil
}

func refsMatch(refs []Ref, n Node) bool {
	for _, ref := range refs {
		if ref.matches(n) {
			return true
		}
	}
	return false
}

func describeRefs(refs []Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.describe())
	}
	return out
}

// checkWiringAccess implements spec.md §4.5's deny/only rule, compounding
// policies along the consumer's own ancestor chain: every resource the
// consumer is nested within (including the consumer itself, if it carries a
// policy) contributes an extra constraint on what the consumer may depend on.
func checkWiringAccess(s *Store, consumerID NodeID, target *storeEntry) error {
	for _, r := range ancestorsInclusive(s, consumerID) {
		if r == "" {
			continue
		}
		entry, ok := s.lookupAny(r)
		if !ok {
			continue
		}
		res, ok := entry.node.(AnyResource)
		if !ok {
			continue
		}
		policy := res.wiringPolicy()
		if policy == nil {
			continue
		}
		if len(policy.Deny) > 0 && refsMatch(policy.Deny, target.node) {
			return newError(ErrWiringAccessPolicyViolation, fmt.Sprintf(
				"%s denies wiring to %s", r, target.node.ID()), map[string]any{
				"owner": string(r), "target": string(target.node.ID()),
			})
		}
		if len(policy.Only) > 0 {
			internalToR := isInsideSubtreeOf(s, target.owner, r) || target.owner == r
			if !internalToR && !refsMatch(policy.Only, target.node) {
				return newError(ErrWiringAccessPolicyViolation, fmt.Sprintf(
					"%s restricts wiring to %v; %s is not listed", r, describeRefs(policy.Only), target.node.ID()),
					map[string]any{"owner": string(r), "target": string(target.node.ID())})
			}
		}
	}
	return nil
}

// checkEdge runs both policy checks for one dependency edge, visibility
// first (spec.md §9's documented precedence decision).
func checkEdge(s *Store, consumerID NodeID, target *storeEntry) error {
	if res, ok := target.node.(AnyResource); ok && res.isPrivate() {
		return newError(ErrVisibilityViolation, fmt.Sprintf(
			"%s is private and cannot be a dependency of %s", target.node.ID(), consumerID), map[string]any{
			"target":   string(target.node.ID()),
			"consumer": string(consumerID),
		})
	}
	if err := checkVisibility(s, consumerID, target); err != nil {
		return err
	}
	return checkWiringAccess(s, consumerID, target)
}

// validateWiringAccessPolicy is run once per resource during wiring
// (spec.md §4.2 step 3), independent of any particular edge.
func validateWiringAccessPolicy(s *Store, ownerID NodeID, policy *WiringAccessPolicy) error {
	if policy == nil {
		return nil
	}
	if len(policy.Deny) > 0 && len(policy.Only) > 0 {
		return newError(ErrWiringAccessPolicyConflict,
			string(ownerID)+" declares both deny and only", nil)
	}
	for _, ref := range append(append([]Ref{}, policy.Deny...), policy.Only...) {
		if ref.node == nil && ref.tag == nil {
			return newError(ErrWiringAccessPolicyInvalid,
				string(ownerID)+" has an empty policy entry", nil)
		}
		if ref.node != nil && !s.checkIfIDExists(ref.node.ID()) {
			return newError(ErrWiringAccessPolicyUnknown,
				fmt.Sprintf("%s policy references unknown target %s", ownerID, ref.node.ID()), nil)
		}
	}
	return nil
}

// buildTagAccessor filters a tag's members through the same visibility and
// wiring-access checks a direct dependency edge would undergo, so a tag
// dependency can never surface a node the consumer could not reach directly
// (spec.md §9, "Tag accessors").
func buildTagAccessor(rt *runtimeState, t *Tag, consumerID NodeID) (*TagAccessor, error) {
	key := tagAccessorKey{tagID: t.id, consumerID: consumerID}
	rt.mu.RLock()
	if cached, ok := rt.tagAccessorCache[key]; ok {
		rt.mu.RUnlock()
		return cached, nil
	}
	rt.mu.RUnlock()

	acc := &TagAccessor{tag: t}
	for _, entry := range rt.store.membersOf(t) {
		if err := checkEdge(rt.store, consumerID, entry); err != nil {
			continue // members outside the consumer's reach are silently omitted, not an error
		}
		switch entry.node.Kind() {
		case KindResource:
			acc.resources = append(acc.resources, entry)
		case KindTask:
			acc.tasks = append(acc.tasks, entry)
		case KindEvent:
			acc.events = append(acc.events, entry)
		}
	}

	rt.mu.Lock()
	rt.tagAccessorCache[key] = acc
	rt.mu.Unlock()
	return acc, nil
}

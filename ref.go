package apprun

// Ref names a wiring-access or export target: either a specific node, or a
// tag (meaning "every node currently carrying this tag"). Both exports lists
// and wiringAccessPolicy deny/only lists are []Ref (spec.md §4.5: "by id, by
// resource-with-config identity, or by tag membership").
type Ref struct {
	node Node
	tag  *Tag
}

// RefTo names an exact node (resource, task, event, hook or middleware).
func RefTo(n Node) Ref {
	return Ref{node: n}
}

// RefTag names every node tagged t.
func RefTag(t *Tag) Ref {
	return Ref{tag: t}
}

func (r Ref) matches(n Node) bool {
	if r.node != nil {
		return r.node.ID() == n.ID()
	}
	if r.tag != nil {
		return r.tag.Exists(n)
	}
	return false
}

func (r Ref) describe() string {
	if r.node != nil {
		return string(r.node.ID())
	}
	if r.tag != nil {
		return "tag:" + string(r.tag.id)
	}
	return "<empty ref>"
}

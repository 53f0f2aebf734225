package apprun

// Tag is a cross-cutting marker node. Tags carry no runtime state of their
// own; they exist only to group other nodes and to let consumers depend on
// "whatever is tagged X" rather than a fixed id list.
type Tag struct {
	id NodeID
}

// TaggedRef attaches a Tag to a node definition, optionally with a per-node
// configuration value (spec.md: "tag... with(cfg)").
type TaggedRef struct {
	Tag    *Tag
	Config any
}

// NewTag registers a new tag definition. Use TagBuilder (builder.go) for the
// fluent construction surface; this is the direct defineX-equivalent form.
func NewTag(id string) *Tag {
	return &Tag{id: NodeID(id)}
}

func (t *Tag) ID() NodeID                       { return t.id }
func (t *Tag) Kind() NodeKind                   { return KindTag }
func (t *Tag) deps() map[string]DependencyRef   { return nil }
func (t *Tag) tagRefs() []TaggedRef             { return nil }

// With attaches this tag (with configuration) to a node at construction
// time, e.g. Tags(safeTag.With(Level3)) on a resource or task builder.
func (t *Tag) With(cfg any) TaggedRef {
	return TaggedRef{Tag: t, Config: cfg}
}

// Bare returns an unconfigured TaggedRef, for plain Tags(safeTag.Bare()).
func (t *Tag) Bare() TaggedRef {
	return TaggedRef{Tag: t}
}

// Exists reports whether node carries this tag.
func (t *Tag) Exists(n Node) bool {
	for _, ref := range n.tagRefs() {
		if ref.Tag.id == t.id {
			return true
		}
	}
	return false
}

// Extract returns the configuration value node carries for this tag, if any.
func (t *Tag) Extract(n Node) (any, bool) {
	for _, ref := range n.tagRefs() {
		if ref.Tag.id == t.id {
			return ref.Config, ref.Config != nil
		}
	}
	return nil, false
}

// targetID/targetKind/mode/resolve make *Tag satisfy DependencyRef directly,
// the same way *Resource[T]/*Task[In,Out]/*Event[T] double as their own
// static dependency refs.
func (t *Tag) targetID() NodeID     { return t.id }
func (t *Tag) targetKind() NodeKind { return KindTag }
func (t *Tag) mode() DependencyMode { return DepStatic }

func (t *Tag) resolve(rt *runtimeState, consumerID NodeID) (any, error) {
	return buildTagAccessor(rt, t, consumerID)
}

// DependsOnTag declares a dependency on every node tagged t, filtered through
// the active policy chain at the consumer's position (spec.md §9, "Tag
// accessors"). consumerID is filled in automatically during wiring.
func DependsOnTag(t *Tag) DependencyRef {
	return t
}

// TagAccessor exposes the tasks/resources/events tagged with a given Tag,
// already filtered so that a consumer never sees an item it could not
// directly depend on (spec.md §4.5).
type TagAccessor struct {
	tag       *Tag
	resources []*storeEntry
	tasks     []*storeEntry
	events    []*storeEntry
}

func (a *TagAccessor) Resources() []NodeID {
	ids := make([]NodeID, 0, len(a.resources))
	for _, e := range a.resources {
		ids = append(ids, e.node.ID())
	}
	return ids
}

func (a *TagAccessor) Tasks() []NodeID {
	ids := make([]NodeID, 0, len(a.tasks))
	for _, e := range a.tasks {
		ids = append(ids, e.node.ID())
	}
	return ids
}

func (a *TagAccessor) Events() []NodeID {
	ids := make([]NodeID, 0, len(a.events))
	for _, e := range a.events {
		ids = append(ids, e.node.ID())
	}
	return ids
}

package apprun

// AnyEvent is the type-erased shape of Event[T].
type AnyEvent interface {
	Node
	DependencyRef

	isSystem() bool
}

// Event is a typed message definition. It carries no behavior itself —
// EventManager is what delivers emissions to listeners — but it is a
// first-class node so it can be depended on (yielding an Emitter) and owned
// by a subtree like any other registrable item.
type Event[T any] struct {
	id     NodeID
	system bool // true for the implicit resource/task lifecycle events
}

// NewEvent registers a new event definition with the given default-name id.
func NewEvent[T any](id string) *Event[T] {
	return &Event[T]{id: NodeID(id)}
}

func (e *Event[T]) ID() NodeID                     { return e.id }
func (e *Event[T]) Kind() NodeKind                  { return KindEvent }
func (e *Event[T]) deps() map[string]DependencyRef  { return nil }
func (e *Event[T]) tagRefs() []TaggedRef            { return nil }
func (e *Event[T]) isSystem() bool                  { return e.system }

func (e *Event[T]) targetID() NodeID     { return e.id }
func (e *Event[T]) targetKind() NodeKind { return KindEvent }
func (e *Event[T]) mode() DependencyMode { return DepStatic }

// resolve, for an event dependency, yields an Emitter (spec.md §4.2 step 4:
// "event → an emitter (payload, options?)=>EventManager.emit").
func (e *Event[T]) resolve(rt *runtimeState, consumerID NodeID) (any, error) {
	return Emitter[T](func(payload T, opts ...EmitOption) (*EmitReport, error) {
		return rt.events.Emit(e, payload, nil, opts...)
	}), nil
}

// Emitter is what an event dependency resolves to.
type Emitter[T any] func(payload T, opts ...EmitOption) (*EmitReport, error)

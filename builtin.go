package apprun

// The ids the runtime's own introspection resources register under
// (spec.md §4.1, initializeStore: "seed the Store with the runtime's own
// introspection resources"). Private, so no application dependency map can
// reach them by accident; retrieving one is an explicit opt-in via these
// constants.
const (
	BuiltinStoreID        NodeID = "__runner.store"
	BuiltinEventManagerID NodeID = "__runner.eventManager"
	BuiltinTaskRunnerID   NodeID = "__runner.taskRunner"
	BuiltinLoggerID       NodeID = "__runner.logger"
)

// registerBuiltins wires the four introspection resources into store as
// ordinary, dependency-free resources — they sort first in every
// topological init, same as any other zero-dependency resource — rather
// than special-casing their values outside the normal init pipeline.
func registerBuiltins(store *Store, rt *runtimeState) error {
	storeRes := NewResource[*Store](string(BuiltinStoreID)).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (*Store, error) { return rt.store, nil }).
		Private().
		Build()
	eventsRes := NewResource[*EventManager](string(BuiltinEventManagerID)).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (*EventManager, error) { return rt.events, nil }).
		Private().
		Build()
	tasksRes := NewResource[*TaskRunner](string(BuiltinTaskRunnerID)).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (*TaskRunner, error) { return rt.tasks, nil }).
		Private().
		Build()
	loggerRes := NewResource[*runtimeLogger](string(BuiltinLoggerID)).
		Init(func(_ *InitCtx, _ any, _ ResolvedDeps) (*runtimeLogger, error) { return rt.logger, nil }).
		Private().
		Build()

	for _, res := range []AnyResource{storeRes, eventsRes, tasksRes, loggerRes} {
		if err := store.register(res, ""); err != nil {
			return err
		}
		for _, ev := range []Node{res.beforeInitEvent(), res.afterInitEvent(), res.onErrorEvent()} {
			if err := store.register(ev, res.ID()); err != nil {
				return err
			}
		}
	}
	return nil
}

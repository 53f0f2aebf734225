package apprun

import (
	"context"
	"fmt"
	"io"
)

// RunOption configures one call to Run, generalizing the teacher's
// functional-options NewScope (scope.go) to the broader set of knobs spec.md
// §6 lists under the top-level `run(...)` call.
type RunOption func(*runConfig)

type runConfig struct {
	config           any
	lazy             bool
	debug            DebugVerbosity
	printThreshold   string
	bufferLogs       bool
	logWriter        io.Writer
	shutdownHooks    bool
	errorBoundary    bool
	onUnhandledError func(error)
}

// WithConfig supplies the root resource's config value.
func WithConfig(config any) RunOption {
	return func(c *runConfig) { c.config = config }
}

// WithLazy defers every resource's init to first use instead of eagerly
// initializing the whole topologically-sorted graph up front (spec.md §6,
// "lazy: bool").
func WithLazy() RunOption {
	return func(c *runConfig) { c.lazy = true }
}

// WithDebug attaches the named verbosity shorthand to every lifecycle log
// record (spec.md §6, "debug: 'normal' | 'verbose'").
func WithDebug(v DebugVerbosity) RunOption {
	return func(c *runConfig) { c.debug = v }
}

// WithPrintThreshold sets logs.printThreshold: only records at or above this
// zerolog level name are written to the log sink.
func WithPrintThreshold(level string) RunOption {
	return func(c *runConfig) { c.printThreshold = level }
}

// WithBufferLogs enables logs.bufferLogs: records are retained until a
// writer is attached via Runtime.AttachLogs, then replayed in order.
func WithBufferLogs() RunOption {
	return func(c *runConfig) { c.bufferLogs = true }
}

// WithLogWriter sets the initial log sink (defaults to os.Stderr).
func WithLogWriter(w io.Writer) RunOption {
	return func(c *runConfig) { c.logWriter = w }
}

// WithShutdownHooks installs the platform adapter's process-signal listener,
// disposing the runtime on SIGINT/SIGTERM (spec.md §6, "shutdownHooks").
func WithShutdownHooks() RunOption {
	return func(c *runConfig) { c.shutdownHooks = true }
}

// WithErrorBoundary routes panics recovered outside any task's own
// cooperative cancellation (e.g. inside a raw hook) to onUnhandledError
// instead of crashing the process (spec.md §6, "errorBoundary").
func WithErrorBoundary(onUnhandledError func(error)) RunOption {
	return func(c *runConfig) {
		c.errorBoundary = true
		c.onUnhandledError = onUnhandledError
	}
}

// Runtime is the live handle Run returns: a locked Store plus the three
// engines (EventManager, TaskRunner, DependencyProcessor) wired against it,
// generalizing the teacher's Scope as the caller-facing object returned from
// NewScope (scope.go).
type Runtime[T any] struct {
	store  *Store
	rt     *runtimeState
	proc   *DependencyProcessor
	events *EventManager
	tasks  *TaskRunner
	logger *runtimeLogger
	root   *Resource[T]

	platform *platformAdapter
}

// Run registers root's entire subtree, validates policies and cycles, wires
// every dependency edge and initializes every resource in topological order,
// following the five-pass pipeline of spec.md §2 (Register, Validate, Wire,
// Initialize, Ready). On any failure it rolls back whatever already
// initialized, in reverse order, and returns the original error.
func Run[T any](ctx context.Context, root *Resource[T], opts ...RunOption) (*Runtime[T], error) {
	cfg := &runConfig{printThreshold: "info"}
	for _, o := range opts {
		o(cfg)
	}

	store := newStore()
	p := newPool()
	logger := newRuntimeLogger(cfg.logWriter, parsePrintThreshold(cfg.printThreshold), cfg.bufferLogs)
	logger.SetDebugConfig(normalizeDebugConfig(cfg.debug))

	rtState := newRuntimeState()
	rtState.store = store
	rtState.pool = p
	rtState.logger = logger
	rtState.lazy = cfg.lazy

	events := newEventManager(store, p)
	tasks := newTaskRunner(store)
	tasks.attach(rtState)
	rtState.events = events
	rtState.tasks = tasks

	if err := store.initializeStore(); err != nil {
		return nil, err
	}
	if err := registerBuiltins(store, rtState); err != nil {
		return nil, err
	}

	proc := newDependencyProcessor(store, rtState)
	if err := proc.Register(root, cfg.config); err != nil {
		return nil, err
	}
	store.root = root.ID()
	rtState.root = root.ID()
	store.lock()

	installLifecycleLogging(events, logger)

	if err := proc.DetectCycles(); err != nil {
		return nil, err
	}
	if err := proc.ValidatePolicies(); err != nil {
		return nil, err
	}
	if err := proc.InitializeResources(ctx, events); err != nil {
		return nil, err
	}
	if err := proc.WireAncillary(events); err != nil {
		_ = proc.rollback(ctx)
		return nil, err
	}

	runtime := &Runtime[T]{
		store:  store,
		rt:     rtState,
		proc:   proc,
		events: events,
		tasks:  tasks,
		logger: logger,
		root:   root,
	}

	if cfg.shutdownHooks || cfg.errorBoundary {
		runtime.platform = newPlatformAdapter(runtime, cfg.shutdownHooks, cfg.onUnhandledError)
		runtime.platform.install()
	}

	readyEvent := &Event[ResourceLifecyclePayload]{id: "__runner.ready", system: true}
	readyPayload := ResourceLifecyclePayload{ResourceID: root.ID()}
	events.EmitLifecycle(readyEvent.id, &readyPayload, root)

	return runtime, nil
}

// installLifecycleLogging attaches the runtime's own structured-logging
// global listener, the successor to the teacher's LoggingExtension
// (extensions/logging.go), which printed every lifecycle transition with
// fmt.Printf. Here the same transitions become zerolog records instead,
// gated by logs.printThreshold and enriched per DebugConfig.
func installLifecycleLogging(events *EventManager, logger *runtimeLogger) {
	events.intercept(func(next func(*Emission) error, em *Emission) error {
		switch payload := em.Data.(type) {
		case *ResourceLifecyclePayload:
			if payload.Err != nil {
				logger.Error("resource lifecycle error", logger.resourceLifecycleFields(payload))
			} else {
				logger.Debug("resource lifecycle", logger.resourceLifecycleFields(payload))
			}
		case *TaskLifecyclePayload:
			if payload.Err != nil {
				logger.Error("task lifecycle error", logger.taskLifecycleFields(payload))
			} else {
				logger.Debug("task lifecycle", logger.taskLifecycleFields(payload))
			}
		default:
			logger.Debug("event emitted", logger.eventFields(em))
		}
		return next(em)
	})
}

// AttachLogs replaces the runtime's log sink, replaying anything buffered
// under logs.bufferLogs.
func (r *Runtime[T]) AttachLogs(w io.Writer) { r.logger.Attach(w) }

// taskHost is satisfied by every Runtime[T] regardless of its root type,
// letting RunTask stay generic over In/Out independently of T.
type taskHost interface{ runTask() *TaskRunner }

func (r *Runtime[T]) runTask() *TaskRunner { return r.tasks }

// RunTask invokes task through its full middleware chain and lifecycle
// events (spec.md §4.3), typed to task's own In/Out regardless of the
// runtime's root resource type.
func RunTask[In, Out any](ctx context.Context, rt taskHost, task *Task[In, Out], input In) (Out, error) {
	var zero Out
	runner := rt.runTask()
	if runner.rt.isDisposed() {
		return zero, newError(ErrRuntimeDisposed, "runTask after Dispose(): "+string(task.ID()), nil)
	}
	out, err := runner.Run(ctx, task, input)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	typed, ok := out.(Out)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// EmitEvent publishes payload on event and returns a delivery report. A
// listener panic is routed to the installed errorBoundary, if any, instead
// of escaping to the process — the only delivery path that runs listener
// code outside a task's own cooperative-cancellation goroutine.
func (r *Runtime[T]) EmitEvent(event AnyEvent, payload any, opts ...EmitOption) (report *EmitReport, err error) {
	if r.rt.isDisposed() {
		return nil, newError(ErrRuntimeDisposed, "emitEvent after Dispose(): "+string(event.ID()), nil)
	}
	if r.platform != nil {
		defer r.platform.recoverToBoundary()
	}
	return r.events.Emit(event, payload, nil, opts...)
}

// Value returns the initialized value of the root resource.
func (r *Runtime[T]) Value() (T, error) {
	var zero T
	v, ok := r.rt.getResourceValue(r.root.ID())
	if !ok {
		return zero, newError(ErrResourceNotFound, "root resource has no value; was Run called with lazy mode?", nil)
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newError(ErrContext, "root resource value has unexpected type", nil)
	}
	return typed, nil
}

// GetResourceValue looks up any initialized resource by id, for CLI
// inspection and tests that need to reach into the graph by name
// (spec.md §7, "runtime introspection").
func (r *Runtime[T]) GetResourceValue(id NodeID) (any, bool) {
	return r.rt.getResourceValue(id)
}

// Store exposes the locked registry for read-only introspection (graphctl's
// `inspect` and `tree` subcommands walk this).
func (r *Runtime[T]) Store() *Store { return r.store }

// PoolMetrics reports the hit/miss counters of the Emission and
// taskInvocation pools.
func (r *Runtime[T]) PoolMetrics() (emissionHits, emissionMisses, invokeHits, invokeMisses uint64) {
	return r.rt.pool.Metrics()
}

// ExecutionTree exposes the bounded record of every task invocation this
// runtime has run, including the caller/callee nesting of tasks that invoke
// other tasks through a resource's Invoker dependency. Feeds the same data
// the debug resource attaches to log records (spec.md §6), surfaced here for
// a CLI or test to walk directly instead of scraping logs.
func (r *Runtime[T]) ExecutionTree() *ExecutionTree { return r.tasks.tree }

// Dispose runs every initialized resource's dispose function in reverse
// initialization order, joining every individual failure instead of stopping
// at the first (spec.md invariant 8, "dispose continues past a failing
// resource and joins every error").
func (r *Runtime[T]) Dispose(ctx context.Context) error {
	if r.platform != nil {
		r.platform.uninstall()
	}
	err := r.proc.rollback(ctx)
	r.rt.markDisposed()
	return err
}

// Describe renders a one-line summary used by graphctl's default inspect
// output.
func (r *Runtime[T]) Describe() string {
	return fmt.Sprintf("root=%s resources=%d tasks=%d events=%d",
		r.root.ID(), len(r.store.allResources()), len(r.store.allTasks()), len(r.store.allEvents()))
}

package apprun

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// DebugVerbosity controls how much of a task/resource/event's data the
// debug resource attaches to its log records (spec.md §6, `debug` option).
type DebugVerbosity string

const (
	DebugOff     DebugVerbosity = ""
	DebugNormal  DebugVerbosity = "normal"
	DebugVerbose DebugVerbosity = "verbose"
)

// DebugConfig is the structured form of the `debug` run option, for callers
// who need more control than the "normal"/"verbose" shorthands.
type DebugConfig struct {
	Verbosity       DebugVerbosity
	AttachTaskIO     bool
	AttachResourceIO bool
	AttachEventData  bool
}

func normalizeDebugConfig(v DebugVerbosity) DebugConfig {
	switch v {
	case DebugVerbose:
		return DebugConfig{Verbosity: v, AttachTaskIO: true, AttachResourceIO: true, AttachEventData: true}
	case DebugNormal:
		return DebugConfig{Verbosity: v, AttachTaskIO: true, AttachResourceIO: false, AttachEventData: false}
	default:
		return DebugConfig{Verbosity: DebugOff}
	}
}

// bufferedRecord is one log call captured before any sink has subscribed,
// replayed once logs.bufferLogs is enabled and a real writer attaches.
type bufferedRecord struct {
	level   zerolog.Level
	fields  map[string]any
	message string
}

// runtimeLogger is the built-in `logger` resource named in spec.md §2's
// initializeStore step ("seed the Store with the runtime's own introspection
// resources (store, eventManager, taskRunner, logger)"). Backed by
// github.com/rs/zerolog instead of the teacher's fmt.Printf-based
// LoggingExtension (extensions/logging.go), giving logs.printThreshold and
// logs.bufferLogs concrete, leveled semantics.
type runtimeLogger struct {
	mu        sync.Mutex
	zl        zerolog.Logger
	threshold zerolog.Level
	buffer    bool
	buffered  []bufferedRecord
	debug     DebugConfig
}

func newRuntimeLogger(w io.Writer, threshold zerolog.Level, buffer bool) *runtimeLogger {
	if w == nil {
		w = os.Stderr
	}
	return &runtimeLogger{
		zl:        zerolog.New(w).With().Timestamp().Logger(),
		threshold: threshold,
		buffer:    buffer,
	}
}

// SetDebugConfig installs the verbosity settings `run(debug: ...)` asked for.
func (l *runtimeLogger) SetDebugConfig(cfg DebugConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = cfg
}

// Attach replaces the destination writer and replays anything buffered while
// no subscriber was attached, matching spec.md §6's logs.bufferLogs option.
func (l *runtimeLogger) Attach(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zl = zerolog.New(w).With().Timestamp().Logger()
	for _, rec := range l.buffered {
		l.emitLocked(rec.level, rec.fields, rec.message)
	}
	l.buffered = nil
	l.buffer = false
}

func (l *runtimeLogger) log(level zerolog.Level, fields map[string]any, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buffer {
		l.buffered = append(l.buffered, bufferedRecord{level: level, fields: fields, message: message})
		return
	}
	l.emitLocked(level, fields, message)
}

func (l *runtimeLogger) emitLocked(level zerolog.Level, fields map[string]any, message string) {
	if level < l.threshold {
		return
	}
	ev := l.zl.WithLevel(level)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

func (l *runtimeLogger) Info(message string, fields map[string]any)  { l.log(zerolog.InfoLevel, fields, message) }
func (l *runtimeLogger) Debug(message string, fields map[string]any) { l.log(zerolog.DebugLevel, fields, message) }
func (l *runtimeLogger) Warn(message string, fields map[string]any)  { l.log(zerolog.WarnLevel, fields, message) }
func (l *runtimeLogger) Error(message string, fields map[string]any) { l.log(zerolog.ErrorLevel, fields, message) }

// resourceLifecycleFields builds the structured fields attached to a
// beforeInit/afterInit/onError log record, honoring AttachResourceIO.
func (l *runtimeLogger) resourceLifecycleFields(p *ResourceLifecyclePayload) map[string]any {
	fields := map[string]any{"resource": string(p.ResourceID)}
	l.mu.Lock()
	attach := l.debug.AttachResourceIO
	l.mu.Unlock()
	if attach {
		fields["config"] = p.Config
		fields["value"] = p.Value
	}
	if p.Err != nil {
		fields["error"] = p.Err.Error()
	}
	return fields
}

// taskLifecycleFields builds the structured fields attached to a
// beforeRun/afterRun/onError log record, honoring AttachTaskIO.
func (l *runtimeLogger) taskLifecycleFields(p *TaskLifecyclePayload) map[string]any {
	fields := map[string]any{"task": string(p.TaskID)}
	l.mu.Lock()
	attach := l.debug.AttachTaskIO
	l.mu.Unlock()
	if attach {
		fields["input"] = p.Input
		fields["output"] = p.Output
	}
	if p.Err != nil {
		fields["error"] = p.Err.Error()
	}
	return fields
}

// eventFields builds the structured fields attached to a generic emission
// log record, honoring AttachEventData.
func (l *runtimeLogger) eventFields(em *Emission) map[string]any {
	fields := map[string]any{"event": string(em.EventID), "emissionID": em.ID}
	l.mu.Lock()
	attach := l.debug.AttachEventData
	l.mu.Unlock()
	if attach {
		fields["data"] = em.Data
	}
	return fields
}

// parsePrintThreshold converts the logs.printThreshold run option (a level
// name, or nil meaning "print everything") into a zerolog.Level.
func parsePrintThreshold(level string) zerolog.Level {
	if level == "" {
		return zerolog.TraceLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

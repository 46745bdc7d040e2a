// Package logging provides the shared slog conventions for logsieve.
//
// Design principles:
//   - Logging is dependency-injected, never global
//   - Each component scopes its logger once, at construction time
//   - slog.With() attaches default attributes
//   - A nil logger means discard, not panic
//
// Output format, level, and destination are decided only in main().
// Components never call slog.SetDefault or reach for global loggers.
//
// Diagnostics are deliberately sparse: a pass over a file logs at its
// lifecycle boundaries (open, finish, warnings), never per line or per
// record.
package logging

import (
	"context"
	"log/slog"
	"sync"
)

// discardHandler drops every log record.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise a discard logger.
// The standard pattern for optional logger parameters:
//
//	func New(logger *slog.Logger) *Runner {
//	    logger = logging.Default(logger)
//	    return &Runner{logger: logger.With("component", "scan")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}

// ComponentFilterHandler filters records by per-component log levels. A
// record's component is the "component" attribute, whether attached via
// With() or passed on the call. Records without one, and components
// without an override, use the default level.
//
// Level changes apply immediately to every logger built on the handler,
// including ones cloned earlier with With().
type ComponentFilterHandler struct {
	next     slog.Handler
	state    *filterState
	preAttrs []slog.Attr
}

// filterState is shared across WithAttrs/WithGroup clones so level
// changes reach all of them.
type filterState struct {
	mu           sync.RWMutex
	defaultLevel slog.Level
	levels       map[string]slog.Level
}

// NewComponentFilterHandler wraps next with per-component level
// filtering. The wrapped handler should be configured to pass all
// levels; this handler decides what gets through.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		next: next,
		state: &filterState{
			defaultLevel: defaultLevel,
			levels:       make(map[string]slog.Level),
		},
	}
}

// SetLevel overrides the level for one component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.levels[component] = level
}

// ClearLevel removes a component's override, returning it to the default.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	delete(h.state.levels, component)
}

// Level returns the effective level for a component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	if level, ok := h.state.levels[component]; ok {
		return level
	}
	return h.state.defaultLevel
}

// DefaultLevel returns the level used for components without an override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	return h.state.defaultLevel
}

// SetDefaultLevel changes the level used for components without an
// override.
func (h *ComponentFilterHandler) SetDefaultLevel(level slog.Level) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.defaultLevel = level
}

// Enabled reports whether any configured level would let the record
// through. The component is not known yet at this point, so this errs
// toward true and Handle makes the final call.
func (h *ComponentFilterHandler) Enabled(_ context.Context, level slog.Level) bool {
	h.state.mu.RLock()
	defer h.state.mu.RUnlock()
	if level >= h.state.defaultLevel {
		return true
	}
	for _, l := range h.state.levels {
		if level >= l {
			return true
		}
	}
	return false
}

// Handle resolves the record's component and drops the record when it is
// below that component's effective level.
func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := ""
	for _, a := range h.preAttrs {
		if a.Key == "component" {
			component = a.Value.String()
		}
	}
	if component == "" {
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "component" {
				component = a.Value.String()
				return false
			}
			return true
		})
	}

	if r.Level < h.Level(component) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs returns a clone that remembers attrs for component
// resolution and forwards them to the wrapped handler.
func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.preAttrs)+len(attrs))
	copy(merged, h.preAttrs)
	copy(merged[len(h.preAttrs):], attrs)
	return &ComponentFilterHandler{
		next:     h.next.WithAttrs(attrs),
		state:    h.state,
		preAttrs: merged,
	}
}

// WithGroup returns a clone wrapping the grouped handler. Attributes
// inside groups do not participate in component resolution.
func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	return &ComponentFilterHandler{
		next:     h.next.WithGroup(name),
		state:    h.state,
		preAttrs: h.preAttrs,
	}
}

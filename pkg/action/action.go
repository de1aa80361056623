// Package action is the process-global action dispatcher of spec.md §4.3:
// a write-once-at-startup map from action name to handler, JSON-Schema
// parameter descriptions generated from the handler's argument type, and
// the five action groups (utterance, workspace, learning, search, and
// self-management) the reasoning loop exposes to the model.
package action

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Outcome is the structured result of executing one action (spec.md §4.3's
// `{success, data?, error?, side_effects}`).
type Outcome struct {
	Success     bool     `json:"success"`
	Data        any      `json:"data,omitempty"`
	Error       string   `json:"error,omitempty"`
	SideEffects []string `json:"side_effects,omitempty"`
}

// ErrorOutcome builds a failed Outcome from an error.
func ErrorOutcome(err error) Outcome {
	return Outcome{Success: false, Error: err.Error()}
}

// HandlerFunc executes one action invocation against the shared per-agent
// context and its parsed arguments.
type HandlerFunc func(ctx *Context, args json.RawMessage) Outcome

// Descriptor is one registered action: its name, whether it is a member of
// the terminal set (spec.md §4.1 step 2.c), the routing purpose dispatching
// it puts the loop into for the following iteration (empty means the loop
// falls back to its default purpose), and the JSON-Schema describing its
// parameters, generated once at registration time.
type Descriptor struct {
	Name        string
	Description string
	Terminal    bool
	Purpose     string
	Schema      map[string]any
	Handler     HandlerFunc
}

// Dispatcher is the process-global action registry. Registration is
// write-once: a second attempt to register the same name panics, since it
// can only indicate a startup wiring bug, never a runtime condition to
// recover from.
type Dispatcher struct {
	mu      sync.RWMutex
	actions map[string]Descriptor
}

// NewDispatcher creates an empty dispatcher. Callers register every action
// group against it once at startup before any reasoning loop runs.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{actions: make(map[string]Descriptor)}
}

// Register adds one action descriptor. Panics on a duplicate name.
func (d *Dispatcher) Register(desc Descriptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.actions[desc.Name]; exists {
		panic(fmt.Sprintf("action: %q already registered", desc.Name))
	}
	d.actions[desc.Name] = desc
}

// Get looks up a descriptor by name.
func (d *Dispatcher) Get(name string) (Descriptor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	desc, ok := d.actions[name]
	return desc, ok
}

// Descriptors returns every registered action, for building the full tool
// catalog before it's filtered down to an agent's active skill set.
func (d *Dispatcher) Descriptors() []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Descriptor, 0, len(d.actions))
	for _, desc := range d.actions {
		out = append(out, desc)
	}
	return out
}

// Filter returns the descriptors whose names appear in names, preserving no
// particular order — the reasoning loop materializes this into the tool
// list it sends the model (spec.md §4.1 step 2, §4.3 "union of action
// names of the agent's active skills").
func (d *Dispatcher) Filter(names []string) []Descriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Descriptor, 0, len(names))
	for _, n := range names {
		if desc, ok := d.actions[n]; ok {
			out = append(out, desc)
		}
	}
	return out
}

// Execute runs the registered handler on args. Each handler parses its own
// arguments and reports a parse failure as an "invalid_arguments: ..."
// error outcome; an unknown action name yields a failed Outcome
// ("unknown action ...") rather than a panic.
func (d *Dispatcher) Execute(ctx *Context, name string, args json.RawMessage) Outcome {
	desc, ok := d.Get(name)
	if !ok {
		return Outcome{Success: false, Error: fmt.Sprintf("unknown action %q", name)}
	}
	return desc.Handler(ctx, args)
}

// IsTerminal reports whether name is in the terminal action set.
func (d *Dispatcher) IsTerminal(name string) bool {
	desc, ok := d.Get(name)
	return ok && desc.Terminal
}

// PurposeFor returns the routing purpose dispatching name declares for the
// loop's next iteration, or "" if name declares none (the loop then uses
// its default purpose).
func (d *Dispatcher) PurposeFor(name string) string {
	desc, ok := d.Get(name)
	if !ok {
		return ""
	}
	return desc.Purpose
}

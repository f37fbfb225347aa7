package flow

import (
	"fmt"
	"sort"
	"time"

	"github.com/julescmay/machina"
)

const defaultFallback = "Unknown state: {state}"

// Machine hosts a machina core built from a Definition, together with the
// context its gates read and write.
type Machine struct {
	def  *Definition
	ctx  *Context
	core *machina.Machine[string, *State]
}

// Option configures Build and Restore.
type Option func(*settings)

type settings struct {
	hooks     machina.Hooks[string]
	onEntered func(string, *State)
	maxHops   int
}

// WithHooks attaches observability hooks to the underlying machine.
func WithHooks(hooks machina.Hooks[string]) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithOnEntered registers the entered notification.
func WithOnEntered(fn func(state string, props *State)) Option {
	return func(s *settings) {
		s.onEntered = fn
	}
}

// WithMaxRedirects bounds redirect chains; see machina.WithMaxRedirects.
// Declarative gates are easy to wire into cycles by accident, so frontends
// in this repo enable a generous bound by default.
func WithMaxRedirects(n int) Option {
	return func(s *settings) {
		s.maxHops = n
	}
}

// Build creates a machine positioned at the definition's start state.
func Build(def *Definition, opts ...Option) (*Machine, error) {
	return build(def, def.Start, nil, nil, opts...)
}

// Restore creates a machine positioned at a saved snapshot. The snapshot's
// flags are seeded before the initial transition, so entry gates of the
// saved state see the context they were saved with. Entry resolution still
// runs: a snapshot taken in a state whose gate has since closed lands
// wherever the gate now points.
//
// Restoring repositions the machine rather than transitioning it, so the
// construction-time transition is invisible to WithHooks observers. Loggers
// and metrics only see transitions the restored machine actually performs.
func Restore(def *Definition, snap *Snapshot, opts ...Option) (*Machine, error) {
	if snap.Flow != "" && def.Name != "" && snap.Flow != def.Name {
		return nil, fmt.Errorf("restoring %q into %q: %w", snap.Flow, def.Name, ErrFlowMismatch)
	}
	gate := &hookGate{}
	m, err := build(def, snap.Current, snap.Flags, gate, opts...)
	if err != nil {
		return nil, err
	}
	gate.armed = true
	return m, nil
}

// hookGate mutes observability hooks until armed. Arming happens after the
// core machine is constructed and before it is handed to the caller, so no
// synchronization is needed.
type hookGate struct {
	armed bool
}

func (g *hookGate) wrap(inner machina.Hooks[string]) machina.Hooks[string] {
	return machina.Hooks[string]{
		OnExit: func(state string) {
			if g.armed && inner.OnExit != nil {
				inner.OnExit(state)
			}
		},
		OnEnter: func(candidate string) {
			if g.armed && inner.OnEnter != nil {
				inner.OnEnter(candidate)
			}
		},
		OnRedirect: func(from, to string) {
			if g.armed && inner.OnRedirect != nil {
				inner.OnRedirect(from, to)
			}
		},
		OnEntered: func(state string, hops int) {
			if g.armed && inner.OnEntered != nil {
				inner.OnEntered(state, hops)
			}
		},
	}
}

func build(def *Definition, start string, flags map[string]bool, gate *hookGate, opts ...Option) (*Machine, error) {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := NewContext()
	ctx.restore(flags)

	table := make(map[string]*State, len(def.States))
	for name, sd := range def.States {
		table[name] = newState(name, sd, ctx)
	}

	fallback := def.Fallback
	if fallback == "" {
		fallback = defaultFallback
	}
	defaults := func(id string) *State {
		return newSyntheticState(id, fallback, ctx)
	}

	hooks := cfg.hooks
	if gate != nil {
		hooks = gate.wrap(hooks)
	}
	coreOpts := []machina.Option[string, *State]{
		machina.WithHooks[string, *State](hooks),
	}
	if cfg.onEntered != nil {
		coreOpts = append(coreOpts, machina.WithOnEntered[string, *State](cfg.onEntered))
	}
	if cfg.maxHops > 0 {
		coreOpts = append(coreOpts, machina.WithMaxRedirects[string, *State](cfg.maxHops))
	}

	core, err := machina.New(table, start, defaults, coreOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start flow %q: %w", def.Name, err)
	}

	return &Machine{def: def, ctx: ctx, core: core}, nil
}

// Current returns the active state name.
func (m *Machine) Current() string {
	return m.core.Current()
}

// State returns the active state's properties.
func (m *Machine) State() *State {
	return m.core.Values()
}

// Lookup resolves properties for an arbitrary state name, including names
// the definition does not contain.
func (m *Machine) Lookup(id string) *State {
	return m.core.Get(id)
}

// States returns the defined state names, sorted.
func (m *Machine) States() []string {
	ids := m.core.States()
	sort.Strings(ids)
	return ids
}

// Goto requests a transition to target.
func (m *Machine) Goto(target string) error {
	return m.core.Set(target)
}

// Choose follows the choice the current state maps input to.
func (m *Machine) Choose(input string) error {
	target, ok := m.State().Choices[input]
	if !ok {
		return fmt.Errorf("%w: %q at state %q", ErrUnknownChoice, input, m.Current())
	}
	return m.core.Set(target)
}

// Terminal reports whether the active state ends the flow.
func (m *Machine) Terminal() bool {
	return m.State().Terminal
}

// Context returns the shared flag context.
func (m *Machine) Context() *Context {
	return m.ctx
}

// Definition returns the definition the machine was built from.
func (m *Machine) Definition() *Definition {
	return m.def
}

// Snapshot captures the machine's restorable position.
func (m *Machine) Snapshot() *Snapshot {
	return &Snapshot{
		Flow:      m.def.Name,
		Current:   m.core.Current(),
		Flags:     m.ctx.Flags(),
		UpdatedAt: time.Now().UTC(),
	}
}

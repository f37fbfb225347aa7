package machina

import (
	"fmt"
)

// Machine tracks exactly one active state out of a closed, caller-defined
// set. Each state is associated with a Props bundle; entry hooks may redirect
// the transition to another state, and the machine only ever commits (and
// reports) the state the redirect chain finally settles on. No observer sees
// an intermediate candidate as the current state.
//
// A Machine is not safe for concurrent use. Access from multiple goroutines
// must be serialized by the embedder; hooks may however re-enter Set on the
// same instance, which runs nested-to-completion via ordinary recursion.
type Machine[S comparable, P Props[S]] struct {
	table    map[S]P
	defaults func(S) P

	current S
	started bool

	onEntered func(S, P)
	hooks     Hooks[S]
	maxHops   int
}

// New creates a Machine over the given table and immediately transitions to
// initial, so the current state is well-defined (and the entered notification
// has fired once) by the time New returns. No exit hook runs on this first
// transition.
//
// The table and the defaults factory are read, never written; the defaults
// factory resolves lookups of states absent from the table and its results
// are never cached. It must not be nil.
//
// The only possible error is ErrRedirectLoop, and only when WithMaxRedirects
// is in effect.
func New[S comparable, P Props[S]](table map[S]P, initial S, defaults func(S) P, opts ...Option[S, P]) (*Machine[S, P], error) {
	m := &Machine[S, P]{
		table:    table,
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.Set(initial); err != nil {
		return nil, err
	}
	return m, nil
}

// Get resolves the properties for id: the table entry if present, otherwise
// a fresh result from the defaults factory. Pure; repeated lookups of an
// absent id yield independently constructed bundles unless the factory
// itself shares them.
func (m *Machine[S, P]) Get(id S) P {
	if p, ok := m.table[id]; ok {
		return p
	}
	return m.defaults(id)
}

// Current returns the active state.
func (m *Machine[S, P]) Current() S {
	return m.current
}

// Values returns the properties of the active state, shorthand for
// Get(Current()).
func (m *Machine[S, P]) Values() P {
	return m.Get(m.current)
}

// States returns the identifiers present in the table, in no particular
// order. States synthesized by the defaults factory are not included.
func (m *Machine[S, P]) States() []S {
	ids := make([]S, 0, len(m.table))
	for id := range m.table {
		ids = append(ids, id)
	}
	return ids
}

// Set transitions the machine towards target. It runs the outgoing state's
// exit hook, then resolves target's entry hook, following redirects until a
// candidate is accepted (its entry hook is nil, declines to redirect, or
// redirects to itself). The accepted candidate becomes current and the
// entered notification fires exactly once, with the final state only.
//
// Targeting the already-active state is not a no-op: its exit hook runs,
// followed by a fresh entry resolution.
//
// Redirect chains are followed without limit unless WithMaxRedirects was
// given; a chain exceeding that limit aborts with ErrRedirectLoop and the
// current state is left unchanged. Panics raised by hooks propagate with no
// rollback.
func (m *Machine[S, P]) Set(target S) error {
	if m.started {
		m.hooks.emitExit(m.current)
		if exit := m.Get(m.current).ExitHook(); exit != nil {
			exit()
		}
	}

	candidate := target
	hops := 0
	for {
		m.hooks.emitEnter(candidate)

		enter := m.Get(candidate).EnterHook()
		if enter == nil {
			break
		}
		redirect, ok := enter()
		if !ok || redirect == candidate {
			break
		}

		if m.maxHops > 0 && hops >= m.maxHops {
			return fmt.Errorf("resolving %v: followed %d redirects: %w", target, hops, ErrRedirectLoop)
		}
		m.hooks.emitRedirect(candidate, redirect)
		candidate = redirect
		hops++
	}

	m.current = candidate
	m.started = true

	m.hooks.emitEntered(candidate, hops)
	if m.onEntered != nil {
		m.onEntered(candidate, m.Get(candidate))
	}
	return nil
}

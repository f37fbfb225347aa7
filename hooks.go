package machina

// Hooks defines callbacks for transition observability. All fields are
// optional. Hooks observe the algorithm, they cannot steer it: redirection
// remains the exclusive business of the states' own entry hooks.
type Hooks[S comparable] struct {
	// OnExit fires when a state is about to be left, before its exit hook.
	OnExit func(state S)

	// OnEnter fires for every candidate whose entry hook is about to be
	// evaluated, including the one finally accepted.
	OnEnter func(candidate S)

	// OnRedirect fires when a candidate's entry hook forwards the
	// transition elsewhere.
	OnRedirect func(from, to S)

	// OnEntered fires after the final state has been committed. hops is the
	// number of redirects followed to reach it.
	OnEntered func(state S, hops int)
}

// JoinHooks fans out to multiple hook sets in order. Useful to combine e.g.
// a logging and a metrics observer on the same machine.
func JoinHooks[S comparable](hooks ...Hooks[S]) Hooks[S] {
	return Hooks[S]{
		OnExit: func(state S) {
			for _, h := range hooks {
				if h.OnExit != nil {
					h.OnExit(state)
				}
			}
		},
		OnEnter: func(candidate S) {
			for _, h := range hooks {
				if h.OnEnter != nil {
					h.OnEnter(candidate)
				}
			}
		},
		OnRedirect: func(from, to S) {
			for _, h := range hooks {
				if h.OnRedirect != nil {
					h.OnRedirect(from, to)
				}
			}
		},
		OnEntered: func(state S, hops int) {
			for _, h := range hooks {
				if h.OnEntered != nil {
					h.OnEntered(state, hops)
				}
			}
		},
	}
}

func (h Hooks[S]) emitExit(state S) {
	if h.OnExit != nil {
		h.OnExit(state)
	}
}

func (h Hooks[S]) emitEnter(candidate S) {
	if h.OnEnter != nil {
		h.OnEnter(candidate)
	}
}

func (h Hooks[S]) emitRedirect(from, to S) {
	if h.OnRedirect != nil {
		h.OnRedirect(from, to)
	}
}

func (h Hooks[S]) emitEntered(state S, hops int) {
	if h.OnEntered != nil {
		h.OnEntered(state, hops)
	}
}

package machina

// Option defines a functional option for configuring a Machine. Options are
// applied before the initial transition, so they are in effect for it.
type Option[S comparable, P Props[S]] func(*Machine[S, P])

// WithOnEntered registers the entered notification. It is invoked exactly
// once per completed Set call (including the constructor's initial
// transition), with the final resolved state and its properties, never an
// intermediate redirect hop.
func WithOnEntered[S comparable, P Props[S]](fn func(S, P)) Option[S, P] {
	return func(m *Machine[S, P]) {
		m.onEntered = fn
	}
}

// WithHooks registers observability hooks.
func WithHooks[S comparable, P Props[S]](hooks Hooks[S]) Option[S, P] {
	return func(m *Machine[S, P]) {
		m.hooks = hooks
	}
}

// WithMaxRedirects bounds entry resolution to at most n redirects per
// transition, turning a cyclic chain into an ErrRedirectLoop instead of a
// livelock. The default (0) follows chains without limit, matching the
// machine's original contract where cycle avoidance is the table author's
// responsibility.
func WithMaxRedirects[S comparable, P Props[S]](n int) Option[S, P] {
	return func(m *Machine[S, P]) {
		m.maxHops = n
	}
}

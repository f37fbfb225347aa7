package machina

// EnterFunc is an entry lifecycle hook. It runs when its state is about to
// become current. Returning (target, true) redirects the transition to
// target; returning ok=false accepts entry as-is.
type EnterFunc[S comparable] func() (S, bool)

// ExitFunc is an exit lifecycle hook, fired as a pure side effect when its
// state is left. It cannot veto or alter the transition.
type ExitFunc func()

// Props is the capability surface the engine requires from a properties
// bundle. Everything else a concrete bundle carries (display text, extra
// callbacks, domain payload) is opaque to the engine.
//
// Either accessor may return nil to signal "no hook".
type Props[S comparable] interface {
	// EnterHook returns the entry hook for this state, or nil.
	EnterHook() EnterFunc[S]

	// ExitHook returns the exit hook for this state, or nil.
	ExitHook() ExitFunc
}

// Bundle is a ready-made Props implementation pairing the two lifecycle
// hooks with an opaque payload value. Most callers with simple needs can use
// it directly instead of defining their own bundle type.
type Bundle[S comparable, V any] struct {
	Enter EnterFunc[S]
	Exit  ExitFunc
	Value V
}

// EnterHook implements Props.
func (b Bundle[S, V]) EnterHook() EnterFunc[S] { return b.Enter }

// ExitHook implements Props.
func (b Bundle[S, V]) ExitHook() ExitFunc { return b.Exit }

// Redirect is a convenience for entry hooks that unconditionally forward to
// another state: Bundle{Enter: machina.Redirect(target)}.
func Redirect[S comparable](target S) EnterFunc[S] {
	return func() (S, bool) {
		return target, true
	}
}

package observability

import (
	"log/slog"

	"github.com/julescmay/machina"
)

// TraceHooks returns hooks that log every lifecycle event at debug level
// and each completed transition at info level.
func TraceHooks[S comparable](logger *slog.Logger) machina.Hooks[S] {
	return machina.Hooks[S]{
		OnExit: func(state S) {
			logger.Debug("state_exit", "state", state)
		},
		OnEnter: func(candidate S) {
			logger.Debug("state_enter", "candidate", candidate)
		},
		OnRedirect: func(from, to S) {
			logger.Debug("state_redirect", "from", from, "to", to)
		},
		OnEntered: func(state S, hops int) {
			logger.Info("state_entered", "state", state, "hops", hops)
		},
	}
}

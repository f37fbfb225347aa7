/*
Package machina is a small generic finite-state-machine engine. It tracks
exactly one active state out of a closed set, associates each state with a
bundle of behavior (entry/exit lifecycle hooks plus arbitrary payload), and
resolves entry-time redirection chains before committing a transition.

# Concept

A state's entry hook may refuse to be entered and name a replacement state
instead ("I refuse to be entered under condition C; put the machine in T").
The engine follows such redirects until one candidate accepts, then commits
that candidate and notifies the observer once, with the final state only.
The machine is never observably "in" a rejected state, so a state can act as
its own gatekeeper without external coordination.

# Key Properties

  - Generic: parameterized over the state-identifier type and a properties
    type bounded by the minimal Props capability surface.
  - Synchronous: Set runs to completion, every redirect hop and the final
    notification included, before returning.
  - Reentrant: hooks may call Set on the same machine; nested calls run to
    completion before the outer call resumes.
  - Thin: hook panics propagate untouched, with no rollback and no logging.

# Usage

	type screen = machina.Bundle[string, string]

	table := map[string]screen{
		"login":   {Value: "Please sign in"},
		"home":    {Value: "Welcome back", Enter: gate},
		"goodbye": {Value: "Bye!"},
	}

	m, _ := machina.New(table, "home",
		func(id string) screen { return screen{Value: "Unknown: " + id} },
		machina.WithOnEntered[string, screen](func(s string, p screen) {
			fmt.Println("now at", s, "-", p.Value)
		}),
	)

	m.Set("goodbye")

where gate is an EnterFunc that redirects to "login" while no user is signed
in. Consumers of the engine (declarative YAML flows, persistence, CLI and
HTTP frontends, observability) live in the pkg/ subpackages.
*/
package machina

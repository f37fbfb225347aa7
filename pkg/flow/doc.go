/*
Package flow builds string-keyed machina machines from declarative YAML
definitions.

A definition names a start state and a set of states. Each state carries
display payload (title, markdown text), the choices it offers, and optional
lifecycle clauses: a redirect gate evaluated on entry ("send me to login
unless the authed flag is set"), flags to raise when the state is entered,
and flags to drop when it is left. Flags live in a Context shared by all
states of one machine run, which is what makes the gates dynamic.

The package also defines Snapshot, the restorable position of a run, which
the adapters under pkg/adapters persist.
*/
package flow

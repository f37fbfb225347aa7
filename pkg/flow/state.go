package flow

import (
	"strings"

	"github.com/julescmay/machina"
)

// Context holds the mutable flags shared by every state of one machine run.
// Redirect gates read it; Sets/Clears clauses write it. It is not safe for
// concurrent use, mirroring the machine it belongs to.
type Context struct {
	flags map[string]bool
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{flags: make(map[string]bool)}
}

// Set raises a flag.
func (c *Context) Set(flag string) {
	c.flags[flag] = true
}

// Clear drops a flag.
func (c *Context) Clear(flag string) {
	delete(c.flags, flag)
}

// IsSet reports whether a flag is raised.
func (c *Context) IsSet(flag string) bool {
	return c.flags[flag]
}

// Flags returns a copy of the raised flags, suitable for snapshots.
func (c *Context) Flags() map[string]bool {
	out := make(map[string]bool, len(c.flags))
	for f, v := range c.flags {
		if v {
			out[f] = v
		}
	}
	return out
}

func (c *Context) restore(flags map[string]bool) {
	for f, v := range flags {
		if v {
			c.flags[f] = true
		}
	}
}

// State is the runtime properties bundle of a flow machine. It implements
// machina.Props[string]; the display payload is what frontends render.
type State struct {
	Name     string
	Title    string
	Text     string
	Choices  map[string]string
	Terminal bool
	Meta     map[string]string

	redirect  *RedirectRule
	sets      []string
	clears    []string
	ctx       *Context
	synthetic bool
}

func newState(name string, sd StateDef, ctx *Context) *State {
	return &State{
		Name:     name,
		Title:    sd.Title,
		Text:     sd.Text,
		Choices:  sd.Choices,
		Terminal: sd.Terminal,
		Meta:     sd.Meta,
		redirect: sd.Redirect,
		sets:     sd.Sets,
		clears:   sd.Clears,
		ctx:      ctx,
	}
}

func newSyntheticState(name, fallback string, ctx *Context) *State {
	text := strings.ReplaceAll(fallback, "{state}", name)
	return &State{
		Name:      name,
		Text:      text,
		Terminal:  true,
		ctx:       ctx,
		synthetic: true,
	}
}

// Synthetic reports whether the state was produced by the fallback factory
// rather than defined in the flow.
func (s *State) Synthetic() bool {
	return s.synthetic
}

// EnterHook implements machina.Props. The gate fires before the Sets clause:
// a redirected-away state raises no flags, because it was never entered.
func (s *State) EnterHook() machina.EnterFunc[string] {
	if s.redirect == nil && len(s.sets) == 0 {
		return nil
	}
	return func() (string, bool) {
		if s.redirect != nil {
			if s.redirect.Unless == "" || !s.ctx.IsSet(s.redirect.Unless) {
				return s.redirect.To, true
			}
		}
		for _, f := range s.sets {
			s.ctx.Set(f)
		}
		return "", false
	}
}

// ExitHook implements machina.Props.
func (s *State) ExitHook() machina.ExitFunc {
	if len(s.clears) == 0 {
		return nil
	}
	return func() {
		for _, f := range s.clears {
			s.ctx.Clear(f)
		}
	}
}

package machina_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julescmay/machina"
)

type props = machina.Bundle[string, string]

func noDefaults(id string) props {
	return props{Value: "missing:" + id}
}

func TestNew_InitialState(t *testing.T) {
	table := map[string]props{
		"s1": {Value: "first"},
	}

	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	assert.Equal(t, "s1", m.Current())
	assert.Equal(t, "first", m.Values().Value)
}

func TestNew_InitialRedirect(t *testing.T) {
	// The initial state's own entry resolution decides where the machine
	// actually starts.
	table := map[string]props{
		"locked": {Enter: machina.Redirect[string]("login")},
		"login":  {Value: "sign in"},
	}

	m, err := machina.New(table, "locked", noDefaults)
	require.NoError(t, err)

	assert.Equal(t, "login", m.Current())
	assert.Equal(t, "sign in", m.Values().Value)
}

func TestNew_NoExitOnFirstTransition(t *testing.T) {
	exits := 0
	table := map[string]props{
		"s1": {Exit: func() { exits++ }},
	}

	_, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)
	assert.Zero(t, exits, "no prior state exists at construction time")
}

func TestSet_ExitThenEnter(t *testing.T) {
	var trace []string
	table := map[string]props{
		"s1": {Exit: func() { trace = append(trace, "s1.exit") }},
		"s2": {
			Enter: func() (string, bool) {
				trace = append(trace, "s2.enter")
				return "", false
			},
			Value: "second",
		},
	}

	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	require.NoError(t, m.Set("s2"))
	assert.Equal(t, "s2", m.Current())
	assert.Equal(t, []string{"s1.exit", "s2.enter"}, trace)
}

func TestSet_RedirectSettlesOnFinalState(t *testing.T) {
	var trace []string
	var entered []string

	table := map[string]props{
		"s1": {
			Enter: func() (string, bool) {
				trace = append(trace, "s1.enter")
				return "", false
			},
			Exit: func() { trace = append(trace, "s1.exit") },
		},
		"s2": {
			Enter: func() (string, bool) {
				trace = append(trace, "s2.enter")
				return "s1", true
			},
		},
	}

	m, err := machina.New(table, "s1", noDefaults,
		machina.WithOnEntered[string, props](func(s string, _ props) {
			entered = append(entered, s)
		}),
	)
	require.NoError(t, err)
	trace, entered = nil, nil

	require.NoError(t, m.Set("s2"))

	assert.Equal(t, "s1", m.Current())
	assert.Equal(t, []string{"s1.exit", "s2.enter", "s1.enter"}, trace)
	// Notification carries the final resolved state, never the hop.
	assert.Equal(t, []string{"s1"}, entered)
}

func TestSet_ThreeStateRedirectChain(t *testing.T) {
	var trace []string
	var entered []string

	enter := func(id, redirect string) machina.EnterFunc[string] {
		return func() (string, bool) {
			trace = append(trace, id+".enter")
			if redirect == "" {
				return "", false
			}
			return redirect, true
		}
	}

	table := map[string]props{
		"s1": {Enter: enter("s1", "")},
		"s2": {Enter: enter("s2", "s1")},
		"s3": {Enter: enter("s3", "s2")},
		"s0": {},
	}

	m, err := machina.New(table, "s0", noDefaults,
		machina.WithOnEntered[string, props](func(s string, _ props) {
			entered = append(entered, s)
		}),
	)
	require.NoError(t, err)
	trace, entered = nil, nil

	require.NoError(t, m.Set("s3"))

	assert.Equal(t, "s1", m.Current())
	assert.Equal(t, []string{"s3.enter", "s2.enter", "s1.enter"}, trace)
	assert.Equal(t, []string{"s1"}, entered)
}

func TestSet_SelfTransitionIsNotANoop(t *testing.T) {
	exits, enters := 0, 0
	table := map[string]props{
		"s1": {
			Enter: func() (string, bool) { enters++; return "", false },
			Exit:  func() { exits++ },
		},
	}

	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)
	require.Equal(t, 1, enters)
	require.Zero(t, exits)

	require.NoError(t, m.Set("s1"))
	assert.Equal(t, 1, exits)
	assert.Equal(t, 2, enters)
	assert.Equal(t, "s1", m.Current())
}

func TestSet_RedirectToSelfHalts(t *testing.T) {
	enters := 0
	table := map[string]props{
		"s1": {},
		"s2": {
			// A hook naming its own state accepts, it does not loop.
			Enter: func() (string, bool) { enters++; return "s2", true },
		},
	}

	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	require.NoError(t, m.Set("s2"))
	assert.Equal(t, "s2", m.Current())
	assert.Equal(t, 1, enters)
}

func TestGet_AbsentStateUsesDefaults(t *testing.T) {
	calls := 0
	defaults := func(id string) props {
		calls++
		return props{Value: "fallback"}
	}

	m, err := machina.New(map[string]props{}, "X", defaults)
	require.NoError(t, err)

	assert.Equal(t, "X", m.Current())
	assert.Equal(t, "fallback", m.Values().Value)

	// Results are never cached into the table: every lookup of an absent
	// id invokes the factory again.
	before := calls
	m.Get("X")
	m.Get("X")
	assert.Equal(t, before+2, calls)
}

func TestGet_TableEntryWinsOverDefaults(t *testing.T) {
	table := map[string]props{"s1": {Value: "present"}}
	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	assert.Equal(t, "present", m.Get("s1").Value)
	assert.Equal(t, "missing:ghost", m.Get("ghost").Value)
}

func TestSet_ReentrantFromEnterHook(t *testing.T) {
	// A hook may call Set on the machine it runs in. The nested call runs
	// to completion first, then the outer transition resumes and commits
	// its own candidate.
	var trace []string
	var entered []string

	var m *machina.Machine[string, props]
	table := map[string]props{
		"s1": {Exit: func() { trace = append(trace, "s1.exit") }},
		"s2": {
			Enter: func() (string, bool) {
				trace = append(trace, "s2.enter")
				require.NoError(t, m.Set("s3"))
				return "", false
			},
		},
		"s3": {
			Enter: func() (string, bool) {
				trace = append(trace, "s3.enter")
				return "", false
			},
		},
	}

	m, err := machina.New(table, "s1", noDefaults,
		machina.WithOnEntered[string, props](func(s string, _ props) {
			entered = append(entered, s)
		}),
	)
	require.NoError(t, err)
	trace, entered = nil, nil

	require.NoError(t, m.Set("s2"))

	// The nested transition sees s1 as the outgoing state (nothing has
	// been committed yet), so s1's exit hook fires twice in total.
	assert.Equal(t, []string{"s1.exit", "s2.enter", "s1.exit", "s3.enter"}, trace)
	assert.Equal(t, []string{"s3", "s2"}, entered)
	assert.Equal(t, "s2", m.Current())
}

func TestSet_MaxRedirectsBreaksCycle(t *testing.T) {
	table := map[string]props{
		"a":  {Enter: machina.Redirect[string]("b")},
		"b":  {Enter: machina.Redirect[string]("a")},
		"ok": {},
	}

	m, err := machina.New(table, "ok", noDefaults,
		machina.WithMaxRedirects[string, props](4),
	)
	require.NoError(t, err)

	err = m.Set("a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, machina.ErrRedirectLoop))
	// Nothing was committed.
	assert.Equal(t, "ok", m.Current())
}

func TestNew_MaxRedirectsCycleAtConstruction(t *testing.T) {
	table := map[string]props{
		"a": {Enter: machina.Redirect[string]("b")},
		"b": {Enter: machina.Redirect[string]("a")},
	}

	_, err := machina.New(table, "a", noDefaults,
		machina.WithMaxRedirects[string, props](8),
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, machina.ErrRedirectLoop))
}

func TestSet_BoundedChainWithinLimitSucceeds(t *testing.T) {
	table := map[string]props{
		"s1": {},
		"s2": {Enter: machina.Redirect[string]("s1")},
		"s3": {Enter: machina.Redirect[string]("s2")},
		"s0": {},
	}

	m, err := machina.New(table, "s0", noDefaults,
		machina.WithMaxRedirects[string, props](2),
	)
	require.NoError(t, err)

	require.NoError(t, m.Set("s3"))
	assert.Equal(t, "s1", m.Current())
}

func TestSet_HookPanicPropagatesWithoutCommit(t *testing.T) {
	table := map[string]props{
		"s1": {},
		"s2": {
			Enter: func() (string, bool) { panic("boom") },
		},
	}

	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() { _ = m.Set("s2") })
	// The panic precedes the commit, so the machine never left s1.
	assert.Equal(t, "s1", m.Current())
}

func TestHooks_ObserveTransition(t *testing.T) {
	var exits, enters, redirects []string
	var committed string
	var hops int

	hooks := machina.Hooks[string]{
		OnExit:  func(s string) { exits = append(exits, s) },
		OnEnter: func(s string) { enters = append(enters, s) },
		OnRedirect: func(from, to string) {
			redirects = append(redirects, from+"->"+to)
		},
		OnEntered: func(s string, h int) { committed, hops = s, h },
	}

	table := map[string]props{
		"s1": {},
		"s2": {Enter: machina.Redirect[string]("s1")},
	}

	m, err := machina.New(table, "s1", noDefaults,
		machina.WithHooks[string, props](hooks),
	)
	require.NoError(t, err)

	require.NoError(t, m.Set("s2"))

	assert.Equal(t, []string{"s1"}, exits)
	assert.Equal(t, []string{"s1", "s2", "s1"}, enters)
	assert.Equal(t, []string{"s2->s1"}, redirects)
	assert.Equal(t, "s1", committed)
	assert.Equal(t, 1, hops)
}

func TestJoinHooks_FansOut(t *testing.T) {
	first, second := 0, 0
	joined := machina.JoinHooks(
		machina.Hooks[string]{OnEntered: func(string, int) { first++ }},
		machina.Hooks[string]{OnEntered: func(string, int) { second++ }},
	)

	table := map[string]props{"s1": {}, "s2": {}}
	m, err := machina.New(table, "s1", noDefaults,
		machina.WithHooks[string, props](joined),
	)
	require.NoError(t, err)
	require.NoError(t, m.Set("s2"))

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestMachines_AreIndependent(t *testing.T) {
	table := map[string]props{"s1": {}, "s2": {}}

	a, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)
	b, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	require.NoError(t, a.Set("s2"))
	assert.Equal(t, "s2", a.Current())
	assert.Equal(t, "s1", b.Current())
}

func TestStates_ListsTableKeys(t *testing.T) {
	table := map[string]props{"s1": {}, "s2": {}, "s3": {}}
	m, err := machina.New(table, "s1", noDefaults)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, m.States())
}

func TestMachine_IntStateIds(t *testing.T) {
	// The state domain is any comparable type, not just strings.
	type level = machina.Bundle[int, string]
	table := map[int]level{
		0: {Value: "ground"},
		1: {Enter: machina.Redirect[int](0)},
	}

	m, err := machina.New(table, 1, func(id int) level { return level{} })
	require.NoError(t, err)
	assert.Equal(t, 0, m.Current())
	assert.Equal(t, "ground", m.Values().Value)
}

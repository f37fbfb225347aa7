package flow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julescmay/machina"
	"github.com/julescmay/machina/pkg/flow"
)

func buildWizard(t *testing.T, opts ...flow.Option) *flow.Machine {
	t.Helper()
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)
	m, err := flow.Build(def, opts...)
	require.NoError(t, err)
	return m
}

func TestBuild_StartsAtStart(t *testing.T) {
	m := buildWizard(t)
	assert.Equal(t, "welcome", m.Current())
	assert.Equal(t, "Welcome", m.State().Title)
	assert.False(t, m.Terminal())
}

func TestMachine_GateRedirectsUntilFlagIsRaised(t *testing.T) {
	m := buildWizard(t)

	// The vault gate is closed: entry lands in the keyroom instead, and
	// the machine was never observably in the vault.
	require.NoError(t, m.Choose("left"))
	assert.Equal(t, "keyroom", m.Current())
	assert.True(t, m.Context().IsSet("has_key"))

	// Entering the keyroom raised the flag, so the gate now passes.
	require.NoError(t, m.Choose("back"))
	require.NoError(t, m.Choose("left"))
	assert.Equal(t, "vault", m.Current())
	assert.True(t, m.Terminal())
}

func TestMachine_UnconditionalRedirectChains(t *testing.T) {
	m := buildWizard(t)

	require.NoError(t, m.Choose("right"))
	assert.Equal(t, "goodbye", m.Current())
	assert.True(t, m.Terminal())
}

func TestMachine_ChooseRejectsUnknownInput(t *testing.T) {
	m := buildWizard(t)

	err := m.Choose("up")
	require.ErrorIs(t, err, flow.ErrUnknownChoice)
	assert.Equal(t, "welcome", m.Current())
}

func TestMachine_FallbackSynthesizesStates(t *testing.T) {
	m := buildWizard(t)

	require.NoError(t, m.Goto("attic"))
	st := m.State()
	assert.Equal(t, "attic", m.Current())
	assert.True(t, st.Synthetic())
	assert.Equal(t, "No such step: attic", st.Text)
	assert.True(t, st.Terminal)

	// Lookup never caches synthesized states into the table.
	assert.NotSame(t, m.Lookup("cellar"), m.Lookup("cellar"))
}

func TestMachine_ClearsFlagsOnExit(t *testing.T) {
	def, err := flow.Parse([]byte(`
start: a
states:
  a:
    sets: [busy]
    clears: [busy]
    choices:
      next: b
  b:
    text: done
`))
	require.NoError(t, err)

	m, err := flow.Build(def)
	require.NoError(t, err)
	require.True(t, m.Context().IsSet("busy"))

	require.NoError(t, m.Choose("next"))
	assert.False(t, m.Context().IsSet("busy"))
}

func TestMachine_HooksObserveGateHops(t *testing.T) {
	var redirects []string
	m := buildWizard(t, flow.WithHooks(machina.Hooks[string]{
		OnRedirect: func(from, to string) {
			redirects = append(redirects, from+"->"+to)
		},
	}))

	require.NoError(t, m.Choose("left"))
	assert.Equal(t, []string{"vault->keyroom"}, redirects)
}

func TestMachine_OnEnteredFiresOncePerTransition(t *testing.T) {
	var entered []string
	buildWizard(t, flow.WithOnEntered(func(s string, _ *flow.State) {
		entered = append(entered, s)
	}))

	assert.Equal(t, []string{"welcome"}, entered)
}

func TestMachine_MaxRedirectsGuards(t *testing.T) {
	def, err := flow.Parse([]byte(`
start: ok
states:
  ok:
    choices:
      go: ping
  ping:
    redirect: pong
  pong:
    redirect: ping
`))
	require.NoError(t, err)

	m, err := flow.Build(def, flow.WithMaxRedirects(8))
	require.NoError(t, err)

	err = m.Choose("go")
	require.ErrorIs(t, err, machina.ErrRedirectLoop)
	assert.Equal(t, "ok", m.Current())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	m := buildWizard(t)
	require.NoError(t, m.Choose("left")) // lands in keyroom, raises has_key

	snap := m.Snapshot()
	assert.Equal(t, "wizard", snap.Flow)
	assert.Equal(t, "keyroom", snap.Current)
	assert.True(t, snap.Flags["has_key"])
	assert.False(t, snap.UpdatedAt.IsZero())

	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)
	restored, err := flow.Restore(def, snap)
	require.NoError(t, err)

	assert.Equal(t, "keyroom", restored.Current())
	assert.True(t, restored.Context().IsSet("has_key"))

	// The restored context keeps the gate open.
	require.NoError(t, restored.Choose("back"))
	require.NoError(t, restored.Choose("left"))
	assert.Equal(t, "vault", restored.Current())
}

func TestRestore_ReappliesEntryGates(t *testing.T) {
	// A snapshot taken without the flag lands behind the gate again.
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)

	snap := &flow.Snapshot{Flow: "wizard", Current: "vault"}
	m, err := flow.Restore(def, snap)
	require.NoError(t, err)
	assert.Equal(t, "keyroom", m.Current())
}

func TestRestore_PositioningIsInvisibleToHooks(t *testing.T) {
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)

	var entered []string
	snap := &flow.Snapshot{Flow: "wizard", Current: "keyroom", Flags: map[string]bool{"has_key": true}}
	m, err := flow.Restore(def, snap, flow.WithHooks(machina.Hooks[string]{
		OnEntered: func(state string, _ int) {
			entered = append(entered, state)
		},
	}))
	require.NoError(t, err)

	// Repositioning fired nothing; real transitions still do.
	assert.Empty(t, entered)
	require.NoError(t, m.Choose("back"))
	assert.Equal(t, []string{"welcome"}, entered)
}

func TestRestore_RejectsForeignSnapshot(t *testing.T) {
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)

	_, err = flow.Restore(def, &flow.Snapshot{Flow: "other", Current: "welcome"})
	require.ErrorIs(t, err, flow.ErrFlowMismatch)
}

func TestMachine_StatesSorted(t *testing.T) {
	m := buildWizard(t)
	assert.Equal(t, []string{"exit", "goodbye", "keyroom", "vault", "welcome"}, m.States())
}

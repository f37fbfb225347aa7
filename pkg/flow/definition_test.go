package flow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julescmay/machina/pkg/flow"
)

const wizardYAML = `
name: wizard
start: welcome
fallback: "No such step: {state}"
states:
  welcome:
    title: Welcome
    text: |
      # Hello
      Pick a door.
    choices:
      left: vault
      right: exit
  vault:
    redirect:
      to: keyroom
      unless: has_key
    text: The vault stands open.
    terminal: true
  keyroom:
    text: You find a key on the floor.
    sets: [has_key]
    choices:
      back: welcome
  exit:
    redirect: goodbye
  goodbye:
    text: Bye.
    terminal: true
`

func TestParse_DecodesDefinition(t *testing.T) {
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)

	assert.Equal(t, "wizard", def.Name)
	assert.Equal(t, "welcome", def.Start)
	assert.Len(t, def.States, 5)

	welcome := def.States["welcome"]
	assert.Equal(t, "Welcome", welcome.Title)
	assert.Contains(t, welcome.Text, "Pick a door")
	assert.Equal(t, "vault", welcome.Choices["left"])

	vault := def.States["vault"]
	require.NotNil(t, vault.Redirect)
	assert.Equal(t, "keyroom", vault.Redirect.To)
	assert.Equal(t, "has_key", vault.Redirect.Unless)
	assert.True(t, vault.Terminal)

	keyroom := def.States["keyroom"]
	assert.Equal(t, []string{"has_key"}, keyroom.Sets)
}

func TestParse_RedirectShorthand(t *testing.T) {
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)

	exit := def.States["exit"]
	require.NotNil(t, exit.Redirect)
	assert.Equal(t, "goodbye", exit.Redirect.To)
	assert.Empty(t, exit.Redirect.Unless)
}

func TestParse_RejectsMissingStart(t *testing.T) {
	_, err := flow.Parse([]byte("states:\n  a:\n    text: hi\n"))
	require.ErrorIs(t, err, flow.ErrNoStart)
}

func TestParse_RejectsMalformedYAML(t *testing.T) {
	_, err := flow.Parse([]byte("states: ["))
	require.Error(t, err)
}

func TestLoad_DefaultsNameToBasename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onboarding.yaml")
	require.NoError(t, os.WriteFile(path, []byte("start: a\nstates:\n  a:\n    text: hi\n"), 0644))

	def, err := flow.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "onboarding", def.Name)
}

func TestValidate_ReportsDanglingTargets(t *testing.T) {
	def, err := flow.Parse([]byte(`
start: nowhere
states:
  a:
    redirect: ghost
    choices:
      go: gone
  b:
    terminal: true
    choices:
      oops: a
`))
	require.NoError(t, err)

	problems := def.Validate()
	require.Len(t, problems, 4)

	var messages []string
	for _, p := range problems {
		messages = append(messages, p.Error())
	}
	assert.Contains(t, messages[0], `start state "nowhere"`)
	assert.Contains(t, messages[1], `redirect targets unknown state "ghost"`)
	assert.Contains(t, messages[2], `choice "go" targets unknown state "gone"`)
	assert.Contains(t, messages[3], `terminal state still offers choices`)
}

func TestValidate_CleanDefinition(t *testing.T) {
	def, err := flow.Parse([]byte(wizardYAML))
	require.NoError(t, err)
	assert.Empty(t, def.Validate())
}

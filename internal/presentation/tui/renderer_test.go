package tui_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/julescmay/machina/internal/presentation/tui"
)

func TestSystem_CarriesMessageAndPrefix(t *testing.T) {
	// Styling degrades to plain text off a TTY, so only the content is
	// asserted, not the escape codes around it.
	assert.Contains(t, tui.System("session active"), ">>> session active")
}

func TestTitleAndFaint_CarryMessage(t *testing.T) {
	assert.Contains(t, tui.Title("Welcome"), "Welcome")
	assert.Contains(t, tui.Faint("Choices: left, right"), "Choices: left, right")
}

func TestNewRenderer_RendersMarkdown(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("# Heading")
	assert.NoError(t, err)
	assert.Contains(t, out, "Heading")
}

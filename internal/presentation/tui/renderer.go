package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown for the terminal
// using glamour, autodetecting light/dark background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text when the renderer cannot initialize.
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether stdout is attached to a TTY. Headless and
// piped runs skip markdown rendering and colors.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var output = termenv.NewOutput(os.Stdout)

// System styles a system message (cyan, to stand apart from flow content).
func System(msg string) string {
	return output.String(">>> " + msg).Foreground(output.Color("6")).String()
}

// Title styles a state title.
func Title(msg string) string {
	return output.String(msg).Bold().String()
}

// Faint styles secondary text like choice listings.
func Faint(msg string) string {
	return output.String(msg).Faint().String()
}

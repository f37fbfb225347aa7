package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Definition is a declarative machine description, usually loaded from a
// YAML file. It is inert data; Build turns it into a running machine.
type Definition struct {
	// Name identifies the flow. Snapshots record it so a saved run is not
	// restored into a different flow. Defaults to the file basename.
	Name string `mapstructure:"name"`

	// Start is the state targeted by the initial transition.
	Start string `mapstructure:"start"`

	// Fallback is the text synthesized for states absent from the table.
	// The literal "{state}" is replaced with the looked-up identifier.
	Fallback string `mapstructure:"fallback"`

	States map[string]StateDef `mapstructure:"states"`
}

// StateDef describes one state.
type StateDef struct {
	Title string `mapstructure:"title"`

	// Text is the markdown body shown when the state is current.
	Text string `mapstructure:"text"`

	// Choices maps user input to target states.
	Choices map[string]string `mapstructure:"choices"`

	// Redirect is the entry gate. In YAML it may be written as a bare
	// string (unconditional) or as {to: ..., unless: ...}.
	Redirect *RedirectRule `mapstructure:"redirect"`

	// Sets lists context flags raised when the state accepts entry.
	Sets []string `mapstructure:"sets"`

	// Clears lists context flags dropped when the state is left.
	Clears []string `mapstructure:"clears"`

	// Terminal marks the state as an end of the flow.
	Terminal bool `mapstructure:"terminal"`

	// Meta carries free-form key-value pairs, opaque to the engine.
	Meta map[string]string `mapstructure:"meta"`
}

// RedirectRule gates entry into a state. When the rule applies, the machine
// is put into To instead and the gated state is never observably entered.
type RedirectRule struct {
	To string `mapstructure:"to"`

	// Unless names a context flag that disables the rule when set. Empty
	// means the redirect is unconditional.
	Unless string `mapstructure:"unless"`
}

// Parse decodes a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse flow definition: %w", err)
	}

	def := &Definition{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  redirectShorthandHook,
		Result:      def,
		ErrorUnused: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid flow definition: %w", err)
	}

	if def.Start == "" {
		return nil, ErrNoStart
	}
	return def, nil
}

// Load reads and parses a definition file. A missing name defaults to the
// file basename without extension.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow definition: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return def, nil
}

// redirectShorthandHook lets YAML authors write `redirect: login` instead of
// the full `redirect: {to: login}` form.
func redirectShorthandHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(RedirectRule{}) || from.Kind() != reflect.String {
		return data, nil
	}
	return RedirectRule{To: data.(string)}, nil
}

// Validate reports lint-level problems: a start state or transition target
// that no state defines. The engine itself tolerates these (unknown states
// resolve through the fallback), so findings are advisory and returned
// rather than raised.
func (d *Definition) Validate() []error {
	var problems []error

	if _, ok := d.States[d.Start]; !ok {
		problems = append(problems, fmt.Errorf("start state %q is not defined", d.Start))
	}

	names := make([]string, 0, len(d.States))
	for name := range d.States {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sd := d.States[name]
		if sd.Redirect != nil {
			if _, ok := d.States[sd.Redirect.To]; !ok {
				problems = append(problems, fmt.Errorf("state %q: redirect targets unknown state %q", name, sd.Redirect.To))
			}
		}

		inputs := make([]string, 0, len(sd.Choices))
		for input := range sd.Choices {
			inputs = append(inputs, input)
		}
		sort.Strings(inputs)
		for _, input := range inputs {
			target := sd.Choices[input]
			if _, ok := d.States[target]; !ok {
				problems = append(problems, fmt.Errorf("state %q: choice %q targets unknown state %q", name, input, target))
			}
		}

		if sd.Terminal && len(sd.Choices) > 0 {
			problems = append(problems, fmt.Errorf("state %q: terminal state still offers choices", name))
		}
	}

	return problems
}

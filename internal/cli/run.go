package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/julescmay/machina"
	"github.com/julescmay/machina/internal/presentation/tui"
	"github.com/julescmay/machina/pkg/adapters/file"
	"github.com/julescmay/machina/pkg/flow"
	"github.com/julescmay/machina/pkg/observability"
	"github.com/julescmay/machina/pkg/session"
)

// RunOptions configures a single interactive session.
type RunOptions struct {
	FlowPath  string
	SessionID string
	Headless  bool
	Debug     bool
}

// redirect cycles must never hang the terminal, so interactive runs carry a
// generous bound.
const interactiveMaxRedirects = 32

// RunSession loads a flow definition and walks it interactively on the
// terminal until a terminal state is reached or the user quits.
func RunSession(opts RunOptions) error {
	logger := createLogger(opts.Debug)
	quiet := opts.Headless

	def, err := flow.Load(opts.FlowPath)
	if err != nil {
		return fmt.Errorf("loading flow: %w", err)
	}
	for _, finding := range def.Validate() {
		logger.Warn("Definition issue", "err", finding)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	flowOpts := []flow.Option{flow.WithMaxRedirects(interactiveMaxRedirects)}
	if opts.Debug {
		flowOpts = append(flowOpts, flow.WithHooks(observability.TraceHooks[string](logger)))
	}

	var mgr *session.Manager
	var m *flow.Machine
	if opts.SessionID != "" {
		mgr = session.NewManager(file.New(""), session.WithLogger(logger))
		var resumed bool
		m, resumed, err = mgr.LoadOrStart(sigCtx, def, opts.SessionID, flowOpts...)
		if err != nil {
			return fmt.Errorf("failed to init session: %w", err)
		}
		logSessionStatus(logger, opts.SessionID, m.Current(), resumed, quiet)
	} else {
		m, err = flow.Build(def, flowOpts...)
		if err != nil {
			return err
		}
	}

	save := func() {
		if mgr == nil {
			return
		}
		if err := mgr.Save(context.Background(), opts.SessionID, m); err != nil {
			logger.Warn("Failed to persist session", "session_id", opts.SessionID, "err", err)
		}
	}

	render := newStateRenderer(opts.Headless)
	reader := bufio.NewReader(NewInterruptibleReader(os.Stdin, sigCtx.Done()))

	for {
		render(m.State())

		if m.Terminal() {
			if mgr != nil {
				if err := mgr.Delete(context.Background(), opts.SessionID); err != nil {
					logger.Warn("Failed to clear session", "session_id", opts.SessionID, "err", err)
				}
			}
			if !quiet {
				printSystemMessage("Finished at '%s'.", m.Current())
			}
			return nil
		}

		if !quiet {
			printChoices(m.State())
		}
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			save()
			if isInterrupted(err) {
				logInterruption(m.Current(), quiet, sigCtx.Signal())
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			save()
			if !quiet {
				printSystemMessage("Stopped at '%s'.", m.Current())
			}
			return nil
		}

		switch err := m.Choose(input); {
		case errors.Is(err, flow.ErrUnknownChoice):
			if !quiet {
				printSystemMessage("Unknown choice '%s'.", input)
			}
			continue
		case errors.Is(err, machina.ErrRedirectLoop):
			return err
		case err != nil:
			return err
		}
		save()
	}
}

func logSessionStatus(logger *slog.Logger, sessionID, state string, resumed, quiet bool) {
	if resumed {
		logger.Info("Session Resumed", "session_id", sessionID, "state", state)
		if !quiet {
			printSystemMessage("Resuming at '%s'...", state)
		}
	} else {
		logger.Info("Session Created", "session_id", sessionID)
		if !quiet {
			printSystemMessage("Session '%s' active.", sessionID)
		}
	}
}

func logInterruption(state string, quiet bool, sig os.Signal) {
	if quiet {
		return
	}
	if sig == os.Interrupt {
		fmt.Printf("[CTRL+C]\n")
	} else {
		fmt.Printf("\n")
	}
	printSystemMessage("Interrupted at '%s'.", state)
}

// newStateRenderer picks the presentation for state payloads. Rich markdown
// rendering only applies on a real terminal; pipes and headless runs get the
// raw text.
func newStateRenderer(headless bool) func(*flow.State) {
	if headless || !tui.IsTerminal() {
		return func(st *flow.State) {
			if st.Title != "" {
				fmt.Printf("# %s\n", st.Title)
			}
			if st.Text != "" {
				fmt.Println(st.Text)
			}
		}
	}

	markdown := tui.NewRenderer()
	return func(st *flow.State) {
		if st.Title != "" {
			fmt.Println(tui.Title(st.Title))
		}
		if st.Text == "" {
			return
		}
		out, err := markdown(st.Text)
		if err != nil {
			fmt.Println(st.Text)
			return
		}
		fmt.Print(out)
	}
}

func printChoices(st *flow.State) {
	if len(st.Choices) == 0 {
		return
	}
	inputs := make([]string, 0, len(st.Choices))
	for input := range st.Choices {
		inputs = append(inputs, input)
	}
	sort.Strings(inputs)
	fmt.Println(tui.Faint("Choices: " + strings.Join(inputs, ", ")))
}

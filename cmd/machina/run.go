package main

import (
	"fmt"
	"os"

	"github.com/julescmay/machina/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flow-file]",
	Short: "Run a flow interactively",
	Long:  `Starts the flow in interactive mode, rendering each state on the terminal and reading choices from stdin.`,
	Run: func(cmd *cobra.Command, args []string) {
		flowPath, _ := cmd.Flags().GetString("file")
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			flowPath = args[0]
		}
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")
		debug, _ := cmd.Flags().GetBool("debug")

		opts := cli.RunOptions{
			FlowPath:  flowPath,
			SessionID: sessionID,
			Headless:  headless,
			Debug:     debug,
		}
		if err := cli.RunSession(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Persist progress under this session ID")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no prompts, plain IO)")

	// Make 'run' the default when no command is provided.
	rootCmd.Run = runCmd.Run
}

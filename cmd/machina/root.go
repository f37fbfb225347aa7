package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "machina",
	Short: "Machina runs declarative state machine flows",
	Long:  `Machina loads flow definitions from YAML and runs them interactively, over HTTP, or as a lint pass.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "flow.yaml", "Path to the flow definition")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

package main

import (
	"fmt"
	"strings"

	"github.com/julescmay/machina"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of machina",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("machina version %s\n", strings.TrimSpace(machina.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

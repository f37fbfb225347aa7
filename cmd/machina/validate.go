package main

import (
	"fmt"
	"os"

	"github.com/julescmay/machina/pkg/flow"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flow-file]",
	Short: "Check a flow definition for consistency",
	Long:  `Parses the flow definition and reports dangling targets, missing start states and other structural issues.`,
	Run: func(cmd *cobra.Command, args []string) {
		path, _ := cmd.Flags().GetString("file")
		if !cmd.Flags().Changed("file") && len(args) > 0 {
			path = args[0]
		}
		if err := runValidate(path); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Flow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	def, err := flow.Load(path)
	if err != nil {
		return err
	}

	findings := def.Validate()
	for _, finding := range findings {
		fmt.Printf("  - %v\n", finding)
	}
	if len(findings) > 0 {
		return fmt.Errorf("%d issue(s) in %q", len(findings), def.Name)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coordinator/internal/rubric"
)

var checkTemplatesCmd = &cobra.Command{
	Use:   "check-templates",
	Short: "Validate the embedded rubric templates",
	Long:  "Loads every embedded rubric template, validates it against the template schema and weight invariants, and prints the registered (field, level) keys.",
	RunE:  runCheckTemplates,
}

func init() {
	rootCmd.AddCommand(checkTemplatesCmd)
}

func runCheckTemplates(cmd *cobra.Command, _ []string) error {
	registry, err := rubric.NewRegistry()
	if err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}

	keys := registry.Keys()
	cmd.Printf("Loaded %d rubric templates:\n", len(keys))
	for _, key := range keys {
		cmd.Printf("  %s\n", key)
	}
	return nil
}

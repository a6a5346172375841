package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coordinator/internal/rubric"
)

var scoreInput string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute the weighted total for a scored rubric",
	Long:  "Reads a JSON file of scored rubric sections and prints the weighted 0-100 total. Useful for checking a finished assessment offline.",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreInput, "input", "i", "", "Path to scored sections JSON (required)")
	if err := scoreCmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(scoreInput)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var sections []rubric.ScoringSection
	if err := json.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("failed to parse sections JSON: %w", err)
	}

	tmpl := &rubric.Template{Sections: sections}
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("invalid rubric: %w", err)
	}

	cmd.Printf("%d\n", rubric.ComputeTotal(sections))
	return nil
}

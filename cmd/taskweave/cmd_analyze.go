package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weavelabs/taskweave/internal/analyzer"
	"github.com/weavelabs/taskweave/internal/report"
	"github.com/weavelabs/taskweave/internal/task"
	"github.com/weavelabs/taskweave/internal/validation"
)

var analyzeJSON bool

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <task.yaml>",
		Short: "Analyze a task without executing it",
		Long: `Analyze a task without executing it.

Prints the complexity score, declared dependencies, and the strategy the
runtime would pick, with its confidence.`,
		Args: cobra.ExactArgs(1),
		RunE: analyzeCommandE,
	}

	cmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the raw analysis as JSON")

	return cmd
}

func analyzeCommandE(cmd *cobra.Command, args []string) error {
	taskPath := args[0]

	if errs, err := validation.ValidateTaskFile(taskPath); err != nil {
		return err
	} else if len(errs) > 0 {
		return fmt.Errorf("task file %s is invalid:\n  %s", taskPath, strings.Join(errs, "\n  "))
	}

	t, err := task.LoadFile(taskPath)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}

	analysis := analyzer.New().AnalyzeTask(t)

	if analyzeJSON {
		data, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode analysis: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Task:        %s\n", t.Label())
	fmt.Fprintf(out, "Complexity:  %.1f (%d subtasks, nesting %d, %d dependencies)\n",
		analysis.Complexity.Overall, analysis.Complexity.SubtaskCount,
		analysis.Complexity.MaxNesting, analysis.Complexity.DependencyCount)
	fmt.Fprintf(out, "Strategy:    %s\n", analysis.Recommendation.Strategy)
	fmt.Fprintf(out, "Confidence:  %.2f (%s)\n",
		analysis.Recommendation.Confidence, report.InterpretConfidence(analysis.Recommendation.Confidence))
	return nil
}

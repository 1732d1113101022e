package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/weavelabs/taskweave/internal/agent"
	"github.com/weavelabs/taskweave/internal/analyzer"
	"github.com/weavelabs/taskweave/internal/config"
	"github.com/weavelabs/taskweave/internal/progress"
	"github.com/weavelabs/taskweave/internal/report"
	"github.com/weavelabs/taskweave/internal/strategy"
	"github.com/weavelabs/taskweave/internal/task"
	"github.com/weavelabs/taskweave/internal/toolreg"
	"github.com/weavelabs/taskweave/internal/transcript"
	"github.com/weavelabs/taskweave/internal/validation"
)

var (
	configPath     string
	outputPath     string
	htmlOutput     bool
	verbose        bool
	transcriptDir  string
	maxDepth       int
	maxConcurrency int
	timeout        time.Duration
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <task.yaml>",
		Short: "Execute a task document",
		Long: `Execute a task document.

The document defines the task tree: leaf tool calls, ordered step lists,
parallel subtask sets, or abstract tasks decomposed at runtime. Results and
artifacts are printed when execution finishes.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: taskweave.yaml if present)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file for the run report")
	cmd.Flags().BoolVar(&htmlOutput, "html", false, "Write the run report as HTML instead of markdown")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-step progress")
	cmd.Flags().StringVar(&transcriptDir, "transcript-dir", "", "Directory to save the execution transcript")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum recursive decomposition depth (overrides config)")
	cmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "Maximum concurrent subtasks (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-execution timeout (overrides config)")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	taskPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxDepth > 0 {
		cfg.Runtime.MaxDepth = maxDepth
	}
	if maxConcurrency > 0 {
		cfg.Runtime.MaxConcurrency = maxConcurrency
	}
	if timeout > 0 {
		cfg.Runtime.Timeout = timeout
	}
	if transcriptDir != "" {
		cfg.Transcript.Enabled = true
		cfg.Transcript.Dir = transcriptDir
	}

	if errs, err := validation.ValidateTaskFile(taskPath); err != nil {
		return err
	} else if len(errs) > 0 {
		return fmt.Errorf("task file %s is invalid:\n  %s", taskPath, strings.Join(errs, "\n  "))
	}

	t, err := task.LoadFile(taskPath)
	if err != nil {
		return fmt.Errorf("failed to load task: %w", err)
	}

	collector := progress.NewCollector()
	if verbose {
		console := progress.NewConsoleEmitter(os.Stderr)
		collector.OnEvent(func(e progress.Event) {
			console.Emit(e)
		})
	}

	manager, err := strategy.NewDefaultManager(strategy.Dependencies{
		Tools:          toolreg.Builtin(),
		Progress:       collector,
		MaxConcurrency: cfg.Runtime.MaxConcurrency,
	})
	if err != nil {
		return err
	}

	an := analyzer.New(analyzer.WithMaxHistorySize(cfg.Runtime.HistorySize))
	ag := agent.New(manager, an,
		agent.WithMaxDepth(cfg.Runtime.MaxDepth),
		agent.WithTimeout(cfg.Runtime.Timeout),
	)

	exec, execErr := ag.Execute(cmd.Context(), t)

	if cfg.Transcript.Enabled && exec != nil {
		if err := writeTranscript(cfg, exec, collector); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if outputPath != "" && exec != nil {
		if err := writeReport(exec); err != nil {
			return err
		}
	}

	if execErr != nil {
		return execErr
	}

	printed, err := json.MarshalIndent(exec.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(printed))

	if !exec.Result.Success {
		return &TaskFailureError{Message: fmt.Sprintf("task failed: %s", exec.Result.Error)}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = "taskweave.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func writeTranscript(cfg *config.Config, exec *agent.Execution, collector *progress.Collector) error {
	w, err := transcript.NewWriter(cfg.Transcript.Dir, exec.ID, cfg.Transcript.Compress)
	if err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	defer w.Close()

	for _, e := range collector.Events() {
		if err := w.WriteEvent(e); err != nil {
			return fmt.Errorf("transcript: %w", err)
		}
	}
	if err := w.WriteHistory(exec.History); err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	summary := map[string]any{
		"executionId": exec.ID,
		"task":        exec.Task.Label(),
		"duration":    exec.Duration.String(),
	}
	if exec.Result != nil {
		summary["success"] = exec.Result.Success
	}
	if exec.Err != nil {
		summary["error"] = exec.Err.Error()
	}
	if err := w.WriteSummary(summary); err != nil {
		return fmt.Errorf("transcript: %w", err)
	}
	fmt.Fprintf(os.Stderr, "transcript written to %s\n", w.Path())
	return nil
}

func writeReport(exec *agent.Execution) error {
	if htmlOutput {
		if err := report.WriteHTML(exec, outputPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	} else if err := report.WriteMarkdown(exec, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "report written to %s\n", outputPath)
	return nil
}

// Package report renders a finished execution as a markdown summary, with an
// optional HTML rendering for browsers.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/weavelabs/taskweave/internal/agent"
)

// InterpretConfidence returns a plain-language label for a confidence value
// in [0,1].
func InterpretConfidence(confidence float64) string {
	pct := confidence * 100
	switch {
	case pct > 90:
		return "High (>90%)"
	case pct >= 70:
		return "Moderate (70-90%)"
	case pct >= 50:
		return "Low (50-70%)"
	default:
		return "Very Low (<50%)"
	}
}

// FormatMarkdown produces the markdown run report for one execution.
func FormatMarkdown(exec *agent.Execution) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Execution %s\n\n", exec.ID))
	b.WriteString(fmt.Sprintf("- **Task:** %s\n", exec.Task.Label()))
	b.WriteString(fmt.Sprintf("- **Duration:** %v\n", exec.Duration))

	if a := exec.Analysis; a != nil {
		b.WriteString(fmt.Sprintf("- **Strategy:** %s (confidence %.2f, %s)\n",
			a.Recommendation.Strategy, a.Recommendation.Confidence, InterpretConfidence(a.Recommendation.Confidence)))
		b.WriteString(fmt.Sprintf("- **Complexity:** %.1f (%d subtasks, nesting %d, %d dependencies)\n",
			a.Complexity.Overall, a.Complexity.SubtaskCount, a.Complexity.MaxNesting, a.Complexity.DependencyCount))
	}

	switch {
	case exec.Err != nil:
		b.WriteString(fmt.Sprintf("- **Status:** error\n\n## Error\n\n```\n%v\n```\n", exec.Err))
	case exec.Result != nil && !exec.Result.Success:
		b.WriteString(fmt.Sprintf("- **Status:** failed\n\n## Error\n\n```\n%s\n```\n", exec.Result.Error))
	default:
		b.WriteString("- **Status:** success\n")
	}

	if exec.Result != nil && exec.Result.Success {
		b.WriteString("\n## Result\n\n```json\n")
		b.WriteString(formatValue(exec.Result.Value))
		b.WriteString("\n```\n")
		if len(exec.Result.Meta) > 0 {
			b.WriteString("\n| Meta | Value |\n|---|---|\n")
			for _, k := range sortedKeys(exec.Result.Meta) {
				b.WriteString(fmt.Sprintf("| %s | %v |\n", k, exec.Result.Meta[k]))
			}
		}
	}

	if len(exec.History) > 0 {
		b.WriteString("\n## History\n\n")
		for _, h := range exec.History {
			b.WriteString(fmt.Sprintf("- `%s` %s: %s\n", h.Timestamp.Format("15:04:05"), h.Role, h.Content))
		}
	}

	return b.String()
}

// FormatHTML renders the markdown report as a standalone HTML document.
func FormatHTML(exec *agent.Execution) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert([]byte(FormatMarkdown(exec)), &buf); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Execution " +
		exec.ID + "</title></head><body>\n" + buf.String() + "</body></html>\n", nil
}

// WriteMarkdown writes the markdown report to path.
func WriteMarkdown(exec *agent.Execution, path string) error {
	return os.WriteFile(path, []byte(FormatMarkdown(exec)), 0o644)
}

// WriteHTML writes the HTML report to path.
func WriteHTML(exec *agent.Execution, path string) error {
	html, err := FormatHTML(exec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0o644)
}

func formatValue(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

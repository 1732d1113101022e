package strategy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/weavelabs/taskweave/internal/execution"
)

// previousResultToken is the placeholder rewritten with the prior step's
// result.
const previousResultToken = "{previousResult}"

// artifactRef reports whether s is an "@name" artifact reference and returns
// the referenced name. A bare "@" or a string with interior whitespace is
// treated as a literal.
func artifactRef(s string) (string, bool) {
	if len(s) < 2 || s[0] != '@' {
		return "", false
	}
	name := s[1:]
	if strings.ContainsAny(name, " \t\n") {
		return "", false
	}
	return name, true
}

// resolveInputs rewrites templated values in a params map: "@name" references
// become the corresponding artifact value from the context chain (O(1) per
// reference), an exact previousResultToken match becomes the raw previous
// result, and a substring occurrence is replaced with its JSON form. Nested
// maps and lists are resolved recursively. The input map is never mutated.
func resolveInputs(params map[string]any, ec *execution.Context) (map[string]any, error) {
	if len(params) == 0 {
		return params, nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		resolved, err := resolveValue(v, ec)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

func resolveValue(v any, ec *execution.Context) (any, error) {
	switch val := v.(type) {
	case string:
		return resolveString(val, ec)
	case map[string]any:
		return resolveInputs(val, ec)
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			resolved, err := resolveValue(nested, ec)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveString(s string, ec *execution.Context) (any, error) {
	if name, ok := artifactRef(s); ok {
		return ec.ArtifactValue(name)
	}
	prev, hasPrev := ec.PreviousResult()
	if s == previousResultToken {
		if !hasPrev {
			return "", nil
		}
		return prev, nil
	}
	if strings.Contains(s, previousResultToken) {
		return strings.ReplaceAll(s, previousResultToken, jsonString(prev)), nil
	}
	return s, nil
}

// injectPrompt substitutes the previous-result placeholder into a prompt as a
// plain string, so prompts read naturally rather than carrying JSON quoting.
func injectPrompt(prompt string, ec *execution.Context) string {
	if !strings.Contains(prompt, previousResultToken) {
		return prompt
	}
	prev, _ := ec.PreviousResult()
	return strings.ReplaceAll(prompt, previousResultToken, plainString(prev))
}

func jsonString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func plainString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return jsonString(v)
	}
}

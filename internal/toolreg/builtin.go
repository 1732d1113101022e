package toolreg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Builtin returns a registry preloaded with the demo tools the CLI ships, so
// task documents can run end-to-end without external collaborators.
func Builtin() *MapRegistry {
	r := NewMapRegistry()
	r.Register(NewTool("echo", echoTool))
	r.Register(NewTool("uppercase", uppercaseTool))
	r.Register(NewTool("concat", concatTool))
	r.Register(NewTool("sum", sumTool))
	r.Register(NewTool("sleep", sleepTool))
	r.Register(NewTool("fail", failTool))
	return r
}

// echo returns the "value" param unchanged, or the "message" param as a string.
func echoTool(_ context.Context, params map[string]any) (any, error) {
	if v, ok := params["value"]; ok {
		return v, nil
	}
	if v, ok := params["message"]; ok {
		return fmt.Sprintf("%v", v), nil
	}
	return nil, fmt.Errorf("echo: missing value or message param")
}

func uppercaseTool(_ context.Context, params map[string]any) (any, error) {
	v, ok := params["value"]
	if !ok {
		return nil, fmt.Errorf("uppercase: missing value param")
	}
	return strings.ToUpper(fmt.Sprintf("%v", v)), nil
}

// concat joins the "values" list with an optional "separator".
func concatTool(_ context.Context, params map[string]any) (any, error) {
	values, ok := params["values"].([]any)
	if !ok {
		return nil, fmt.Errorf("concat: values param must be a list")
	}
	sep := ""
	if s, ok := params["separator"].(string); ok {
		sep = s
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, sep), nil
}

// sum adds the "values" list numerically; non-numeric entries are an error.
func sumTool(_ context.Context, params map[string]any) (any, error) {
	values, ok := params["values"].([]any)
	if !ok {
		return nil, fmt.Errorf("sum: values param must be a list")
	}
	total := 0.0
	for i, v := range values {
		n, err := toNumber(v)
		if err != nil {
			return nil, fmt.Errorf("sum: values[%d]: %w", i, err)
		}
		total += n
	}
	return total, nil
}

// sleep waits for "ms" milliseconds or until the context is cancelled.
func sleepTool(ctx context.Context, params map[string]any) (any, error) {
	ms, err := toNumber(params["ms"])
	if err != nil {
		return nil, fmt.Errorf("sleep: ms param: %w", err)
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return ms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fail always errors, carrying the optional "message" param. Task documents use
// it to exercise stopOnFailure and accumulation of failed positions.
func failTool(_ context.Context, params map[string]any) (any, error) {
	if msg, ok := params["message"].(string); ok && msg != "" {
		return nil, fmt.Errorf("fail: %s", msg)
	}
	return nil, fmt.Errorf("fail: forced failure")
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

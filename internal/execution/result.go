package execution

// Result is the outcome of one strategy execution. Leaf failures are carried
// as tagged results (Success=false with an error message) rather than Go
// errors, so parent strategies can decide whether to stop or continue.
type Result struct {
	Success bool           `json:"success"`
	Value   any            `json:"result"`
	Error   string         `json:"error,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Succeed builds a successful result carrying a value.
func Succeed(value any) *Result {
	return &Result{Success: true, Value: value}
}

// Fail builds a tagged failure result.
func Fail(msg string) *Result {
	return &Result{Success: false, Error: msg}
}

// WithMeta attaches a metadata entry and returns the same result for chaining.
func (r *Result) WithMeta(key string, value any) *Result {
	if r.Meta == nil {
		r.Meta = make(map[string]any)
	}
	r.Meta[key] = value
	return r
}

package strategy

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/weavelabs/taskweave/internal/task"
)

// accumulator folds step results into one final value under a configurable
// policy. Results must be added in step-list order; the policies are
// position-sensitive (array, concat, first, last).
type accumulator struct {
	policy task.Accumulation
	custom task.Reducer

	list    []any
	object  map[string]any
	sum     float64
	single  any
	hasOne  bool
	reduced any
}

func newAccumulator(t *task.Task) (*accumulator, error) {
	policy := t.EffectiveAccumulation()
	if policy == task.AccumulationCustom && t.Accumulate == nil {
		return nil, validationErrorf("accumulationType %q requires an accumulate reducer", policy)
	}
	switch policy {
	case task.AccumulationArray, task.AccumulationObject, task.AccumulationSum,
		task.AccumulationConcat, task.AccumulationLast, task.AccumulationFirst,
		task.AccumulationPipeline, task.AccumulationCustom:
	default:
		return nil, validationErrorf("unknown accumulationType %q", policy)
	}
	return &accumulator{
		policy: policy,
		custom: t.Accumulate,
		list:   []any{},
		object: map[string]any{},
	}, nil
}

func (a *accumulator) add(result any) error {
	switch a.policy {
	case task.AccumulationArray:
		a.list = append(a.list, result)
	case task.AccumulationObject:
		if m, ok := result.(map[string]any); ok {
			for k, v := range m {
				a.object[k] = v
			}
		}
	case task.AccumulationSum:
		a.sum += coerceNumber(result)
	case task.AccumulationConcat:
		a.list = append(a.list, flatten(result)...)
	case task.AccumulationLast, task.AccumulationPipeline:
		a.single = result
		a.hasOne = true
	case task.AccumulationFirst:
		if !a.hasOne {
			a.single = result
			a.hasOne = true
		}
	case task.AccumulationCustom:
		next, err := a.custom(a.reduced, result)
		if err != nil {
			return fmt.Errorf("custom accumulate: %w", err)
		}
		a.reduced = next
	}
	return nil
}

func (a *accumulator) value() any {
	switch a.policy {
	case task.AccumulationArray, task.AccumulationConcat:
		return a.list
	case task.AccumulationObject:
		return a.object
	case task.AccumulationSum:
		return a.sum
	case task.AccumulationLast, task.AccumulationPipeline, task.AccumulationFirst:
		return a.single
	case task.AccumulationCustom:
		return a.reduced
	default:
		return nil
	}
}

// coerceNumber converts a result to a float64 for summation. Non-numeric
// values coerce to 0.
func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
		return 0
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// flatten expands slice results into their elements so concat joins arrays
// instead of nesting them; scalars pass through as single elements.
func flatten(v any) []any {
	if v == nil {
		return []any{nil}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

package task

import "fmt"

// ValidateDependencies checks that every step id referenced in the task's
// declarative dependencies map - both keys and prerequisites - names a step
// present in the extracted step list. It is called before any step runs; an
// unknown id is a validation error carrying that id in its message.
func ValidateDependencies(t *Task) error {
	if len(t.Dependencies) == 0 {
		return nil
	}

	steps := ExtractSteps(t)
	known := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		known[StepID(step, i)] = struct{}{}
	}

	for id, prereqs := range t.Dependencies {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("dependencies reference unknown step id %q", id)
		}
		for _, prereq := range prereqs {
			if _, ok := known[prereq]; !ok {
				return fmt.Errorf("dependencies for step %q reference unknown step id %q", id, prereq)
			}
		}
	}
	return nil
}

package task

// ExtractSteps normalizes the five recognized step shapes (steps, sequence,
// subtasks, pipeline, workflow) into a single ordered list. The first
// non-empty shape wins, matching the precedence the runtime documents. It
// always returns a non-nil slice; a task with none of the shapes yields an
// empty list.
func ExtractSteps(t *Task) []*Task {
	for _, shape := range [][]*Task{t.Steps, t.Sequence, t.Subtasks, t.Pipeline, t.Workflow} {
		if len(shape) > 0 {
			return shape
		}
	}
	return []*Task{}
}

// HasOrderedSteps reports whether the task carries any step shape that implies
// ordered execution. Subtasks count only when explicitly marked ordered.
func HasOrderedSteps(t *Task) bool {
	if len(t.Steps) > 0 || len(t.Sequence) > 0 || len(t.Pipeline) > 0 || len(t.Workflow) > 0 {
		return true
	}
	return len(t.Subtasks) > 0 && t.Ordered
}

// HasUnorderedSubtasks reports whether the task carries subtasks that are not
// explicitly ordered, the shape the parallel strategy claims.
func HasUnorderedSubtasks(t *Task) bool {
	return len(t.Subtasks) > 0 && !t.Ordered
}

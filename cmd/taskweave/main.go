package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Execution succeeded
	ExitTaskFailed = 1 // The task ran but reported failure
	ExitError      = 2 // Configuration or runtime error
)

// TaskFailureError indicates that the runtime worked correctly but the task
// itself reported failure.
type TaskFailureError struct {
	Message string
}

func (e *TaskFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var taskFailureErr *TaskFailureError
		if errors.As(err, &taskFailureErr) {
			os.Exit(ExitTaskFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}

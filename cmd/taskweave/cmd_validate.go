package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weavelabs/taskweave/internal/validation"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <task.yaml>...",
		Short: "Validate task documents against the schema",
		Args:  cobra.MinimumNArgs(1),
		RunE:  validateCommandE,
	}
}

func validateCommandE(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	invalid := 0

	for _, path := range args {
		errs, err := validation.ValidateTaskFile(path)
		if err != nil {
			return err
		}
		if len(errs) == 0 {
			fmt.Fprintf(out, "%s: ok\n", path)
			continue
		}
		invalid++
		fmt.Fprintf(out, "%s:\n", path)
		for _, e := range errs {
			fmt.Fprintf(out, "  %s\n", e)
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed validation", invalid, len(args))
	}
	return nil
}

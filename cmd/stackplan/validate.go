package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/stackplan/internal/plan"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Load and validate problem files without solving them",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			invalid := 0
			for _, path := range args {
				problem, err := plan.LoadProblemFile(path)
				if err != nil {
					invalid++
					fmt.Fprintf(out, "%s: invalid: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "%s: ok (%s, %d blocks)\n", path, problem.Title(), problem.Initial.Count())
			}
			if invalid > 0 {
				return failure("%d of %d problem files invalid", invalid, len(args))
			}
			return nil
		},
	}
}

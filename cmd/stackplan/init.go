package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/stackplan/internal/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a commented default stackplan.yaml unless one exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFile
			if len(args) > 1 {
				return usageError("init takes at most one path")
			}
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return failure("%v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ready at %s\n", path)
			return nil
		},
	}
}

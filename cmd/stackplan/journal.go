package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/stackplan/internal/logbook"
)

func newJournalCmd(a *app) *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "journal [PATH]",
		Short: "Print the most recent plan journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Journal
			switch len(args) {
			case 0:
			case 1:
				path = args[0]
			default:
				return usageError("journal takes at most one path")
			}
			if path == "" {
				return usageError("no journal path given and none configured")
			}
			book, err := logbook.New(path)
			if err != nil {
				return failure("%v", err)
			}
			entries, total := book.Tail(lines)
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				fmt.Fprintln(out, entry)
			}
			fmt.Fprintf(out, "(%d of %d entries)\n", len(entries), total)
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "entries to show")
	return cmd
}

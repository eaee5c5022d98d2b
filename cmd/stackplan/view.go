package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kingrea/stackplan/internal/plan/engine"
	"github.com/kingrea/stackplan/internal/tui"
)

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view REPORT",
		Short: "Replay a saved run report (interactive on a terminal, printed otherwise)",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := engine.NewRepository(args[0]).Load()
			if err != nil {
				return failure("%v", err)
			}
			out := cmd.OutOrStdout()
			if !isTerminal(out) {
				if err := a.printTrace(out, report); err != nil {
					return failure("%v", err)
				}
				return nil
			}
			model, err := tui.NewReplay(report, tui.WithRenderer(a.renderer(out)))
			if err != nil {
				return failure("%v", err)
			}
			program := tea.NewProgram(model,
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(out),
				tea.WithAltScreen(),
			)
			if _, err := program.Run(); err != nil {
				return failure("replay: %v", err)
			}
			return nil
		},
	}
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

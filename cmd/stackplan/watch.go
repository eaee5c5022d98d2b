package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kingrea/stackplan/internal/plan"
)

const watchDebounce = 150 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-solve a problem file every time it changes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return failure("watch: %v", err)
			}
			defer watcher.Close()
			// Editors often replace files on save, so watch the directory.
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return failure("watch %s: %v", path, err)
			}
			solve := func() { a.solveFile(cmd, path, quiet) }
			solve()
			err = watchLoop(cmd.Context(), path, watcher.Events, watcher.Errors, watchDebounce, solve)
			if err != nil && cmd.Context().Err() == nil {
				return failure("watch: %v", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the verdict")
	return cmd
}

// watchLoop calls onChange once per burst of write or create events on path.
// It returns when ctx is done or the watcher reports an error.
func watchLoop(ctx context.Context, path string, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, onChange func()) error {
	target := filepath.Clean(path)
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			return err
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.After(debounce)
			}
		case <-pending:
			pending = nil
			onChange()
		}
	}
}

// solveFile loads and solves one problem, reporting load failures inline so
// a half-saved file does not stop the watch.
func (a *app) solveFile(cmd *cobra.Command, path string, quiet bool) {
	out := cmd.OutOrStdout()
	problem, err := plan.LoadProblemFile(path)
	if err != nil {
		fmt.Fprintf(out, "%s: invalid: %v\n", path, err)
		return
	}
	eng, err := a.newEngine(problem.ID)
	if err != nil {
		fmt.Fprintf(out, "%s: %v\n", path, err)
		return
	}
	report, _ := eng.Run(problem)
	if !quiet {
		if err := a.printTrace(out, report); err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
		}
	}
	fmt.Fprintln(out, summary(report))
	a.journalVerdict(report)
}

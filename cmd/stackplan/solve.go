package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/stackplan/internal/metrics"
	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/engine"
)

type solveOptions struct {
	parallel    int
	report      string
	metricsOut  string
	interactive bool
	quiet       bool
}

func newSolveCmd(a *app) *cobra.Command {
	var opts solveOptions
	cmd := &cobra.Command{
		Use:   "solve [FILE...]",
		Short: "Solve problem files (yaml, json, hcl or the six-line text format; - reads text from stdin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.solve(cmd, args, opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.parallel, "parallel", 4, "problems solved concurrently")
	flags.StringVar(&opts.report, "report", "", "save the run report (json, or yaml by extension); single problem only")
	flags.StringVar(&opts.metricsOut, "metrics-out", "", "write Prometheus metrics in text format to this file")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "prompt for the initial and goal stacks")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "print only the verdict of each problem")
	return cmd
}

func (a *app) solve(cmd *cobra.Command, args []string, opts solveOptions) error {
	problems, err := a.loadProblems(cmd, args, opts.interactive)
	if err != nil {
		return err
	}
	if opts.report != "" && len(problems) != 1 {
		return usageError("--report needs exactly one problem, got %d", len(problems))
	}

	recorder := metrics.New()
	reports := make([]engine.Report, len(problems))
	group, ctx := errgroup.WithContext(cmd.Context())
	group.SetLimit(max(1, opts.parallel))
	for i, problem := range problems {
		i, problem := i, problem
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			eng, err := a.newEngine(problem.ID, engine.WithRecorder(recorder))
			if err != nil {
				return err
			}
			// Run errors are carried in the report status.
			reports[i], _ = eng.Run(problem)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, report := range reports {
		if !opts.quiet {
			if err := a.printTrace(out, report); err != nil {
				return failure("%v", err)
			}
		}
		fmt.Fprintln(out, summary(report))
		a.journalVerdict(report)
		if !report.Achieved() {
			failed++
		}
	}

	if opts.report != "" {
		if err := engine.NewRepository(opts.report).Save(reports[0]); err != nil {
			return failure("%v", err)
		}
	}
	if opts.metricsOut != "" {
		if err := writeMetrics(opts.metricsOut, recorder); err != nil {
			return failure("%v", err)
		}
	}
	if failed > 0 {
		return failure("%d of %d problems not achieved", failed, len(reports))
	}
	return nil
}

func (a *app) loadProblems(cmd *cobra.Command, args []string, interactive bool) ([]plan.Problem, error) {
	if interactive {
		if len(args) > 0 {
			return nil, usageError("--interactive does not take problem files")
		}
		problem, err := plan.Prompt(cmd.InOrStdin(), cmd.OutOrStdout(), "interactive")
		if err != nil {
			return nil, failure("%v", err)
		}
		return []plan.Problem{problem}, nil
	}
	if len(args) == 0 {
		return nil, usageError("solve needs at least one problem file, - for stdin, or --interactive")
	}
	problems := make([]plan.Problem, 0, len(args))
	for _, path := range args {
		var (
			problem plan.Problem
			err     error
		)
		if path == "-" {
			problem, err = plan.LoadProblemReader(cmd.InOrStdin(), plan.FormatText, "stdin")
		} else {
			problem, err = plan.LoadProblemFile(path)
		}
		if err != nil {
			return nil, failure("%v", err)
		}
		problems = append(problems, problem)
	}
	return problems, nil
}

// printTrace draws the initial world and the world after every action.
func (a *app) printTrace(out io.Writer, report engine.Report) error {
	states, err := report.Replay()
	if err != nil {
		return err
	}
	renderer := a.renderer(out)
	fmt.Fprintf(out, "== %s ==\n", report.ProblemID)
	for i, state := range states {
		if i > 0 {
			fmt.Fprintln(out, report.Events[i-1])
		}
		fmt.Fprintln(out, renderer.Diagram(state))
		fmt.Fprintln(out)
	}
	return nil
}

func writeMetrics(path string, recorder *metrics.Recorder) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metrics: create %s: %w", path, err)
	}
	if err := recorder.WriteText(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kingrea/stackplan/internal/config"
	"github.com/kingrea/stackplan/internal/logbook"
	"github.com/kingrea/stackplan/internal/logging"
	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/engine"
	"github.com/kingrea/stackplan/internal/render"
)

// app is the per-invocation state shared by subcommands once the root
// pre-run has resolved configuration.
type app struct {
	v       *viper.Viper
	cfg     config.Config
	logger  *logging.Logger
	journal *logbook.Logbook
}

// flagKeys maps persistent flags to their config keys. Environment variables
// use the STACKPLAN_ prefix with dots and dashes replaced by underscores.
var flagKeys = map[string]string{
	"placement":    "placement",
	"max-passes":   "limits.max_passes",
	"stall-passes": "limits.stall_passes",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"log-file":     "logging.file",
	"color":        "render.color",
	"facts":        "render.facts",
	"journal":      "journal",
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "stackplan",
		Short:         "Plan and execute blocks-world rearrangements with a one-block arm.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.logger.Close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	flags := root.PersistentFlags()
	flags.String("config", "", "path to stackplan.yaml (default ./stackplan.yaml when present)")
	flags.String("placement", "", "OnTable placement policy: pinned or anywhere")
	flags.Int("max-passes", 0, "comparator iterations allowed per pass")
	flags.Int("stall-passes", 0, "iterations without progress before a pass is abandoned")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("log-file", "", "append logs to this file instead of stderr")
	flags.String("color", "", "diagram color: auto, always or never")
	flags.Bool("facts", false, "show the fact panel beside each diagram")
	flags.String("journal", "", "append executed actions to this plan journal")

	a.v.SetEnvPrefix("stackplan")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlag("config", flags.Lookup("config")); err != nil {
		panic(err)
	}
	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		newSolveCmd(a),
		newValidateCmd(),
		newViewCmd(a),
		newWatchCmd(a),
		newJournalCmd(a),
		newInitCmd(),
	)
	return root
}

// setup loads .env, the config file and the flag/env overrides, then opens
// the logger and journal.
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return failure("load .env: %v", err)
	}
	path := a.v.GetString("config")
	cfg, err := config.Load(path, path != "")
	if err != nil {
		return failure("%v", err)
	}
	// File values become viper defaults so flags and env still win.
	a.v.SetDefault("placement", cfg.Placement)
	a.v.SetDefault("limits.max_passes", cfg.Limits.MaxPasses)
	a.v.SetDefault("limits.stall_passes", cfg.Limits.StallPasses)
	a.v.SetDefault("logging.level", cfg.Logging.Level)
	a.v.SetDefault("logging.format", cfg.Logging.Format)
	a.v.SetDefault("logging.file", cfg.Logging.File)
	a.v.SetDefault("render.color", cfg.Render.Color)
	a.v.SetDefault("render.facts", cfg.Render.Facts)
	a.v.SetDefault("journal", cfg.Journal)

	cfg.Placement = a.v.GetString("placement")
	cfg.Limits.MaxPasses = a.v.GetInt("limits.max_passes")
	cfg.Limits.StallPasses = a.v.GetInt("limits.stall_passes")
	cfg.Logging.Level = a.v.GetString("logging.level")
	cfg.Logging.Format = a.v.GetString("logging.format")
	cfg.Logging.File = a.v.GetString("logging.file")
	cfg.Render.Color = a.v.GetString("render.color")
	cfg.Render.Facts = a.v.GetBool("render.facts")
	cfg.Journal = a.v.GetString("journal")
	cfg.ApplyDefaults()
	cfg.Normalize("")
	if err := cfg.Validate(); err != nil {
		return usageError("config: %v", err)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return failure("%v", err)
	}
	a.logger = logger
	if cfg.Journal != "" {
		journal, err := logbook.New(cfg.Journal)
		if err != nil {
			return failure("%v", err)
		}
		a.journal = journal
	}
	logger.Debug("configuration resolved",
		"config", cfg.Path,
		"placement", cfg.Placement,
		"max_passes", cfg.Limits.MaxPasses,
		"stall_passes", cfg.Limits.StallPasses,
		"journal", cfg.Journal,
	)
	return nil
}

// newEngine builds an engine for one problem. Each problem gets its own
// engine so the journal can tag events with the problem id.
func (a *app) newEngine(problemID string, opts ...engine.Option) (*engine.Engine, error) {
	placement, err := plan.ParsePlacement(a.cfg.Placement)
	if err != nil {
		return nil, usageError("%v", err)
	}
	base := []engine.Option{
		engine.WithLogger(a.logger.Logger),
		engine.WithPlacement(placement),
		engine.WithLimits(engine.Limits{
			MaxPasses:   a.cfg.Limits.MaxPasses,
			StallPasses: a.cfg.Limits.StallPasses,
		}),
	}
	if a.journal != nil {
		base = append(base, engine.WithSink(a.journal.Sink(problemID)))
	}
	return engine.New(append(base, opts...)...), nil
}

func (a *app) renderer(out io.Writer) *render.Renderer {
	mode, err := render.ParseColorMode(a.cfg.Render.Color)
	if err != nil {
		mode = render.ColorAuto
	}
	return render.New(render.Options{Color: mode, Facts: a.cfg.Render.Facts, Output: out})
}

func (a *app) journalVerdict(report engine.Report) {
	if a.journal == nil {
		return
	}
	switch report.Status {
	case engine.StatusAchieved:
		a.journal.Info("%s achieved in %d actions (run %s)", report.ProblemID, len(report.Events), report.RunID)
	case engine.StatusUnsatisfied:
		a.journal.Warn("%s unsatisfied: %s (run %s)", report.ProblemID, report.StatusReason, report.RunID)
	default:
		a.journal.Error("%s failed: %s (run %s)", report.ProblemID, report.StatusReason, report.RunID)
	}
}

func summary(report engine.Report) string {
	label := report.ProblemID
	if report.ProblemName != "" {
		label = fmt.Sprintf("%s (%s)", report.ProblemID, report.ProblemName)
	}
	if report.Achieved() {
		return fmt.Sprintf("%s: achieved in %d actions", label, len(report.Events))
	}
	return fmt.Sprintf("%s: %s: %s", label, report.Status, report.StatusReason)
}

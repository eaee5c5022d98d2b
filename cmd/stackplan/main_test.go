package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

const swapYAML = `id: swap
name: Move the pair to B
initial:
  a: [x, y]
goal:
  b: "x,y"
`

const stillYAML = `id: still
initial:
  c: [p]
goal:
  c: [p]
`

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSolveQuietPrintsVerdict(t *testing.T) {
	path := writeFile(t, t.TempDir(), "swap.yaml", swapYAML)
	res := execute(t, "", "solve", "--quiet", path)
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, "swap (Move the pair to B): achieved in 11 actions\n", res.stdout)
}

func TestSolvePrintsEveryState(t *testing.T) {
	path := writeFile(t, t.TempDir(), "swap.yaml", swapYAML)
	res := execute(t, "", "solve", "--color", "never", path)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "== swap ==")
	require.Contains(t, res.stdout, "State 0:")
	require.Contains(t, res.stdout, "#1 pick up y at A")
	require.Contains(t, res.stdout, "State 11:")
	require.NotContains(t, res.stdout, "\x1b[")
}

func TestSolveSeveralFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	swap := writeFile(t, dir, "swap.yaml", swapYAML)
	still := writeFile(t, dir, "still.yaml", stillYAML)
	res := execute(t, "", "solve", "-q", "--parallel", "2", still, swap)
	require.Equal(t, 0, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "still: achieved in 0 actions", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "swap "))
}

func TestSolveMalformedProblemFails(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "initial:\n  a: [x, y]\ngoal:\n  a: [x, z]\n")
	res := execute(t, "", "solve", "-q", path)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "malformed problem")
}

func TestSolveUsageErrors(t *testing.T) {
	res := execute(t, "", "solve")
	require.Equal(t, 2, res.code)

	path := writeFile(t, t.TempDir(), "swap.yaml", swapYAML)
	res = execute(t, "", "solve", "--placement", "sideways", path)
	require.Equal(t, 2, res.code)
	require.Contains(t, res.stderr, "placement")

	res = execute(t, "", "solve", "--no-such-flag", path)
	require.Equal(t, 2, res.code)

	res = execute(t, "", "solve", "--report", "r.json", path, path)
	require.Equal(t, 2, res.code)
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "stackplan.yaml", "placement: anywhere\n")
	path := writeFile(t, dir, "swap.yaml", swapYAML)

	res := execute(t, "", "--config", cfg, "solve", "-q", path)
	require.Equal(t, 0, res.code, res.stderr)

	t.Setenv("STACKPLAN_PLACEMENT", "bogus")
	res = execute(t, "", "--config", cfg, "solve", "-q", path)
	require.Equal(t, 2, res.code)

	res = execute(t, "", "--config", cfg, "--placement", "pinned", "solve", "-q", path)
	require.Equal(t, 0, res.code, res.stderr)
}

func TestMissingExplicitConfigFails(t *testing.T) {
	res := execute(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "validate", "x.yaml")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "config")
}

func TestSolveWritesReportForView(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "swap.yaml", swapYAML)
	reportPath := filepath.Join(dir, "out", "swap.json")
	res := execute(t, "", "solve", "-q", "--report", reportPath, path)
	require.Equal(t, 0, res.code, res.stderr)
	require.FileExists(t, reportPath)

	res = execute(t, "", "view", "--color", "never", reportPath)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "State 11:")
	require.Contains(t, res.stdout, "#11 put down y on x at B")
}

func TestSolveWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "swap.yaml", swapYAML)
	metricsPath := filepath.Join(dir, "metrics.prom")
	res := execute(t, "", "solve", "-q", "--metrics-out", metricsPath, path)
	require.Equal(t, 0, res.code, res.stderr)
	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `stackplan_actions_total{kind="pick-up"} 3`)
	require.Contains(t, string(data), `stackplan_runs_total{status="achieved"} 1`)
}

func TestJournalRecordsActionsAndVerdict(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "swap.yaml", swapYAML)
	journal := filepath.Join(dir, "journal.log")
	res := execute(t, "", "solve", "-q", "--journal", journal, path)
	require.Equal(t, 0, res.code, res.stderr)

	res = execute(t, "", "journal", journal, "-n", "2")
	require.Equal(t, 0, res.code, res.stderr)
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "swap #11 put down y on x at B")
	require.Contains(t, lines[1], "swap achieved in 11 actions")
	require.Equal(t, "(2 of 12 entries)", lines[2])
}

func TestJournalNeedsPath(t *testing.T) {
	res := execute(t, "", "journal")
	require.Equal(t, 2, res.code)
}

func TestValidateReportsEachFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "swap.yaml", swapYAML)
	bad := writeFile(t, dir, "dup.yaml", "initial:\n  a: [x, x]\ngoal:\n  b: [x, x]\n")
	res := execute(t, "", "validate", good)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "ok (Move the pair to B, 2 blocks)")

	res = execute(t, "", "validate", good, bad)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stdout, "dup.yaml: invalid")

	res = execute(t, "", "validate")
	require.Equal(t, 2, res.code)
}

func TestSolveInteractivePrompts(t *testing.T) {
	res := execute(t, "x,y\n\n\n\nx,y\n\n", "solve", "-i", "-q")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Enter the stack at A: ")
	require.Contains(t, res.stdout, "interactive: achieved in 11 actions")
}

func TestSolveReadsTextFromStdin(t *testing.T) {
	res := execute(t, "x,y\n\n\n\nx,y\n\n", "solve", "-q", "-")
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, "stdin: achieved in 11 actions\n", res.stdout)
}

func TestInitWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackplan.yaml")
	res := execute(t, "", "init", path)
	require.Equal(t, 0, res.code, res.stderr)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "placement: pinned")

	res = execute(t, "", "--config", path, "solve", "-q", writeFile(t, t.TempDir(), "swap.yaml", swapYAML))
	require.Equal(t, 0, res.code, res.stderr)
}

func TestWatchLoopDebouncesMatchingEvents(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, "dir/problem.yaml", events, errs, 100*time.Millisecond, func() { calls <- struct{}{} })
	}()

	events <- fsnotify.Event{Name: "dir/other.yaml", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "dir/problem.yaml", Op: fsnotify.Write}
	events <- fsnotify.Event{Name: "dir/./problem.yaml", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "dir/problem.yaml", Op: fsnotify.Chmod}

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("expected one change callback")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Len(t, calls, 0)
}

func TestWatchLoopStopsOnWatcherError(t *testing.T) {
	errs := make(chan error, 1)
	errs <- os.ErrPermission
	err := watchLoop(context.Background(), "p.yaml", make(chan fsnotify.Event), errs, time.Millisecond, func() {})
	require.ErrorIs(t, err, os.ErrPermission)
}

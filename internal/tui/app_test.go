package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/stackplan/internal/plan"
	"github.com/kingrea/stackplan/internal/plan/engine"
	"github.com/kingrea/stackplan/internal/render"
	"github.com/kingrea/stackplan/internal/world"
)

func newTestReplay(t *testing.T) *Replay {
	t.Helper()
	report, err := engine.New().Run(plan.Problem{
		ID:      "swap",
		Name:    "Swap two blocks",
		Initial: world.Layout{{"x", "y"}, nil, nil},
		Goal:    world.Layout{nil, {"x", "y"}, nil},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	r, err := NewReplay(report,
		WithInterval(time.Millisecond),
		WithRenderer(render.New(render.Options{Color: render.ColorNever, Output: &bytes.Buffer{}})),
	)
	if err != nil {
		t.Fatalf("new replay: %v", err)
	}
	return r
}

func send(t *testing.T, r *Replay, msg tea.Msg) tea.Cmd {
	t.Helper()
	model, cmd := r.Update(msg)
	if model != r {
		t.Fatalf("update returned a different model: %T", model)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReplayStepsThroughTrace(t *testing.T) {
	r := newTestReplay(t)
	if r.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0", r.Cursor())
	}
	send(t, r, tea.KeyMsg{Type: tea.KeyRight})
	send(t, r, runes("l"))
	if r.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", r.Cursor())
	}
	send(t, r, tea.KeyMsg{Type: tea.KeyLeft})
	if r.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", r.Cursor())
	}
	send(t, r, runes("G"))
	if r.Cursor() != len(r.states)-1 {
		t.Fatalf("cursor = %d, want last", r.Cursor())
	}
	send(t, r, tea.KeyMsg{Type: tea.KeyRight})
	if r.Cursor() != len(r.states)-1 {
		t.Fatalf("next past the end moved the cursor to %d", r.Cursor())
	}
	send(t, r, runes("g"))
	send(t, r, tea.KeyMsg{Type: tea.KeyLeft})
	if r.Cursor() != 0 {
		t.Fatalf("prev before the start moved the cursor to %d", r.Cursor())
	}
}

func TestReplayAutoplayRunsToEnd(t *testing.T) {
	r := newTestReplay(t)
	cmd := send(t, r, tea.KeyMsg{Type: tea.KeySpace})
	if !r.Playing() || cmd == nil {
		t.Fatalf("space should start autoplay")
	}
	for i := 0; cmd != nil && i < 100; i++ {
		cmd = send(t, r, cmd())
	}
	if r.Playing() {
		t.Fatalf("autoplay should stop at the last state")
	}
	if r.Cursor() != len(r.states)-1 {
		t.Fatalf("cursor = %d, want last", r.Cursor())
	}
}

func TestReplayIgnoresStaleTicks(t *testing.T) {
	r := newTestReplay(t)
	cmd := send(t, r, tea.KeyMsg{Type: tea.KeySpace})
	stale := cmd()
	send(t, r, tea.KeyMsg{Type: tea.KeySpace})
	if r.Playing() {
		t.Fatalf("second space should pause")
	}
	if next := send(t, r, stale); next != nil || r.Cursor() != 0 {
		t.Fatalf("stale tick advanced the replay to %d", r.Cursor())
	}
}

func TestReplayQuit(t *testing.T) {
	r := newTestReplay(t)
	cmd := send(t, r, runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestReplayViewShowsDiagramAndEvent(t *testing.T) {
	r := newTestReplay(t)
	view := r.View()
	for _, want := range []string{"swap", "Swap two blocks", "step 0/11", "Initial state", "State 0:"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	send(t, r, tea.KeyMsg{Type: tea.KeyRight})
	view = r.View()
	if !strings.Contains(view, "#1 pick up y at A") || !strings.Contains(view, "State 1:") {
		t.Fatalf("view after one step:\n%s", view)
	}
}

func TestReplayHelpToggle(t *testing.T) {
	r := newTestReplay(t)
	short := r.View()
	send(t, r, runes("?"))
	full := r.View()
	if !strings.Contains(full, "first") || strings.Contains(short, "first") {
		t.Fatalf("full help should list first/last bindings")
	}
}

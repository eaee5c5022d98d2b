// internal/tui/app.go
//
// Replay viewer for a solved problem. It follows The Elm Architecture:
// key presses and autoplay ticks become messages, Update moves the cursor
// through the trace and View draws the world at the cursor.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/stackplan/internal/plan/engine"
	"github.com/kingrea/stackplan/internal/render"
	"github.com/kingrea/stackplan/internal/world"
)

const defaultInterval = 600 * time.Millisecond

// Option customizes a Replay.
type Option func(*Replay)

// WithInterval sets the autoplay delay between steps.
func WithInterval(d time.Duration) Option {
	return func(r *Replay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRenderer overrides the diagram renderer.
func WithRenderer(renderer *render.Renderer) Option {
	return func(r *Replay) {
		if renderer != nil {
			r.renderer = renderer
		}
	}
}

// tickMsg advances autoplay. gen discards ticks scheduled before the last
// pause so toggling play quickly never doubles the speed.
type tickMsg struct {
	gen int
}

// Replay is the bubbletea model stepping through a Report.
type Replay struct {
	report   engine.Report
	states   []*world.State
	renderer *render.Renderer
	keys     keyMap
	help     help.Model
	interval time.Duration

	cursor  int
	playing bool
	gen     int
	width   int
}

// NewReplay rebuilds every state of the report's trace.
func NewReplay(report engine.Report, opts ...Option) (*Replay, error) {
	states, err := report.Replay()
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	r := &Replay{
		report:   report,
		states:   states,
		renderer: render.New(render.Options{Color: render.ColorAuto}),
		keys:     defaultKeyMap(),
		help:     help.New(),
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Cursor is the index of the displayed state; 0 is the initial world.
func (r *Replay) Cursor() int {
	return r.cursor
}

// Playing reports whether autoplay is running.
func (r *Replay) Playing() bool {
	return r.playing
}

// Init implements tea.Model.
func (r *Replay) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (r *Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = m.Width
		r.help.Width = m.Width
		return r, nil
	case tickMsg:
		if !r.playing || m.gen != r.gen {
			return r, nil
		}
		if !r.step(1) {
			r.playing = false
			return r, nil
		}
		return r, r.tick()
	case tea.KeyMsg:
		return r.handleKey(m)
	}
	return r, nil
}

func (r *Replay) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, r.keys.Quit):
		return r, tea.Quit
	case key.Matches(msg, r.keys.Next):
		r.pause()
		r.step(1)
	case key.Matches(msg, r.keys.Prev):
		r.pause()
		r.step(-1)
	case key.Matches(msg, r.keys.First):
		r.pause()
		r.cursor = 0
	case key.Matches(msg, r.keys.Last):
		r.pause()
		r.cursor = len(r.states) - 1
	case key.Matches(msg, r.keys.Play):
		if r.playing {
			r.pause()
			return r, nil
		}
		if r.cursor == len(r.states)-1 {
			r.cursor = 0
		}
		r.playing = true
		r.gen++
		return r, r.tick()
	case key.Matches(msg, r.keys.Help):
		r.help.ShowAll = !r.help.ShowAll
	}
	return r, nil
}

// step moves the cursor by delta and reports whether it moved.
func (r *Replay) step(delta int) bool {
	next := r.cursor + delta
	if next < 0 || next >= len(r.states) {
		return false
	}
	r.cursor = next
	return true
}

func (r *Replay) pause() {
	if r.playing {
		r.playing = false
		r.gen++
	}
}

func (r *Replay) tick() tea.Cmd {
	gen := r.gen
	return tea.Tick(r.interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// View implements tea.Model.
func (r *Replay) View() string {
	title := r.report.ProblemID
	if r.report.ProblemName != "" {
		title = fmt.Sprintf("%s · %s", r.report.ProblemID, r.report.ProblemName)
	}
	header := titleStyle.Render(title)
	status := fmt.Sprintf("Status: %s · step %d/%d", r.report.Status, r.cursor, len(r.states)-1)
	if r.playing {
		status += " · playing"
	}
	sections := []string{header, statusStyle.Render(status), "", r.renderer.Diagram(r.states[r.cursor]), ""}
	sections = append(sections, eventStyle.Render(r.eventLine()))
	if r.report.StatusReason != "" && r.cursor == len(r.states)-1 {
		sections = append(sections, reasonStyle.Render(r.report.StatusReason))
	}
	sections = append(sections, "", r.help.View(r.keys))
	return strings.Join(sections, "\n")
}

func (r *Replay) eventLine() string {
	if r.cursor == 0 {
		return "Initial state"
	}
	event := r.report.Events[r.cursor-1]
	if event.Task == "" {
		return event.String()
	}
	return fmt.Sprintf("%s  (%s)", event, event.Task)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5B8DEF"))
	reasonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB454"))
)

package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/kingrea/stackplan/internal/relation"
	"github.com/kingrea/stackplan/internal/world"
)

// ColorMode selects when diagrams are styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always or never. Empty means auto.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("render: unknown color mode %q", value)
	}
}

// Options controls a Renderer.
type Options struct {
	Color ColorMode
	// Facts adds the extracted relations beside the diagram.
	Facts bool
	// Output is the destination the diagram will be written to. It decides
	// auto color and the terminal profile.
	Output io.Writer
}

// Renderer draws states with a fixed style set.
type Renderer struct {
	styled bool
	facts  bool

	header lipgloss.Style
	arm    lipgloss.Style
	held   lipgloss.Style
	block  lipgloss.Style
	base   lipgloss.Style
	label  lipgloss.Style
	panel  lipgloss.Style
}

// New builds a renderer for opts.
func New(opts Options) *Renderer {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	styled := UseColor(opts.Color, out)
	lr := lipgloss.NewRenderer(out)
	if styled && opts.Color == ColorAlways {
		lr.SetColorProfile(termenv.ANSI256)
	}
	return &Renderer{
		styled: styled,
		facts:  opts.Facts,
		header: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		arm:    lr.NewStyle().Foreground(lipgloss.Color("#888888")),
		held:   lr.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		block:  lr.NewStyle().Foreground(lipgloss.Color("#E8E8E8")),
		base:   lr.NewStyle().Foreground(lipgloss.Color("#444444")),
		label:  lr.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAAAAA")),
		panel: lr.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
	}
}

// UseColor reports whether mode enables styling when writing to w.
func UseColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Diagram renders state with a one-off renderer.
func Diagram(state *world.State, opts Options) string {
	return New(opts).Diagram(state)
}

// Diagram renders state. Cells are as wide as the longest block name so
// multi-character names stay aligned.
func (r *Renderer) Diagram(state *world.State) string {
	width := cellWidth(state)
	arm := state.Arm()
	lines := []string{r.paint(r.header, fmt.Sprintf("State %d:", state.Step()))}

	start := cellStart(arm.At, width)
	lines = append(lines,
		strings.Repeat(" ", start+(width-1)/2)+r.paint(r.arm, "|"),
		strings.Repeat(" ", start-1)+r.paint(r.arm, "/")+r.cell(r.held, arm.Holding, width)+r.paint(r.arm, "\\"),
		"",
	)

	height := 0
	for _, loc := range world.Locations {
		height = max(height, state.Height(loc))
	}
	for row := height - 1; row >= 0; row-- {
		cells := make([]string, 0, world.NumLocations)
		for _, loc := range world.Locations {
			stack := state.Stack(loc)
			var name world.Block
			if row < len(stack) {
				name = stack[row]
			}
			cells = append(cells, r.cell(r.block, name, width))
		}
		lines = append(lines, strings.TrimRight(" "+strings.Join(cells, "  "), " "))
	}

	lines = append(lines, r.paint(r.base, strings.Repeat("=", world.NumLocations*(width+2))))
	labels := make([]string, 0, world.NumLocations)
	for _, loc := range world.Locations {
		labels = append(labels, r.cell(r.label, world.Block(loc.String()), width))
	}
	lines = append(lines, strings.TrimRight(" "+strings.Join(labels, "  "), " "))

	diagram := strings.Join(lines, "\n")
	if !r.facts {
		return diagram
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, diagram, "   ", r.factPanel(state))
}

func (r *Renderer) factPanel(state *world.State) string {
	facts := relation.Extract(state).Sorted()
	rows := make([]string, 0, len(facts)+1)
	rows = append(rows, r.paint(r.header, "Facts"))
	for _, fact := range facts {
		rows = append(rows, fact.String())
	}
	body := strings.Join(rows, "\n")
	if !r.styled {
		return body
	}
	return r.panel.Render(body)
}

// cell pads name to width and styles only the visible label.
func (r *Renderer) cell(style lipgloss.Style, name world.Block, width int) string {
	pad := strings.Repeat(" ", width-len(name))
	if name == "" {
		return pad
	}
	return r.paint(style, string(name)) + pad
}

func (r *Renderer) paint(style lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return style.Render(text)
}

func cellStart(loc world.Location, width int) int {
	return 1 + int(loc)*(width+2)
}

func cellWidth(state *world.State) int {
	width := 1
	for b := range state.Inventory() {
		width = max(width, len(b))
	}
	return width
}

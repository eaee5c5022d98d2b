package plan

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kingrea/stackplan/internal/world"
)

// textLines is the number of stacks in the six-line text format: initial
// A, B, C followed by goal A, B, C.
const textLines = 2 * world.NumLocations

// ParseProblemText reads the six-line text format. Blank lines denote empty
// stacks; lines starting with '#' are skipped.
func ParseProblemText(r io.Reader, fallbackID string) (Problem, error) {
	lines, err := readStackLines(r)
	if err != nil {
		return Problem{}, err
	}
	return problemFromLines(lines, fallbackID)
}

func readStackLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("plan: read text problem: %w", err)
	}
	for len(lines) > textLines && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > textLines {
		return nil, malformed("text problem has %d stack lines, want %d", len(lines), textLines)
	}
	for len(lines) < textLines {
		lines = append(lines, "")
	}
	return lines, nil
}

func problemFromLines(lines []string, fallbackID string) (Problem, error) {
	var problem Problem
	for i, loc := range world.Locations {
		problem.Initial[loc] = splitStack(lines[i])
		problem.Goal[loc] = splitStack(lines[world.NumLocations+i])
	}
	return problem.Normalized(fallbackID)
}

// Prompt asks for the six stacks interactively, one per line, bottom to top.
func Prompt(in io.Reader, out io.Writer, id string) (Problem, error) {
	reader := bufio.NewReader(in)
	fmt.Fprintln(out, "Input each stack in bottom to top order with the format \"x,y,z\".")
	lines := make([]string, 0, textLines)
	for _, phase := range []string{"Initial", "Goal"} {
		fmt.Fprintf(out, "\n%s state:\n", phase)
		for _, loc := range world.Locations {
			fmt.Fprintf(out, "Enter the stack at %s: ", loc)
			line, err := reader.ReadString('\n')
			if err != nil && err != io.EOF {
				return Problem{}, fmt.Errorf("plan: read stack: %w", err)
			}
			lines = append(lines, strings.TrimRight(line, "\r\n"))
			if err == io.EOF && len(lines) < textLines {
				return Problem{}, malformed("input ended after %d of %d stacks", len(lines), textLines)
			}
		}
	}
	fmt.Fprintln(out)
	return problemFromLines(lines, id)
}

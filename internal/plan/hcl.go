package plan

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/kingrea/stackplan/internal/world"
)

// hclProblem is the decoding target for problem files written in HCL:
//
//	id = "restack"
//	initial {
//	  a = split(",", "x,y")
//	}
//	goal {
//	  b = ["x", "y"]
//	}
type hclProblem struct {
	ID          string          `hcl:"id,optional"`
	Name        string          `hcl:"name,optional"`
	Description string          `hcl:"description,optional"`
	Initial     *hclArrangement `hcl:"initial,block"`
	Goal        *hclArrangement `hcl:"goal,block"`
}

type hclArrangement struct {
	A []string `hcl:"a,optional"`
	B []string `hcl:"b,optional"`
	C []string `hcl:"c,optional"`
}

func (a *hclArrangement) layout() world.Layout {
	var out world.Layout
	if a == nil {
		return out
	}
	for loc, names := range [world.NumLocations][]string{a.A, a.B, a.C} {
		for _, name := range names {
			out[loc] = append(out[loc], world.Block(name))
		}
	}
	return out
}

// hclEvalContext exposes a few list helpers so stacks can be written in the
// comma form or assembled from other stacks.
func hclEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"split":   stdlib.SplitFunc,
			"concat":  stdlib.ConcatFunc,
			"reverse": stdlib.ReverseListFunc,
		},
	}
}

// ParseProblemHCL decodes a problem from HCL source. filename is only used in
// diagnostics.
func ParseProblemHCL(src []byte, filename, fallbackID string) (Problem, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Problem{}, fmt.Errorf("plan: parse %s: %w", filename, diags)
	}
	var doc hclProblem
	if diags := gohcl.DecodeBody(file.Body, hclEvalContext(), &doc); diags.HasErrors() {
		return Problem{}, fmt.Errorf("plan: decode %s: %w", filename, diags)
	}
	if doc.Initial == nil || doc.Goal == nil {
		return Problem{}, malformed("%s: both initial and goal blocks are required", filename)
	}
	problem := Problem{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Initial:     doc.Initial.layout(),
		Goal:        doc.Goal.layout(),
	}
	return problem.Normalized(fallbackID)
}

package lower

import (
	"fmt"
	"io"
	"strings"

	"github.com/ABaaaC/taco/lattice"
	"github.com/ABaaaC/taco/notation"
)

// TraceTarget is a Target that renders the loop nest as indented text.
// It is meant for tests and the -print-compute CLI flag, not as a real
// codegen backend.
type TraceTarget struct {
	W     io.Writer
	depth int
}

func (t *TraceTarget) indent() string { return strings.Repeat("  ", t.depth) }

func (t *TraceTarget) EnterLoop(v notation.IndexVar, kind LoopKind, lats []*lattice.Lattice, rel notation.IndexVarRel) error {
	relDesc := ""
	if rel != nil {
		relDesc = fmt.Sprintf(" <- %s", rel)
	}
	fmt.Fprintf(t.W, "%sfor %s [%s]%s {\n", t.indent(), v, kind, relDesc)
	t.depth++
	return nil
}

func (t *TraceTarget) ExitLoop(v notation.IndexVar) error {
	t.depth--
	fmt.Fprintf(t.W, "%s}\n", t.indent())
	return nil
}

func (t *TraceTarget) EnterProducer(scratch *notation.TensorVar) error {
	fmt.Fprintf(t.W, "%sproduce %s {\n", t.indent(), scratch)
	t.depth++
	return nil
}

func (t *TraceTarget) ExitProducer(scratch *notation.TensorVar) error {
	t.depth--
	fmt.Fprintf(t.W, "%s}\n", t.indent())
	return nil
}

func (t *TraceTarget) Compute(lhs *notation.Access, op notation.BinOp, hasOp bool, rhs notation.Node) error {
	if lhs == nil {
		fmt.Fprintf(t.W, "%syield %s\n", t.indent(), rhs)
		return nil
	}
	if hasOp {
		fmt.Fprintf(t.W, "%s%s %s= %s\n", t.indent(), lhs, op, rhs)
		return nil
	}
	fmt.Fprintf(t.W, "%s%s = %s\n", t.indent(), lhs, rhs)
	return nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ABaaaC/taco/lattice"
	"github.com/ABaaaC/taco/lower"
	"github.com/ABaaaC/taco/notation"
)

// nullTarget discards every event; it is used by -time to measure the
// lowerer's own walk-and-lattice-construction cost in isolation from any
// codegen backend.
type nullTarget struct{}

func (nullTarget) EnterLoop(notation.IndexVar, lower.LoopKind, []*lattice.Lattice, notation.IndexVarRel) error {
	return nil
}
func (nullTarget) ExitLoop(notation.IndexVar) error                                   { return nil }
func (nullTarget) EnterProducer(*notation.TensorVar) error                            { return nil }
func (nullTarget) ExitProducer(*notation.TensorVar) error                             { return nil }
func (nullTarget) Compute(*notation.Access, notation.BinOp, bool, notation.Node) error { return nil }

// captureTarget forwards every call to inner and additionally records the
// lattices built for the Forall binding want, for -print-lattice.
type captureTarget struct {
	inner lower.Target
	want  notation.IndexVar
	found []*lattice.Lattice
	hit   bool
}

func (c *captureTarget) EnterLoop(v notation.IndexVar, kind lower.LoopKind, lats []*lattice.Lattice, rel notation.IndexVarRel) error {
	if v.Equals(c.want) {
		c.found = lats
		c.hit = true
	}
	return c.inner.EnterLoop(v, kind, lats, rel)
}
func (c *captureTarget) ExitLoop(v notation.IndexVar) error { return c.inner.ExitLoop(v) }
func (c *captureTarget) EnterProducer(t *notation.TensorVar) error {
	return c.inner.EnterProducer(t)
}
func (c *captureTarget) ExitProducer(t *notation.TensorVar) error {
	return c.inner.ExitProducer(t)
}
func (c *captureTarget) Compute(lhs *notation.Access, op notation.BinOp, hasOp bool, rhs notation.Node) error {
	return c.inner.Compute(lhs, op, hasOp, rhs)
}

// discardTarget renders nothing; it is captureTarget's inner when the CLI
// was asked for -print-lattice but for neither -print-compute nor
// -print-assembly.
type discardTarget struct{ nullTarget }

// asmTarget renders the loop nest as a flat pseudo-assembly listing: a
// minimal stand-in for the real codegen collaborator, which
// emits imperative code this middle end never defines. It exists to show
// Target is a genuine seam, not a single hardwired backend, the same role
// TraceTarget plays for -print-compute.
type asmTarget struct {
	w       io.Writer
	depth   int
	labelID int
}

func (a *asmTarget) indent() string { return strings.Repeat("    ", a.depth) }

func (a *asmTarget) EnterLoop(v notation.IndexVar, kind lower.LoopKind, lats []*lattice.Lattice, rel notation.IndexVarRel) error {
	a.labelID++
	fmt.Fprintf(a.w, "%sL%d:  ; loop %s kind=%s\n", a.indent(), a.labelID, v, kind)
	a.depth++
	return nil
}

func (a *asmTarget) ExitLoop(v notation.IndexVar) error {
	a.depth--
	fmt.Fprintf(a.w, "%s; end %s\n", a.indent(), v)
	return nil
}

func (a *asmTarget) EnterProducer(scratch *notation.TensorVar) error {
	fmt.Fprintf(a.w, "%salloc %s\n", a.indent(), scratch)
	a.depth++
	return nil
}

func (a *asmTarget) ExitProducer(scratch *notation.TensorVar) error {
	a.depth--
	fmt.Fprintf(a.w, "%s; done %s\n", a.indent(), scratch)
	return nil
}

func (a *asmTarget) Compute(lhs *notation.Access, op notation.BinOp, hasOp bool, rhs notation.Node) error {
	if lhs == nil {
		fmt.Fprintf(a.w, "%semit %s\n", a.indent(), rhs)
		return nil
	}
	mnemonic := "store"
	if hasOp {
		mnemonic = "acc." + opMnemonic(op)
	}
	fmt.Fprintf(a.w, "%s%s %s, %s\n", a.indent(), mnemonic, lhs, rhs)
	return nil
}

func opMnemonic(op notation.BinOp) string {
	switch op {
	case notation.OpAdd:
		return "add"
	case notation.OpSub:
		return "sub"
	case notation.OpMul:
		return "mul"
	case notation.OpDiv:
		return "div"
	default:
		return "?"
	}
}

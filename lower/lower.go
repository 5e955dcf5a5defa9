// Package lower implements the lowerer entry: it walks a concrete IndexStmt
// together with the merge lattices built over it and drives an external
// codegen collaborator (Target) through the resulting loop nest, one call
// per structural event. It never emits code itself; a real backend turns
// Target's calls into C, CUDA, or whatever else is left as an external
// concern.
package lower

import (
	"fmt"

	"github.com/ABaaaC/taco/iterator"
	"github.com/ABaaaC/taco/lattice"
	"github.com/ABaaaC/taco/notation"
	"github.com/ABaaaC/taco/schedule"
)

// LoopKind distinguishes how Target should drive one Forall's iteration.
type LoopKind int

const (
	// DenseLoop iterates the full dimension directly: every operand
	// touching this variable is Locate-capable, so no merge is needed.
	DenseLoop LoopKind = iota
	// MergeLoop advances one or more PositionIterate-capable operands in
	// lockstep, switching among the lattice's Points as operands exhaust.
	MergeLoop
	// PosLoop iterates a single contiguous position-space segment derived
	// from a Pos relation: never a merge, regardless of what the lattice
	// built over its body would otherwise say.
	PosLoop
)

func (k LoopKind) String() string {
	switch k {
	case DenseLoop:
		return "dense"
	case MergeLoop:
		return "merge"
	case PosLoop:
		return "pos"
	default:
		return fmt.Sprintf("lower.LoopKind(%d)", int(k))
	}
}

// Target is the codegen collaborator. Lower calls its methods
// in the order a single-threaded interpreter of the loop nest would
// visit them; Lats holds one merge lattice per distinct assignment or
// yield expression reached within the loop (almost always length 1).
type Target interface {
	EnterLoop(v notation.IndexVar, kind LoopKind, lats []*lattice.Lattice, rel notation.IndexVarRel) error
	ExitLoop(v notation.IndexVar) error
	EnterProducer(scratch *notation.TensorVar) error
	ExitProducer(scratch *notation.TensorVar) error
	Compute(lhs *notation.Access, op notation.BinOp, hasOp bool, rhs notation.Node) error
}

// Lower walks stmt, which must already be in concrete form (e.g. the
// output of forms.Concretize), and drives target through its loop nest
// and computations. trees supplies one pre-built iterator tree per Access
// occurring in stmt.
func Lower(stmt notation.Stmt, target Target, trees map[*notation.Access]*iterator.ModeIterator) error {
	inner, preds := notation.Unwrap(stmt)
	g := schedule.Build(preds)
	return lowerStmt(inner, target, trees, g)
}

func lowerStmt(s notation.Stmt, target Target, trees map[*notation.Access]*iterator.ModeIterator, g *schedule.Graph) error {
	switch st := s.(type) {
	case *notation.Forall:
		terms := gatherTermExprs(st.Body)
		lats := make([]*lattice.Lattice, len(terms))
		for i, t := range terms {
			lats[i] = lattice.Build(st.Var, t, trees)
		}
		rel, _ := g.RelOf(st.Var)
		kind := classifyLoop(g, st.Var, lats)
		if err := target.EnterLoop(st.Var, kind, lats, rel); err != nil {
			return err
		}
		if err := lowerStmt(st.Body, target, trees, g); err != nil {
			return err
		}
		return target.ExitLoop(st.Var)
	case *notation.Where:
		scratch := scratchOf(st.Producer)
		if err := target.EnterProducer(scratch); err != nil {
			return err
		}
		if err := lowerStmt(st.Producer, target, trees, g); err != nil {
			return err
		}
		if err := target.ExitProducer(scratch); err != nil {
			return err
		}
		return lowerStmt(st.Consumer, target, trees, g)
	case *notation.Sequence:
		if err := lowerStmt(st.Defn, target, trees, g); err != nil {
			return err
		}
		return lowerStmt(st.Mutn, target, trees, g)
	case *notation.Multi:
		if err := lowerStmt(st.A, target, trees, g); err != nil {
			return err
		}
		return lowerStmt(st.B, target, trees, g)
	case *notation.SuchThat:
		return lowerStmt(st.Stmt, target, trees, g)
	case *notation.Assignment:
		var op notation.BinOp
		hasOp := st.Op != nil
		if hasOp {
			op = st.Op.(*notation.Binary).Op
		}
		return target.Compute(st.Lhs, op, hasOp, st.Rhs)
	case *notation.Yield:
		return target.Compute(nil, 0, false, st.Expr)
	default:
		panic(fmt.Sprintf("lower: unreachable Stmt kind %T", s))
	}
}

// classifyLoop picks the loop discipline for v: a Pos-derived variable
// always walks a single contiguous segment; otherwise the loop is dense
// only if every term's lattice needs no iterator at all.
func classifyLoop(g *schedule.Graph, v notation.IndexVar, lats []*lattice.Lattice) LoopKind {
	if g.IsPosVariable(v) {
		return PosLoop
	}
	for _, lat := range lats {
		if !lat.IsFull() {
			return MergeLoop
		}
	}
	return DenseLoop
}

// gatherTermExprs collects every Assignment.Rhs and Yield.Expr reachable
// under s. Nested Forall bodies are followed too, since a Forall only
// introduces a new loop level and does not end the current one's set of
// terms; Where/Sequence/Multi/SuchThat are followed for the same reason.
func gatherTermExprs(s notation.Stmt) []notation.Node {
	var out []notation.Node
	var walk func(notation.Stmt)
	walk = func(s notation.Stmt) {
		switch st := s.(type) {
		case *notation.Forall:
			walk(st.Body)
		case *notation.Where:
			walk(st.Consumer)
			walk(st.Producer)
		case *notation.Sequence:
			walk(st.Defn)
			walk(st.Mutn)
		case *notation.Multi:
			walk(st.A)
			walk(st.B)
		case *notation.SuchThat:
			walk(st.Stmt)
		case *notation.Assignment:
			out = append(out, st.Rhs)
		case *notation.Yield:
			out = append(out, st.Expr)
		default:
			panic(fmt.Sprintf("lower: unreachable Stmt kind %T", s))
		}
	}
	walk(s)
	return out
}

func scratchOf(s notation.Stmt) *notation.TensorVar {
	switch st := s.(type) {
	case *notation.Forall:
		return scratchOf(st.Body)
	case *notation.Sequence:
		return scratchOf(st.Defn)
	case *notation.Where:
		return scratchOf(st.Consumer)
	case *notation.Assignment:
		return st.Lhs.Tensor
	default:
		panic(fmt.Sprintf("lower: unreachable producer Stmt kind %T", s))
	}
}

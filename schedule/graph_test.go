package schedule

import (
	"testing"

	"github.com/ABaaaC/taco/dtype"
	"github.com/ABaaaC/taco/notation"
)

func TestEmptyGraphLeavesEveryVarUnderivedAndFullyDerived(t *testing.T) {
	g := Build(nil)
	i := notation.NewIndexVar("i")
	if !g.IsUnderived(i) || !g.IsFullyDerived(i) {
		t.Error("a variable absent from an empty graph should be both underived and fully-derived")
	}
}

func buildSplitGraph() (*Graph, *notation.SplitRel, notation.IndexVar, notation.IndexVar, notation.IndexVar) {
	i := notation.NewIndexVar("i")
	io := notation.NewIndexVar("io")
	ii := notation.NewIndexVar("ii")
	rel := &notation.SplitRel{Parent: i, Outer: io, Inner: ii, Factor: 32}
	return Build([]notation.IndexVarRel{rel}), rel, i, io, ii
}

func TestGraphParentsChildrenForSplit(t *testing.T) {
	g, _, i, io, ii := buildSplitGraph()

	if !g.IsUnderived(i) {
		t.Error("split's parent should be underived")
	}
	if g.IsUnderived(io) || g.IsUnderived(ii) {
		t.Error("split's outer/inner should be derived")
	}
	if !g.IsFullyDerived(io) || !g.IsFullyDerived(ii) {
		t.Error("outer/inner have no further children: fully derived")
	}
	if g.IsFullyDerived(i) {
		t.Error("i has children (outer, inner): not fully derived")
	}
	children := g.Children(i)
	if len(children) != 2 {
		t.Fatalf("Children(i) = %v, want 2 entries", children)
	}
}

func TestIsIrregularSplitOuterButNotInner(t *testing.T) {
	g, _, _, io, ii := buildSplitGraph()
	if !g.IsIrregular(io) {
		t.Error("split's outer child should be irregular (partial final tile)")
	}
	if g.IsIrregular(ii) {
		t.Error("split's inner child should be regular (always [0,factor))")
	}
}

func TestUnderivedAncestorsAndFullyDerivedDescendants(t *testing.T) {
	g, _, i, io, ii := buildSplitGraph()
	anc := g.UnderivedAncestors(io)
	if len(anc) != 1 || !anc[0].Equals(i) {
		t.Errorf("UnderivedAncestors(io) = %v, want [i]", anc)
	}
	desc := g.FullyDerivedDescendants(i)
	if len(desc) != 2 {
		t.Fatalf("FullyDerivedDescendants(i) = %v, want 2 leaves", desc)
	}
	found := map[notation.IndexVar]bool{}
	for _, v := range desc {
		found[v] = true
	}
	if !found[io] || !found[ii] {
		t.Errorf("FullyDerivedDescendants(i) = %v, want {io, ii}", desc)
	}
}

func TestIsRecoverableAndNewlyRecoverable(t *testing.T) {
	g, _, i, io, ii := buildSplitGraph()
	defined := map[notation.IndexVar]bool{io: true}
	if g.IsRecoverable(i, defined) {
		t.Error("i should not be recoverable with only io defined")
	}
	newlyDefined := map[notation.IndexVar]bool{io: true, ii: true}
	if !g.IsRecoverable(i, newlyDefined) {
		t.Error("i should be recoverable once both outer and inner are defined")
	}

	newly := g.NewlyRecoverable(ii, defined)
	if len(newly) != 1 || !newly[0].Equals(i) {
		t.Errorf("NewlyRecoverable(ii, {io}) = %v, want [i]", newly)
	}
}

func TestIsPosVariable(t *testing.T) {
	i := notation.NewIndexVar("i")
	p := notation.NewIndexVar("ip")
	A := notation.NewTensorVar("A", notation.TensorType{Datatype: dtype.Float64Type, Shape: []int{10}}, dtype.CompressedFormat(1))
	rel := &notation.PosRel{Parent: i, PosVar: p, Access: notation.NewAccess(A, i)}
	g := Build([]notation.IndexVarRel{rel})

	if !g.IsPosVariable(p) {
		t.Error("a Pos relation's child should be a pos variable")
	}
	if g.IsPosVariable(i) {
		t.Error("a Pos relation's parent should not itself be a pos variable")
	}
}

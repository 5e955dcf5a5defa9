package notation

import (
	"testing"

	"github.com/ABaaaC/taco/dtype"
)

func TestSplitRelIrregulars(t *testing.T) {
	i := NewIndexVar("i")
	io := NewIndexVar("io")
	ii := NewIndexVar("ii")
	s := &SplitRel{Parent: i, Outer: io, Inner: ii, Factor: 32}

	if len(s.Parents()) != 1 || !s.Parents()[0].Equals(i) {
		t.Errorf("Parents() = %v, want [i]", s.Parents())
	}
	if len(s.Children()) != 2 || !s.Children()[0].Equals(io) || !s.Children()[1].Equals(ii) {
		t.Errorf("Children() = %v, want [io ii]", s.Children())
	}
	irr := s.Irregulars()
	if len(irr) != 1 || !irr[0].Equals(io) {
		t.Errorf("Irregulars() = %v, want [io] (the outer keeps the parent's irregularity)", irr)
	}
}

func TestPosRelIrregulars(t *testing.T) {
	i := NewIndexVar("i")
	p := NewIndexVar("ip")
	A := NewTensorVar("A", vecType(10), dtype.CompressedFormat(1))
	rel := &PosRel{Parent: i, PosVar: p, Access: NewAccess(A, i)}

	irr := rel.Irregulars()
	if len(irr) != 1 || !irr[0].Equals(p) {
		t.Errorf("PosRel.Irregulars() = %v, want [ip]", irr)
	}
	if !rel.Equals(&PosRel{Parent: i, PosVar: p, Access: NewAccess(A, i)}) {
		t.Error("structurally identical PosRels should be equal")
	}
}

func TestFuseRelChildren(t *testing.T) {
	io := NewIndexVar("io")
	ii := NewIndexVar("ii")
	fused := NewIndexVar("f")
	rel := &FuseRel{OuterParent: io, InnerParent: ii, Fused: fused}

	if len(rel.Parents()) != 2 {
		t.Errorf("FuseRel.Parents() = %v, want 2 parents", rel.Parents())
	}
	if len(rel.Children()) != 1 || !rel.Children()[0].Equals(fused) {
		t.Errorf("FuseRel.Children() = %v, want [f]", rel.Children())
	}
}

package schedule

import "github.com/ABaaaC/taco/notation"

// RecoverSplit reconstructs a Split relation's parent value from concrete
// outer/inner values: parent = outer*factor + inner.
func RecoverSplit(s *notation.SplitRel, outerVal, innerVal int) int {
	return outerVal*s.Factor + innerVal
}

// RecoverFuse reconstructs a Fuse relation's parent values from a concrete
// fused value: outer = fused/innerSize, inner = fused mod innerSize. This
// round-trips against Fuse's forward composition (fused = outer*innerSize
// + inner).
func RecoverFuse(f *notation.FuseRel, fusedVal, innerSize int) (outerVal, innerVal int) {
	return fusedVal / innerSize, fusedVal % innerSize
}

// RecoverPos reconstructs a Pos relation's parent coordinate from a
// concrete position value: parent = crdArray[posVal] - parentCoordLow.
func RecoverPos(crd CoordAt, posVal, parentCoordLow int) int {
	return crd.At(posVal) - parentCoordLow
}

// CoordAt is the minimal crd-array accessor recovery needs (a subset of
// iterator.CrdArray, defined here to keep this file decoupled from the
// iterator package's binary-search helpers it does not use).
type CoordAt interface {
	At(pos int) int
}

// DeclarePos computes a Pos relation's child value given a concrete parent
// coordinate, by locating parent within the position-space segment
// [segBegin, segEnd) (dual: "declares a derived child").
func DeclarePos(crd interface {
	BinarySearchAfter(lo, hi, target int) int
}, segBegin, segEnd, parentCoord int) int {
	return crd.BinarySearchAfter(segBegin, segEnd, parentCoord)
}

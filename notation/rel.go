package notation

import "fmt"

// IndexVarRel derives one or more child IndexVars from one or more parent
// IndexVars. Relations are the edges of the schedule's index-variable
// relation graph; the graph algorithms that consume them
// live in package schedule, but the relations themselves are part of the
// immutable IR (they are carried inside a SuchThat node).
type IndexVarRel interface {
	fmt.Stringer
	// Parents returns the variables this relation derives children from.
	Parents() []IndexVar
	// Children returns the variables this relation produces.
	Children() []IndexVar
	// Irregulars returns the subset of Children (or, for Split, the lone
	// outer parent-shaped child) that keeps the irregularity of the
	// parent's iteration space.
	Irregulars() []IndexVar
	Equals(IndexVarRel) bool
}

// SplitRel splits Parent into Outer (which ranges over ceil(dim/Factor))
// and Inner (which ranges over [0,Factor)).
type SplitRel struct {
	Parent       IndexVar
	Outer, Inner IndexVar
	Factor       int
}

func (s *SplitRel) Parents() []IndexVar  { return []IndexVar{s.Parent} }
func (s *SplitRel) Children() []IndexVar { return []IndexVar{s.Outer, s.Inner} }
func (s *SplitRel) Irregulars() []IndexVar {
	return []IndexVar{s.Outer}
}
func (s *SplitRel) String() string {
	return fmt.Sprintf("split(%s -> %s,%s by %d)", s.Parent, s.Outer, s.Inner, s.Factor)
}
func (s *SplitRel) Equals(o IndexVarRel) bool {
	os, ok := o.(*SplitRel)
	return ok && s.Parent.Equals(os.Parent) && s.Outer.Equals(os.Outer) &&
		s.Inner.Equals(os.Inner) && s.Factor == os.Factor
}

// PosRel switches Parent from coordinate-space iteration to position-space
// iteration over the mode tree reachable from Access, producing PosVar.
type PosRel struct {
	Parent IndexVar
	PosVar IndexVar
	Access *Access
}

func (p *PosRel) Parents() []IndexVar    { return []IndexVar{p.Parent} }
func (p *PosRel) Children() []IndexVar   { return []IndexVar{p.PosVar} }
func (p *PosRel) Irregulars() []IndexVar { return []IndexVar{p.PosVar} }
func (p *PosRel) String() string {
	return fmt.Sprintf("pos(%s -> %s over %s)", p.Parent, p.PosVar, p.Access)
}
func (p *PosRel) Equals(o IndexVarRel) bool {
	op, ok := o.(*PosRel)
	return ok && p.Parent.Equals(op.Parent) && p.PosVar.Equals(op.PosVar) && p.Access.Equals(op.Access)
}

// FuseRel fuses an immediately-nested (OuterParent, InnerParent) pair into a
// single Fused variable ranging over OuterParent's extent times
// InnerParent's extent.
type FuseRel struct {
	OuterParent, InnerParent IndexVar
	Fused                    IndexVar
}

func (f *FuseRel) Parents() []IndexVar    { return []IndexVar{f.OuterParent, f.InnerParent} }
func (f *FuseRel) Children() []IndexVar   { return []IndexVar{f.Fused} }
func (f *FuseRel) Irregulars() []IndexVar { return []IndexVar{f.Fused} }
func (f *FuseRel) String() string {
	return fmt.Sprintf("fuse(%s,%s -> %s)", f.OuterParent, f.InnerParent, f.Fused)
}
func (f *FuseRel) Equals(o IndexVarRel) bool {
	of, ok := o.(*FuseRel)
	return ok && f.OuterParent.Equals(of.OuterParent) && f.InnerParent.Equals(of.InnerParent) &&
		f.Fused.Equals(of.Fused)
}

package schedule

import (
	"fmt"

	"github.com/ABaaaC/taco/iterator"
	"github.com/ABaaaC/taco/notation"
)

// Interval is a half-open integer range [Lo, Hi).
type Interval struct {
	Lo, Hi int
}

func (i Interval) Len() int { return i.Hi - i.Lo }

func (i Interval) String() string { return fmt.Sprintf("[%d,%d)", i.Lo, i.Hi) }

func ceilDiv(n, k int) int {
	if n <= 0 {
		return n / k
	}
	return (n + k - 1) / k
}

// BoundContext carries everything bound derivation needs beyond the
// relation graph itself: the tensor-storage collaborator (for Pos
// relations) and the declared dimension size of each underived variable.
type BoundContext struct {
	Graph *Graph
	Store iterator.Storage
	// DimOf returns the coordinate-space extent [0, dim) of an underived
	// IndexVar, taken from the shape of whichever tensor first
	// established that dimension.
	DimOf func(v notation.IndexVar) int
}

// IterationBounds computes the interval that the derived variable v ranges
// over.
func (c *BoundContext) IterationBounds(v notation.IndexVar) (Interval, error) {
	rel, ok := c.Graph.RelOf(v)
	if !ok {
		return Interval{0, c.DimOf(v)}, nil
	}
	switch r := rel.(type) {
	case *notation.SplitRel:
		parent, err := c.IterationBounds(r.Parent)
		if err != nil {
			return Interval{}, err
		}
		switch {
		case v.Equals(r.Outer):
			return Interval{parent.Lo / r.Factor, ceilDiv(parent.Hi, r.Factor)}, nil
		case v.Equals(r.Inner):
			return Interval{0, r.Factor}, nil
		default:
			panic("schedule: unreachable SplitRel child")
		}
	case *notation.PosRel:
		return c.posIterationBounds(r)
	case *notation.FuseRel:
		outer, err := c.IterationBounds(r.OuterParent)
		if err != nil {
			return Interval{}, err
		}
		inner, err := c.IterationBounds(r.InnerParent)
		if err != nil {
			return Interval{}, err
		}
		innerSize := inner.Len()
		return Interval{
			outer.Lo*innerSize + inner.Lo,
			(outer.Hi-1)*innerSize + inner.Hi,
		}, nil
	default:
		panic(fmt.Sprintf("schedule: unreachable IndexVarRel kind %T", rel))
	}
}

// posIterationBounds implements the two Pos rows of the bound
// table: a Pos over a single underived parent binary-searches the parent's
// coordinate interval in the access's position space; a Pos over a
// derived parent (Fuse-derived or any other) instead spans the whole
// stored extent [0, Size) of the access's first mode, since the parent
// has no single contiguous coordinate range to binary-search.
func (c *BoundContext) posIterationBounds(r *notation.PosRel) (Interval, error) {
	if _, derived := c.Graph.RelOf(r.Parent); derived {
		return c.fusedPosBounds(r)
	}
	return c.locateBounds(r)
}

// locateBounds requests the access's crd-array and pos-bounds from the
// iterator model and emits the (conceptual) binary-search calls that
// translate a coordinate-space interval into a position-space interval
// ("locateBounds(coordBounds)").
func (c *BoundContext) locateBounds(r *notation.PosRel) (Interval, error) {
	coord, err := c.IterationBounds(r.Parent)
	if err != nil {
		return Interval{}, err
	}
	crd, ok := c.Store.CrdArray(r.Access, 0)
	if !ok {
		return Interval{}, fmt.Errorf("schedule: pos(%s) over a dense mode has no coordinate array to search", r.Parent)
	}
	size := c.Store.Size(r.Access, 0)
	lo := coord.Lo
	hi := coord.Hi
	// simplify exact-endpoint segments to avoid an unnecessary search.
	loPos := 0
	if lo != 0 {
		loPos = crd.BinarySearchAfter(0, size, lo)
	}
	hiPos := size
	if hi != c.DimOf(r.Parent) {
		hiPos = crd.BinarySearchAfter(0, size, hi)
	}
	return Interval{loPos, hiPos}, nil
}

func (c *BoundContext) fusedPosBounds(r *notation.PosRel) (Interval, error) {
	size := c.Store.Size(r.Access, 0)
	return Interval{0, size}, nil
}

// SplitParentCoordBounds computes the coordinate-space interval a parent
// variable is known to range over, given concrete values for its Split
// children. inner may be nil if
// only the outer child's value is known yet.
func SplitParentCoordBounds(parentBounds Interval, factor, outerVal int, inner *int) Interval {
	if inner == nil {
		lo := parentBounds.Lo + outerVal*factor
		hi := lo + factor
		if hi > parentBounds.Hi {
			hi = parentBounds.Hi
		}
		return Interval{lo, hi}
	}
	lo := parentBounds.Lo + outerVal*factor + *inner
	hi := lo + 1
	if hi > parentBounds.Hi {
		hi = parentBounds.Hi
	}
	return Interval{lo, hi}
}

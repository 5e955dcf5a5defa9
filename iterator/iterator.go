// Package iterator models the per-mode iterator capability vectors and
// mode-iterator trees. It defines the interfaces through which the
// tensor-storage collaborator supplies crd/pos arrays and segment bounds;
// no storage is implemented here.
package iterator

import (
	"fmt"

	"github.com/ABaaaC/taco/dtype"
	"github.com/ABaaaC/taco/notation"
)

// Capability is a bitset of the operations one mode-iterator exposes.
type Capability int

const (
	CoordinateIterate Capability = 1 << iota
	PositionIterate
	Locate
	Insert
	Append
	Size
	Width
)

func (c Capability) Has(flag Capability) bool { return c&flag != 0 }

func (c Capability) String() string {
	names := []struct {
		bit  Capability
		name string
	}{
		{CoordinateIterate, "coord-iterate"},
		{PositionIterate, "pos-iterate"},
		{Locate, "locate"},
		{Insert, "insert"},
		{Append, "append"},
		{Size, "size"},
		{Width, "width"},
	}
	s := ""
	for _, n := range names {
		if c.Has(n.bit) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

// CapabilitiesFor returns the capability vector a mode of the given kind
// exposes: Dense modes support random access; Sparse modes
// support position-based iteration and structural growth.
func CapabilitiesFor(kind dtype.ModeKind) Capability {
	switch kind {
	case dtype.Dense:
		return CoordinateIterate | Locate | Insert | Width
	case dtype.Sparse:
		return PositionIterate | Append | Size
	default:
		panic(fmt.Sprintf("iterator: unreachable ModeKind %v", kind))
	}
}

// CrdArray is the per-mode coordinate array of a sparse tensor's storage,
// supplied by the tensor-storage collaborator.
type CrdArray interface {
	// At returns the coordinate stored at position pos.
	At(pos int) int
	// BinarySearchAfter returns the smallest position in [lo,hi) whose
	// coordinate is >= target, or hi if none exists.
	BinarySearchAfter(lo, hi, target int) int
}

// Storage is the tensor-storage collaborator interface: it
// supplies crd/pos arrays, segment bounds, and capability-relevant sizes
// for one mode of one Access.
type Storage interface {
	// CrdArray returns the coordinate array for the given mode of access,
	// or (nil, false) if the mode is Dense (which has none).
	CrdArray(access *notation.Access, modeIndex int) (CrdArray, bool)
	// PosBounds returns the [lo, hi) position-space segment that the
	// given parent coordinate-space position maps to, for a sparse mode.
	PosBounds(access *notation.Access, modeIndex int, parentPos int) (lo, hi int)
	// Size returns the total number of stored entries in the given mode.
	Size(access *notation.Access, modeIndex int) int
	// Width returns the dense extent (dimension size) of the given mode.
	Width(access *notation.Access, modeIndex int) int
}

// Key uniquely identifies a mode-iterator: one per (syntactic Access
// occurrence, mode index).
type Key struct {
	Access    *notation.Access
	ModeIndex int
}

// ModeIterator is one node of the iterator tree mirroring an Access's
// Format: the root is a virtual iterator whose sole child is the outermost
// mode, and each subsequent mode is a child of the previous one.
type ModeIterator struct {
	Key      Key
	Kind     dtype.ModeKind
	Caps     Capability
	Parent   *ModeIterator
	Children []*ModeIterator
	// Dim is the size of the dimension this mode indexes (from the
	// tensor's declared shape, via the mode's Ordering).
	Dim int
}

// IsRoot reports whether m is the virtual root iterator.
func (m *ModeIterator) IsRoot() bool { return m.Parent == nil && m.Key.Access == nil }

// BuildTree constructs the iterator tree for access, following its
// tensor's Format from outermost to innermost mode.
func BuildTree(access *notation.Access) *ModeIterator {
	format := access.Tensor.Format()
	shape := access.Tensor.Type().Shape
	root := &ModeIterator{}
	prev := root
	for i, mf := range format.Modes {
		dim := 0
		if mf.Ordering < len(shape) {
			dim = shape[mf.Ordering]
		}
		node := &ModeIterator{
			Key:    Key{Access: access, ModeIndex: i},
			Kind:   mf.Kind,
			Caps:   CapabilitiesFor(mf.Kind),
			Parent: prev,
			Dim:    dim,
		}
		prev.Children = append(prev.Children, node)
		prev = node
	}
	return root
}

// ModeForVar returns the iterator node of access that indexes the given
// IndexVar's underived dimension, if access's index list contains that
// dimension's ordering position.
func ModeForVar(tree *ModeIterator, access *notation.Access, varPos int) *ModeIterator {
	storagePos, ok := access.Tensor.Format().StoragePositionOf(varPos)
	if !ok {
		return nil
	}
	var find func(m *ModeIterator) *ModeIterator
	find = func(m *ModeIterator) *ModeIterator {
		if m.Key.Access == access && m.Key.ModeIndex == storagePos {
			return m
		}
		for _, c := range m.Children {
			if r := find(c); r != nil {
				return r
			}
		}
		return nil
	}
	return find(tree)
}

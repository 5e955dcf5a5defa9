package dtype

import (
	"fmt"
	"strings"
)

// ModeKind is the storage discipline of one mode of a tensor.
type ModeKind int

const (
	// Dense modes support random access (Locate); every coordinate in
	// [0,dim) is implicitly present.
	Dense ModeKind = iota
	// Sparse modes are stored as an explicit list of coordinates and
	// support position-based iteration (PositionIterate).
	Sparse
)

func (k ModeKind) String() string {
	switch k {
	case Dense:
		return "dense"
	case Sparse:
		return "sparse"
	default:
		return fmt.Sprintf("dtype.ModeKind(%d)", int(k))
	}
}

// ModeFormat describes one mode of a Format: its storage kind and its
// position in the tensor's iteration order (an index into Shape).
type ModeFormat struct {
	Kind     ModeKind
	Ordering int
}

func (m ModeFormat) Equals(o ModeFormat) bool {
	return m.Kind == o.Kind && m.Ordering == o.Ordering
}

func (m ModeFormat) String() string {
	if m.Kind == Dense {
		return fmt.Sprintf("d%d", m.Ordering)
	}
	return fmt.Sprintf("s%d", m.Ordering)
}

// Format is the ordered sequence of mode formats for a tensor. Modes are
// listed in storage order; ModeFormat.Ordering records which dimension of
// the tensor's shape each storage position corresponds to, so Orderings
// across all modes of a Format must form a permutation of {0,...,order-1}.
type Format struct {
	Modes []ModeFormat
}

// DenseFormat returns the row-major all-dense Format of the given order.
func DenseFormat(order int) Format {
	f := Format{Modes: make([]ModeFormat, order)}
	for i := 0; i < order; i++ {
		f.Modes[i] = ModeFormat{Kind: Dense, Ordering: i}
	}
	return f
}

// CompressedFormat returns the canonical row-major all-sparse (CSR-like) Format.
func CompressedFormat(order int) Format {
	f := Format{Modes: make([]ModeFormat, order)}
	for i := 0; i < order; i++ {
		f.Modes[i] = ModeFormat{Kind: Sparse, Ordering: i}
	}
	return f
}

// Order is the number of modes.
func (f Format) Order() int { return len(f.Modes) }

// Equals reports whether f and o have identical per-position kinds and
// orderings.
func (f Format) Equals(o Format) bool {
	if len(f.Modes) != len(o.Modes) {
		return false
	}
	for i := range f.Modes {
		if !f.Modes[i].Equals(o.Modes[i]) {
			return false
		}
	}
	return true
}

// Validate checks that the Orderings of Modes form a permutation of
// {0,...,len(Modes)-1}.
func (f Format) Validate() error {
	seen := make([]bool, len(f.Modes))
	for _, m := range f.Modes {
		if m.Ordering < 0 || m.Ordering >= len(f.Modes) {
			return fmt.Errorf("dtype: mode ordering %d out of range [0,%d)", m.Ordering, len(f.Modes))
		}
		if seen[m.Ordering] {
			return fmt.Errorf("dtype: mode ordering %d used more than once", m.Ordering)
		}
		seen[m.Ordering] = true
	}
	return nil
}

func (f Format) String() string {
	var b strings.Builder
	for i, m := range f.Modes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(m.String())
	}
	return b.String()
}

// ModeAt returns the ModeFormat stored at storage position pos.
func (f Format) ModeAt(pos int) ModeFormat { return f.Modes[pos] }

// StoragePositionOf returns the storage position whose Ordering equals
// dim, i.e. the inverse of ModeFormat.Ordering.
func (f Format) StoragePositionOf(dim int) (int, bool) {
	for i, m := range f.Modes {
		if m.Ordering == dim {
			return i, true
		}
	}
	return 0, false
}

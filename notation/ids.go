package notation

import (
	"fmt"
	"sync/atomic"

	"github.com/ABaaaC/taco/dtype"
)

// nextHandle is the process-wide unique-id generator for IndexVar and
// TensorVar handles. Both kinds of identity share one counter; uniqueness
// across kinds is never relied upon, only uniqueness within a kind.
var nextHandle uint64

func newHandle() uint64 {
	return atomic.AddUint64(&nextHandle, 1)
}

// IndexVar is an opaque loop-variable identity. Two IndexVars are equal iff
// they share a handle; Name is for display only and never participates in
// equality.
type IndexVar struct {
	handle uint64
	name   string
}

// NewIndexVar allocates a fresh IndexVar with the given display name.
func NewIndexVar(name string) IndexVar {
	return IndexVar{handle: newHandle(), name: name}
}

// Equals reports whether v and o are the same variable.
func (v IndexVar) Equals(o IndexVar) bool { return v.handle == o.handle }

// Name returns the display name supplied at construction.
func (v IndexVar) Name() string { return v.name }

func (v IndexVar) String() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprintf("i%d", v.handle)
}

// Handle returns the process-unique identity of v, for use as a map key.
func (v IndexVar) Handle() uint64 { return v.handle }

// TensorType is the scalar datatype and shape of a TensorVar.
type TensorType struct {
	Datatype dtype.Datatype
	Shape    []int // ordered list of dimension sizes, in tensor-declared order
}

func (t TensorType) Order() int { return len(t.Shape) }

// TensorVar is a named, typed, formatted tensor. Identity, not value or
// attributes, defines equality: two TensorVars built from identical
// arguments are still distinct unless they share a handle.
type TensorVar struct {
	handle uint64
	name   string
	typ    TensorType
	format dtype.Format
}

// NewTensorVar allocates a fresh TensorVar identity.
func NewTensorVar(name string, typ TensorType, format dtype.Format) *TensorVar {
	return &TensorVar{
		handle: newHandle(),
		name:   name,
		typ:    typ,
		format: format,
	}
}

func (t *TensorVar) Name() string          { return t.name }
func (t *TensorVar) Type() TensorType       { return t.typ }
func (t *TensorVar) Format() dtype.Format   { return t.format }
func (t *TensorVar) Order() int             { return t.typ.Order() }
func (t *TensorVar) Handle() uint64         { return t.handle }

// Equals reports whether t and o are the same tensor identity.
func (t *TensorVar) Equals(o *TensorVar) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.handle == o.handle
}

func (t *TensorVar) String() string {
	if t.name != "" {
		return t.name
	}
	return fmt.Sprintf("t%d", t.handle)
}

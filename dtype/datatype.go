// Package dtype defines the scalar datatypes and per-tensor mode formats
// used throughout the index-notation IR.
package dtype

import "fmt"

// Kind is the tag of a scalar Datatype.
type Kind int

const (
	Bool Kind = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Complex64
	Complex128
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return fmt.Sprintf("dtype.Kind(%d)", int(k))
	}
}

// Datatype is a scalar type tag. It is a value type: two Datatypes with the
// same Kind compare equal.
type Datatype struct {
	kind Kind
}

// New returns the Datatype for kind.
func New(kind Kind) Datatype { return Datatype{kind: kind} }

// Kind returns the underlying tag.
func (d Datatype) Kind() Kind { return d.kind }

// Equals reports whether d and o are the same datatype.
func (d Datatype) Equals(o Datatype) bool { return d.kind == o.kind }

func (d Datatype) String() string { return d.kind.String() }

// NumBytes returns the width in bytes of a value of this datatype.
func (d Datatype) NumBytes() int {
	switch d.kind {
	case Bool, Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		panic(fmt.Sprintf("dtype: unreachable kind %v", d.kind))
	}
}

// IsFloat reports whether d is Float32 or Float64.
func (d Datatype) IsFloat() bool {
	return d.kind == Float32 || d.kind == Float64
}

// IsComplex reports whether d is Complex64 or Complex128.
func (d Datatype) IsComplex() bool {
	return d.kind == Complex64 || d.kind == Complex128
}

// IsInt reports whether d is one of the signed or unsigned integer kinds.
func (d Datatype) IsInt() bool {
	switch d.kind {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	default:
		return false
	}
}

var (
	BoolType       = New(Bool)
	Int32Type      = New(Int32)
	Int64Type      = New(Int64)
	Float32Type    = New(Float32)
	Float64Type    = New(Float64)
	Complex64Type  = New(Complex64)
	Complex128Type = New(Complex128)
)

package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/ABaaaC/taco/dtype"
	"github.com/ABaaaC/taco/notation"
)

// varNotFoundError reports a flag referencing a tensor or index variable
// name the source program never declared.
type varNotFoundError struct {
	flag, name string
}

func (e *varNotFoundError) Error() string {
	return fmt.Sprintf("-%s: %q is not used by the program", e.flag, e.name)
}

// malformedFlagError reports a flag value that is syntactically invalid
// for its flag.
type malformedFlagError struct {
	flag, value string
	reason      string
}

func (e *malformedFlagError) Error() string {
	return fmt.Sprintf("-%s=%s: %s", e.flag, e.value, e.reason)
}

// bindings is the resolved configuration a program is built against: one
// declared size per index variable name (-d) and one storage format per
// tensor name (-f), both defaulting when absent (unconstrained dimension,
// row-major dense format).
type bindings struct {
	sizes   map[string]int
	formats map[string]dtype.Format
}

func newBindings() *bindings {
	return &bindings{sizes: map[string]int{}, formats: map[string]dtype.Format{}}
}

// parseFormatSpec decodes a format string of one 'd' or 's' character per
// mode, in storage order, storage order coinciding with declaration order
// (tacoc's CLI does not expose a mode permutation the way taco's real
// format strings do; a full permutation is only reachable through the
// library API, not this entry point).
func parseFormatSpec(spec string) (dtype.Format, error) {
	modes := make([]dtype.ModeFormat, len(spec))
	for i, c := range spec {
		switch c {
		case 'd':
			modes[i] = dtype.ModeFormat{Kind: dtype.Dense, Ordering: i}
		case 's':
			modes[i] = dtype.ModeFormat{Kind: dtype.Sparse, Ordering: i}
		default:
			return dtype.Format{}, fmt.Errorf("format characters must be 'd' or 's', found %q", c)
		}
	}
	return dtype.Format{Modes: modes}, nil
}

// buildProgram allocates every TensorVar and IndexVar named by prog and
// translates its raw expression tree into the real notation IR, applying
// bnd's declared sizes and formats. It returns the assembled einsum-form
// Assignment.
func buildProgram(prog *program, bnd *bindings) (*notation.Assignment, map[string]notation.IndexVar, error) {
	for name := range bnd.sizes {
		found := false
		for _, n := range prog.indexOrder {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return nil, nil, &varNotFoundError{flag: "d", name: name}
		}
	}
	for name := range bnd.formats {
		if _, ok := prog.tensors[name]; !ok {
			return nil, nil, &varNotFoundError{flag: "f", name: name}
		}
	}

	indexVars := make(map[string]notation.IndexVar, len(prog.indexOrder))
	for _, name := range prog.indexOrder {
		indexVars[name] = notation.NewIndexVar(name)
	}

	tensors := make(map[string]*notation.TensorVar, len(prog.tensorOrd))
	for _, name := range prog.tensorOrd {
		decl := prog.tensors[name]
		format, ok := bnd.formats[name]
		if !ok {
			format = dtype.DenseFormat(decl.order)
		}
		if format.Order() != decl.order {
			return nil, nil, &malformedFlagError{flag: "f", value: name, reason: fmt.Sprintf("format has %d modes, but %s is used with %d indices", format.Order(), name, decl.order)}
		}
		if err := format.Validate(); err != nil {
			return nil, nil, &malformedFlagError{flag: "f", value: name, reason: err.Error()}
		}
		shape := make([]int, decl.order)
		for i, v := range decl.vars {
			if sz, ok := bnd.sizes[v]; ok {
				shape[i] = sz
			} else {
				shape[i] = -1
			}
		}
		typ := notation.TensorType{Datatype: dtype.Float64Type, Shape: shape}
		tensors[name] = notation.NewTensorVar(name, typ, format)
	}

	bindAccess := func(a *rawAccess) *notation.Access {
		vars := make([]notation.IndexVar, len(a.vars))
		for i, v := range a.vars {
			vars[i] = indexVars[v]
		}
		return notation.NewAccess(tensors[a.tensor], vars...)
	}

	var bindNode func(rawNode) (notation.Node, error)
	bindNode = func(n rawNode) (notation.Node, error) {
		switch x := n.(type) {
		case *rawAccess:
			return bindAccess(x), nil
		case *rawLiteral:
			f, err := strconv.ParseFloat(x.text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid numeric literal %q", x.text)
			}
			bytes := make([]byte, 8)
			binary.LittleEndian.PutUint64(bytes, math.Float64bits(f))
			return &notation.Literal{Type: dtype.Float64Type, Bytes: bytes}, nil
		case *rawNeg:
			inner, err := bindNode(x.x)
			if err != nil {
				return nil, err
			}
			return notation.NegExpr(inner), nil
		case *rawSqrt:
			inner, err := bindNode(x.x)
			if err != nil {
				return nil, err
			}
			return &notation.Sqrt{X: inner}, nil
		case *rawBinary:
			l, err := bindNode(x.l)
			if err != nil {
				return nil, err
			}
			r, err := bindNode(x.r)
			if err != nil {
				return nil, err
			}
			return notation.NewBinary(x.op, l, r), nil
		default:
			return nil, fmt.Errorf("unbound node kind %T", n)
		}
	}

	rhs, err := bindNode(prog.rhs)
	if err != nil {
		return nil, nil, err
	}
	return notation.NewAssignment(bindAccess(prog.lhs), rhs), indexVars, nil
}

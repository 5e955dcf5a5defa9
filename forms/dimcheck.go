package forms

import (
	"fmt"

	"github.com/ABaaaC/taco/notation"
)

// DimensionError reports two Accesses that assert incompatible sizes for
// the same index variable: every use of an index variable must agree on
// the size of the dimension it ranges over.
type DimensionError struct {
	Var                 notation.IndexVar
	First, Second       *notation.Access
	FirstDim, SecondDim int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch for %s: %s asserts size %d, %s asserts size %d",
		e.Var, e.First, e.FirstDim, e.Second, e.SecondDim)
}

// CheckDimensions walks every Access in s and verifies that all Accesses
// sharing an index variable agree on the declared size of the dimension
// that variable ranges over. A shape entry of -1 means "unconstrained"
// and is skipped: the shape of a freshly declared TensorVar stays open
// until it is first constrained by use.
func CheckDimensions(s notation.Stmt) error {
	sizes := map[notation.IndexVar]int{}
	firstAccess := map[notation.IndexVar]*notation.Access{}
	var err error

	check := func(acc *notation.Access) {
		if err != nil {
			return
		}
		shape := acc.Tensor.Type().Shape
		for pos, v := range acc.Vars {
			if pos >= len(shape) {
				continue
			}
			dim := shape[pos]
			if dim < 0 {
				continue
			}
			if prev, ok := sizes[v]; ok {
				if prev != dim {
					err = &DimensionError{Var: v, First: firstAccess[v], Second: acc, FirstDim: prev, SecondDim: dim}
				}
				continue
			}
			sizes[v] = dim
			firstAccess[v] = acc
		}
	}

	var exprVisit funcVisitor
	exprVisit = func(n notation.Node) notation.Visitor {
		if n == nil || err != nil {
			return nil
		}
		if acc, ok := n.(*notation.Access); ok {
			check(acc)
		}
		return exprVisit
	}

	var walkStmt func(notation.Stmt)
	walkStmt = func(s notation.Stmt) {
		if s == nil || err != nil {
			return
		}
		switch st := s.(type) {
		case *notation.Forall:
			walkStmt(st.Body)
		case *notation.Where:
			walkStmt(st.Consumer)
			walkStmt(st.Producer)
		case *notation.Sequence:
			walkStmt(st.Defn)
			walkStmt(st.Mutn)
		case *notation.Multi:
			walkStmt(st.A)
			walkStmt(st.B)
		case *notation.SuchThat:
			walkStmt(st.Stmt)
		case *notation.Assignment:
			notation.Walk(exprVisit, st.Lhs)
			notation.Walk(exprVisit, st.Rhs)
			if st.Op != nil {
				notation.Walk(exprVisit, st.Op)
			}
		case *notation.Yield:
			notation.Walk(exprVisit, st.Expr)
		default:
			panic(fmt.Sprintf("forms: unreachable Stmt kind %T", s))
		}
	}
	walkStmt(s)
	return err
}

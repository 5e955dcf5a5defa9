package forms

import (
	"fmt"

	"github.com/ABaaaC/taco/dtype"
	"github.com/ABaaaC/taco/notation"
)

// ZeroedAccesses names the set of Access nodes a caller has determined are
// structurally zero ahead of time (e.g. a freshly allocated scratch tensor
// that has not been written to yet): every Access in the set is treated as
// if it were the literal zero of its tensor's datatype, the same as any
// other zero subexpression.
type ZeroedAccesses map[*notation.Access]bool

func (z ZeroedAccesses) has(a *notation.Access) bool {
	return z != nil && z[a]
}

func zeroLitFor(d dtype.Datatype) *notation.Literal {
	return &notation.Literal{Type: d, Bytes: make([]byte, d.NumBytes())}
}

// PropagateZeroExpr simplifies n under the conjunctive/disjunctive zero
// rules: an Access named in zeroed is replaced by the literal zero of its
// tensor's datatype; a conjunctive operator (Mul, Div's dividend) with a
// zero operand collapses to zero; a disjunctive operator (Add, Sub) with a
// zero operand collapses to its other operand; a zero-preserving intrinsic
// argument (see IntrinsicId.IsZeroPreserving) collapses the whole call.
func PropagateZeroExpr(n notation.Node, zeroed ZeroedAccesses) notation.Node {
	switch x := n.(type) {
	case *notation.Access:
		if zeroed.has(x) {
			return zeroLitFor(x.Tensor.Type().Datatype)
		}
		return x
	case *notation.Literal:
		return x
	case *notation.Neg:
		inner := PropagateZeroExpr(x.X, zeroed)
		if isZeroLit(inner) {
			return inner
		}
		return &notation.Neg{X: inner}
	case *notation.Sqrt:
		inner := PropagateZeroExpr(x.X, zeroed)
		if isZeroLit(inner) {
			return inner
		}
		return &notation.Sqrt{X: inner}
	case *notation.Cast:
		inner := PropagateZeroExpr(x.X, zeroed)
		if isZeroLit(inner) {
			return zeroLitFor(x.Type)
		}
		return &notation.Cast{Type: x.Type, X: inner}
	case *notation.Binary:
		l := PropagateZeroExpr(x.Left, zeroed)
		r := PropagateZeroExpr(x.Right, zeroed)
		lz, rz := isZeroLit(l), isZeroLit(r)
		switch x.Op {
		case notation.OpMul:
			if lz {
				return l
			}
			if rz {
				return r
			}
		case notation.OpDiv:
			if lz {
				return l
			}
		case notation.OpAdd:
			if lz {
				return r
			}
			if rz {
				return l
			}
		case notation.OpSub:
			if rz {
				return l
			}
			if lz {
				return &notation.Neg{X: r}
			}
		}
		return &notation.Binary{Op: x.Op, Left: l, Right: r}
	case *notation.CallIntrinsic:
		args := make([]notation.Node, len(x.Args))
		var forcingZero *notation.Literal
		for i, a := range x.Args {
			args[i] = PropagateZeroExpr(a, zeroed)
			if lit, ok := args[i].(*notation.Literal); ok && lit.IsZero() && x.ID.IsZeroPreserving(i) {
				forcingZero = lit
			}
		}
		if forcingZero != nil {
			return forcingZero
		}
		return &notation.CallIntrinsic{ID: x.ID, Args: args}
	case *notation.Reduction:
		body := PropagateZeroExpr(x.Body, zeroed)
		if isZeroLit(body) {
			return body
		}
		return &notation.Reduction{Op: x.Op, Var: x.Var, Body: body}
	default:
		panic(fmt.Sprintf("forms: unreachable Node kind %T", n))
	}
}

func isZeroLit(n notation.Node) bool {
	lit, ok := n.(*notation.Literal)
	return ok && lit.IsZero()
}

// PropagateZeroStmt applies PropagateZeroExpr throughout s, treating every
// Access in zeroed as the literal zero of its tensor's datatype wherever it
// occurs, and removes any statement the zero rules leave with nothing to
// do: a compound assignment whose rhs simplifies to zero contributes
// nothing to its lhs and is dropped, and a Forall, Where, Sequence, or
// Multi that loses all of its body in turn is dropped or replaced by its
// surviving half. It returns nil if s disappears entirely. Pass a nil
// zeroed when the caller has no accesses to declare zero up front.
func PropagateZeroStmt(s notation.Stmt, zeroed ZeroedAccesses) notation.Stmt {
	if s == nil {
		return nil
	}
	switch st := s.(type) {
	case *notation.Assignment:
		rhs := PropagateZeroExpr(st.Rhs, zeroed)
		if st.Op != nil && isZeroLit(rhs) {
			return nil
		}
		return &notation.Assignment{Lhs: st.Lhs, Rhs: rhs, Op: st.Op}
	case *notation.Forall:
		body := PropagateZeroStmt(st.Body, zeroed)
		if body == nil {
			return nil
		}
		return &notation.Forall{Var: st.Var, Body: body, Unit: st.Unit, Race: st.Race}
	case *notation.Where:
		consumer := PropagateZeroStmt(st.Consumer, zeroed)
		producer := PropagateZeroStmt(st.Producer, zeroed)
		if consumer == nil {
			return nil
		}
		if producer == nil {
			return consumer
		}
		return &notation.Where{Consumer: consumer, Producer: producer}
	case *notation.Sequence:
		defn := PropagateZeroStmt(st.Defn, zeroed)
		mutn := PropagateZeroStmt(st.Mutn, zeroed)
		if defn == nil {
			return mutn
		}
		if mutn == nil {
			return defn
		}
		return &notation.Sequence{Defn: defn, Mutn: mutn}
	case *notation.Multi:
		a := PropagateZeroStmt(st.A, zeroed)
		b := PropagateZeroStmt(st.B, zeroed)
		if a == nil {
			return b
		}
		if b == nil {
			return a
		}
		return &notation.Multi{A: a, B: b}
	case *notation.Yield:
		return &notation.Yield{Vars: st.Vars, Expr: PropagateZeroExpr(st.Expr, zeroed)}
	case *notation.SuchThat:
		inner := PropagateZeroStmt(st.Stmt, zeroed)
		if inner == nil {
			return nil
		}
		return &notation.SuchThat{Stmt: inner, Preds: st.Preds}
	default:
		panic(fmt.Sprintf("forms: unreachable Stmt kind %T", s))
	}
}

package forms

import (
	"fmt"

	"github.com/ABaaaC/taco/notation"
	"github.com/ABaaaC/taco/schedule"
)

// IsEinsum reports whether s is in einsum form: a single,
// non-compound Assignment whose rhs is in Mul-over-Add normal form using
// only Access, Literal, Add, Sub, Mul, Neg, and Sqrt.
func IsEinsum(s notation.Stmt) (bool, error) {
	a, ok := s.(*notation.Assignment)
	if !ok {
		return false, violation("einsum", s, "statement is not a single Assignment")
	}
	if a.Op != nil {
		return false, violation("einsum", a, "compound assignment is not einsum form")
	}
	if ok, reason := checkEinsumNode(a.Rhs, false); !ok {
		return false, violation("einsum", a, reason)
	}
	return true, nil
}

func checkEinsumNode(n notation.Node, underMul bool) (bool, string) {
	switch x := n.(type) {
	case *notation.Access, *notation.Literal:
		return true, ""
	case *notation.Neg:
		return checkEinsumNode(x.X, underMul)
	case *notation.Sqrt:
		return checkEinsumNode(x.X, underMul)
	case *notation.Binary:
		switch x.Op {
		case notation.OpAdd, notation.OpSub:
			if underMul {
				return false, "an additive operator appears below a multiplicative operator"
			}
			if ok, reason := checkEinsumNode(x.Left, false); !ok {
				return false, reason
			}
			return checkEinsumNode(x.Right, false)
		case notation.OpMul:
			if ok, reason := checkEinsumNode(x.Left, true); !ok {
				return false, reason
			}
			return checkEinsumNode(x.Right, true)
		default:
			return false, fmt.Sprintf("operator %v is not allowed in einsum notation", x.Op)
		}
	default:
		return false, fmt.Sprintf("node kind %T is not allowed in einsum notation", n)
	}
}

// IsReduction reports whether s is in reduction form: a
// single Assignment in which every rhs index variable not free on the lhs
// is bound by an enclosing Reduction.
func IsReduction(s notation.Stmt) (bool, error) {
	a, ok := s.(*notation.Assignment)
	if !ok {
		return false, violation("reduction", s, "statement is not a single Assignment")
	}
	free := varSet(a.Lhs.Vars)
	if err := checkReductionNode(a.Rhs, free, map[notation.IndexVar]bool{}); err != nil {
		return false, violation("reduction", a, err.Error())
	}
	return true, nil
}

func checkReductionNode(n notation.Node, free, bound map[notation.IndexVar]bool) error {
	switch x := n.(type) {
	case *notation.Access:
		for _, v := range x.Vars {
			if !free[v] && !bound[v] {
				return fmt.Errorf("variable %s is neither free nor bound by an enclosing Reduction", v)
			}
		}
		return nil
	case *notation.Literal:
		return nil
	case *notation.Neg:
		return checkReductionNode(x.X, free, bound)
	case *notation.Sqrt:
		return checkReductionNode(x.X, free, bound)
	case *notation.Cast:
		return checkReductionNode(x.X, free, bound)
	case *notation.Binary:
		if err := checkReductionNode(x.Left, free, bound); err != nil {
			return err
		}
		return checkReductionNode(x.Right, free, bound)
	case *notation.CallIntrinsic:
		for _, arg := range x.Args {
			if err := checkReductionNode(arg, free, bound); err != nil {
				return err
			}
		}
		return nil
	case *notation.Reduction:
		nb := cloneVarSet(bound)
		nb[x.Var] = true
		return checkReductionNode(x.Body, free, nb)
	default:
		panic(fmt.Sprintf("forms: unreachable Node kind %T", n))
	}
}

// IsConcrete reports whether s is in concrete form: no
// Reduction nodes remain, every accessed variable is bound by an enclosing
// Forall or recoverable from the bound ones (a variable that is merely
// fully-derived, but neither bound nor recoverable, is rejected),
// compound assignment is used wherever reduction
// variables exist, and any SuchThat is outermost and unique.
func IsConcrete(s notation.Stmt) (bool, error) {
	inner, preds := notation.Unwrap(s)
	g := schedule.Build(preds)
	if err := checkConcreteStmt(inner, map[notation.IndexVar]bool{}, g); err != nil {
		return false, violation("concrete", s, err.Error())
	}
	return true, nil
}

func checkConcreteStmt(s notation.Stmt, bound map[notation.IndexVar]bool, g *schedule.Graph) error {
	switch st := s.(type) {
	case *notation.Forall:
		nb := cloneVarSet(bound)
		nb[st.Var] = true
		return checkConcreteStmt(st.Body, nb, g)
	case *notation.Where:
		if err := checkConcreteStmt(st.Consumer, bound, g); err != nil {
			return err
		}
		return checkConcreteStmt(st.Producer, bound, g)
	case *notation.Sequence:
		if err := checkConcreteStmt(st.Defn, bound, g); err != nil {
			return err
		}
		return checkConcreteStmt(st.Mutn, bound, g)
	case *notation.Multi:
		if err := checkConcreteStmt(st.A, bound, g); err != nil {
			return err
		}
		return checkConcreteStmt(st.B, bound, g)
	case *notation.SuchThat:
		return fmt.Errorf("SuchThat may only appear as the unique outermost node")
	case *notation.Yield:
		return checkConcreteExpr(st.Expr, bound, g)
	case *notation.Assignment:
		if err := checkConcreteExpr(st.Rhs, bound, g); err != nil {
			return err
		}
		free := varSet(st.Lhs.Vars)
		hasReduction := false
		forEachAccessVar(st.Rhs, func(v notation.IndexVar) {
			if !free[v] {
				hasReduction = true
			}
		})
		if hasReduction && st.Op == nil {
			return fmt.Errorf("compound assignment operator required: %s has reduction variables", st.Lhs)
		}
		return nil
	default:
		panic(fmt.Sprintf("forms: unreachable Stmt kind %T", s))
	}
}

func checkConcreteExpr(n notation.Node, bound map[notation.IndexVar]bool, g *schedule.Graph) error {
	switch x := n.(type) {
	case *notation.Access:
		for _, v := range x.Vars {
			if bound[v] {
				continue
			}
			if g.IsRecoverable(v, bound) {
				continue
			}
			return fmt.Errorf("variable %s in %s is neither bound by an enclosing Forall nor recoverable", v, x)
		}
		return nil
	case *notation.Literal:
		return nil
	case *notation.Neg:
		return checkConcreteExpr(x.X, bound, g)
	case *notation.Sqrt:
		return checkConcreteExpr(x.X, bound, g)
	case *notation.Cast:
		return checkConcreteExpr(x.X, bound, g)
	case *notation.Binary:
		if err := checkConcreteExpr(x.Left, bound, g); err != nil {
			return err
		}
		return checkConcreteExpr(x.Right, bound, g)
	case *notation.CallIntrinsic:
		for _, arg := range x.Args {
			if err := checkConcreteExpr(arg, bound, g); err != nil {
				return err
			}
		}
		return nil
	case *notation.Reduction:
		return fmt.Errorf("Reduction node is not allowed in concrete notation")
	default:
		panic(fmt.Sprintf("forms: unreachable Node kind %T", n))
	}
}

func varSet(vs []notation.IndexVar) map[notation.IndexVar]bool {
	m := make(map[notation.IndexVar]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}

func cloneVarSet(m map[notation.IndexVar]bool) map[notation.IndexVar]bool {
	out := make(map[notation.IndexVar]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func forEachAccessVar(n notation.Node, fn func(notation.IndexVar)) {
	var visit funcVisitor
	visit = func(nd notation.Node) notation.Visitor {
		if nd == nil {
			return nil
		}
		if acc, ok := nd.(*notation.Access); ok {
			for _, v := range acc.Vars {
				fn(v)
			}
		}
		return visit
	}
	notation.Walk(visit, n)
}

type funcVisitor func(notation.Node) notation.Visitor

func (f funcVisitor) Visit(n notation.Node) notation.Visitor { return f(n) }

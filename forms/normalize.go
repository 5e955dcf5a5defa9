package forms

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/ABaaaC/taco/dtype"
	"github.com/ABaaaC/taco/notation"
)

// ToReduction lifts an einsum-form statement to reduction form: every
// index variable not free on the lhs is wrapped in a Reduction as close
// to its uses as the expression's linearity allows.
func ToReduction(s notation.Stmt) (notation.Stmt, error) {
	inner, preds := notation.Unwrap(s)
	a, ok := inner.(*notation.Assignment)
	if !ok {
		return nil, violation("reduction", s, "only a single Assignment can be lifted to reduction form")
	}
	if a.Op != nil {
		return nil, violation("reduction", a, "already a compound assignment")
	}
	free := varSet(a.Lhs.Vars)
	rhs := reduceNode(a.Rhs, free)
	lifted := notation.Stmt(notation.NewAssignment(a.Lhs, rhs))
	if len(preds) > 0 {
		lifted = &notation.SuchThat{Stmt: lifted, Preds: preds}
	}
	return lifted, nil
}

// ToConcrete lowers a reduction-form statement (a single Assignment,
// optionally under SuchThat) to concrete form: reductions become explicit Forall
// loops and compound assignments, introducing a scratch TensorVar and a
// Where for any reduction that cannot be hoisted directly into the
// output's accumulation (e.g. one nested beneath a multiplication).
func ToConcrete(s notation.Stmt) (notation.Stmt, error) {
	inner, preds := notation.Unwrap(s)
	a, ok := inner.(*notation.Assignment)
	if !ok {
		return nil, violation("concrete", s, "only a single Assignment can be concretized")
	}
	body, err := buildAssignBody(a.Lhs, a.Rhs, a.Lhs.Tensor.Type().Datatype)
	if err != nil {
		return nil, violation("concrete", a, err.Error())
	}
	concrete := wrapForalls(a.Lhs.Vars, body)
	if len(preds) > 0 {
		concrete = &notation.SuchThat{Stmt: concrete, Preds: preds}
	}
	return concrete, nil
}

// Concretize runs the full einsum -> reduction -> concrete pipeline.
func Concretize(s notation.Stmt) (notation.Stmt, error) {
	reduction, err := ToReduction(s)
	if err != nil {
		return nil, err
	}
	return ToConcrete(reduction)
}

// ---- einsum -> reduction ----

// reduceNode returns an expression equivalent to n in which every index
// variable not in free has been wrapped in a Reduction as deep as n's
// structure allows: Add/Sub distribute a reduction fully into each side;
// Neg and Cast pass it through to their operand;
// Mul/Div/Sqrt/CallIntrinsic are non-distributive boundaries, so a
// variable shared by more than one operand (or appearing under a unary
// function) is wrapped around the whole node instead of pushed further in.
func reduceNode(n notation.Node, free map[notation.IndexVar]bool) notation.Node {
	switch x := n.(type) {
	case *notation.Access:
		return wrapResidual(x, varsOf(x), free)
	case *notation.Literal:
		return x
	case *notation.Neg:
		return &notation.Neg{X: reduceNode(x.X, free)}
	case *notation.Cast:
		return &notation.Cast{Type: x.Type, X: reduceNode(x.X, free)}
	case *notation.Binary:
		if x.Op == notation.OpAdd || x.Op == notation.OpSub {
			return &notation.Binary{Op: x.Op, Left: reduceNode(x.Left, free), Right: reduceNode(x.Right, free)}
		}
		return reduceConjunctive([]notation.Node{x.Left, x.Right}, free, func(parts []notation.Node) notation.Node {
			return &notation.Binary{Op: x.Op, Left: parts[0], Right: parts[1]}
		})
	case *notation.Sqrt:
		return reduceConjunctive([]notation.Node{x.X}, free, func(parts []notation.Node) notation.Node {
			return &notation.Sqrt{X: parts[0]}
		})
	case *notation.CallIntrinsic:
		return reduceConjunctive(x.Args, free, func(parts []notation.Node) notation.Node {
			return &notation.CallIntrinsic{ID: x.ID, Args: parts}
		})
	default:
		panic(fmt.Sprintf("forms: unreachable Node kind %T", n))
	}
}

func reduceConjunctive(parts []notation.Node, free map[notation.IndexVar]bool, combine func([]notation.Node) notation.Node) notation.Node {
	varsPerPart := make([]map[notation.IndexVar]bool, len(parts))
	counts := map[notation.IndexVar]int{}
	for i, p := range parts {
		varsPerPart[i] = varsOf(p)
		for v := range varsPerPart[i] {
			counts[v]++
		}
	}
	shared := map[notation.IndexVar]bool{}
	for v, c := range counts {
		if (c > 1 || len(parts) == 1) && !free[v] {
			shared[v] = true
		}
	}
	innerFree := cloneVarSet(free)
	for v := range shared {
		innerFree[v] = true
	}
	reducedParts := make([]notation.Node, len(parts))
	for i, p := range parts {
		reducedParts[i] = reduceNode(p, innerFree)
	}
	result := combine(reducedParts)
	return wrapVars(result, shared)
}

func wrapResidual(n notation.Node, vars, free map[notation.IndexVar]bool) notation.Node {
	residual := map[notation.IndexVar]bool{}
	for v := range vars {
		if !free[v] {
			residual[v] = true
		}
	}
	return wrapVars(n, residual)
}

func wrapVars(n notation.Node, vars map[notation.IndexVar]bool) notation.Node {
	if len(vars) == 0 {
		return n
	}
	list := sortedVars(vars)
	result := n
	for i := len(list) - 1; i >= 0; i-- {
		result = notation.SumReduction(list[i], result)
	}
	return result
}

func sortedVars(vars map[notation.IndexVar]bool) []notation.IndexVar {
	list := make([]notation.IndexVar, 0, len(vars))
	for v := range vars {
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Handle() < list[j].Handle() })
	return list
}

func varsOf(n notation.Node) map[notation.IndexVar]bool {
	out := map[notation.IndexVar]bool{}
	var visit funcVisitor
	visit = func(nd notation.Node) notation.Visitor {
		if nd == nil {
			return nil
		}
		if acc, ok := nd.(*notation.Access); ok {
			for _, v := range acc.Vars {
				out[v] = true
			}
		}
		return visit
	}
	notation.Walk(visit, n)
	return out
}

// ---- reduction -> concrete ----

type additiveTerm struct {
	node   notation.Node
	negate bool
}

// splitAdditiveTerms flattens a top-level chain of Add/Sub into its
// signed operands, stopping at the first non-additive node (including a
// Reduction, since a reduction's sum belongs to the term it scopes, not
// to the assignment's own top-level sum).
func splitAdditiveTerms(n notation.Node) []additiveTerm {
	if b, ok := n.(*notation.Binary); ok && (b.Op == notation.OpAdd || b.Op == notation.OpSub) {
		left := splitAdditiveTerms(b.Left)
		right := splitAdditiveTerms(b.Right)
		if b.Op == notation.OpSub {
			for i := range right {
				right[i].negate = !right[i].negate
			}
		}
		return append(left, right...)
	}
	return []additiveTerm{{node: n}}
}

// peelReductions strips a leading chain of Reduction wrappers, returning
// their variables and operators (outermost first) and the node beneath.
func peelReductions(n notation.Node) ([]notation.IndexVar, []notation.BinOp, notation.Node) {
	var vars []notation.IndexVar
	var ops []notation.BinOp
	cur := n
	for {
		rd, ok := cur.(*notation.Reduction)
		if !ok {
			break
		}
		vars = append(vars, rd.Var)
		ops = append(ops, rd.OpTag())
		cur = rd.Body
	}
	return vars, ops, cur
}

func wrapForalls(vars []notation.IndexVar, body notation.Stmt) notation.Stmt {
	result := body
	for i := len(vars) - 1; i >= 0; i-- {
		result = notation.NewForall(vars[i], result)
	}
	return result
}

func buildAssignBody(lhs *notation.Access, rhs notation.Node, resultType dtype.Datatype) (notation.Stmt, error) {
	terms := splitAdditiveTerms(rhs)
	hasReduction := false
	for _, t := range terms {
		if _, ok := t.node.(*notation.Reduction); ok {
			hasReduction = true
		}
	}
	if !hasReduction {
		// no term carries its own reduction loop: assign the sum as one expression.
		terms = []additiveTerm{{node: rhs}}
	}
	var result notation.Stmt
	for i, t := range terms {
		stmt, err := buildTermStmt(lhs, t, i == 0, resultType)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = stmt
		} else {
			result = &notation.Sequence{Defn: result, Mutn: stmt}
		}
	}
	return result, nil
}

func buildTermStmt(lhs *notation.Access, t additiveTerm, first bool, resultType dtype.Datatype) (notation.Stmt, error) {
	vars, ops, inner := peelReductions(t.node)
	outerVars := append(append([]notation.IndexVar(nil), lhs.Vars...), vars...)
	reduced, producers, err := extractInnerReductions(inner, outerVars, resultType)
	if err != nil {
		return nil, err
	}
	if t.negate {
		reduced = &notation.Neg{X: reduced}
	}
	op := notation.OpAdd
	if len(ops) > 0 {
		op = ops[len(ops)-1]
	}
	var assign notation.Stmt
	if len(vars) == 0 && first {
		assign = notation.NewAssignment(lhs, reduced)
	} else {
		assign = notation.NewCompoundAssignment(lhs, op, reduced)
	}
	for i := len(producers) - 1; i >= 0; i-- {
		assign = &notation.Where{Consumer: assign, Producer: producers[i]}
	}
	assign = wrapForalls(vars, assign)
	return assign, nil
}

// extractInnerReductions rewrites n, replacing any Reduction node still
// present (one nested beneath a non-additive operator, so it could not be
// peeled directly into lhs's own accumulation) with an Access to a fresh
// scratch TensorVar, and returns the Where-producer statements that
// compute those scratch tensors.
func extractInnerReductions(n notation.Node, outerVars []notation.IndexVar, resultType dtype.Datatype) (notation.Node, []notation.Stmt, error) {
	var producers []notation.Stmt
	var walk func(notation.Node) (notation.Node, error)
	walk = func(n notation.Node) (notation.Node, error) {
		switch x := n.(type) {
		case *notation.Access:
			return x, nil
		case *notation.Literal:
			return x, nil
		case *notation.Neg:
			inner, err := walk(x.X)
			if err != nil {
				return nil, err
			}
			return &notation.Neg{X: inner}, nil
		case *notation.Sqrt:
			inner, err := walk(x.X)
			if err != nil {
				return nil, err
			}
			return &notation.Sqrt{X: inner}, nil
		case *notation.Cast:
			inner, err := walk(x.X)
			if err != nil {
				return nil, err
			}
			return &notation.Cast{Type: x.Type, X: inner}, nil
		case *notation.Binary:
			l, err := walk(x.Left)
			if err != nil {
				return nil, err
			}
			r, err := walk(x.Right)
			if err != nil {
				return nil, err
			}
			return &notation.Binary{Op: x.Op, Left: l, Right: r}, nil
		case *notation.CallIntrinsic:
			args := make([]notation.Node, len(x.Args))
			for i, a := range x.Args {
				na, err := walk(a)
				if err != nil {
					return nil, err
				}
				args[i] = na
			}
			return &notation.CallIntrinsic{ID: x.ID, Args: args}, nil
		case *notation.Reduction:
			used := varsOf(x)
			delete(used, x.Var)
			var needed []notation.IndexVar
			for _, v := range outerVars {
				if used[v] {
					needed = append(needed, v)
				}
			}
			scratch := newScratchTensor(resultType, len(needed))
			access := notation.NewAccess(scratch, needed...)
			body, err := buildAssignBody(access, x, resultType)
			if err != nil {
				return nil, err
			}
			producers = append(producers, wrapForalls(needed, body))
			return access, nil
		default:
			return nil, fmt.Errorf("unsupported node kind %T in reduction form", n)
		}
	}
	out, err := walk(n)
	return out, producers, err
}

var nextScratchID uint64

func newScratchTensor(dt dtype.Datatype, order int) *notation.TensorVar {
	id := atomic.AddUint64(&nextScratchID, 1)
	shape := make([]int, order)
	for i := range shape {
		shape[i] = -1
	}
	typ := notation.TensorType{Datatype: dt, Shape: shape}
	return notation.NewTensorVar(fmt.Sprintf("$scratch%d", id), typ, dtype.DenseFormat(order))
}

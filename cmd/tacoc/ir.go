package main

import (
	"fmt"

	"github.com/ABaaaC/taco/iterator"
	"github.com/ABaaaC/taco/notation"
)

type nodeVisitFunc func(notation.Node) notation.Visitor

func (f nodeVisitFunc) Visit(n notation.Node) notation.Visitor { return f(n) }

// collectAccesses gathers every distinct Access node reachable from s, so
// main can hand lower.Lower one iterator tree per Access (tree
// construction is the caller's responsibility, since it depends on the
// storage collaborator).
func collectAccesses(s notation.Stmt) []*notation.Access {
	var out []*notation.Access
	var visit nodeVisitFunc
	visit = func(n notation.Node) notation.Visitor {
		if n == nil {
			return nil
		}
		if acc, ok := n.(*notation.Access); ok {
			out = append(out, acc)
		}
		return visit
	}
	var walk func(notation.Stmt)
	walk = func(s notation.Stmt) {
		switch st := s.(type) {
		case *notation.Forall:
			walk(st.Body)
		case *notation.Where:
			walk(st.Consumer)
			walk(st.Producer)
		case *notation.Sequence:
			walk(st.Defn)
			walk(st.Mutn)
		case *notation.Multi:
			walk(st.A)
			walk(st.B)
		case *notation.SuchThat:
			walk(st.Stmt)
		case *notation.Assignment:
			notation.Walk(visit, st.Lhs)
			notation.Walk(visit, st.Rhs)
		case *notation.Yield:
			notation.Walk(visit, st.Expr)
		default:
			panic(fmt.Sprintf("tacoc: unreachable Stmt kind %T", s))
		}
	}
	walk(s)
	return out
}

// buildTrees constructs one iterator tree per Access in s, backed by each
// tensor's declared Format; tacoc has no real tensor-storage collaborator
// wired in, so the trees describe iteration capability and shape only
// (enough to drive lattice.Build and lower.Lower), never actual data.
func buildTrees(s notation.Stmt) map[*notation.Access]*iterator.ModeIterator {
	trees := make(map[*notation.Access]*iterator.ModeIterator)
	for _, acc := range collectAccesses(s) {
		trees[acc] = iterator.BuildTree(acc)
	}
	return trees
}

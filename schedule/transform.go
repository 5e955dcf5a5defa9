package schedule

import (
	"github.com/ABaaaC/taco/notation"
)

// Each transformation below is a function IndexStmt -> (IndexStmt, error):
// on success it returns the rewritten statement; on failure it returns a
// *Reason identifying why the transformation could not apply. Transformations
// never panic on user input.

// gatherChain collects n Foralls by following .Body, starting at f.
// Returns false if the chain is shorter than n levels.
func gatherChain(f *notation.Forall, n int) ([]*notation.Forall, bool) {
	chain := make([]*notation.Forall, 0, n)
	cur := f
	for i := 0; i < n; i++ {
		if cur == nil {
			return nil, false
		}
		chain = append(chain, cur)
		if i < n-1 {
			nxt, ok := cur.Body.(*notation.Forall)
			if !ok {
				return nil, false
			}
			cur = nxt
		}
	}
	return chain, true
}

// forallRewriter finds the first Forall (in depth-first order) for which
// try returns matched=true, and substitutes its returned replacement
// statement in its place. Only one site is ever rewritten.
type forallRewriter struct {
	try       func(f *notation.Forall) (notation.Stmt, bool, error)
	triggered *notation.Forall
	replace   notation.Stmt
	err       error
}

func (r *forallRewriter) Walk(s notation.Stmt) notation.StmtRewriter {
	if r.triggered != nil || r.err != nil {
		return nil
	}
	if f, ok := s.(*notation.Forall); ok {
		repl, matched, err := r.try(f)
		if err != nil {
			r.err = err
			return nil
		}
		if matched {
			r.triggered = f
			r.replace = repl
			return nil
		}
	}
	return r
}

func (r *forallRewriter) Rewrite(s notation.Stmt) notation.Stmt {
	if f, ok := s.(*notation.Forall); ok && f == r.triggered {
		return r.replace
	}
	return s
}

func transformAt(op string, stmt notation.Stmt, try func(f *notation.Forall) (notation.Stmt, bool, error)) (notation.Stmt, error) {
	r := &forallRewriter{try: try}
	out := notation.RewriteStmt(r, stmt)
	if r.err != nil {
		return nil, r.err
	}
	if r.triggered == nil {
		return nil, reasonf(op, nil, "no matching Forall chain found")
	}
	return out, nil
}

// ForAllReplace replaces a matching contiguous nested Forall chain olds
// (matched by variable identity, in that exact order) with a nested chain
// over news, preserving the innermost original's body, parallel unit, and
// race strategy on the innermost new Forall.
func ForAllReplace(stmt notation.Stmt, olds, news []notation.IndexVar) (notation.Stmt, error) {
	try := func(f *notation.Forall) (notation.Stmt, bool, error) {
		if !f.Var.Equals(olds[0]) {
			return nil, false, nil
		}
		chain, ok := gatherChain(f, len(olds))
		if !ok {
			return nil, false, nil
		}
		for i := range olds {
			if !chain[i].Var.Equals(olds[i]) {
				return nil, false, nil
			}
		}
		innermost := chain[len(chain)-1]
		var result notation.Stmt = innermost.Body
		for i := len(news) - 1; i >= 0; i-- {
			unit, race := notation.NotParallel, notation.IgnoreRaces
			if i == len(news)-1 {
				unit, race = innermost.Unit, innermost.Race
			}
			result = &notation.Forall{Var: news[i], Body: result, Unit: unit, Race: race}
		}
		return result, true, nil
	}
	return transformAt("ForAllReplace", stmt, try)
}

// Split introduces Split(parent, outer, inner, factor) and replaces
// Forall(parent, body) with Forall(outer, Forall(inner, body)).
func Split(stmt notation.Stmt, parent, outer, inner notation.IndexVar, factor int) (notation.Stmt, error) {
	if factor <= 0 {
		return nil, reasonf("split", nil, "factor must be positive, got %d", factor)
	}
	out, err := ForAllReplace(stmt, []notation.IndexVar{parent}, []notation.IndexVar{outer, inner})
	if err != nil {
		return nil, err
	}
	rel := &notation.SplitRel{Parent: parent, Outer: outer, Inner: inner, Factor: factor}
	return AddSuchThatPredicates(out, rel)
}

// Reorder rewrites an existing contiguous nested Forall group (whatever
// order it is currently in) to iterate in path's order. The set of
// variables at that nesting depth must equal the set of path exactly.
func Reorder(stmt notation.Stmt, path []notation.IndexVar) (notation.Stmt, error) {
	if len(path) == 0 {
		return stmt, nil
	}
	want := make(map[notation.IndexVar]bool, len(path))
	for _, v := range path {
		want[v] = true
	}
	try := func(f *notation.Forall) (notation.Stmt, bool, error) {
		if !want[f.Var] {
			return nil, false, nil
		}
		chain, ok := gatherChain(f, len(path))
		if !ok {
			return nil, false, nil
		}
		have := make(map[notation.IndexVar]bool, len(chain))
		byVar := make(map[notation.IndexVar]*notation.Forall, len(chain))
		for _, c := range chain {
			have[c.Var] = true
			byVar[c.Var] = c
		}
		if len(have) != len(want) {
			return nil, false, nil
		}
		for v := range want {
			if !have[v] {
				return nil, false, nil
			}
		}
		innermost := chain[len(chain)-1]
		var result notation.Stmt = innermost.Body
		for i := len(path) - 1; i >= 0; i-- {
			orig := byVar[path[i]]
			unit, race := notation.NotParallel, notation.IgnoreRaces
			if i == len(path)-1 {
				unit, race = innermost.Unit, innermost.Race
			} else {
				unit, race = orig.Unit, orig.Race
			}
			result = &notation.Forall{Var: path[i], Body: result, Unit: unit, Race: race}
		}
		return result, true, nil
	}
	return transformAt("reorder", stmt, try)
}

// Fuse introduces Fuse(outer, inner, fused) and replaces the immediately
// nested Forall(outer, Forall(inner, body)) with Forall(fused, body).
func Fuse(stmt notation.Stmt, outer, inner, fused notation.IndexVar) (notation.Stmt, error) {
	out, err := ForAllReplace(stmt, []notation.IndexVar{outer, inner}, []notation.IndexVar{fused})
	if err != nil {
		return nil, err
	}
	rel := &notation.FuseRel{OuterParent: outer, InnerParent: inner, Fused: fused}
	return AddSuchThatPredicates(out, rel)
}

// Pos introduces Pos(parent, posVar, access) and replaces Forall(parent,
// body) with Forall(posVar, body).
func Pos(stmt notation.Stmt, parent, posVar notation.IndexVar, access *notation.Access) (notation.Stmt, error) {
	out, err := ForAllReplace(stmt, []notation.IndexVar{parent}, []notation.IndexVar{posVar})
	if err != nil {
		return nil, err
	}
	rel := &notation.PosRel{Parent: parent, PosVar: posVar, Access: access}
	return AddSuchThatPredicates(out, rel)
}

// Parallelize annotates the Forall binding i with unit and race, failing
// if the combination is inconsistent (e.g. NoRaces on a Forall whose body
// reduces into i).
func Parallelize(stmt notation.Stmt, i notation.IndexVar, unit notation.ParallelUnit, race notation.RaceStrategy) (notation.Stmt, error) {
	try := func(f *notation.Forall) (notation.Stmt, bool, error) {
		if !f.Var.Equals(i) {
			return nil, false, nil
		}
		if race == notation.NoRaces && usesVarAsReduction(f.Body, i) {
			return nil, true, reasonf("parallelize", f, "NoRaces is inconsistent with %s: body reduces into it", i)
		}
		nf := &notation.Forall{Var: f.Var, Body: f.Body, Unit: unit, Race: race}
		return nf, true, nil
	}
	return transformAt("parallelize", stmt, try)
}

// AddSuchThatPredicates lifts or augments the outer SuchThat wrapper with
// the given relations.
func AddSuchThatPredicates(stmt notation.Stmt, rels ...notation.IndexVarRel) (notation.Stmt, error) {
	inner, preds := notation.Unwrap(stmt)
	merged := append(append([]notation.IndexVarRel(nil), preds...), rels...)
	return &notation.SuchThat{Stmt: inner, Preds: merged}, nil
}

// ---- reduction-variable detection, used by Parallelize ----

type funcVisitor func(notation.Node) notation.Visitor

func (f funcVisitor) Visit(n notation.Node) notation.Visitor { return f(n) }

func exprUsesVar(n notation.Node, v notation.IndexVar) bool {
	used := false
	var visit funcVisitor
	visit = func(nd notation.Node) notation.Visitor {
		if nd == nil {
			return nil
		}
		if acc, ok := nd.(*notation.Access); ok && acc.HasVar(v) {
			used = true
		}
		return visit
	}
	notation.Walk(visit, n)
	return used
}

// usesVarAsReduction reports whether, anywhere in s, v is bound (by an
// enclosing Forall already accounted for by the caller, or further inside
// s itself) and used on the rhs of an assignment (plain or compound)
// without being free on that assignment's lhs.
func usesVarAsReduction(s notation.Stmt, v notation.IndexVar) bool {
	found := false
	var walk func(s notation.Stmt)
	walk = func(s notation.Stmt) {
		if found || s == nil {
			return
		}
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
			if !exprUsesVar(st.Rhs, v) {
				return
			}
			for _, fv := range st.Lhs.Vars {
				if fv.Equals(v) {
					return
				}
			}
			found = true
		}
	}
	walk(s)
	return found
}

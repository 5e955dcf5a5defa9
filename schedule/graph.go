// Package schedule implements the schedule (transformation) algebra: the
// loop transformations, the lazily-built index-variable relation graph,
// and the coordinate/iteration bound and variable-recovery derivations
// built over it.
package schedule

import (
	"sort"

	"github.com/ABaaaC/taco/notation"

	"golang.org/x/exp/maps"
)

// Graph is the index-variable relation graph induced by a predicate list.
// An empty predicate list yields an empty Graph in which
// every variable is both underived and fully-derived. Graph is an
// immutable, pure function of the predicate list it was built from; none
// of its queries mutate it.
type Graph struct {
	producer map[notation.IndexVar]notation.IndexVarRel
	children map[notation.IndexVar][]notation.IndexVar
	order    []notation.IndexVar // discovery order, for deterministic iteration
}

// Build constructs the relation graph from the predicate list carried by a
// SuchThat node (or nil/empty, for an unscheduled statement).
func Build(preds []notation.IndexVarRel) *Graph {
	g := &Graph{
		producer: make(map[notation.IndexVar]notation.IndexVarRel),
		children: make(map[notation.IndexVar][]notation.IndexVar),
	}
	seen := make(map[notation.IndexVar]bool)
	record := func(v notation.IndexVar) {
		if !seen[v] {
			seen[v] = true
			g.order = append(g.order, v)
		}
	}
	for _, rel := range preds {
		for _, c := range rel.Children() {
			g.producer[c] = rel
			record(c)
		}
		for _, p := range rel.Parents() {
			record(p)
			g.children[p] = append(g.children[p], rel.Children()...)
		}
	}
	return g
}

// Vars returns every variable mentioned by the graph (as parent or child of
// some relation), in a deterministic order.
func (g *Graph) Vars() []notation.IndexVar {
	out := append([]notation.IndexVar(nil), g.order...)
	return out
}

// RelOf returns the relation that produces v, if any.
func (g *Graph) RelOf(v notation.IndexVar) (notation.IndexVarRel, bool) {
	rel, ok := g.producer[v]
	return rel, ok
}

// Parents returns v's immediate parent variables (empty if v is underived).
func (g *Graph) Parents(v notation.IndexVar) []notation.IndexVar {
	rel, ok := g.producer[v]
	if !ok {
		return nil
	}
	return append([]notation.IndexVar(nil), rel.Parents()...)
}

// Children returns v's immediate child variables (empty if v is
// fully-derived).
func (g *Graph) Children(v notation.IndexVar) []notation.IndexVar {
	return append([]notation.IndexVar(nil), g.children[v]...)
}

// IsUnderived reports whether v has no parents.
func (g *Graph) IsUnderived(v notation.IndexVar) bool {
	_, ok := g.producer[v]
	return !ok
}

// IsFullyDerived reports whether v has no children.
func (g *Graph) IsFullyDerived(v notation.IndexVar) bool {
	return len(g.children[v]) == 0
}

// UnderivedAncestors returns the root (underived) variables reachable by
// walking parent edges from v, deduplicated. Because relations always form
// a DAG, this always terminates.
func (g *Graph) UnderivedAncestors(v notation.IndexVar) []notation.IndexVar {
	visited := make(map[notation.IndexVar]bool)
	var out []notation.IndexVar
	var dfs func(notation.IndexVar)
	dfs = func(v notation.IndexVar) {
		if visited[v] {
			return
		}
		visited[v] = true
		rel, ok := g.producer[v]
		if !ok {
			out = append(out, v)
			return
		}
		for _, p := range rel.Parents() {
			dfs(p)
		}
	}
	dfs(v)
	return out
}

// FullyDerivedDescendants returns the leaf (fully-derived) variables
// reachable by walking child edges from v, deduplicated.
func (g *Graph) FullyDerivedDescendants(v notation.IndexVar) []notation.IndexVar {
	visited := make(map[notation.IndexVar]bool)
	var out []notation.IndexVar
	var dfs func(notation.IndexVar)
	dfs = func(v notation.IndexVar) {
		if visited[v] {
			return
		}
		visited[v] = true
		children := g.children[v]
		if len(children) == 0 {
			out = append(out, v)
			return
		}
		for _, c := range children {
			dfs(c)
		}
	}
	dfs(v)
	return out
}

// IsRecoverable reports whether v's value can be reconstructed given that
// every variable in defined is already bound: v is
// recoverable if it is itself defined, or if it has at least one child and
// every child is defined or itself recoverable.
func (g *Graph) IsRecoverable(v notation.IndexVar, defined map[notation.IndexVar]bool) bool {
	if defined[v] {
		return true
	}
	children := g.children[v]
	if len(children) == 0 {
		return false
	}
	for _, c := range children {
		if !defined[c] && !g.IsRecoverable(c, defined) {
			return false
		}
	}
	return true
}

// NewlyRecoverable returns the parents of v that become recoverable once v
// is added to previouslyDefined, but were not recoverable before. A Fuse
// relation's outer parent is excluded when the fused variable has an
// irregular pos-variable descendant: that case requires a
// separate while-loop over the outer parent's extent rather than implicit
// recovery.
func (g *Graph) NewlyRecoverable(v notation.IndexVar, previouslyDefined map[notation.IndexVar]bool) []notation.IndexVar {
	newDefined := cloneSet(previouslyDefined)
	newDefined[v] = true

	rel, hasRel := g.producer[v]
	var out []notation.IndexVar
	for _, p := range g.Parents(v) {
		if g.IsRecoverable(p, previouslyDefined) {
			continue // was already recoverable; not newly so
		}
		if !g.IsRecoverable(p, newDefined) {
			continue
		}
		if hasRel {
			if f, ok := rel.(*notation.FuseRel); ok && p.Equals(f.OuterParent) && g.hasIrregularPosDescendant(f) {
				continue
			}
		}
		out = append(out, p)
	}
	sortVars(out)
	return out
}

// IsPosVariable reports whether v (or any ancestor reached while walking
// its parent chain) was produced by a Pos relation.
func (g *Graph) IsPosVariable(v notation.IndexVar) bool {
	rel, ok := g.producer[v]
	if !ok {
		return false
	}
	if _, isPos := rel.(*notation.PosRel); isPos {
		return true
	}
	for _, p := range rel.Parents() {
		if g.IsPosVariable(p) {
			return true
		}
	}
	return false
}

// IsIrregular reports whether v's iteration space has a boundary
// (partial-tile) case. Underived variables are always irregular; a derived
// variable is irregular iff its producing relation lists it among its
// Irregulars and at least one of that relation's parents is itself
// irregular.
func (g *Graph) IsIrregular(v notation.IndexVar) bool {
	rel, ok := g.producer[v]
	if !ok {
		return true
	}
	isIrregularChild := false
	for _, irr := range rel.Irregulars() {
		if irr.Equals(v) {
			isIrregularChild = true
			break
		}
	}
	if !isIrregularChild {
		return false
	}
	for _, p := range rel.Parents() {
		if g.IsIrregular(p) {
			return true
		}
	}
	return false
}

func (g *Graph) hasIrregularPosDescendant(f *notation.FuseRel) bool {
	visited := make(map[notation.IndexVar]bool)
	var dfs func(notation.IndexVar) bool
	dfs = func(v notation.IndexVar) bool {
		if visited[v] {
			return false
		}
		visited[v] = true
		if g.IsPosVariable(v) && g.IsIrregular(v) {
			return true
		}
		for _, c := range g.children[v] {
			if dfs(c) {
				return true
			}
		}
		return false
	}
	return dfs(f.Fused)
}

func cloneSet(m map[notation.IndexVar]bool) map[notation.IndexVar]bool {
	out := make(map[notation.IndexVar]bool, len(m))
	maps.Copy(out, m)
	return out
}

func sortVars(vs []notation.IndexVar) {
	sort.Slice(vs, func(i, j int) bool { return vs[i].Handle() < vs[j].Handle() })
}

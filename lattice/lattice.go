// Package lattice builds merge lattices over concrete notation: given the
// index variable a Forall loop binds, it enumerates the combinations of
// mode-iterators that must be advanced together to visit every coordinate
// the loop's body could need, ordered from the most specific (every sparse
// operand aligned) to the least (any one operand present).
package lattice

import (
	"fmt"

	"github.com/ABaaaC/taco/iterator"
	"github.com/ABaaaC/taco/notation"

	"golang.org/x/exp/slices"
)

// Point is one disjunct of a Lattice: Iterators must all reach the same
// coordinate for Expr to be evaluated at this disjunct; Locators name
// dense (random-access) operands present at the same coordinate but which
// never gate the merge.
type Point struct {
	Iterators []*iterator.ModeIterator
	Locators  []*iterator.ModeIterator
	Expr      notation.Node
}

func (p Point) String() string {
	return fmt.Sprintf("{%s}: %s", iteratorKeys(p.Iterators), p.Expr)
}

func iteratorKeys(its []*iterator.ModeIterator) string {
	s := ""
	for i, it := range its {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s[%d]", it.Key.Access, it.Key.ModeIndex)
	}
	return s
}

// Lattice is an ordered list of Points, most specific first.
type Lattice struct {
	Points []Point
}

// Top returns the most specific point (the conjunction of every operand),
// or the zero Point if the lattice is empty (which never happens for a
// lattice built from a well-formed expression).
func (l *Lattice) Top() Point {
	if len(l.Points) == 0 {
		return Point{}
	}
	return l.Points[0]
}

// IsFull reports whether the lattice needs no sparse iteration at all
// (⊤ guarantee: an all-dense/all-locate subexpression never
// needs a merge loop, only direct indexing).
func (l *Lattice) IsFull() bool {
	return len(l.Points) == 1 && len(l.Points[0].Iterators) == 0
}

// Build constructs the merge lattice of n with respect to the index
// variable v: n should be the body of a Forall(v, ...) with every
// Reduction already concretized away. trees supplies one pre-built
// iterator tree per Access literal occurring in n (the caller
// owns tree construction since it depends on the storage collaborator's
// format, not on this package).
func Build(v notation.IndexVar, n notation.Node, trees map[*notation.Access]*iterator.ModeIterator) *Lattice {
	switch x := n.(type) {
	case *notation.Access:
		return buildAccess(v, x, trees)
	case *notation.Literal:
		return &Lattice{Points: []Point{{Expr: x}}}
	case *notation.Neg:
		return mapExpr(Build(v, x.X, trees), func(e notation.Node) notation.Node { return &notation.Neg{X: e} })
	case *notation.Sqrt:
		return mapExpr(Build(v, x.X, trees), func(e notation.Node) notation.Node { return &notation.Sqrt{X: e} })
	case *notation.Cast:
		return mapExpr(Build(v, x.X, trees), func(e notation.Node) notation.Node { return &notation.Cast{Type: x.Type, X: e} })
	case *notation.Binary:
		la := Build(v, x.Left, trees)
		lb := Build(v, x.Right, trees)
		combine := func(l, r notation.Node) notation.Node { return &notation.Binary{Op: x.Op, Left: l, Right: r} }
		if x.Op.IsConjunctive() {
			return conjoin(la, lb, combine)
		}
		return disjoin(la, lb, combine)
	case *notation.CallIntrinsic:
		return buildIntrinsicLattice(v, x, trees)
	case *notation.Reduction:
		panic("lattice: Reduction node must be concretized before lattice construction")
	default:
		panic(fmt.Sprintf("lattice: unreachable Node kind %T", n))
	}
}

// buildIntrinsicLattice builds a CallIntrinsic's lattice as the cross
// product of all its argument lattices at once, since the combined Expr
// needs every argument. Every argument is combined conjunctively, whether
// or not the intrinsic is zero-preserving in it.
func buildIntrinsicLattice(v notation.IndexVar, x *notation.CallIntrinsic, trees map[*notation.Access]*iterator.ModeIterator) *Lattice {
	argLattices := make([]*Lattice, len(x.Args))
	for i, a := range x.Args {
		argLattices[i] = Build(v, a, trees)
	}
	points := cartesian(argLattices)
	out := make([]Point, len(points))
	for i, combo := range points {
		args := make([]notation.Node, len(combo))
		var its []*iterator.ModeIterator
		var locs []*iterator.ModeIterator
		for j, p := range combo {
			args[j] = p.Expr
			its = append(its, p.Iterators...)
			locs = append(locs, p.Locators...)
		}
		out[i] = Point{Iterators: dedupIterators(its), Locators: dedupIterators(locs), Expr: &notation.CallIntrinsic{ID: x.ID, Args: args}}
	}
	return &Lattice{Points: removeDominated(out)}
}

func cartesian(lattices []*Lattice) [][]Point {
	if len(lattices) == 0 {
		return nil
	}
	result := [][]Point{{}}
	for _, lat := range lattices {
		var next [][]Point
		for _, prefix := range result {
			for _, p := range lat.Points {
				combo := append(append([]Point(nil), prefix...), p)
				next = append(next, combo)
			}
		}
		result = next
	}
	return result
}

func buildAccess(v notation.IndexVar, acc *notation.Access, trees map[*notation.Access]*iterator.ModeIterator) *Lattice {
	pos := -1
	for i, av := range acc.Vars {
		if av.Equals(v) {
			pos = i
			break
		}
	}
	if pos < 0 {
		// acc does not depend on v: it is invariant across the merge, like
		// a literal.
		return &Lattice{Points: []Point{{Expr: acc}}}
	}
	tree := trees[acc]
	mi := iterator.ModeForVar(tree, acc, pos)
	if mi == nil {
		return &Lattice{Points: []Point{{Expr: acc}}}
	}
	if mi.Caps.Has(iterator.Locate) {
		return &Lattice{Points: []Point{{Locators: []*iterator.ModeIterator{mi}, Expr: acc}}}
	}
	return &Lattice{Points: []Point{{Iterators: []*iterator.ModeIterator{mi}, Expr: acc}}}
}

func mapExpr(l *Lattice, f func(notation.Node) notation.Node) *Lattice {
	out := make([]Point, len(l.Points))
	for i, p := range l.Points {
		out[i] = Point{Iterators: p.Iterators, Locators: p.Locators, Expr: f(p.Expr)}
	}
	return &Lattice{Points: out}
}

// conjoin merges two lattices under a conjunctive operator: the result
// needs every point of both sides present simultaneously, so it is the
// full cross product, each combined point's iterator set the union of
// its two parents'.
func conjoin(la, lb *Lattice, combine func(l, r notation.Node) notation.Node) *Lattice {
	var out []Point
	for _, pa := range la.Points {
		for _, pb := range lb.Points {
			out = append(out, Point{
				Iterators: dedupIterators(append(append([]*iterator.ModeIterator(nil), pa.Iterators...), pb.Iterators...)),
				Locators:  dedupIterators(append(append([]*iterator.ModeIterator(nil), pa.Locators...), pb.Locators...)),
				Expr:      combine(pa.Expr, pb.Expr),
			})
		}
	}
	return &Lattice{Points: removeDominated(out)}
}

// disjoin merges two lattices under a disjunctive operator: in addition
// to the cross product (both present), the result must also cover either
// side being present alone (the other's contribution is then absent, not
// zero-filled here — zero-fill, if wanted, is applied beforehand by
// forms.PropagateZeroExpr so that an absent operand already reads as its
// identity element in Expr). A side whose lattice is full (no sparse
// iterator) is never absent, so no point covers the other side alone.
func disjoin(la, lb *Lattice, combine func(l, r notation.Node) notation.Node) *Lattice {
	var out []Point
	for _, pa := range la.Points {
		for _, pb := range lb.Points {
			out = append(out, Point{
				Iterators: dedupIterators(append(append([]*iterator.ModeIterator(nil), pa.Iterators...), pb.Iterators...)),
				Locators:  dedupIterators(append(append([]*iterator.ModeIterator(nil), pa.Locators...), pb.Locators...)),
				Expr:      combine(pa.Expr, pb.Expr),
			})
		}
	}
	if !lb.IsFull() {
		for _, pa := range la.Points {
			out = append(out, Point{Iterators: pa.Iterators, Locators: pa.Locators, Expr: pa.Expr})
		}
	}
	if !la.IsFull() {
		for _, pb := range lb.Points {
			out = append(out, Point{Iterators: pb.Iterators, Locators: pb.Locators, Expr: pb.Expr})
		}
	}
	return &Lattice{Points: removeDominated(out)}
}

func dedupIterators(its []*iterator.ModeIterator) []*iterator.ModeIterator {
	if len(its) < 2 {
		return its
	}
	out := its[:0:0]
	for _, it := range its {
		if !slices.Contains(out, it) {
			out = append(out, it)
		}
	}
	return out
}

// removeDominated drops any point whose iterator set is a superset of an
// earlier point's and which computes the same partial expression (points
// are first sorted by ascending iterator count): the earlier point needs
// no more iterators, so it already fires in every case the later one
// would, making the later one unreachable. A shared iterator subset
// alone is not enough to dominate: distinct operands producing distinct
// partial sums (a(i) vs. a(i)+b(i)) must both survive as separate
// disjuncts, since each is a different computation, not a redundant guard
// on the same one.
func removeDominated(points []Point) []Point {
	slices.SortStableFunc(points, func(a, b Point) bool {
		return len(a.Iterators) < len(b.Iterators)
	})
	var out []Point
	for _, p := range points {
		keep := true
		for _, q := range out {
			if isSubset(q.Iterators, p.Iterators) && q.Expr.Equals(p.Expr) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, p)
		}
	}
	// out is ascending by iterator count (needed above so each point is only
	// ever dominated by one already seen); the lattice itself is presented
	// most-specific-first, so reverse before returning.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func isSubset(a, b []*iterator.ModeIterator) bool {
	for _, it := range a {
		if !slices.Contains(b, it) {
			return false
		}
	}
	return true
}

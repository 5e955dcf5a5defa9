package lower

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ABaaaC/taco/dtype"
	"github.com/ABaaaC/taco/forms"
	"github.com/ABaaaC/taco/iterator"
	"github.com/ABaaaC/taco/notation"
)

func vecTensor(name string, n int, sparse bool) *notation.TensorVar {
	format := dtype.DenseFormat(1)
	if sparse {
		format = dtype.CompressedFormat(1)
	}
	return notation.NewTensorVar(name, notation.TensorType{Datatype: dtype.Float64Type, Shape: []int{n}}, format)
}

func TestLowerDenseVectorAddIsDenseLoop(t *testing.T) {
	i := notation.NewIndexVar("i")
	A := vecTensor("A", 10, false)
	B := vecTensor("B", 10, false)
	C := vecTensor("C", 10, false)
	asn := notation.NewAssignment(notation.NewAccess(C, i), notation.AddExpr(notation.NewAccess(A, i), notation.NewAccess(B, i)))
	concrete, err := forms.Concretize(asn)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	trees := treesForStmt(concrete)
	if err := Lower(concrete, &TraceTarget{W: &buf}, trees); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[dense]") {
		t.Errorf("a fully-dense vector add should lower to a dense loop, got:\n%s", out)
	}
	if !strings.Contains(out, "C(i) = A(i) + B(i)") {
		t.Errorf("expected the compute to render C(i) = A(i) + B(i), got:\n%s", out)
	}
}

func TestLowerSparseIntersectionIsMergeLoop(t *testing.T) {
	i := notation.NewIndexVar("i")
	A := vecTensor("A", 10, true)
	B := vecTensor("B", 10, true)
	C := vecTensor("C", 10, false)
	asn := notation.NewAssignment(notation.NewAccess(C, i), notation.MulExpr(notation.NewAccess(A, i), notation.NewAccess(B, i)))
	concrete, err := forms.Concretize(asn)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	trees := treesForStmt(concrete)
	if err := Lower(concrete, &TraceTarget{W: &buf}, trees); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[merge]") {
		t.Errorf("a sparse*sparse intersection should lower to a merge loop, got:\n%s", buf.String())
	}
}

func TestLowerMatVecNestsDenseLoops(t *testing.T) {
	i := notation.NewIndexVar("i")
	j := notation.NewIndexVar("j")
	A := notation.NewTensorVar("A", notation.TensorType{Datatype: dtype.Float64Type, Shape: []int{10, 10}}, dtype.DenseFormat(2))
	B := vecTensor("B", 10, false)
	C := vecTensor("C", 10, false)
	asn := notation.NewAssignment(notation.NewAccess(C, i), notation.MulExpr(notation.NewAccess(A, i, j), notation.NewAccess(B, j)))
	concrete, err := forms.Concretize(asn)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Lower(concrete, &TraceTarget{W: &buf}, treesForStmt(concrete)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "for i [dense]") || !strings.Contains(buf.String(), "for j [dense]") {
		t.Errorf("expected nested i/j dense loops, got:\n%s", buf.String())
	}
}

// treesForStmt builds one iterator tree per distinct Access in s, mirroring
// what a driver normally does before calling Lower.
func treesForStmt(s notation.Stmt) map[*notation.Access]*iterator.ModeIterator {
	trees := make(map[*notation.Access]*iterator.ModeIterator)
	var visit funcVisitor
	visit = func(n notation.Node) notation.Visitor {
		if n == nil {
			return nil
		}
		if acc, ok := n.(*notation.Access); ok {
			if _, ok := trees[acc]; !ok {
				trees[acc] = iterator.BuildTree(acc)
			}
		}
		return visit
	}
	var walk func(notation.Stmt)
	walk = func(s notation.Stmt) {
		if s == nil {
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
			notation.Walk(visit, st.Lhs)
			notation.Walk(visit, st.Rhs)
		case *notation.Yield:
			notation.Walk(visit, st.Expr)
		}
	}
	walk(s)
	return trees
}

type funcVisitor func(notation.Node) notation.Visitor

func (f funcVisitor) Visit(n notation.Node) notation.Visitor { return f(n) }

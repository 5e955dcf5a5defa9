package notation

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/ABaaaC/taco/dtype"
)

func vecType(n int) TensorType {
	return TensorType{Datatype: dtype.Float64Type, Shape: []int{n}}
}

func float64Literal(f float64) *Literal {
	bytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(bytes, math.Float64bits(f))
	return &Literal{Type: dtype.Float64Type, Bytes: bytes}
}

func TestAccessEquals(t *testing.T) {
	i := NewIndexVar("i")
	j := NewIndexVar("j")
	A := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	a1 := NewAccess(A, i)
	a2 := NewAccess(A, i)
	a3 := NewAccess(A, j)
	if !a1.Equals(a2) {
		t.Error("two Accesses built from the same tensor and var should be equal")
	}
	if a1.Equals(a3) {
		t.Error("Accesses over different index vars should not be equal")
	}
}

func TestAccessArityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewAccess should panic on arity mismatch")
		}
	}()
	i := NewIndexVar("i")
	j := NewIndexVar("j")
	A := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	NewAccess(A, i, j)
}

func TestLiteralIsZero(t *testing.T) {
	zero := &Literal{Type: dtype.Float64Type, Bytes: make([]byte, 8)}
	if !zero.IsZero() {
		t.Error("all-zero-byte literal should be IsZero")
	}
	nonzero := float64Literal(1)
	if nonzero.IsZero() {
		t.Error("nonzero-byte literal should not be IsZero")
	}
}

func TestLiteralEquals(t *testing.T) {
	a := &Literal{Type: dtype.Float64Type, Bytes: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	b := &Literal{Type: dtype.Float64Type, Bytes: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	c := &Literal{Type: dtype.Float64Type, Bytes: []byte{0, 2, 3, 4, 5, 6, 7, 8}}
	if !a.Equals(b) {
		t.Error("byte-identical literals should be equal")
	}
	if a.Equals(c) {
		t.Error("byte-differing literals should not be equal")
	}
}

func TestNegExprNeverWrapsSub(t *testing.T) {
	i := NewIndexVar("i")
	A := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	e := NegExpr(NewAccess(A, i))
	if _, ok := e.X.(*Binary); ok {
		t.Error("NegExpr should wrap its operand directly, not via Sub(0, e)")
	}
}

func TestBinaryIsConjunctiveDisjunctive(t *testing.T) {
	if !OpMul.IsConjunctive() || OpMul.IsDisjunctive() {
		t.Error("Mul should be conjunctive, not disjunctive")
	}
	if !OpAdd.IsDisjunctive() || OpAdd.IsConjunctive() {
		t.Error("Add should be disjunctive, not conjunctive")
	}
}

func TestReductionEqualsRequiresSameBoundVar(t *testing.T) {
	i := NewIndexVar("i")
	j := NewIndexVar("j")
	A := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	r1 := SumReduction(i, NewAccess(A, i))
	r2 := SumReduction(j, NewAccess(A, i))
	if r1.Equals(r2) {
		t.Error("reductions binding different IndexVar identities should not be equal")
	}
	r3 := SumReduction(i, NewAccess(A, i))
	if !r1.Equals(r3) {
		t.Error("structurally identical reductions should be equal")
	}
}

func TestWalkVisitsEveryNode(t *testing.T) {
	i := NewIndexVar("i")
	A := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	B := NewTensorVar("B", vecType(10), dtype.DenseFormat(1))
	expr := AddExpr(NewAccess(A, i), NewAccess(B, i))

	var kinds []string
	var visit nodeVisitFuncForTest
	visit = func(n Node) Visitor {
		if n == nil {
			return nil
		}
		switch n.(type) {
		case *Access:
			kinds = append(kinds, "access")
		case *Binary:
			kinds = append(kinds, "binary")
		}
		return visit
	}
	Walk(visit, expr)
	if len(kinds) != 3 || kinds[0] != "binary" || kinds[1] != "access" || kinds[2] != "access" {
		t.Errorf("Walk order = %v, want [binary access access]", kinds)
	}
}

type nodeVisitFuncForTest func(Node) Visitor

func (f nodeVisitFuncForTest) Visit(n Node) Visitor { return f(n) }

func TestRewriteReplacesLeaf(t *testing.T) {
	i := NewIndexVar("i")
	A := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	B := NewTensorVar("B", vecType(10), dtype.DenseFormat(1))
	expr := AddExpr(NewAccess(A, i), NewAccess(A, i))

	r := swapTensorRewriter{from: A, to: B}
	out := Rewrite(r, expr)
	var accesses []*Access
	var collect nodeVisitFuncForTest
	collect = func(n Node) Visitor {
		if a, ok := n.(*Access); ok {
			accesses = append(accesses, a)
		}
		return collect
	}
	Walk(collect, out)
	for _, a := range accesses {
		if !a.Tensor.Equals(B) {
			t.Errorf("expected every Access to reference B after rewrite, got %s", a.Tensor)
		}
	}
}

type swapTensorRewriter struct{ from, to *TensorVar }

func (r swapTensorRewriter) Rewrite(n Node) Node {
	if a, ok := n.(*Access); ok && a.Tensor.Equals(r.from) {
		return NewAccess(r.to, a.Vars...)
	}
	return n
}
func (r swapTensorRewriter) Walk(Node) Rewriter { return r }

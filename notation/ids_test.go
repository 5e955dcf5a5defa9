package notation

import (
	"testing"

	"github.com/ABaaaC/taco/dtype"
)

func TestIndexVarIdentityNotName(t *testing.T) {
	a := NewIndexVar("i")
	b := NewIndexVar("i")
	if a.Equals(b) {
		t.Error("two IndexVars constructed with the same name should still be distinct identities")
	}
	if a.Name() != "i" || b.Name() != "i" {
		t.Error("Name() should return the display name supplied at construction")
	}
	if !a.Equals(a) {
		t.Error("an IndexVar should equal itself")
	}
}

func TestTensorVarIdentityNotAttributes(t *testing.T) {
	typ := vecType(10)
	fmtA := dtype.DenseFormat(1)
	a := NewTensorVar("A", typ, fmtA)
	b := NewTensorVar("A", typ, fmtA)
	if a.Equals(b) {
		t.Error("two TensorVars built from identical arguments should still be distinct identities")
	}
	if !a.Equals(a) {
		t.Error("a TensorVar should equal itself")
	}
	if a.Order() != 1 {
		t.Errorf("Order() = %d, want 1", a.Order())
	}
}

func TestTensorVarEqualsNilHandling(t *testing.T) {
	var a, b *TensorVar
	if !a.Equals(b) {
		t.Error("two nil TensorVars should be equal")
	}
	c := NewTensorVar("A", vecType(10), dtype.DenseFormat(1))
	if a.Equals(c) || c.Equals(a) {
		t.Error("a nil TensorVar should never equal a non-nil one")
	}
}

package forms

import (
	"testing"

	"github.com/ABaaaC/taco/notation"
)

func TestCheckDimensionsAcceptsAgreement(t *testing.T) {
	i := notation.NewIndexVar("i")
	A := vecTensor("A", 10)
	B := vecTensor("B", 10)
	C := vecTensor("C", 10)
	stmt := notation.NewForall(i, notation.NewAssignment(notation.NewAccess(C, i), notation.AddExpr(notation.NewAccess(A, i), notation.NewAccess(B, i))))
	if err := CheckDimensions(stmt); err != nil {
		t.Errorf("CheckDimensions should accept agreeing sizes, got %v", err)
	}
}

func TestCheckDimensionsRejectsMismatch(t *testing.T) {
	i := notation.NewIndexVar("i")
	A := vecTensor("A", 10)
	B := vecTensor("B", 20)
	C := vecTensor("C", 10)
	stmt := notation.NewForall(i, notation.NewAssignment(notation.NewAccess(C, i), notation.AddExpr(notation.NewAccess(A, i), notation.NewAccess(B, i))))
	err := CheckDimensions(stmt)
	if err == nil {
		t.Fatal("CheckDimensions should reject a size mismatch between A and B over i")
	}
	if _, ok := err.(*DimensionError); !ok {
		t.Errorf("expected a *DimensionError, got %T", err)
	}
}

func TestCheckDimensionsSkipsUnconstrainedShape(t *testing.T) {
	i := notation.NewIndexVar("i")
	A := vecTensor("A", -1)
	B := vecTensor("B", 20)
	C := vecTensor("C", -1)
	stmt := notation.NewForall(i, notation.NewAssignment(notation.NewAccess(C, i), notation.AddExpr(notation.NewAccess(A, i), notation.NewAccess(B, i))))
	if err := CheckDimensions(stmt); err != nil {
		t.Errorf("an unconstrained (-1) shape entry should never trigger a mismatch, got %v", err)
	}
}

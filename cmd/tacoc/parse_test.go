package main

import (
	"testing"

	"github.com/ABaaaC/taco/notation"
)

func TestParseProgramEinsumForm(t *testing.T) {
	prog, err := parseProgram("A(i,j) = B(i,k)*C(k,j)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if prog.lhs.tensor != "A" || len(prog.lhs.vars) != 2 {
		t.Fatalf("expected lhs A(i,j), got %+v", prog.lhs)
	}
	rhs, ok := prog.rhs.(*rawBinary)
	if !ok {
		t.Fatalf("expected rhs to be a rawBinary, got %T", prog.rhs)
	}
	if _, ok := rhs.l.(*rawAccess); !ok {
		t.Errorf("expected left operand to be a rawAccess, got %T", rhs.l)
	}
	wantTensors := []string{"A", "B", "C"}
	if len(prog.tensorOrd) != len(wantTensors) {
		t.Fatalf("expected 3 distinct tensors in first-seen order, got %v", prog.tensorOrd)
	}
	for i, name := range wantTensors {
		if prog.tensorOrd[i] != name {
			t.Errorf("tensor %d: got %q, want %q", i, prog.tensorOrd[i], name)
		}
	}
	wantIndices := []string{"i", "j", "k"}
	if len(prog.indexOrder) != len(wantIndices) {
		t.Fatalf("expected 3 distinct index variables in first-seen order, got %v", prog.indexOrder)
	}
}

func TestParseProgramSqrtAndNegation(t *testing.T) {
	prog, err := parseProgram("A(i) = sqrt(-B(i))")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	sq, ok := prog.rhs.(*rawSqrt)
	if !ok {
		t.Fatalf("expected outer rawSqrt, got %T", prog.rhs)
	}
	if _, ok := sq.x.(*rawNeg); !ok {
		t.Errorf("expected sqrt's argument to be a rawNeg, got %T", sq.x)
	}
}

func TestParseProgramOperatorPrecedence(t *testing.T) {
	// A(i) = B(i) + C(i)*D(i): Mul binds tighter than Add, so the top node
	// must be the Add, with the Mul nested under its right operand.
	prog, err := parseProgram("A(i) = B(i) + C(i)*D(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	top, ok := prog.rhs.(*rawBinary)
	if !ok {
		t.Fatalf("expected top-level rawBinary, got %T", prog.rhs)
	}
	if top.op != notation.OpAdd {
		t.Errorf("expected top operator to be Add, got %v", top.op)
	}
	if _, ok := top.r.(*rawBinary); !ok {
		t.Errorf("expected right operand to be the nested Mul, got %T", top.r)
	}
	if _, ok := top.l.(*rawAccess); !ok {
		t.Errorf("expected left operand to be a plain access, got %T", top.l)
	}
}

func TestParseProgramRejectsMissingEquals(t *testing.T) {
	if _, err := parseProgram("A(i) B(i)"); err == nil {
		t.Error("expected a parse error for a missing '='")
	}
}

func TestParseProgramRejectsTrailingInput(t *testing.T) {
	if _, err := parseProgram("A(i) = B(i) C(i)"); err == nil {
		t.Error("expected a parse error for unconsumed trailing input")
	}
}

func TestParseProgramRejectsUnclosedParen(t *testing.T) {
	if _, err := parseProgram("A(i = B(i)"); err == nil {
		t.Error("expected a parse error for an unclosed '('")
	}
}

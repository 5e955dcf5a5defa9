package main

import (
	"testing"

	"github.com/ABaaaC/taco/dtype"
)

func TestParseFormatSpecDenseAndSparse(t *testing.T) {
	f, err := parseFormatSpec("ds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Order() != 2 {
		t.Fatalf("expected a 2-mode format, got %d", f.Order())
	}
	if f.Modes[0].Kind != dtype.Dense || f.Modes[1].Kind != dtype.Sparse {
		t.Errorf("expected [dense, sparse], got %+v", f.Modes)
	}
}

func TestParseFormatSpecRejectsUnknownCharacter(t *testing.T) {
	if _, err := parseFormatSpec("dx"); err == nil {
		t.Error("expected an error for an unknown format character")
	}
}

func TestBuildProgramDenseVectorAdd(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	bnd.sizes["i"] = 10
	assign, indexVars, err := buildProgram(prog, bnd)
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	if _, ok := indexVars["i"]; !ok {
		t.Fatal("expected index variable i to be allocated")
	}
	if assign.Lhs.Tensor.Name() != "C" {
		t.Errorf("expected lhs tensor C, got %s", assign.Lhs.Tensor.Name())
	}
	if assign.Lhs.Tensor.Type().Shape[0] != 10 {
		t.Errorf("expected -d i=10 to size C's sole dimension, got %d", assign.Lhs.Tensor.Type().Shape[0])
	}
}

func TestBuildProgramDefaultsToDenseFormat(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	assign, _, err := buildProgram(prog, newBindings())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	if assign.Lhs.Tensor.Format().Modes[0].Kind != dtype.Dense {
		t.Error("an unconstrained tensor should default to an all-dense format")
	}
	if assign.Lhs.Tensor.Type().Shape[0] != -1 {
		t.Error("an unconstrained dimension should default to shape -1")
	}
}

func TestBuildProgramRejectsUnknownDimFlagVariable(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	bnd.sizes["z"] = 5
	_, _, err = buildProgram(prog, bnd)
	if err == nil {
		t.Fatal("expected an error for a -d flag naming a variable not used by the program")
	}
	if _, ok := err.(*varNotFoundError); !ok {
		t.Errorf("expected *varNotFoundError, got %T", err)
	}
}

func TestBuildProgramRejectsUnknownFormatFlagTensor(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	f, _ := parseFormatSpec("d")
	bnd.formats["Z"] = f
	_, _, err = buildProgram(prog, bnd)
	if err == nil {
		t.Fatal("expected an error for a -f flag naming a tensor not used by the program")
	}
	if _, ok := err.(*varNotFoundError); !ok {
		t.Errorf("expected *varNotFoundError, got %T", err)
	}
}

func TestBuildProgramRejectsFormatOrderMismatch(t *testing.T) {
	prog, err := parseProgram("C(i,j) = A(i,j) + B(i,j)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	f, _ := parseFormatSpec("d") // 1 mode, but A(i,j) has order 2
	bnd.formats["A"] = f
	_, _, err = buildProgram(prog, bnd)
	if err == nil {
		t.Fatal("expected an error when -f's mode count disagrees with the tensor's order")
	}
	if _, ok := err.(*malformedFlagError); !ok {
		t.Errorf("expected *malformedFlagError, got %T", err)
	}
}

func TestBuildProgramNumericLiteral(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) * 2.5")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	assign, _, err := buildProgram(prog, newBindings())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	bin, ok := assign.Rhs.(interface{ String() string })
	if !ok {
		t.Fatal("expected rhs to stringify")
	}
	if got := bin.String(); got == "" {
		t.Error("expected a non-empty rendering of the bound expression")
	}
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ABaaaC/taco/lower"
	"github.com/ABaaaC/taco/notation"
)

func concreteDenseAdd(t *testing.T) (notation.Stmt, map[string]notation.IndexVar) {
	t.Helper()
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	bnd.sizes["i"] = 4
	assign, indexVars, err := buildProgram(prog, bnd)
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	concrete, code := compile(assign)
	if code != exitOK {
		t.Fatalf("unexpected compile exit code %d", code)
	}
	return concrete, indexVars
}

func TestNullTargetDiscardsEverything(t *testing.T) {
	stmt, _ := concreteDenseAdd(t)
	if err := lower.Lower(stmt, nullTarget{}, buildTrees(stmt)); err != nil {
		t.Fatalf("nullTarget should never fail, got %v", err)
	}
}

func TestAsmTargetRendersStoreAndLoops(t *testing.T) {
	stmt, _ := concreteDenseAdd(t)
	var buf bytes.Buffer
	if err := lower.Lower(stmt, &asmTarget{w: &buf}, buildTrees(stmt)); err != nil {
		t.Fatalf("unexpected lower error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "L1:") {
		t.Errorf("expected a loop label, got:\n%s", out)
	}
	if !strings.Contains(out, "store C(i), A(i) + B(i)") {
		t.Errorf("expected a store instruction for the plain assignment, got:\n%s", out)
	}
}

func TestCaptureTargetFindsRequestedVariable(t *testing.T) {
	stmt, indexVars := concreteDenseAdd(t)
	ct := &captureTarget{inner: discardTarget{}, want: indexVars["i"]}
	if err := lower.Lower(stmt, ct, buildTrees(stmt)); err != nil {
		t.Fatalf("unexpected lower error: %v", err)
	}
	if !ct.hit {
		t.Error("expected captureTarget to observe the Forall binding i")
	}
	if len(ct.found) == 0 {
		t.Error("expected at least one lattice to be recorded for i")
	}
}

func TestCaptureTargetMissesUnboundVariable(t *testing.T) {
	stmt, _ := concreteDenseAdd(t)
	ct := &captureTarget{inner: discardTarget{}, want: notation.NewIndexVar("ghost")}
	if err := lower.Lower(stmt, ct, buildTrees(stmt)); err != nil {
		t.Fatalf("unexpected lower error: %v", err)
	}
	if ct.hit {
		t.Error("captureTarget should not report a hit for a variable no Forall binds")
	}
}

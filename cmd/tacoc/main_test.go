package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSplitKVValid(t *testing.T) {
	k, v, code := splitKV("i=100")
	if code != exitOK || k != "i" || v != "100" {
		t.Errorf("got (%q, %q, %d), want (\"i\", \"100\", exitOK)", k, v, code)
	}
}

func TestSplitKVTooManyParts(t *testing.T) {
	if _, _, code := splitKV("i=1=2"); code != exitTooManyParts {
		t.Errorf("expected exitTooManyParts for a doubled '=', got %d", code)
	}
}

func TestSplitKVMissingEquals(t *testing.T) {
	if _, _, code := splitKV("i100"); code != exitMalformedFlag {
		t.Errorf("expected exitMalformedFlag for a missing '=', got %d", code)
	}
}

func TestSplitKVEmptySides(t *testing.T) {
	if _, _, code := splitKV("=100"); code != exitMalformedFlag {
		t.Errorf("expected exitMalformedFlag for an empty key, got %d", code)
	}
	if _, _, code := splitKV("i="); code != exitMalformedFlag {
		t.Errorf("expected exitMalformedFlag for an empty value, got %d", code)
	}
}

func TestRepeatCountFlagBareIsOneRun(t *testing.T) {
	var r repeatCountFlag
	if err := r.Set(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.set || r.n != 1 {
		t.Errorf("a bare -time should set n=1, got set=%v n=%d", r.set, r.n)
	}
}

func TestRepeatCountFlagExplicitCount(t *testing.T) {
	var r repeatCountFlag
	if err := r.Set("5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.n != 5 {
		t.Errorf("expected n=5, got %d", r.n)
	}
	if r.String() != "5" {
		t.Errorf("expected String() to render \"5\", got %q", r.String())
	}
}

func TestRepeatCountFlagRejectsNonPositive(t *testing.T) {
	var r repeatCountFlag
	if err := r.Set("0"); err == nil {
		t.Error("expected an error for a zero repeat count")
	}
	if err := r.Set("-3"); err == nil {
		t.Error("expected an error for a negative repeat count")
	}
}

func TestRepeatCountFlagIsBoolFlag(t *testing.T) {
	var r repeatCountFlag
	if !r.IsBoolFlag() {
		t.Error("repeatCountFlag must report IsBoolFlag() true so -time alone needs no value")
	}
}

func TestSourceTextReadsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.taco")
	if err := os.WriteFile(path, []byte("A(i) = B(i)"), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}
	src, err := sourceText(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != "A(i) = B(i)" {
		t.Errorf("got %q, want the fixture's contents", src)
	}
}

func TestCompileAcceptsEinsumForm(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	bnd.sizes["i"] = 4
	assign, _, err := buildProgram(prog, bnd)
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	if _, code := compile(assign); code != exitOK {
		t.Fatalf("a plain einsum-form dense vector add should compile cleanly, got exit code %d", code)
	}
}

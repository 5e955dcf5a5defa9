package main

import (
	"testing"

	"github.com/ABaaaC/taco/dtype"
)

func TestCollectAccessesFindsEveryDistinctAccess(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	bnd.sizes["i"] = 10
	assign, _, err := buildProgram(prog, bnd)
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	accs := collectAccesses(assign)
	if len(accs) != 3 {
		t.Fatalf("expected 3 accesses (C, A, B), got %d", len(accs))
	}
}

func TestBuildTreesOneTreePerAccess(t *testing.T) {
	prog, err := parseProgram("C(i) = A(i) + B(i)")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	bnd := newBindings()
	bnd.sizes["i"] = 10
	f, _ := parseFormatSpec("s")
	bnd.formats["A"] = f
	assign, _, err := buildProgram(prog, bnd)
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	trees := buildTrees(assign)
	if len(trees) != 3 {
		t.Fatalf("expected one tree per access, got %d", len(trees))
	}
	for acc, tree := range trees {
		if acc.Tensor.Name() == "A" {
			if len(tree.Children) != 1 || tree.Children[0].Kind != dtype.Sparse {
				t.Error("expected A's tree to reflect its sparse format")
			}
		}
	}
}

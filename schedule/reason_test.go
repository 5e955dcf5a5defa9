package schedule

import "testing"

type fakeStmt string

func (f fakeStmt) String() string { return string(f) }

func TestReasonErrorFormatting(t *testing.T) {
	r := reasonf("split", fakeStmt("forall(i, ...)"), "factor must be positive, got %d", 0)
	want := `split: factor must be positive, got 0 (at forall(i, ...))`
	if r.Error() != want {
		t.Errorf("Error() = %q, want %q", r.Error(), want)
	}

	r2 := reasonf("reorder", nil, "no matching chain")
	if r2.Error() != "reorder: no matching chain" {
		t.Errorf("Error() without At = %q", r2.Error())
	}
}

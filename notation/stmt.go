package notation

import (
	"fmt"
	"strings"
)

// ParallelUnit names the hardware resource a Forall's iterations are
// scheduled onto. It is purely descriptive metadata for codegen:
// the middle end never executes anything itself.
type ParallelUnit int

const (
	NotParallel ParallelUnit = iota
	DefaultUnit
	CpuThread
	CpuVector
	CpuThreadGroupReduction
	GpuBlock
	GpuWarp
	GpuThread
	GpuBlockReduction
	GpuWarpReduction
)

func (p ParallelUnit) String() string {
	switch p {
	case NotParallel:
		return "not_parallel"
	case DefaultUnit:
		return "default"
	case CpuThread:
		return "cpu_thread"
	case CpuVector:
		return "cpu_vector"
	case CpuThreadGroupReduction:
		return "cpu_thread_group_reduction"
	case GpuBlock:
		return "gpu_block"
	case GpuWarp:
		return "gpu_warp"
	case GpuThread:
		return "gpu_thread"
	case GpuBlockReduction:
		return "gpu_block_reduction"
	case GpuWarpReduction:
		return "gpu_warp_reduction"
	default:
		return fmt.Sprintf("notation.ParallelUnit(%d)", int(p))
	}
}

// RaceStrategy describes how concurrent writers to the same output location
// are to be reconciled by codegen.
type RaceStrategy int

const (
	IgnoreRaces RaceStrategy = iota
	NoRaces
	Atomics
	Temporary
	ParallelReduction
)

func (r RaceStrategy) String() string {
	switch r {
	case IgnoreRaces:
		return "ignore_races"
	case NoRaces:
		return "no_races"
	case Atomics:
		return "atomics"
	case Temporary:
		return "temporary"
	case ParallelReduction:
		return "parallel_reduction"
	default:
		return fmt.Sprintf("notation.RaceStrategy(%d)", int(r))
	}
}

// Stmt is a node of an IndexStmt tree.
type Stmt interface {
	fmt.Stringer
	Equals(Stmt) bool
	walk(v StmtVisitor)
}

// StmtVisitor is the Stmt-tree analogue of Visitor.
type StmtVisitor interface {
	Visit(Stmt) StmtVisitor
}

// StmtRewriter is the Stmt-tree analogue of Rewriter.
type StmtRewriter interface {
	Rewrite(Stmt) Stmt
	Walk(Stmt) StmtRewriter
}

type stmtNonleaf interface {
	rewrite(r StmtRewriter) Stmt
}

// WalkStmt traverses s in depth-first order.
func WalkStmt(v StmtVisitor, s Stmt) {
	if s == nil {
		return
	}
	w := v.Visit(s)
	if w != nil {
		s.walk(w)
		w.Visit(nil)
	}
}

// RewriteStmt recursively applies r to s in depth-first order.
func RewriteStmt(r StmtRewriter, s Stmt) Stmt {
	if s == nil {
		return nil
	}
	if nl, ok := s.(stmtNonleaf); ok {
		if rc := r.Walk(s); rc != nil {
			s = nl.rewrite(rc)
		}
	}
	return r.Rewrite(s)
}

// ---- Assignment ----

// Assignment writes the value of Rhs (optionally combined with the
// existing value of Lhs via Op, for a compound assignment) into Lhs. Op is
// nil for a plain replacement assignment.
type Assignment struct {
	Lhs *Access
	Rhs Node
	Op  Node // nil, or a *Binary operator tag (e.g. &Binary{Op: OpAdd})
}

// NewAssignment builds a replacement assignment lhs = rhs.
func NewAssignment(lhs *Access, rhs Node) *Assignment {
	return &Assignment{Lhs: lhs, Rhs: rhs}
}

// NewCompoundAssignment builds a compound assignment lhs op= rhs.
func NewCompoundAssignment(lhs *Access, op BinOp, rhs Node) *Assignment {
	return &Assignment{Lhs: lhs, Rhs: rhs, Op: &Binary{Op: op}}
}

// IsCompound reports whether this assignment carries a reduction operator.
func (a *Assignment) IsCompound() bool { return a.Op != nil }

// FreeVars returns the index variables appearing on the lhs, in lhs order.
func (a *Assignment) FreeVars() []IndexVar {
	return append([]IndexVar(nil), a.Lhs.Vars...)
}

func (a *Assignment) Equals(x Stmt) bool {
	xa, ok := x.(*Assignment)
	if !ok || !a.Lhs.Equals(xa.Lhs) || !a.Rhs.Equals(xa.Rhs) {
		return false
	}
	if (a.Op == nil) != (xa.Op == nil) {
		return false
	}
	if a.Op != nil && !a.Op.Equals(xa.Op) {
		return false
	}
	return true
}

func (a *Assignment) walk(v StmtVisitor) {}

func (a *Assignment) String() string {
	if a.Op != nil {
		b := a.Op.(*Binary)
		return fmt.Sprintf("%s %s= %s", a.Lhs, b.Op, a.Rhs)
	}
	return fmt.Sprintf("%s = %s", a.Lhs, a.Rhs)
}

// ---- Forall ----

// Forall binds Var over Body.
type Forall struct {
	Var      IndexVar
	Body     Stmt
	Unit     ParallelUnit
	Race     RaceStrategy
}

func NewForall(v IndexVar, body Stmt) *Forall {
	return &Forall{Var: v, Body: body, Unit: NotParallel, Race: IgnoreRaces}
}

func (f *Forall) Equals(x Stmt) bool {
	xf, ok := x.(*Forall)
	return ok && f.Var.Equals(xf.Var) && f.Body.Equals(xf.Body) &&
		f.Unit == xf.Unit && f.Race == xf.Race
}

func (f *Forall) walk(v StmtVisitor) { WalkStmt(v, f.Body) }

func (f *Forall) rewrite(r StmtRewriter) Stmt {
	f.Body = RewriteStmt(r, f.Body)
	return f
}

func (f *Forall) String() string {
	return fmt.Sprintf("forall(%s, %s)", f.Var, f.Body)
}

// ---- Where ----

// Where runs Producer to completion, then Consumer. Producer writes to a
// scratch TensorVar that Consumer reads.
type Where struct {
	Consumer Stmt
	Producer Stmt
}

func (w *Where) Equals(x Stmt) bool {
	xw, ok := x.(*Where)
	return ok && w.Consumer.Equals(xw.Consumer) && w.Producer.Equals(xw.Producer)
}

func (w *Where) walk(v StmtVisitor) {
	WalkStmt(v, w.Consumer)
	WalkStmt(v, w.Producer)
}

func (w *Where) rewrite(r StmtRewriter) Stmt {
	w.Consumer = RewriteStmt(r, w.Consumer)
	w.Producer = RewriteStmt(r, w.Producer)
	return w
}

func (w *Where) String() string {
	return fmt.Sprintf("where(%s, %s)", w.Consumer, w.Producer)
}

// ---- Sequence ----

// Sequence runs Defn then Mutn, in program order.
type Sequence struct {
	Defn Stmt
	Mutn Stmt
}

func (s *Sequence) Equals(x Stmt) bool {
	xs, ok := x.(*Sequence)
	return ok && s.Defn.Equals(xs.Defn) && s.Mutn.Equals(xs.Mutn)
}

func (s *Sequence) walk(v StmtVisitor) {
	WalkStmt(v, s.Defn)
	WalkStmt(v, s.Mutn)
}

func (s *Sequence) rewrite(r StmtRewriter) Stmt {
	s.Defn = RewriteStmt(r, s.Defn)
	s.Mutn = RewriteStmt(r, s.Mutn)
	return s
}

func (s *Sequence) String() string {
	return fmt.Sprintf("sequence(%s, %s)", s.Defn, s.Mutn)
}

// ---- Multi ----

// Multi groups two statements that execute as siblings with no ordering
// dependency between them.
type Multi struct {
	A, B Stmt
}

func (m *Multi) Equals(x Stmt) bool {
	xm, ok := x.(*Multi)
	return ok && m.A.Equals(xm.A) && m.B.Equals(xm.B)
}

func (m *Multi) walk(v StmtVisitor) {
	WalkStmt(v, m.A)
	WalkStmt(v, m.B)
}

func (m *Multi) rewrite(r StmtRewriter) Stmt {
	m.A = RewriteStmt(r, m.A)
	m.B = RewriteStmt(r, m.B)
	return m
}

func (m *Multi) String() string {
	return fmt.Sprintf("multi(%s, %s)", m.A, m.B)
}

// ---- Yield ----

// Yield emits Expr to a stream for each binding of Vars, used at the
// leaves of streaming kernels.
type Yield struct {
	Vars []IndexVar
	Expr Node
}

func (y *Yield) Equals(x Stmt) bool {
	xy, ok := x.(*Yield)
	if !ok || len(y.Vars) != len(xy.Vars) || !y.Expr.Equals(xy.Expr) {
		return false
	}
	for i := range y.Vars {
		if !y.Vars[i].Equals(xy.Vars[i]) {
			return false
		}
	}
	return true
}

func (y *Yield) walk(v StmtVisitor) {}

func (y *Yield) String() string {
	names := make([]string, len(y.Vars))
	for i, v := range y.Vars {
		names[i] = v.String()
	}
	return fmt.Sprintf("yield(%s; %s)", strings.Join(names, ","), y.Expr)
}

// ---- SuchThat ----

// SuchThat is the unique outermost wrapper carrying schedule predicates.
// Preds is not empty in a well-formed schedule, but
// an empty-predicate SuchThat is legal and equivalent to no SuchThat at
// all.
type SuchThat struct {
	Stmt  Stmt
	Preds []IndexVarRel
}

func (s *SuchThat) Equals(x Stmt) bool {
	xs, ok := x.(*SuchThat)
	if !ok || len(s.Preds) != len(xs.Preds) || !s.Stmt.Equals(xs.Stmt) {
		return false
	}
	for i := range s.Preds {
		if !s.Preds[i].Equals(xs.Preds[i]) {
			return false
		}
	}
	return true
}

func (s *SuchThat) walk(v StmtVisitor) { WalkStmt(v, s.Stmt) }

func (s *SuchThat) rewrite(r StmtRewriter) Stmt {
	s.Stmt = RewriteStmt(r, s.Stmt)
	return s
}

func (s *SuchThat) String() string {
	var b strings.Builder
	b.WriteString("suchthat(")
	for i, p := range s.Preds {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString("; ")
	b.WriteString(s.Stmt.String())
	b.WriteByte(')')
	return b.String()
}

// Unwrap strips a top-level SuchThat, if present, returning the inner
// statement and its predicates (nil if absent).
func Unwrap(s Stmt) (inner Stmt, preds []IndexVarRel) {
	if st, ok := s.(*SuchThat); ok {
		return st.Stmt, st.Preds
	}
	return s, nil
}

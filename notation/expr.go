// Package notation defines the immutable index-notation IR: the expression
// and statement trees that an index-notation program is built from, plus the
// visitor and rewriter frameworks used to traverse and transform them.
//
// Trees are value-semantic: once built, a Node or Stmt is never mutated.
// Rewriting produces new trees; sub-trees may be shared between them.
package notation

import (
	"fmt"
	"strings"

	"github.com/ABaaaC/taco/dtype"
)

// Visitor is invoked for each Node encountered by Walk. If the returned
// visitor w is non-nil, Walk visits each child of the node with w, followed
// by a call to w.Visit(nil).
type Visitor interface {
	Visit(Node) Visitor
}

// Rewriter rewrites Nodes in depth-first order.
type Rewriter interface {
	// Rewrite is applied to a node after its children (if any) have
	// already been rewritten.
	Rewrite(Node) Node
	// Walk returns the Rewriter to use for n's children, or nil to skip
	// rewriting n's children entirely.
	Walk(Node) Rewriter
}

// nonleaf is implemented by every Node that has Node children.
type nonleaf interface {
	rewrite(r Rewriter) Node
}

// Rewrite recursively applies r to n in depth-first order.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	if nl, ok := n.(nonleaf); ok {
		if rc := r.Walk(n); rc != nil {
			n = nl.rewrite(rc)
		}
	}
	return r.Rewrite(n)
}

// Walk traverses n in depth-first order starting with v.Visit(n).
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Visit(n)
	if w != nil {
		n.walk(w)
		w.Visit(nil)
	}
}

// Node is a node of an IndexExpr tree.
type Node interface {
	fmt.Stringer
	// Equals reports structural equality (see package doc).
	Equals(Node) bool
	walk(v Visitor)
}

// StrictVisitor must be handled for every Node kind: Visit panics when it
// meets a kind whose handler field is nil, which catches additions of new
// node kinds at test time.
type StrictVisitor struct {
	Access        func(*Access) Visitor
	Literal       func(*Literal) Visitor
	Neg           func(*Neg) Visitor
	Sqrt          func(*Sqrt) Visitor
	Cast          func(*Cast) Visitor
	Binary        func(*Binary) Visitor
	CallIntrinsic func(*CallIntrinsic) Visitor
	Reduction     func(*Reduction) Visitor
}

func (s *StrictVisitor) Visit(n Node) Visitor {
	if n == nil {
		return nil
	}
	switch x := n.(type) {
	case *Access:
		if s.Access == nil {
			panic("notation: StrictVisitor missing handler for *Access")
		}
		return s.Access(x)
	case *Literal:
		if s.Literal == nil {
			panic("notation: StrictVisitor missing handler for *Literal")
		}
		return s.Literal(x)
	case *Neg:
		if s.Neg == nil {
			panic("notation: StrictVisitor missing handler for *Neg")
		}
		return s.Neg(x)
	case *Sqrt:
		if s.Sqrt == nil {
			panic("notation: StrictVisitor missing handler for *Sqrt")
		}
		return s.Sqrt(x)
	case *Cast:
		if s.Cast == nil {
			panic("notation: StrictVisitor missing handler for *Cast")
		}
		return s.Cast(x)
	case *Binary:
		if s.Binary == nil {
			panic("notation: StrictVisitor missing handler for *Binary")
		}
		return s.Binary(x)
	case *CallIntrinsic:
		if s.CallIntrinsic == nil {
			panic("notation: StrictVisitor missing handler for *CallIntrinsic")
		}
		return s.CallIntrinsic(x)
	case *Reduction:
		if s.Reduction == nil {
			panic("notation: StrictVisitor missing handler for *Reduction")
		}
		return s.Reduction(x)
	default:
		panic(fmt.Sprintf("notation: unreachable Node kind %T", n))
	}
}

// ---- Access ----

// Access is a reference to one tensor at a tuple of index variables.
type Access struct {
	Tensor *TensorVar
	Vars   []IndexVar
}

// NewAccess builds an Access, panicking if the arity does not match the
// tensor's order.
func NewAccess(t *TensorVar, vars ...IndexVar) *Access {
	if len(vars) != t.Order() {
		panic(fmt.Sprintf("notation: Access arity %d does not match tensor %s order %d", len(vars), t, t.Order()))
	}
	return &Access{Tensor: t, Vars: append([]IndexVar(nil), vars...)}
}

func (a *Access) Equals(x Node) bool {
	xa, ok := x.(*Access)
	if !ok || !a.Tensor.Equals(xa.Tensor) || len(a.Vars) != len(xa.Vars) {
		return false
	}
	for i := range a.Vars {
		if !a.Vars[i].Equals(xa.Vars[i]) {
			return false
		}
	}
	return true
}

func (a *Access) walk(v Visitor) {}

func (a *Access) String() string {
	var b strings.Builder
	b.WriteString(a.Tensor.String())
	b.WriteByte('(')
	for i, v := range a.Vars {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(')')
	return b.String()
}

// HasVar reports whether v appears in this access's index list.
func (a *Access) HasVar(v IndexVar) bool {
	for _, u := range a.Vars {
		if u.Equals(v) {
			return true
		}
	}
	return false
}

// ---- Literal ----

// Literal is a scalar constant carried as its raw byte payload, compared by
// byte-equality ("float/complex literal equality compares raw
// byte payloads").
type Literal struct {
	Type  dtype.Datatype
	Bytes []byte
}

func (l *Literal) Equals(x Node) bool {
	xl, ok := x.(*Literal)
	if !ok {
		return false
	}
	if !l.Type.Equals(xl.Type) || len(l.Bytes) != len(xl.Bytes) {
		return false
	}
	for i := range l.Bytes {
		if l.Bytes[i] != xl.Bytes[i] {
			return false
		}
	}
	return true
}

func (l *Literal) walk(v Visitor) {}

func (l *Literal) String() string {
	return fmt.Sprintf("%v<%v>", l.Type, l.Bytes)
}

// IsZero reports whether l's payload represents zero in its datatype.
// Payloads are little-endian. For floating-point and complex kinds the
// sign bit of each component is ignored, so -0.0 is treated as zero:
// treating it as a separate nonzero literal would make round-tripping
// subtraction-of-equal-terms fail to simplify. Every other payload must
// be all zero bytes.
func (l *Literal) IsZero() bool {
	width := 0 // bytes per floating-point component; 0 for other kinds
	switch l.Type.Kind() {
	case dtype.Float32, dtype.Complex64:
		width = 4
	case dtype.Float64, dtype.Complex128:
		width = 8
	}
	for i, b := range l.Bytes {
		if width > 0 && i%width == width-1 {
			b &= 0x7f
		}
		if b != 0 {
			return false
		}
	}
	return true
}

// ---- unary ----

// Neg is arithmetic negation.
type Neg struct{ X Node }

func (n *Neg) Equals(x Node) bool {
	xn, ok := x.(*Neg)
	return ok && n.X.Equals(xn.X)
}
func (n *Neg) walk(v Visitor)          { Walk(v, n.X) }
func (n *Neg) rewrite(r Rewriter) Node { n.X = Rewrite(r, n.X); return n }
func (n *Neg) String() string          { return "-" + paren(n.X) }

// Sqrt is the square root unary operator.
type Sqrt struct{ X Node }

func (s *Sqrt) Equals(x Node) bool {
	xs, ok := x.(*Sqrt)
	return ok && s.X.Equals(xs.X)
}
func (s *Sqrt) walk(v Visitor)          { Walk(v, s.X) }
func (s *Sqrt) rewrite(r Rewriter) Node { s.X = Rewrite(r, s.X); return s }
func (s *Sqrt) String() string          { return "sqrt(" + s.X.String() + ")" }

// Cast converts its operand to Type.
type Cast struct {
	Type dtype.Datatype
	X    Node
}

func (c *Cast) Equals(x Node) bool {
	xc, ok := x.(*Cast)
	return ok && c.Type.Equals(xc.Type) && c.X.Equals(xc.X)
}
func (c *Cast) walk(v Visitor)          { Walk(v, c.X) }
func (c *Cast) rewrite(r Rewriter) Node { c.X = Rewrite(r, c.X); return c }
func (c *Cast) String() string          { return fmt.Sprintf("cast<%v>(%s)", c.Type, c.X) }

func paren(n Node) string {
	switch n.(type) {
	case *Binary:
		return "(" + n.String() + ")"
	default:
		return n.String()
	}
}

// ---- binary ----

// BinOp is the operator tag of a Binary node.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	default:
		panic(fmt.Sprintf("notation: unreachable BinOp %d", int(op)))
	}
}

// IsConjunctive reports whether op merges its operands by intersection of
// their iteration domains: true for Mul and Div.
func (op BinOp) IsConjunctive() bool {
	return op == OpMul || op == OpDiv
}

// IsDisjunctive reports whether op merges its operands by union of their
// iteration domains: true for Add and Sub.
func (op BinOp) IsDisjunctive() bool {
	return op == OpAdd || op == OpSub
}

// Binary is a binary arithmetic node: Add, Sub, Mul, or Div.
type Binary struct {
	Op          BinOp
	Left, Right Node
}

// NewBinary builds an (unnormalized) binary expression; the construction
// overloads below are the intended entry points.
func NewBinary(op BinOp, left, right Node) *Binary {
	return &Binary{Op: op, Left: left, Right: right}
}

func AddExpr(l, r Node) *Binary { return NewBinary(OpAdd, l, r) }
func SubExpr(l, r Node) *Binary { return NewBinary(OpSub, l, r) }
func MulExpr(l, r Node) *Binary { return NewBinary(OpMul, l, r) }
func DivExpr(l, r Node) *Binary { return NewBinary(OpDiv, l, r) }

// NegExpr builds -e (construction overloads yield algebraic
// identities, so negation is always represented as Neg, never Sub(0, e)).
func NegExpr(e Node) *Neg { return &Neg{X: e} }

func (b *Binary) Equals(x Node) bool {
	xb, ok := x.(*Binary)
	return ok && b.Op == xb.Op && b.Left.Equals(xb.Left) && b.Right.Equals(xb.Right)
}

func (b *Binary) walk(v Visitor) {
	Walk(v, b.Left)
	Walk(v, b.Right)
}

func (b *Binary) rewrite(r Rewriter) Node {
	b.Left = Rewrite(r, b.Left)
	b.Right = Rewrite(r, b.Right)
	return b
}

func (b *Binary) String() string {
	rs := b.Right.String()
	if _, ok := b.Right.(*Binary); ok {
		rs = "(" + rs + ")"
	}
	return fmt.Sprintf("%s %s %s", b.Left, b.Op, rs)
}

// ---- intrinsics ----

// IntrinsicId identifies a CallIntrinsic function.
type IntrinsicId int

const (
	IntrinsicMod IntrinsicId = iota
	IntrinsicAbs
	IntrinsicPow
	IntrinsicExp
	IntrinsicLog
	IntrinsicLog10
	IntrinsicSin
	IntrinsicCos
	IntrinsicTan
	IntrinsicAsin
	IntrinsicAcos
	IntrinsicAtan
	IntrinsicAtan2
	IntrinsicSinh
	IntrinsicCosh
	IntrinsicTanh
	IntrinsicAsinh
	IntrinsicAcosh
	IntrinsicAtanh
	IntrinsicSqrt
	IntrinsicCbrt
	IntrinsicSquare
	IntrinsicCube
	IntrinsicGt
	IntrinsicLt
	IntrinsicGte
	IntrinsicLte
	IntrinsicEq
	IntrinsicNeq
	IntrinsicMax
	IntrinsicMin
	IntrinsicHeaviside
	IntrinsicNot
)

var intrinsicNames = map[IntrinsicId]string{
	IntrinsicMod: "mod", IntrinsicAbs: "abs", IntrinsicPow: "pow",
	IntrinsicExp: "exp", IntrinsicLog: "log", IntrinsicLog10: "log10",
	IntrinsicSin: "sin", IntrinsicCos: "cos", IntrinsicTan: "tan",
	IntrinsicAsin: "asin", IntrinsicAcos: "acos", IntrinsicAtan: "atan",
	IntrinsicAtan2: "atan2", IntrinsicSinh: "sinh", IntrinsicCosh: "cosh",
	IntrinsicTanh: "tanh", IntrinsicAsinh: "asinh", IntrinsicAcosh: "acosh",
	IntrinsicAtanh: "atanh", IntrinsicSqrt: "sqrt", IntrinsicCbrt: "cbrt",
	IntrinsicSquare: "square", IntrinsicCube: "cube", IntrinsicGt: "gt",
	IntrinsicLt: "lt", IntrinsicGte: "gte", IntrinsicLte: "lte",
	IntrinsicEq: "eq", IntrinsicNeq: "neq", IntrinsicMax: "max",
	IntrinsicMin: "min", IntrinsicHeaviside: "heaviside", IntrinsicNot: "not",
}

func (id IntrinsicId) String() string {
	if s, ok := intrinsicNames[id]; ok {
		return s
	}
	return fmt.Sprintf("notation.IntrinsicId(%d)", int(id))
}

// zeroPreservingArgs lists, per intrinsic, the argument positions for
// which a zero argument forces a zero result: unary, shape-preserving
// odd/power functions are zero-preserving in their sole argument;
// comparison, transcendental, and reduction-style intrinsics are not.
var zeroPreservingArgs = map[IntrinsicId]map[int]bool{
	IntrinsicAbs:    {0: true},
	IntrinsicSqrt:   {0: true},
	IntrinsicCbrt:   {0: true},
	IntrinsicSquare: {0: true},
	IntrinsicCube:   {0: true},
	IntrinsicMod:    {0: true},
}

// IsZeroPreserving reports whether a zero value at argument position argPos
// forces id's result to be structurally zero.
func (id IntrinsicId) IsZeroPreserving(argPos int) bool {
	return zeroPreservingArgs[id][argPos]
}

// CallIntrinsic calls a named intrinsic function over Args.
type CallIntrinsic struct {
	ID   IntrinsicId
	Args []Node
}

func NewCallIntrinsic(id IntrinsicId, args ...Node) *CallIntrinsic {
	return &CallIntrinsic{ID: id, Args: append([]Node(nil), args...)}
}

func (c *CallIntrinsic) Equals(x Node) bool {
	xc, ok := x.(*CallIntrinsic)
	if !ok || c.ID != xc.ID || len(c.Args) != len(xc.Args) {
		return false
	}
	for i := range c.Args {
		if !c.Args[i].Equals(xc.Args[i]) {
			return false
		}
	}
	return true
}

func (c *CallIntrinsic) walk(v Visitor) {
	for _, a := range c.Args {
		Walk(v, a)
	}
}

func (c *CallIntrinsic) rewrite(r Rewriter) Node {
	for i := range c.Args {
		c.Args[i] = Rewrite(r, c.Args[i])
	}
	return c
}

func (c *CallIntrinsic) String() string {
	var b strings.Builder
	b.WriteString(c.ID.String())
	b.WriteByte('(')
	for i, a := range c.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// ---- Reduction ----

// Reduction binds Var over Body under the semiring operator tagged by Op.
// Op is always an empty Binary node used only to carry the operator.
type Reduction struct {
	Op   Node
	Var  IndexVar
	Body Node
}

// NewReduction builds a Reduction; op should be a Binary with nil operands,
// e.g. &Binary{Op: OpAdd}.
func NewReduction(op Node, v IndexVar, body Node) *Reduction {
	return &Reduction{Op: op, Var: v, Body: body}
}

// SumReduction is the common case: reduction under addition.
func SumReduction(v IndexVar, body Node) *Reduction {
	return NewReduction(&Binary{Op: OpAdd}, v, body)
}

func (rd *Reduction) Equals(x Node) bool {
	xr, ok := x.(*Reduction)
	if !ok {
		return false
	}
	if b1, ok1 := rd.Op.(*Binary); ok1 {
		b2, ok2 := xr.Op.(*Binary)
		if !ok2 || b1.Op != b2.Op {
			return false
		}
	}
	return rd.Var.Equals(xr.Var) && rd.Body.Equals(xr.Body)
}

func (rd *Reduction) walk(v Visitor) { Walk(v, rd.Body) }

func (rd *Reduction) rewrite(r Rewriter) Node {
	rd.Body = Rewrite(r, rd.Body)
	return rd
}

func (rd *Reduction) String() string {
	op := "?"
	if b, ok := rd.Op.(*Binary); ok {
		op = b.Op.String()
	}
	return fmt.Sprintf("reduction(%s, %s, %s)", op, rd.Var, rd.Body)
}

// OpTag returns the BinOp carried by a reduction's operator tag.
func (rd *Reduction) OpTag() BinOp {
	b, ok := rd.Op.(*Binary)
	if !ok {
		panic("notation: Reduction.Op is not a Binary operator tag")
	}
	return b.Op
}

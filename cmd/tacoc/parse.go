package main

import (
	"fmt"

	"github.com/ABaaaC/taco/notation"
)

// rawNode is the pre-binding expression tree the parser produces: tensor
// and index-variable names are still strings, since their TensorVar and
// IndexVar identities cannot be allocated until the -d/-f flags have been
// applied to decide every tensor's shape and format (ids.go: TensorVar and
// IndexVar are immutable once allocated).
type rawNode interface{ isRawNode() }

type rawAccess struct {
	tensor string
	vars   []string
}

type rawLiteral struct{ text string }

type rawNeg struct{ x rawNode }

type rawSqrt struct{ x rawNode }

type rawBinary struct {
	op   notation.BinOp
	l, r rawNode
}

func (*rawAccess) isRawNode()  {}
func (*rawLiteral) isRawNode() {}
func (*rawNeg) isRawNode()     {}
func (*rawSqrt) isRawNode()    {}
func (*rawBinary) isRawNode()  {}

// tensorDecl records the order and first-seen index variable names of one
// tensor occurrence, the information buildProgram needs to size its
// shape.
type tensorDecl struct {
	order int
	vars  []string
}

// program is a fully parsed but not yet bound statement: a raw lhs/rhs
// pair plus every tensor and index variable name the parser encountered,
// in first-seen order.
type program struct {
	lhs        *rawAccess
	rhs        rawNode
	tensors    map[string]*tensorDecl
	tensorOrd  []string
	indexOrder []string
}

type parser struct {
	lex  *lexer
	tok  token
	err  error
	prog *program
}

// parseProgram parses the single statement `Tensor(i,j,...) = expr` that
// the tacoc CLI accepts as its one compilation unit, restricted to
// einsum-form input since that is all the middle end needs as an entry
// point.
func parseProgram(src string) (*program, error) {
	p := &parser{
		lex: newLexer(src),
		prog: &program{
			tensors: map[string]*tensorDecl{},
		},
	}
	p.advance()
	lhs := p.access()
	p.expect(tokEquals, "'='")
	rhs := p.expr()
	if p.err == nil && p.tok.kind != tokEOF {
		p.err = fmt.Errorf("unexpected trailing input at %q (position %d)", p.tok.text, p.tok.pos)
	}
	if p.err != nil {
		return nil, p.err
	}
	p.prog.lhs = lhs
	p.prog.rhs = rhs
	return p.prog, nil
}

func (p *parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lex.next()
	if err != nil {
		p.err = err
		return
	}
	p.tok = tok
}

func (p *parser) expect(k tokKind, what string) token {
	if p.err != nil {
		return token{}
	}
	if p.tok.kind != k {
		p.err = fmt.Errorf("expected %s at position %d, found %q", what, p.tok.pos, p.tok.text)
		return token{}
	}
	t := p.tok
	p.advance()
	return t
}

func (p *parser) declareTensor(name string, vars []string) {
	if _, ok := p.prog.tensors[name]; ok {
		return
	}
	p.prog.tensors[name] = &tensorDecl{order: len(vars), vars: vars}
	p.prog.tensorOrd = append(p.prog.tensorOrd, name)
}

func (p *parser) declareIndexVar(name string) {
	for _, n := range p.prog.indexOrder {
		if n == name {
			return
		}
	}
	p.prog.indexOrder = append(p.prog.indexOrder, name)
}

// access parses `Name(i,j,...)`.
func (p *parser) access() *rawAccess {
	if p.err != nil {
		return nil
	}
	name := p.expect(tokIdent, "tensor name")
	p.expect(tokLParen, "'('")
	var vars []string
	for p.err == nil && p.tok.kind != tokRParen {
		v := p.expect(tokIdent, "index variable")
		vars = append(vars, v.text)
		p.declareIndexVar(v.text)
		if p.tok.kind == tokComma {
			p.advance()
		}
	}
	p.expect(tokRParen, "')'")
	if p.err != nil {
		return nil
	}
	p.declareTensor(name.text, vars)
	return &rawAccess{tensor: name.text, vars: vars}
}

// expr := term (('+'|'-') term)*
func (p *parser) expr() rawNode {
	left := p.term()
	for p.err == nil {
		var op notation.BinOp
		switch p.tok.kind {
		case tokPlus:
			op = notation.OpAdd
		case tokMinus:
			op = notation.OpSub
		default:
			return left
		}
		p.advance()
		right := p.term()
		left = &rawBinary{op: op, l: left, r: right}
	}
	return left
}

// term := factor (('*'|'/') factor)*
func (p *parser) term() rawNode {
	left := p.factor()
	for p.err == nil {
		var op notation.BinOp
		switch p.tok.kind {
		case tokStar:
			op = notation.OpMul
		case tokSlash:
			op = notation.OpDiv
		default:
			return left
		}
		p.advance()
		right := p.factor()
		left = &rawBinary{op: op, l: left, r: right}
	}
	return left
}

// factor := '-' factor | primary
func (p *parser) factor() rawNode {
	if p.err != nil {
		return nil
	}
	if p.tok.kind == tokMinus {
		p.advance()
		return &rawNeg{x: p.factor()}
	}
	return p.primary()
}

// primary := NUMBER | 'sqrt' '(' expr ')' | IDENT '(' idents ')' | '(' expr ')'
func (p *parser) primary() rawNode {
	if p.err != nil {
		return nil
	}
	switch p.tok.kind {
	case tokNumber:
		t := p.tok
		p.advance()
		return &rawLiteral{text: t.text}
	case tokLParen:
		p.advance()
		inner := p.expr()
		p.expect(tokRParen, "')'")
		return inner
	case tokIdent:
		if p.tok.text == "sqrt" {
			p.advance()
			p.expect(tokLParen, "'('")
			inner := p.expr()
			p.expect(tokRParen, "')'")
			return &rawSqrt{x: inner}
		}
		return p.access()
	default:
		p.err = fmt.Errorf("unexpected token %q at position %d", p.tok.text, p.tok.pos)
		return nil
	}
}

package expr

import (
	"fmt"
	"strconv"
)

// methods callable on values, with their arity.
var methods = map[string]int{
	"includes":   1,
	"indexOf":    1,
	"startsWith": 1,
	"endsWith":   1,
}

type parser struct {
	toks []token
	pos  int
	refs []*pathRef
}

func parse(src string) (node, []*pathRef, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expression()
	if err != nil {
		return nil, nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, nil, p.errorf(t, "unexpected %q", t.text)
	}
	return n, p.refs, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(punct string) bool {
	if t := p.peek(); t.kind == tokPunct && t.text == punct {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(punct string) error {
	if p.accept(punct) {
		return nil
	}
	t := p.peek()
	if t.kind == tokEOF {
		return p.errorf(t, "expected %q, got end of expression", punct)
	}
	return p.errorf(t, "expected %q, got %q", punct, t.text)
}

func (p *parser) errorf(t token, format string, a ...any) error {
	return &SyntaxError{Offset: t.pos, Msg: fmt.Sprintf(format, a...)}
}

func (p *parser) expression() (node, error) { return p.conditional() }

func (p *parser) conditional() (node, error) {
	cond, err := p.or()
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	then, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &conditional{cond: cond, then: then, els: els}, nil
}

// binaryLevel parses a left-associative chain of the given operators.
func (p *parser) binaryLevel(ops []string, operand func() (node, error), build func(op string, l, r node) node) (node, error) {
	left, err := operand()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range ops {
			if p.accept(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = build(matched, left, right)
	}
}

func logicalNode(op string, l, r node) node { return &logical{op: op, l: l, r: r} }
func binaryNode(op string, l, r node) node  { return &binary{op: op, l: l, r: r} }

func (p *parser) or() (node, error) {
	return p.binaryLevel([]string{"||"}, p.and, logicalNode)
}

func (p *parser) and() (node, error) {
	return p.binaryLevel([]string{"&&"}, p.equality, logicalNode)
}

func (p *parser) equality() (node, error) {
	return p.binaryLevel([]string{"===", "!==", "==", "!="}, p.relational, binaryNode)
}

func (p *parser) relational() (node, error) {
	return p.binaryLevel([]string{"<=", ">=", "<", ">"}, p.additive, binaryNode)
}

func (p *parser) additive() (node, error) {
	return p.binaryLevel([]string{"+", "-"}, p.multiplicative, binaryNode)
}

func (p *parser) multiplicative() (node, error) {
	return p.binaryLevel([]string{"*", "%"}, p.unary, binaryNode)
}

func (p *parser) unary() (node, error) {
	for _, op := range []string{"!", "-", "+"} {
		if p.accept(op) {
			x, err := p.unary()
			if err != nil {
				return nil, err
			}
			return &unary{op: op, x: x}, nil
		}
	}
	return p.postfix()
}

func (p *parser) postfix() (node, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			t := p.next()
			if t.kind != tokIdent {
				return nil, p.errorf(t, "expected property name after '.'")
			}
			if !p.accept("(") {
				x = &member{x: x, name: t.text}
				continue
			}
			arity, ok := methods[t.text]
			if !ok {
				return nil, p.errorf(t, "unsupported method %q", t.text)
			}
			args, err := p.arguments(")")
			if err != nil {
				return nil, err
			}
			if len(args) != arity {
				return nil, p.errorf(t, "%s expects %d argument(s), got %d", t.text, arity, len(args))
			}
			x = &call{x: x, method: t.text, args: args}
		case p.accept("["):
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &index{x: x, idx: idx}
		default:
			return x, nil
		}
	}
}

// arguments parses a comma separated list up to the closing punctuator.
func (p *parser) arguments(closing string) ([]node, error) {
	var out []node
	if p.accept(closing) {
		return out, nil
	}
	for {
		n, err := p.expression()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
		if p.accept(closing) {
			return out, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.text)
		}
		return &literal{v: f}, nil
	case tokString:
		return &literal{v: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &literal{v: true}, nil
		case "false":
			return &literal{v: false}, nil
		case "null", "undefined":
			return &literal{v: nil}, nil
		}
		return nil, p.errorf(t, "unknown identifier %q", t.text)
	case tokPath:
		ref := &pathRef{path: t.text, slot: len(p.refs)}
		p.refs = append(p.refs, ref)
		return ref, nil
	case tokPunct:
		switch t.text {
		case "(":
			n, err := p.expression()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return n, nil
		case "[":
			elems, err := p.arguments("]")
			if err != nil {
				return nil, err
			}
			return &arrayLit{elems: elems}, nil
		}
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
	return nil, p.errorf(t, "unexpected end of expression")
}

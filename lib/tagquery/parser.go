package tagquery

import (
	"strings"

	"github.com/jamesblissett/tagfs/lib/tagstore"
)

// Parse parses a tag-query expression into an [Expr]. An empty
// expression (after trimming whitespace) is permitted and represented
// by [Evaluate] as "match every tagged path" rather than as an AST
// node, so Parse("") returns (nil, nil).
//
// Grammar:
//
//	expr := term (("and" | "or") term)*
//	term := "not" term | "(" expr ")" | tag
//	tag  := name | name "=" value
//
// Precedence is not > and > or, left-associative; parentheses
// override.
func Parse(query string) (Expr, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	p := &parser{tokens: lex(query)}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, &UnexpectedTokenError{
			Offset: p.peek().offset,
			Got:    p.peek().kind.String(),
			Want:   "end of expression",
		}
	}
	return expr, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token  { return p.tokens[p.pos] }
func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

// parseOr handles the lowest-precedence "or" operator, left-associative.
func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = OrExpr{Left: left, Right: right}
	}
	return left, nil
}

// parseAnd handles "and", which binds tighter than "or".
func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokenAnd {
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = AndExpr{Left: left, Right: right}
	}
	return left, nil
}

// parseTerm handles "not", groups, and bare tags, which bind tightest.
func (p *parser) parseTerm() (Expr, error) {
	switch p.peek().kind {
	case tokenNot:
		p.advance()
		operand, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return NotExpr{Operand: operand}, nil

	case tokenLeftParen:
		open := p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokenRightParen {
			return nil, &UnterminatedGroupError{Offset: open.offset}
		}
		p.advance()
		return expr, nil

	case tokenTag:
		t := p.advance()
		tag, err := parseTagToken(t)
		if err != nil {
			return nil, err
		}
		return TagExpr{Tag: tag}, nil

	default:
		return nil, &UnexpectedTokenError{
			Offset: p.peek().offset,
			Got:    p.peek().kind.String(),
			Want:   "a tag, \"not\", or \"(\"",
		}
	}
}

func parseTagToken(t token) (tagstore.Tag, error) {
	tag, err := tagstore.ParseTag(t.text)
	if err != nil {
		return tagstore.Tag{}, &InvalidTagError{Offset: t.offset, Tag: t.text, Reason: err.Error()}
	}
	return tag, nil
}

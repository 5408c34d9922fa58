// Package parser implements the lambda language parser.
//
// The parser is recursive descent with one token of lookahead. Expression
// precedence, lowest to highest:
//
//	boolean        &&  ||            (left-assoc, same level)
//	comparison     == != > < >= <=   (at most one per level)
//	additive       +  -
//	multiplicative *  /  %
//	unary          +  -  !           (prefix)
//	primary        literals, names, calls, (expr), lambda
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/lexer"
)

// TokenSource supplies tokens one at a time. *lexer.Lexer implements it.
type TokenSource interface {
	Next() (lexer.Token, error)
}

// ParseError wraps a diagnostic for parse errors. AtEOF is set when the
// parser ran out of input, which means more text could complete it.
type ParseError struct {
	Diag  diagnostics.Diagnostic
	AtEOF bool
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

// IsIncomplete reports whether err is a parse error caused by input ending
// too early, such as an unclosed brace or a dangling operator.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.AtEOF
}

type parser struct {
	src  TokenSource
	cur  lexer.Token
	prev lexer.Token
}

func newParser(src TokenSource) (*parser, error) {
	p := &parser{src: src}
	tok, err := src.Next()
	if err != nil {
		return nil, err
	}
	p.cur = tok
	return p, nil
}

// Parse tokenizes source and parses it as a program: zero or more
// statements up to end of input. Like a block, a program of exactly one
// statement is that statement.
func Parse(source, filename string) (ast.Node, error) {
	p, err := newParser(lexer.New(source, filename))
	if err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseTokens parses an already tokenized program. The slice must end with
// a TokEOF token, as produced by lexer.Tokenize.
func ParseTokens(tokens []lexer.Token) (ast.Node, error) {
	p, err := newParser(&sliceSource{tokens: tokens})
	if err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseStatement parses exactly one statement from src and leaves any
// remaining tokens unread.
func ParseStatement(src TokenSource) (ast.Node, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parseStmt()
}

type sliceSource struct {
	tokens []lexer.Token
	pos    int
}

func (s *sliceSource) Next() (lexer.Token, error) {
	if s.pos >= len(s.tokens) {
		if len(s.tokens) > 0 {
			return lexer.Token{Type: lexer.TokEOF, Span: s.tokens[len(s.tokens)-1].Span}, nil
		}
		return lexer.Token{Type: lexer.TokEOF}, nil
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}

func (p *parser) peek() lexer.TokenType {
	return p.cur.Type
}

func (p *parser) advance() (lexer.Token, error) {
	tok := p.cur
	if tok.Type == lexer.TokEOF {
		return tok, nil
	}
	next, err := p.src.Next()
	if err != nil {
		return tok, err
	}
	p.prev = tok
	p.cur = next
	return tok, nil
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, error) {
	if p.cur.Type != typ {
		return p.cur, p.errorf(p.cur, "expected %s, got %s", typ, describe(p.cur))
	}
	return p.advance()
}

// expectName consumes an identifier used as a function or parameter name.
func (p *parser) expectName() (lexer.Token, error) {
	if p.cur.Type != lexer.TokIdent && lexer.IsKeyword(p.cur.Value) {
		span := p.cur.Span
		return p.cur, &ParseError{
			Diag: diagnostics.MakeDiag(diagnostics.EParse,
				fmt.Sprintf("expected %s, got %s", lexer.TokIdent, describe(p.cur)), &span,
				fmt.Sprintf("'%s' is a reserved word and cannot be used as a name", p.cur.Value)),
		}
	}
	return p.expect(lexer.TokIdent)
}

func (p *parser) errorf(at lexer.Token, format string, args ...any) error {
	span := at.Span
	return &ParseError{
		Diag:  diagnostics.MakeDiag(diagnostics.EParse, fmt.Sprintf(format, args...), &span, ""),
		AtEOF: at.Type == lexer.TokEOF,
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokEOF:
		return "end of input"
	case lexer.TokIdent, lexer.TokIntLit:
		return fmt.Sprintf("%s '%s'", tok.Type, tok.Value)
	default:
		return fmt.Sprintf("'%s'", tok.Value)
	}
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// --- Program ---

func (p *parser) parseProgram() (ast.Node, error) {
	start := p.cur.Span
	var stmts []ast.Node
	for p.peek() != lexer.TokEOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return ast.Collapse(p.spanFromTo(start, p.cur.Span), stmts), nil
}

// --- Statements ---

func (p *parser) parseStmt() (ast.Node, error) {
	switch p.peek() {
	case lexer.TokDefun:
		return p.parseFnDecl()
	case lexer.TokIf:
		return p.parseIf()
	case lexer.TokReturn:
		return p.parseReturn()
	default:
		return p.parseBoolean()
	}
}

func (p *parser) parseFnDecl() (ast.Node, error) {
	start, err := p.advance() // consume 'defun'
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	params, err := p.parseParams(lexer.TokRParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FnDecl{
		Span:   p.spanFromTo(start.Span, p.prev.Span),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}, nil
}

// parseParams reads zero or more comma-separated identifiers, stopping
// before the closing token.
func (p *parser) parseParams(closing lexer.TokenType) ([]string, error) {
	var params []string
	if p.peek() == closing {
		return params, nil
	}
	for {
		tok, err := p.expectName()
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Value)
		if p.peek() != lexer.TokComma {
			return params, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseIf() (ast.Node, error) {
	start, err := p.advance() // consume 'if'
	if err != nil {
		return nil, err
	}
	cond, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody ast.Node
	if p.peek() == lexer.TokElse {
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStmt{
		Span: p.spanFromTo(start.Span, p.prev.Span),
		Cond: cond,
		Then: thenBody,
		Else: elseBody,
	}, nil
}

func (p *parser) parseReturn() (ast.Node, error) {
	start, err := p.advance() // consume 'return'
	if err != nil {
		return nil, err
	}
	value, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{
		Span:  p.spanFromTo(start.Span, value.NodeSpan()),
		Value: value,
	}, nil
}

// --- Block ---

func (p *parser) parseBlock() (ast.Node, error) {
	open, err := p.expect(lexer.TokLBrace)
	if err != nil {
		return nil, err
	}
	var stmts []ast.Node
	for p.peek() != lexer.TokRBrace {
		if p.peek() == lexer.TokEOF {
			return nil, p.errorf(p.cur, "expected %s, got end of input", lexer.TokRBrace)
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	closeTok, err := p.advance()
	if err != nil {
		return nil, err
	}
	return ast.Collapse(p.spanFromTo(open.Span, closeTok.Span), stmts), nil
}

// --- Precedence climbing ---

func (p *parser) parseBoolean() (ast.Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokAndAnd:
			op = ast.OpAnd
		case lexer.TokOrOr:
			op = ast.OpOr
		default:
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

var comparisonOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokGt:     ast.OpGt,
	lexer.TokLt:     ast.OpLt,
	lexer.TokGtEq:   ast.OpGtEq,
	lexer.TokLtEq:   ast.OpLtEq,
	lexer.TokEqEq:   ast.OpEqEq,
	lexer.TokBangEq: ast.OpNeq,
}

// parseComparison applies at most one relational operator; a second one
// (a == b == c) is left for the caller, which rejects it.
func (p *parser) parseComparison() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.peek()]
	if !ok {
		return left, nil
	}
	if _, err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, chained := comparisonOps[p.peek()]; chained {
		return nil, p.errorf(p.cur, "comparison operators cannot be chained; got %s", describe(p.cur))
	}
	return &ast.BinaryExpr{
		Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
		Op:    op,
		Left:  left,
		Right: right,
	}, nil
}

func (p *parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokPlus:
			op = ast.OpAdd
		case lexer.TokMinus:
			op = ast.OpSub
		default:
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.BinaryOp
		switch p.peek() {
		case lexer.TokStar:
			op = ast.OpMul
		case lexer.TokSlash:
			op = ast.OpDiv
		case lexer.TokPercent:
			op = ast.OpMod
		default:
			return left, nil
		}
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseUnary() (ast.Node, error) {
	var op ast.UnaryOp
	switch p.peek() {
	case lexer.TokPlus:
		op = ast.OpPos
	case lexer.TokMinus:
		op = ast.OpNeg
	case lexer.TokBang:
		op = ast.OpNot
	default:
		return p.parsePrimary()
	}
	start, err := p.advance()
	if err != nil {
		return nil, err
	}
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &ast.UnaryExpr{
		Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}, nil
}

func (p *parser) parsePrimary() (ast.Node, error) {
	switch p.peek() {
	case lexer.TokLParen:
		// Grouped expression
		if _, err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseBoolean()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case lexer.TokIntLit:
		tok, err := p.advance()
		if err != nil {
			return nil, err
		}
		val, convErr := strconv.ParseInt(tok.Value, 10, 64)
		if convErr != nil {
			return nil, p.errorf(tok, "invalid integer literal '%s'", tok.Value)
		}
		return &ast.IntLiteral{Span: tok.Span, Value: val}, nil

	case lexer.TokTrue, lexer.TokFalse:
		tok, err := p.advance()
		if err != nil {
			return nil, err
		}
		return &ast.BoolLiteral{Span: tok.Span, Value: tok.Type == lexer.TokTrue}, nil

	case lexer.TokIdent:
		return p.parseIdentOrCall()

	case lexer.TokLambda:
		return p.parseLambda()

	default:
		return nil, p.errorf(p.cur, "unexpected %s", describe(p.cur))
	}
}

func (p *parser) parseIdentOrCall() (ast.Node, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}
	ident := &ast.Ident{Span: tok.Span, Name: tok.Value}
	if p.peek() != lexer.TokLParen {
		return ident, nil
	}
	if _, err := p.advance(); err != nil { // consume '('
		return nil, err
	}

	var args []ast.Node
	if p.peek() != lexer.TokRParen {
		for {
			arg, err := p.parseBoolean()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek() != lexer.TokComma {
				break
			}
			if _, err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	closeTok, err := p.expect(lexer.TokRParen)
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{
		Span:   p.spanFromTo(tok.Span, closeTok.Span),
		Callee: ident,
		Args:   args,
	}, nil
}

func (p *parser) parseLambda() (ast.Node, error) {
	start, err := p.advance() // consume 'lambda'
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams(lexer.TokArrow)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokArrow); err != nil {
		return nil, err
	}
	body, err := p.parseBoolean()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{
		Span:   p.spanFromTo(start.Span, body.NodeSpan()),
		Params: params,
		Body:   body,
	}, nil
}

// Package lexer implements the lambda language tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokDefun TokenType = iota
	TokLambda
	TokReturn
	TokIf
	TokElse
	TokTrue
	TokFalse

	// Literals
	TokIntLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLBrace // {
	TokRBrace // }
	TokLParen // (
	TokRParen // )
	TokComma  // ,
	TokArrow  // ->

	// Logical operators
	TokAndAnd // &&
	TokOrOr   // ||
	TokBang   // !

	// Comparison operators
	TokGtEq   // >=
	TokLtEq   // <=
	TokEqEq   // ==
	TokBangEq // !=
	TokGt     // >
	TokLt     // <

	// Arithmetic operators
	TokPlus    // +
	TokMinus   // -
	TokStar    // *
	TokSlash   // /
	TokPercent // %

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokDefun:   "defun",
	TokLambda:  "lambda",
	TokReturn:  "return",
	TokIf:      "if",
	TokElse:    "else",
	TokTrue:    "true",
	TokFalse:   "false",
	TokIntLit:  "integer",
	TokIdent:   "identifier",
	TokLBrace:  "'{'",
	TokRBrace:  "'}'",
	TokLParen:  "'('",
	TokRParen:  "')'",
	TokComma:   "','",
	TokArrow:   "'->'",
	TokAndAnd:  "'&&'",
	TokOrOr:    "'||'",
	TokBang:    "'!'",
	TokGtEq:    "'>='",
	TokLtEq:    "'<='",
	TokEqEq:    "'=='",
	TokBangEq:  "'!='",
	TokGt:      "'>'",
	TokLt:      "'<'",
	TokPlus:    "'+'",
	TokMinus:   "'-'",
	TokStar:    "'*'",
	TokSlash:   "'/'",
	TokPercent: "'%'",
	TokEOF:     "end of input",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var keywords = map[string]TokenType{
	"defun":  TokDefun,
	"lambda": TokLambda,
	"return": TokReturn,
	"if":     TokIf,
	"else":   TokElse,
	"true":   TokTrue,
	"false":  TokFalse,
}

// IsKeyword reports whether name is reserved and cannot be used as an
// identifier.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

// Lexer produces tokens on demand from a cursor over source text.
type Lexer struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

// New returns a Lexer positioned at the start of source.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *Lexer) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *Lexer) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *Lexer) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *Lexer) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *Lexer) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '#' {
			// The comment owns its terminating newline.
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
			if !s.atEnd() {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *Lexer) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	if _, err := strconv.ParseInt(text, 10, 64); err != nil {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("integer literal %s out of range", text))
	}
	return Token{
		Type:  TokIntLit,
		Value: text,
		Span:  s.span(startLine, startCol),
	}, nil
}

func (s *Lexer) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	if tokType, ok := keywords[text]; ok {
		return Token{
			Type:  tokType,
			Value: text,
			Span:  s.span(startLine, startCol),
		}
	}

	return Token{
		Type:  TokIdent,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *Lexer) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// pair scans an operator whose first byte has already been seen. When the
// following byte is second the two-character token is produced; otherwise
// the single-character fallback is used, unless hasSingle reports that the
// first byte is not a token on its own.
func (s *Lexer) pair(second byte, double TokenType, single TokenType, hasSingle bool) (Token, error) {
	startLine, startCol := s.line, s.col
	first := s.advance()
	if !s.atEnd() && s.peek() == second {
		s.advance()
		return Token{Type: double, Value: string([]byte{first, second}), Span: s.span(startLine, startCol)}, nil
	}
	if !hasSingle {
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", first))
	}
	return Token{Type: single, Value: string(first), Span: s.span(startLine, startCol)}, nil
}

// Next scans and returns the next token. At end of input it returns TokEOF,
// and keeps doing so on further calls.
func (s *Lexer) Next() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	// Single-char tokens
	var single TokenType = -1
	switch ch {
	case '{':
		single = TokLBrace
	case '}':
		single = TokRBrace
	case '(':
		single = TokLParen
	case ')':
		single = TokRParen
	case ',':
		single = TokComma
	case '+':
		single = TokPlus
	case '*':
		single = TokStar
	case '/':
		single = TokSlash
	case '%':
		single = TokPercent
	}
	if single >= 0 {
		s.advance()
		return Token{Type: single, Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	// Multi-char tokens
	switch ch {
	case '-':
		return s.pair('>', TokArrow, TokMinus, true)
	case '&':
		return s.pair('&', TokAndAnd, 0, false)
	case '|':
		return s.pair('|', TokOrOr, 0, false)
	case '=':
		return s.pair('=', TokEqEq, 0, false)
	case '!':
		return s.pair('=', TokBangEq, TokBang, true)
	case '>':
		return s.pair('=', TokGtEq, TokGt, true)
	case '<':
		return s.pair('=', TokLtEq, TokLt, true)
	}

	if isDigit(ch) {
		return s.scanNumber()
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), nil
	}

	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	for i := 0; i < size; i++ {
		s.advance()
	}
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character %q", r))
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	s := New(source, filename)
	var tokens []Token

	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}

package parser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/lexer"
	"github.com/thomasrohde/lambda/pkg/parser"
)

// helper: parse source and assert no error
func mustParse(t *testing.T, source string) ast.Node {
	t.Helper()
	node, err := parser.Parse(source, "test.lambda")
	require.NoError(t, err, "source: %q", source)
	require.NotNil(t, node)
	return node
}

// helper: parse source and assert a ParseError is returned
func mustFail(t *testing.T, source string) *parser.ParseError {
	t.Helper()
	node, err := parser.Parse(source, "test.lambda")
	require.Error(t, err, "source: %q parsed to %#v", source, node)
	var pe *parser.ParseError
	require.True(t, errors.As(err, &pe), "expected *ParseError, got %T: %v", err, err)
	assert.Equal(t, diagnostics.EParse, pe.Diag.Code)
	return pe
}

func binary(t *testing.T, n ast.Node) *ast.BinaryExpr {
	t.Helper()
	b, ok := n.(*ast.BinaryExpr)
	require.True(t, ok, "expected *ast.BinaryExpr, got %T", n)
	return b
}

func intValue(t *testing.T, n ast.Node) int64 {
	t.Helper()
	lit, ok := n.(*ast.IntLiteral)
	require.True(t, ok, "expected *ast.IntLiteral, got %T", n)
	return lit.Value
}

// ---- Literals and names ----

func TestIntLiteral(t *testing.T) {
	tests := []struct {
		source string
		want   int64
	}{
		{"0", 0},
		{"42", 42},
		{"9223372036854775807", 9223372036854775807},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, intValue(t, mustParse(t, tt.source)))
		})
	}
}

func TestBoolLiteral(t *testing.T) {
	lit, ok := mustParse(t, "true").(*ast.BoolLiteral)
	require.True(t, ok)
	assert.True(t, lit.Value)

	lit, ok = mustParse(t, "false").(*ast.BoolLiteral)
	require.True(t, ok)
	assert.False(t, lit.Value)
}

func TestIdent(t *testing.T) {
	id, ok := mustParse(t, "counter_1").(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "counter_1", id.Name)
}

// ---- Precedence ----

func TestMultiplicationBindsTighter(t *testing.T) {
	// 1 + 2 * 3 => 1 + (2 * 3)
	add := binary(t, mustParse(t, "1 + 2 * 3"))
	assert.Equal(t, ast.OpAdd, add.Op)
	assert.Equal(t, int64(1), intValue(t, add.Left))
	mul := binary(t, add.Right)
	assert.Equal(t, ast.OpMul, mul.Op)
}

func TestAdditiveLeftAssociative(t *testing.T) {
	// 10 - 3 - 2 => (10 - 3) - 2
	outer := binary(t, mustParse(t, "10 - 3 - 2"))
	assert.Equal(t, ast.OpSub, outer.Op)
	assert.Equal(t, int64(2), intValue(t, outer.Right))
	inner := binary(t, outer.Left)
	assert.Equal(t, ast.OpSub, inner.Op)
	assert.Equal(t, int64(10), intValue(t, inner.Left))
}

func TestMultiplicativeOperators(t *testing.T) {
	for src, op := range map[string]ast.BinaryOp{
		"6 * 7": ast.OpMul,
		"6 / 7": ast.OpDiv,
		"6 % 7": ast.OpMod,
	} {
		assert.Equal(t, op, binary(t, mustParse(t, src)).Op, src)
	}
}

func TestComparisonBelowArithmetic(t *testing.T) {
	// 1 + 2 > 2 => (1 + 2) > 2
	cmp := binary(t, mustParse(t, "1 + 2 > 2"))
	assert.Equal(t, ast.OpGt, cmp.Op)
	assert.Equal(t, ast.OpAdd, binary(t, cmp.Left).Op)
}

func TestComparisonOperators(t *testing.T) {
	for src, op := range map[string]ast.BinaryOp{
		"a > b":  ast.OpGt,
		"a < b":  ast.OpLt,
		"a >= b": ast.OpGtEq,
		"a <= b": ast.OpLtEq,
		"a == b": ast.OpEqEq,
		"a != b": ast.OpNeq,
	} {
		assert.Equal(t, op, binary(t, mustParse(t, src)).Op, src)
	}
}

func TestComparisonNotChained(t *testing.T) {
	mustFail(t, "1 < 2 < 3")
	mustFail(t, "a == b != c")
}

func TestBooleanLowestPrecedence(t *testing.T) {
	// a > 1 && b < 2 => (a > 1) && (b < 2)
	and := binary(t, mustParse(t, "a > 1 && b < 2"))
	assert.Equal(t, ast.OpAnd, and.Op)
	assert.Equal(t, ast.OpGt, binary(t, and.Left).Op)
	assert.Equal(t, ast.OpLt, binary(t, and.Right).Op)
}

func TestBooleanSameLevelLeftAssociative(t *testing.T) {
	// a || b && c => (a || b) && c
	outer := binary(t, mustParse(t, "a || b && c"))
	assert.Equal(t, ast.OpAnd, outer.Op)
	assert.Equal(t, ast.OpOr, binary(t, outer.Left).Op)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	// (1 + 2) * 3
	mul := binary(t, mustParse(t, "(1 + 2) * 3"))
	assert.Equal(t, ast.OpMul, mul.Op)
	assert.Equal(t, ast.OpAdd, binary(t, mul.Left).Op)
}

func TestParenthesizedComparisonChain(t *testing.T) {
	cmp := binary(t, mustParse(t, "(1 < 2) == true"))
	assert.Equal(t, ast.OpEqEq, cmp.Op)
}

// ---- Unary ----

func TestUnaryOperators(t *testing.T) {
	tests := []struct {
		source string
		op     ast.UnaryOp
	}{
		{"-5", ast.OpNeg},
		{"+5", ast.OpPos},
		{"!true", ast.OpNot},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			u, ok := mustParse(t, tt.source).(*ast.UnaryExpr)
			require.True(t, ok)
			assert.Equal(t, tt.op, u.Op)
		})
	}
}

func TestUnaryBindsTighterThanBinary(t *testing.T) {
	// -7 / 2 => (-7) / 2
	div := binary(t, mustParse(t, "-7 / 2"))
	assert.Equal(t, ast.OpDiv, div.Op)
	neg, ok := div.Left.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpNeg, neg.Op)
}

func TestNestedUnary(t *testing.T) {
	outer, ok := mustParse(t, "!!x").(*ast.UnaryExpr)
	require.True(t, ok)
	inner, ok := outer.Operand.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpNot, inner.Op)
}

// ---- Calls and lambdas ----

func TestCallNoArgs(t *testing.T) {
	call, ok := mustParse(t, "f()").(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "f", call.Callee.(*ast.Ident).Name)
	assert.Empty(t, call.Args)
}

func TestCallArgsAreFullExpressions(t *testing.T) {
	call, ok := mustParse(t, "f(a && b, 1 + 2, g(x))").(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 3)
	assert.Equal(t, ast.OpAnd, binary(t, call.Args[0]).Op)
	assert.Equal(t, ast.OpAdd, binary(t, call.Args[1]).Op)
	_, isCall := call.Args[2].(*ast.CallExpr)
	assert.True(t, isCall)
}

func TestCallInArithmetic(t *testing.T) {
	// n * fact(n - 1)
	mul := binary(t, mustParse(t, "n * fact(n - 1)"))
	_, isCall := mul.Right.(*ast.CallExpr)
	assert.True(t, isCall)
}

func TestLambda(t *testing.T) {
	lam, ok := mustParse(t, "lambda x, y -> x + y").(*ast.LambdaExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, lam.Params)
	assert.Equal(t, ast.OpAdd, binary(t, lam.Body).Op)
}

func TestLambdaNoParams(t *testing.T) {
	lam, ok := mustParse(t, "lambda -> 1").(*ast.LambdaExpr)
	require.True(t, ok)
	assert.Empty(t, lam.Params)
}

func TestLambdaBodyExtendsOverBoolean(t *testing.T) {
	lam, ok := mustParse(t, "lambda a, b -> a > 0 && b > 0").(*ast.LambdaExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAnd, binary(t, lam.Body).Op)
}

func TestLambdaAsArgument(t *testing.T) {
	call, ok := mustParse(t, "apply(lambda x -> x * 2, 21)").(*ast.CallExpr)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	_, isLambda := call.Args[0].(*ast.LambdaExpr)
	assert.True(t, isLambda)
}

// ---- Statements ----

func TestFnDecl(t *testing.T) {
	fn, ok := mustParse(t, "defun add(a, b) { a + b }").(*ast.FnDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, []string{"a", "b"}, fn.Params)
	assert.Equal(t, ast.OpAdd, binary(t, fn.Body).Op)
}

func TestFnDeclNoParams(t *testing.T) {
	fn, ok := mustParse(t, "defun answer() { 42 }").(*ast.FnDecl)
	require.True(t, ok)
	assert.Empty(t, fn.Params)
}

func TestFnDeclMultiStatementBody(t *testing.T) {
	fn, ok := mustParse(t, "defun f(x) { defun g(y) { y } g(x) }").(*ast.FnDecl)
	require.True(t, ok)
	block, ok := fn.Body.(*ast.Block)
	require.True(t, ok)
	assert.Len(t, block.Statements, 2)
}

func TestEmptyBlock(t *testing.T) {
	fn, ok := mustParse(t, "defun f() { }").(*ast.FnDecl)
	require.True(t, ok)
	block, ok := fn.Body.(*ast.Block)
	require.True(t, ok)
	assert.Empty(t, block.Statements)
}

func TestIfElse(t *testing.T) {
	stmt, ok := mustParse(t, "if n == 0 { 1 } else { 2 }").(*ast.IfStmt)
	require.True(t, ok)
	assert.Equal(t, ast.OpEqEq, binary(t, stmt.Cond).Op)
	assert.Equal(t, int64(1), intValue(t, stmt.Then))
	assert.Equal(t, int64(2), intValue(t, stmt.Else))
}

func TestIfWithoutElse(t *testing.T) {
	stmt, ok := mustParse(t, "if x { 1 }").(*ast.IfStmt)
	require.True(t, ok)
	assert.Nil(t, stmt.Else)
}

func TestReturn(t *testing.T) {
	ret, ok := mustParse(t, "return a || b").(*ast.ReturnStmt)
	require.True(t, ok)
	assert.Equal(t, ast.OpOr, binary(t, ret.Value).Op)
}

func TestReturnInsideIf(t *testing.T) {
	fn, ok := mustParse(t, "defun f(x) { if x > 0 { return 1 } 0 }").(*ast.FnDecl)
	require.True(t, ok)
	block, ok := fn.Body.(*ast.Block)
	require.True(t, ok)
	require.Len(t, block.Statements, 2)
	stmt, ok := block.Statements[0].(*ast.IfStmt)
	require.True(t, ok)
	_, isReturn := stmt.Then.(*ast.ReturnStmt)
	assert.True(t, isReturn)
}

// ---- Programs ----

func TestEmptyProgram(t *testing.T) {
	block, ok := mustParse(t, "").(*ast.Block)
	require.True(t, ok)
	assert.Empty(t, block.Statements)
}

func TestCommentOnlyProgram(t *testing.T) {
	block, ok := mustParse(t, "# nothing here\n").(*ast.Block)
	require.True(t, ok)
	assert.Empty(t, block.Statements)
}

func TestFactorialProgram(t *testing.T) {
	src := `
defun fact(n) {
  if n == 0 { 1 } else { n * fact(n - 1) }
}
fact(5)
`
	block, ok := mustParse(t, src).(*ast.Block)
	require.True(t, ok)
	require.Len(t, block.Statements, 2)
	_, isDecl := block.Statements[0].(*ast.FnDecl)
	assert.True(t, isDecl)
	_, isCall := block.Statements[1].(*ast.CallExpr)
	assert.True(t, isCall)
}

func TestParseTokens(t *testing.T) {
	tokens, err := lexer.Tokenize("1 + 2", "")
	require.NoError(t, err)
	node, err := parser.ParseTokens(tokens)
	require.NoError(t, err)
	assert.Equal(t, ast.OpAdd, binary(t, node).Op)
}

func TestParseTokensWithoutEOF(t *testing.T) {
	// A missing trailing EOF is treated as end of input.
	tokens, err := lexer.Tokenize("f(1)", "")
	require.NoError(t, err)
	node, err := parser.ParseTokens(tokens[:len(tokens)-1])
	require.NoError(t, err)
	_, isCall := node.(*ast.CallExpr)
	assert.True(t, isCall)
}

func TestParseStatementLeavesRest(t *testing.T) {
	lx := lexer.New("defun f() { 1 } f()", "")
	first, err := parser.ParseStatement(lx)
	require.NoError(t, err)
	_, isDecl := first.(*ast.FnDecl)
	require.True(t, isDecl)

	// The parser holds one token of lookahead, so the rest starts after it.
	tok, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, lexer.TokLParen, tok.Type)
}

// ---- Spans ----

func TestSpans(t *testing.T) {
	fn, ok := mustParse(t, "defun f(x) {\n  x + 1\n}").(*ast.FnDecl)
	require.True(t, ok)
	sp := fn.NodeSpan()
	assert.Equal(t, "test.lambda", sp.File)
	assert.Equal(t, 1, sp.StartLine)
	assert.Equal(t, 1, sp.StartCol)
	assert.Equal(t, 3, sp.EndLine)

	body := fn.Body.NodeSpan()
	assert.Equal(t, 2, body.StartLine)
	assert.Equal(t, 3, body.StartCol)
}

// ---- Errors ----

func TestParseErrors(t *testing.T) {
	cases := []string{
		"1 +",
		"(1 + 2",
		"f(1, 2",
		"f(1,)",
		"defun (x) { x }",
		"defun f x { x }",
		"defun f(x) x",
		"defun f(x, ) { x }",
		"defun f(1) { x }",
		"if x 1",
		"if x { 1 } else 2",
		"if x { 1",
		"lambda x y -> x",
		"lambda x",
		"return",
		"*",
		")",
		"else { 1 }",
		"{ 1 }",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			mustFail(t, src)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	pe := mustFail(t, "defun f(x) {\n  x +\n}")
	require.NotNil(t, pe.Diag.Span)
	assert.Equal(t, 3, pe.Diag.Span.StartLine)
	assert.Equal(t, 1, pe.Diag.Span.StartCol)
}

func TestParseErrorMessage(t *testing.T) {
	pe := mustFail(t, "f(1, 2")
	assert.Contains(t, pe.Error(), "expected ')'")
	assert.Contains(t, pe.Error(), "end of input")
}

func TestLexErrorPassesThrough(t *testing.T) {
	_, err := parser.Parse("1 + @", "test.lambda")
	require.Error(t, err)
	var le *lexer.LexError
	require.True(t, errors.As(err, &le), "expected *lexer.LexError, got %T", err)
	assert.Equal(t, diagnostics.ELex, le.Diag.Code)
}

func TestLexErrorAfterValidPrefix(t *testing.T) {
	_, err := parser.Parse("defun f() { 1 }\nf() = 2", "test.lambda")
	var le *lexer.LexError
	assert.True(t, errors.As(err, &le), "expected *lexer.LexError, got %T", err)
}

func TestIsIncomplete(t *testing.T) {
	incomplete := []string{"defun f(x) {", "f(1,", "1 +", "if x { 1 } else", "(lambda x ->"}
	for _, src := range incomplete {
		_, err := parser.Parse(src, "")
		assert.True(t, parser.IsIncomplete(err), "%q should be incomplete, got %v", src, err)
	}

	complete := []string{")", "1 + )", "a < b < c"}
	for _, src := range complete {
		_, err := parser.Parse(src, "")
		require.Error(t, err, src)
		assert.False(t, parser.IsIncomplete(err), "%q is a real error", src)
	}
	assert.False(t, parser.IsIncomplete(nil))
}

func TestReservedWordAsName(t *testing.T) {
	tests := map[string]string{
		"defun if(x) { x }":      "if",
		"defun f(return) { 1 }":  "return",
		"defun f(a, true) { a }": "true",
		"lambda else -> 1":       "else",
	}
	for src, word := range tests {
		pe := mustFail(t, src)
		assert.Contains(t, pe.Diag.Hint, "'"+word+"' is a reserved word", src)
		assert.False(t, pe.AtEOF, src)
	}

	pe := mustFail(t, "defun f(1) { 1 }")
	assert.Empty(t, pe.Diag.Hint, "only reserved words get a hint")
}

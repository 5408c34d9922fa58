// Package formatter implements the lambda source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/lexer"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpAnd: 1, ast.OpOr: 1,
	ast.OpEqEq: 2, ast.OpNeq: 2, ast.OpGt: 2, ast.OpLt: 2, ast.OpGtEq: 2, ast.OpLtEq: 2,
	ast.OpAdd: 3, ast.OpSub: 3,
	ast.OpMul: 4, ast.OpDiv: 4, ast.OpMod: 4,
}

const comparisonPrec = 2

func needsParens(child ast.Node, parentOp ast.BinaryOp, isRight bool) bool {
	switch c := child.(type) {
	case *ast.LambdaExpr:
		// A lambda body would swallow the rest of the expression.
		return true
	case *ast.BinaryExpr:
		childPrec := precedence[c.Op]
		parentPrec := precedence[parentOp]
		if childPrec < parentPrec {
			return true
		}
		if childPrec == parentPrec {
			// Comparisons do not chain; everything else is left-associative.
			return isRight || childPrec == comparisonPrec
		}
	}
	return false
}

// Format pretty-prints a lambda AST back to source code. The output parses
// back to the same tree for any tree the parser produced. Comments are not
// preserved.
func Format(node ast.Node) string {
	var stmts []ast.Node
	if block, ok := node.(*ast.Block); ok {
		stmts = block.Statements
	} else if node != nil {
		stmts = []ast.Node{node}
	}
	if len(stmts) == 0 {
		return ""
	}

	formatted := formatStatements(stmts, 0)
	var lines []string
	for i, s := range stmts {
		// Top-level function declarations are set apart by a blank line.
		if i > 0 {
			_, prevFn := stmts[i-1].(*ast.FnDecl)
			_, curFn := s.(*ast.FnDecl)
			if prevFn || curFn {
				lines = append(lines, "")
			}
		}
		lines = append(lines, formatted[i])
	}
	return strings.Join(lines, "\n") + "\n"
}

// formatStatements renders a statement sequence. A statement that ends in a
// name and is followed by one starting with '(' would re-parse as a call, so
// the name is kept in parentheses.
func formatStatements(stmts []ast.Node, depth int) []string {
	out := make([]string, len(stmts))
	for i, s := range stmts {
		out[i] = formatStmt(s, depth)
		if i > 0 && strings.HasPrefix(strings.TrimLeft(out[i], " "), "(") {
			out[i-1] = parenthesizeTrailingName(out[i-1])
		}
	}
	return out
}

func parenthesizeTrailingName(s string) string {
	i := len(s)
	for i > 0 && isNameByte(s[i-1]) {
		i--
	}
	name := s[i:]
	if name == "" || (name[0] >= '0' && name[0] <= '9') || lexer.IsKeyword(name) {
		return s
	}
	return s[:i] + "(" + name + ")"
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// HasComments reports whether source contains comments, which Format drops.
func HasComments(source string) bool {
	return strings.Contains(source, "#")
}

func formatStmt(s ast.Node, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.FnDecl:
		params := strings.Join(stmt.Params, ", ")
		return prefix + "defun " + stmt.Name + "(" + params + ") " + formatBlock(stmt.Body, depth)
	case *ast.IfStmt:
		out := prefix + "if " + formatExpr(stmt.Cond, depth) + " " + formatBlock(stmt.Then, depth)
		if stmt.Else != nil {
			out += " else " + formatBlock(stmt.Else, depth)
		}
		return out
	case *ast.ReturnStmt:
		return prefix + "return " + formatExpr(stmt.Value, depth)
	case *ast.Block:
		return strings.Join(formatStatements(stmt.Statements, depth), "\n")
	}
	return prefix + formatExpr(s, depth)
}

// formatBlock renders a body in braces. Bodies that collapsed to a single
// statement are written as one-statement blocks.
func formatBlock(body ast.Node, depth int) string {
	var stmts []ast.Node
	if block, ok := body.(*ast.Block); ok {
		stmts = block.Statements
	} else if body != nil {
		stmts = []ast.Node{body}
	}
	if len(stmts) == 0 {
		return "{}"
	}
	lines := formatStatements(stmts, depth+1)
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatExpr(e ast.Node, depth int) string {
	switch expr := e.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(expr.Value, 10)
	case *ast.BoolLiteral:
		if expr.Value {
			return "true"
		}
		return "false"
	case *ast.Ident:
		return expr.Name
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a, depth)
		}
		return formatExpr(expr.Callee, depth) + "(" + strings.Join(args, ", ") + ")"
	case *ast.LambdaExpr:
		if len(expr.Params) == 0 {
			return "lambda -> " + formatExpr(expr.Body, depth)
		}
		return "lambda " + strings.Join(expr.Params, ", ") + " -> " + formatExpr(expr.Body, depth)
	case *ast.BinaryExpr:
		leftStr := formatExpr(expr.Left, depth)
		rightStr := formatExpr(expr.Right, depth)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = "(" + leftStr + ")"
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = "(" + rightStr + ")"
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr
	case *ast.UnaryExpr:
		operandStr := formatExpr(expr.Operand, depth)
		switch expr.Operand.(type) {
		case *ast.BinaryExpr, *ast.LambdaExpr:
			return string(expr.Op) + "(" + operandStr + ")"
		}
		return string(expr.Op) + operandStr
	case *ast.FnDecl, *ast.IfStmt, *ast.ReturnStmt, *ast.Block:
		// Statements in expression position cannot come from the parser.
		return formatStmt(e, depth)
	}
	return ""
}

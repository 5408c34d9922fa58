// Package validator implements static checks over lambda programs.
//
// Validation never changes what a program means; it reports names that can
// never be resolved, duplicate parameters and statements that follow a
// return. The interpreter does not require a program to validate.
package validator

import (
	"fmt"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
)

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate performs static analysis on a parsed program and returns
// diagnostics in source order. Names in predeclared are treated as already
// bound, which lets a REPL check input against its session.
func Validate(node ast.Node, predeclared ...string) []diagnostics.Diagnostic {
	v := &validator{}
	root := newScope(nil)
	for _, name := range predeclared {
		root.add(name)
	}
	v.validateBody(node, root)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

// validateBody checks the statements that run in one environment: a program
// or a function body. Every defun reachable without entering another
// function binds into that environment, and a call may run after any of
// them, so all are collected before names are resolved.
func (v *validator) validateBody(node ast.Node, sc *scope) {
	collectDecls(node, sc)
	v.validateNode(node, sc)
}

func collectDecls(node ast.Node, sc *scope) {
	switch n := node.(type) {
	case *ast.FnDecl:
		sc.add(n.Name)
	case *ast.Block:
		for _, stmt := range n.Statements {
			collectDecls(stmt, sc)
		}
	case *ast.IfStmt:
		collectDecls(n.Then, sc)
		if n.Else != nil {
			collectDecls(n.Else, sc)
		}
	}
}

func (v *validator) validateNode(node ast.Node, sc *scope) {
	switch n := node.(type) {
	case nil, *ast.IntLiteral, *ast.BoolLiteral:
		// literals are always valid

	case *ast.Ident:
		if !sc.has(n.Name) {
			v.addDiag(diagnostics.EUnbound, fmt.Sprintf("unbound name '%s'", n.Name), n.Span)
		}

	case *ast.BinaryExpr:
		v.validateNode(n.Left, sc)
		v.validateNode(n.Right, sc)

	case *ast.UnaryExpr:
		v.validateNode(n.Operand, sc)

	case *ast.CallExpr:
		v.validateNode(n.Callee, sc)
		for _, arg := range n.Args {
			v.validateNode(arg, sc)
		}

	case *ast.FnDecl:
		v.validateFunction(n.Name, n.Params, n.Body, n.Span, sc)

	case *ast.LambdaExpr:
		v.validateFunction("", n.Params, n.Body, n.Span, sc)

	case *ast.IfStmt:
		v.validateNode(n.Cond, sc)
		v.validateNode(n.Then, sc)
		v.validateNode(n.Else, sc)

	case *ast.ReturnStmt:
		v.validateNode(n.Value, sc)

	case *ast.Block:
		for i, stmt := range n.Statements {
			v.validateNode(stmt, sc)
			if _, ok := stmt.(*ast.ReturnStmt); ok && i < len(n.Statements)-1 {
				v.addDiag(diagnostics.EUnreachable, "unreachable statement after return", n.Statements[i+1].NodeSpan())
				break
			}
		}
	}
}

func (v *validator) validateFunction(name string, params []string, body ast.Node, span ast.Span, sc *scope) {
	what := "lambda"
	if name != "" {
		what = fmt.Sprintf("function '%s'", name)
	}
	child := newScope(sc)
	for _, param := range params {
		if child.bindings[param] {
			v.addDiag(diagnostics.EDupParam, fmt.Sprintf("duplicate parameter '%s' in %s", param, what), span)
			continue
		}
		child.add(param)
	}
	v.validateBody(body, child)
}

// Package ast defines the lambda language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
//
// The set of nodes is closed: the unexported marker method keeps
// implementations inside this package, so a type switch over the node
// types below is exhaustive.
type Node interface {
	Kind() string
	NodeSpan() Span
	node() // sealed marker
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpMod  BinaryOp = "%"
	OpAnd  BinaryOp = "&&"
	OpOr   BinaryOp = "||"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
)

// UnaryOp represents a prefix operator.
type UnaryOp string

const (
	OpPos UnaryOp = "+"
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// --- Literals ---

type IntLiteral struct {
	Span  Span
	Value int64
}

func (n *IntLiteral) Kind() string   { return "IntLiteral" }
func (n *IntLiteral) NodeSpan() Span { return n.Span }
func (n *IntLiteral) node()          {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) node()          {}

// Ident is a reference to a bound name.
type Ident struct {
	Span Span
	Name string
}

func (n *Ident) Kind() string   { return "Ident" }
func (n *Ident) NodeSpan() Span { return n.Span }
func (n *Ident) node()          {}

// --- Operators ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Node
	Right Node
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) node()          {}

type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Node
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) node()          {}

// --- Functions ---

// FnDecl is a named function definition: defun name(params) { body }.
type FnDecl struct {
	Span   Span
	Name   string
	Params []string
	Body   Node
}

func (n *FnDecl) Kind() string   { return "FnDecl" }
func (n *FnDecl) NodeSpan() Span { return n.Span }
func (n *FnDecl) node()          {}

// LambdaExpr is an anonymous function: lambda params -> expr.
type LambdaExpr struct {
	Span   Span
	Params []string
	Body   Node
}

func (n *LambdaExpr) Kind() string   { return "LambdaExpr" }
func (n *LambdaExpr) NodeSpan() Span { return n.Span }
func (n *LambdaExpr) node()          {}

type CallExpr struct {
	Span   Span
	Callee Node
	Args   []Node
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) node()          {}

// --- Statements ---

// IfStmt is a conditional. Else is nil when there is no else branch.
type IfStmt struct {
	Span Span
	Cond Node
	Then Node
	Else Node
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) node()          {}

type ReturnStmt struct {
	Span  Span
	Value Node
}

func (n *ReturnStmt) Kind() string   { return "ReturnStmt" }
func (n *ReturnStmt) NodeSpan() Span { return n.Span }
func (n *ReturnStmt) node()          {}

// Block is an ordered statement sequence. The parser only builds a Block
// for zero or two-or-more statements; a single statement stands alone.
type Block struct {
	Span       Span
	Statements []Node
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) node()          {}

// Collapse returns the single statement itself when stmts has exactly one
// element, and a Block otherwise.
func Collapse(span Span, stmts []Node) Node {
	if len(stmts) == 1 {
		return stmts[0]
	}
	return &Block{Span: span, Statements: stmts}
}

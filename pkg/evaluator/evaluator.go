package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceCallStart TraceEventType = "call_start"
	TraceCallEnd   TraceEventType = "call_end"
	TraceReturn    TraceEventType = "return"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string         `json:"ts"`
	RunID     string         `json:"runId,omitempty"`
	Event     TraceEventType `json:"event"`
	Span      *ast.Span      `json:"span,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Options configures evaluation.
type Options struct {
	// MaxDepth bounds the number of nested function calls. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// ShortCircuit skips the right operand of && and || when the left one
	// already decides the result. By default both operands are evaluated.
	ShortCircuit bool
	// Timeout, when positive, bounds the wall-clock time of one Evaluate.
	Timeout time.Duration
	Trace   func(event TraceEvent)
	RunID   string
}

// Sentinel errors matched by RuntimeError via errors.Is.
var (
	ErrName        = errors.New("name error")
	ErrArity       = errors.New("arity error")
	ErrNotCallable = errors.New("not callable")
	ErrEval        = errors.New("evaluation error")
	ErrType        = errors.New("type error")
	ErrDivZero     = errors.New("division by zero")
	ErrDepth       = errors.New("call depth exceeded")
	ErrCancelled   = errors.New("evaluation cancelled")
)

var sentinels = map[string]error{
	diagnostics.EName:        ErrName,
	diagnostics.EArity:       ErrArity,
	diagnostics.ENotCallable: ErrNotCallable,
	diagnostics.EEval:        ErrEval,
	diagnostics.EType:        ErrType,
	diagnostics.EDivZero:     ErrDivZero,
	diagnostics.EDepth:       ErrDepth,
	diagnostics.ECancelled:   ErrCancelled,
}

// RuntimeError represents an error raised while evaluating a program.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	cause   error
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel for the error code, and the context error
// for cancellations.
func (e *RuntimeError) Unwrap() []error {
	var errs []error
	if s, ok := sentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Diagnostic converts the error into a diagnostic for display.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

type evaluator struct {
	opts   Options
	budget *budget
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span, data map[string]any) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// Evaluate evaluates node in env and returns its value. The evaluation unit
// is a call boundary: a return reaching the top is unwrapped to its value.
// Any error aborts the unit; bindings made before the error stay in env.
func Evaluate(ctx context.Context, node ast.Node, env *Env, opts Options) (Value, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	ev := &evaluator{
		opts:   opts,
		budget: newBudget(ctx, opts.MaxDepth),
	}

	var span *ast.Span
	if node != nil {
		s := node.NodeSpan()
		span = &s
	}
	ev.emit(TraceRunStart, span, nil)

	val, err := ev.eval(node, env)

	data := map[string]any{"calls": ev.budget.calls}
	if err != nil {
		data["error"] = err.Error()
	}
	ev.emit(TraceRunEnd, span, data)

	if err != nil {
		return nil, err
	}
	if rs, ok := val.(ReturnSignal); ok {
		return rs.Value, nil
	}
	return val, nil
}

func (ev *evaluator) eval(node ast.Node, env *Env) (Value, error) {
	switch n := node.(type) {
	case *ast.IntLiteral:
		return Int{Value: n.Value}, nil

	case *ast.BoolLiteral:
		return Bool{Value: n.Value}, nil

	case *ast.Ident:
		val, err := env.Lookup(n.Name)
		if err != nil {
			var re *RuntimeError
			if errors.As(err, &re) {
				span := n.Span
				re.Span = &span
			}
			return nil, err
		}
		return val, nil

	case *ast.BinaryExpr:
		return ev.evalBinary(n, env)

	case *ast.UnaryExpr:
		return ev.evalUnary(n, env)

	case *ast.FnDecl:
		fn := &Function{Name: n.Name, Params: n.Params, Body: n.Body, Env: env}
		env.Bind(n.Name, fn)
		return fn, nil

	case *ast.LambdaExpr:
		return &Function{Params: n.Params, Body: n.Body, Env: env}, nil

	case *ast.CallExpr:
		return ev.evalCall(n, env)

	case *ast.IfStmt:
		return ev.evalIf(n, env)

	case *ast.ReturnStmt:
		val, err := ev.eval(n.Value, env)
		if err != nil {
			return nil, err
		}
		span := n.Span
		ev.emit(TraceReturn, &span, map[string]any{"value": Inspect(val)})
		return ReturnSignal{Value: val}, nil

	case *ast.Block:
		return ev.evalBlock(n, env)

	default:
		// Only reachable when a caller builds an AST outside the parser.
		return nil, &RuntimeError{
			Code:    diagnostics.EEval,
			Message: fmt.Sprintf("cannot evaluate node of type %T", node),
		}
	}
}

// evalBlock runs statements in order in the current scope. A return stops
// the block and is passed up unchanged.
func (ev *evaluator) evalBlock(b *ast.Block, env *Env) (Value, error) {
	var last Value = Empty{}
	for _, stmt := range b.Statements {
		if err := ev.budget.check(stmt.NodeSpan()); err != nil {
			return nil, err
		}
		val, err := ev.eval(stmt, env)
		if err != nil {
			return nil, err
		}
		if _, ok := val.(ReturnSignal); ok {
			return val, nil
		}
		last = val
	}
	return last, nil
}

func (ev *evaluator) evalIf(n *ast.IfStmt, env *Env) (Value, error) {
	cond, err := ev.eval(n.Cond, env)
	if err != nil {
		return nil, err
	}
	if Truthiness(cond) {
		return ev.eval(n.Then, env)
	}
	if n.Else != nil {
		return ev.eval(n.Else, env)
	}
	return Empty{}, nil
}

func (ev *evaluator) evalCall(n *ast.CallExpr, env *Env) (Value, error) {
	span := n.Span
	if err := ev.budget.check(span); err != nil {
		return nil, err
	}

	callee, err := ev.eval(n.Callee, env)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Function)
	if !ok {
		what := Inspect(callee)
		if id, isIdent := n.Callee.(*ast.Ident); isIdent {
			what = "'" + id.Name + "'"
		}
		return nil, &RuntimeError{
			Code:    diagnostics.ENotCallable,
			Message: fmt.Sprintf("%s is not a function (got %s)", what, typeNameOf(callee)),
			Span:    &span,
		}
	}
	if len(n.Args) != len(fn.Params) {
		return nil, &RuntimeError{
			Code: diagnostics.EArity,
			Message: fmt.Sprintf("%s expects %d argument%s, got %d",
				describeFn(fn), len(fn.Params), plural(len(fn.Params)), len(n.Args)),
			Span: &span,
		}
	}

	// Arguments are evaluated left to right in the caller's scope.
	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		val, err := ev.eval(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	if err := ev.budget.enter(fn, span); err != nil {
		return nil, err
	}
	defer ev.budget.leave()

	callEnv := fn.Env.Child()
	for i, param := range fn.Params {
		callEnv.Bind(param, args[i])
	}

	if ev.opts.Trace != nil {
		ev.emit(TraceCallStart, &span, map[string]any{
			"function": describeFn(fn),
			"depth":    ev.budget.depth,
		})
	}

	result, err := ev.eval(fn.Body, callEnv)
	if err != nil {
		return nil, err
	}
	if rs, ok := result.(ReturnSignal); ok {
		result = rs.Value
	}

	if ev.opts.Trace != nil {
		ev.emit(TraceCallEnd, &span, map[string]any{
			"function": describeFn(fn),
			"depth":    ev.budget.depth,
			"value":    Inspect(result),
		})
	}
	return result, nil
}

func describeFn(fn *Function) string {
	if fn.Name == "" {
		return "lambda"
	}
	return "function '" + fn.Name + "'"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func (ev *evaluator) evalUnary(n *ast.UnaryExpr, env *Env) (Value, error) {
	operand, err := ev.eval(n.Operand, env)
	if err != nil {
		return nil, err
	}
	if n.Op == ast.OpNot {
		return Bool{Value: !Truthiness(operand)}, nil
	}
	i, ok := operand.(Int)
	if !ok {
		span := n.Span
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unary '%s' expects an int, got %s", n.Op, typeNameOf(operand)),
			Span:    &span,
		}
	}
	if n.Op == ast.OpNeg {
		return Int{Value: -i.Value}, nil
	}
	return i, nil
}

func (ev *evaluator) evalBinary(n *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := ev.eval(n.Left, env)
	if err != nil {
		return nil, err
	}

	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		lt := Truthiness(left)
		if ev.opts.ShortCircuit && (lt == (n.Op == ast.OpOr)) {
			return Bool{Value: lt}, nil
		}
		right, err := ev.eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.OpAnd {
			return Bool{Value: lt && Truthiness(right)}, nil
		}
		return Bool{Value: lt || Truthiness(right)}, nil
	}

	right, err := ev.eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ast.OpEqEq:
		return Bool{Value: Equal(left, right)}, nil
	case ast.OpNeq:
		return Bool{Value: !Equal(left, right)}, nil
	}

	li, lok := left.(Int)
	ri, rok := right.(Int)
	if !lok || !rok {
		span := n.Span
		return nil, &RuntimeError{
			Code: diagnostics.EType,
			Message: fmt.Sprintf("operator '%s' expects int operands, got %s and %s",
				n.Op, typeNameOf(left), typeNameOf(right)),
			Span: &span,
		}
	}
	a, b := li.Value, ri.Value

	switch n.Op {
	case ast.OpAdd:
		return Int{Value: a + b}, nil
	case ast.OpSub:
		return Int{Value: a - b}, nil
	case ast.OpMul:
		return Int{Value: a * b}, nil
	case ast.OpDiv, ast.OpMod:
		if b == 0 {
			what := "division"
			if n.Op == ast.OpMod {
				what = "modulo"
			}
			span := n.Span
			return nil, &RuntimeError{
				Code:    diagnostics.EDivZero,
				Message: what + " by zero",
				Span:    &span,
			}
		}
		if n.Op == ast.OpDiv {
			return Int{Value: FloorDiv(a, b)}, nil
		}
		return Int{Value: FloorMod(a, b)}, nil
	case ast.OpGt:
		return Bool{Value: a > b}, nil
	case ast.OpLt:
		return Bool{Value: a < b}, nil
	case ast.OpGtEq:
		return Bool{Value: a >= b}, nil
	case ast.OpLtEq:
		return Bool{Value: a <= b}, nil
	}

	span := n.Span
	return nil, &RuntimeError{
		Code:    diagnostics.EEval,
		Message: fmt.Sprintf("unknown operator '%s'", n.Op),
		Span:    &span,
	}
}

// FloorDiv divides rounding toward negative infinity. b must be nonzero.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// FloorMod returns the remainder of FloorDiv; it takes the sign of b.
// b must be nonzero.
func FloorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

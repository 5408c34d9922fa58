package evaluator

import (
	"context"
	"errors"
	"fmt"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
)

// DefaultMaxDepth is the call depth limit used when Options.MaxDepth is zero.
const DefaultMaxDepth = 10000

// budget tracks resource consumption during one evaluation.
type budget struct {
	ctx      context.Context
	maxDepth int
	depth    int
	calls    int64
}

func newBudget(ctx context.Context, maxDepth int) *budget {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &budget{ctx: ctx, maxDepth: maxDepth}
}

// enter records a function call and fails once the depth limit is passed.
func (b *budget) enter(fn *Function, span ast.Span) error {
	if b.depth >= b.maxDepth {
		name := fn.Name
		if name == "" {
			name = "lambda"
		}
		return &RuntimeError{
			Code:    diagnostics.EDepth,
			Message: fmt.Sprintf("maximum call depth %d exceeded in '%s'", b.maxDepth, name),
			Span:    &span,
		}
	}
	b.depth++
	b.calls++
	return nil
}

func (b *budget) leave() {
	b.depth--
}

// check reports cancellation or an expired deadline on the context.
func (b *budget) check(span ast.Span) error {
	err := b.ctx.Err()
	if err == nil {
		return nil
	}
	msg := "evaluation cancelled"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "evaluation timed out"
	}
	return &RuntimeError{
		Code:    diagnostics.ECancelled,
		Message: msg,
		Span:    &span,
		cause:   err,
	}
}

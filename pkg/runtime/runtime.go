// Package runtime provides the lambda evaluation session: one global
// environment plus the options every evaluation in it shares.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/thomasrohde/lambda/pkg/ast"
	"github.com/thomasrohde/lambda/pkg/config"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/evaluator"
	"github.com/thomasrohde/lambda/pkg/formatter"
	"github.com/thomasrohde/lambda/pkg/lexer"
	"github.com/thomasrohde/lambda/pkg/parser"
	"github.com/thomasrohde/lambda/pkg/validator"
)

// Session owns a global environment that persists across Run calls, so
// definitions from one input are visible to the next. A Session is not safe
// for concurrent use; independent sessions may run in parallel.
type Session struct {
	env    *evaluator.Env
	opts   evaluator.Options
	strict bool
	logger *slog.Logger
	runs   int
}

// Option is a functional option for configuring the Session.
type Option func(*Session)

// WithMaxDepth sets the call depth limit.
func WithMaxDepth(n int) Option {
	return func(s *Session) {
		s.opts.MaxDepth = n
	}
}

// WithShortCircuit makes && and || skip their right operand when possible.
func WithShortCircuit(on bool) Option {
	return func(s *Session) {
		s.opts.ShortCircuit = on
	}
}

// WithTimeout bounds each Run.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.opts.Timeout = d
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(s *Session) {
		s.opts.RunID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(s *Session) {
		s.opts.Trace = fn
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithStrict makes Run refuse programs that fail validation.
func WithStrict(on bool) Option {
	return func(s *Session) {
		s.strict = on
	}
}

// WithConfig applies the evaluation settings of a loaded config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		s.opts.MaxDepth = cfg.MaxDepth
		s.opts.ShortCircuit = cfg.ShortCircuit
		s.opts.Timeout = cfg.Timeout()
	}
}

// New creates a Session with an empty global environment.
func New(opts ...Option) *Session {
	s := &Session{
		env:    evaluator.NewEnv(nil),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.opts.RunID = "session"
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Env returns the session's global environment.
func (s *Session) Env() *evaluator.Env {
	return s.env
}

// Reset discards every global binding.
func (s *Session) Reset() {
	s.env = evaluator.NewEnv(nil)
}

// Run parses source as a program and evaluates it in the global
// environment. Definitions made before an error are kept.
func (s *Session) Run(ctx context.Context, source, filename string) (evaluator.Value, error) {
	node, err := parser.Parse(source, filename)
	if err != nil {
		s.logger.Debug("parse failed", "file", filename, "err", err)
		return nil, err
	}
	if s.strict {
		if diags := validator.Validate(node, s.env.Names()...); len(diags) > 0 {
			return nil, &DiagnosticError{Diagnostics: diags}
		}
	}
	return s.Eval(ctx, node)
}

// Eval evaluates an already parsed tree in the global environment.
func (s *Session) Eval(ctx context.Context, node ast.Node) (evaluator.Value, error) {
	s.runs++
	start := time.Now()
	s.logger.Debug("run start", "run", s.runs)

	val, err := evaluator.Evaluate(ctx, node, s.env, s.opts)

	if err != nil {
		s.logger.Debug("run failed", "run", s.runs, "elapsed", time.Since(start), "err", err)
		return nil, err
	}
	s.logger.Debug("run end", "run", s.runs, "elapsed", time.Since(start), "value", evaluator.Inspect(val))
	return val, nil
}

// Check parses and validates source without executing it. Names already
// bound in the session count as defined.
func (s *Session) Check(source, filename string) []diagnostics.Diagnostic {
	node, err := parser.Parse(source, filename)
	if err != nil {
		if d, ok := DiagnosticOf(err); ok {
			return []diagnostics.Diagnostic{d}
		}
		return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")}
	}
	return validator.Validate(node, s.env.Names()...)
}

// Format parses and formats source.
func (s *Session) Format(source, filename string) (string, error) {
	node, err := parser.Parse(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.Format(node), nil
}

// DiagnosticOf extracts the diagnostic carried by a lex, parse or runtime
// error.
func DiagnosticOf(err error) (diagnostics.Diagnostic, bool) {
	var le *lexer.LexError
	if errors.As(err, &le) {
		return le.Diag, true
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.Diag, true
	}
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		return re.Diagnostic(), true
	}
	var de *DiagnosticError
	if errors.As(err, &de) && len(de.Diagnostics) > 0 {
		return de.Diagnostics[0], true
	}
	return diagnostics.Diagnostic{}, false
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

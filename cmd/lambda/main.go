// Command lambda runs, checks and formats lambda programs and hosts the
// interactive REPL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/lambda/pkg/config"
	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/evaluator"
	"github.com/thomasrohde/lambda/pkg/help"
	"github.com/thomasrohde/lambda/pkg/runtime"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError carries a process exit status through cobra's RunE. The
// message has already been printed when one is returned.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds the streams and global flags shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath   string
	logLevel     string
	jsonDiags    bool
	maxDepth     int
	timeout      time.Duration
	shortCircuit bool
	expressions  []string

	cfg    *config.Config
	logger *slog.Logger
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %s\n", err)
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lambda",
		Short: "Interpreter for the lambda expression language",
		Long: `lambda evaluates programs written in a small expression language with
ints, bools, named functions, closures and recursion.

With no arguments it starts the REPL. Use -e to evaluate source given on
the command line.`,
		Version:           help.Version,
		Args:              cobra.NoArgs,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(a.expressions) > 0 {
				return a.evalExpressions(cmd.Context())
			}
			return a.repl(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "read settings from `FILE` instead of .lambda.yaml")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.jsonDiags, "json-diagnostics", false, "print diagnostics as JSON")
	pf.IntVar(&a.maxDepth, "max-depth", evaluator.DefaultMaxDepth, "maximum call depth")
	pf.DurationVar(&a.timeout, "timeout", 0, "wall-clock limit per evaluation (0 for none)")
	pf.BoolVar(&a.shortCircuit, "short-circuit", false, "skip the right operand of && and || when the left decides")

	root.Flags().StringArrayVarP(&a.expressions, "expression", "e", nil, "evaluate `SOURCE` and print its value (repeatable)")

	root.AddCommand(
		a.runCmd(),
		a.replCmd(),
		a.checkCmd(),
		a.fmtCmd(),
		a.traceCmd(),
	)
	root.SetHelpCommand(a.helpCmd())
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath, cwd)
	if err != nil {
		return a.fail(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""))
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = a.maxDepth
	}
	if flags.Changed("timeout") {
		cfg.TimeoutMs = timeoutMillis(a.timeout)
	}
	if flags.Changed("short-circuit") {
		cfg.ShortCircuit = a.shortCircuit
	}
	if a.jsonDiags {
		cfg.Pretty = false
	}
	if err := cfg.Validate(); err != nil {
		return a.fail(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, "check the command-line flags"))
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return a.fail(diagnostics.MakeDiag(diagnostics.EConfig, err.Error(), nil, ""))
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	a.logger.Debug("config loaded", "path", cfg.Path, "max_depth", cfg.MaxDepth,
		"timeout", cfg.Timeout(), "short_circuit", cfg.ShortCircuit)
	return nil
}

// timeoutMillis converts a --timeout value to whole milliseconds, rounding a
// positive remainder up so a sub-millisecond limit is not read as no limit.
func timeoutMillis(d time.Duration) int64 {
	if d <= 0 {
		return d.Milliseconds()
	}
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}

func (a *app) newSession(opts ...runtime.Option) *runtime.Session {
	base := []runtime.Option{
		runtime.WithConfig(a.cfg),
		runtime.WithLogger(a.logger),
	}
	return runtime.New(append(base, opts...)...)
}

func (a *app) pretty() bool {
	if a.cfg == nil {
		return !a.jsonDiags
	}
	return a.cfg.Pretty
}

// fail prints d and returns the exit error for its code.
func (a *app) fail(d diagnostics.Diagnostic) error {
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostic(d, a.pretty()))
	return &exitError{code: exitCodeForDiag(d.Code)}
}

// report prints a lex, parse, validation or runtime error and returns the
// matching exit error.
func (a *app) report(err error) error {
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(de.Diagnostics, a.pretty()))
		return &exitError{code: 3}
	}
	if d, ok := runtime.DiagnosticOf(err); ok {
		return a.fail(d)
	}
	fmt.Fprintln(a.stderr, err.Error())
	return &exitError{code: 4}
}

func (a *app) evalExpressions(ctx context.Context) error {
	s := a.newSession(runtime.WithRunID("expr"))
	for i, src := range a.expressions {
		val, err := s.Run(ctx, src, fmt.Sprintf("<expr %d>", i+1))
		if err != nil {
			return a.report(err)
		}
		fmt.Fprintln(a.stdout, evaluator.Inspect(val))
	}
	return nil
}

// readSource reads file, or stdin when file is "-".
func (a *app) readSource(file string) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", a.fail(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read stdin: %s", err), nil, ""))
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", a.fail(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, ""))
	}
	return string(data), file, nil
}

func exitCodeForDiag(code string) int {
	switch code {
	case diagnostics.EIO, diagnostics.EConfig:
		return 1
	case diagnostics.ELex, diagnostics.EParse:
		return 2
	case diagnostics.EUnbound, diagnostics.EDupParam, diagnostics.EUnreachable:
		return 3
	default:
		return 4
	}
}

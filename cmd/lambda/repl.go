package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/evaluator"
	"github.com/thomasrohde/lambda/pkg/help"
	"github.com/thomasrohde/lambda/pkg/parser"
	"github.com/thomasrohde/lambda/pkg/runtime"
)

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive REPL (the default with no arguments)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.repl(cmd.Context())
		},
	}
}

func (a *app) repl(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := a.cfg.HistoryPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err != nil {
			a.logger.Debug("history not saved", "path", histPath, "err", err)
			return
		}
		f, err := os.Create(histPath)
		if err != nil {
			a.logger.Debug("history not saved", "path", histPath, "err", err)
			return
		}
		defer f.Close()
		_, _ = ln.WriteHistory(f)
	}()

	fmt.Fprintf(a.stdout, "lambda %s. Type :help for commands, :quit or Ctrl-D to leave.\n", help.Version)

	r := &replSession{
		session: a.newSession(runtime.WithRunID("repl")),
		out:     a.stdout,
		errOut:  a.stderr,
		pretty:  a.cfg.Pretty,
	}
	prompt := a.cfg.Prompt
	cont := continuationPrompt(prompt)
	for {
		src, ok := readByParseProbe(ln, prompt, cont)
		if !ok {
			fmt.Fprintln(a.stdout)
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(src)
		if r.handle(ctx, src) {
			return nil
		}
	}
}

// readByParseProbe reads lines until the buffer parses, fails for a reason
// other than running out of input, or the user aborts. It returns false on
// EOF.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		_, perr := parser.Parse(src, "<repl>")
		if perr != nil && parser.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

func continuationPrompt(prompt string) string {
	if len(prompt) < 2 {
		return "."
	}
	return strings.Repeat(".", len(prompt)-1) + " "
}

// replSession evaluates REPL input against one Session.
type replSession struct {
	session *runtime.Session
	out     io.Writer
	errOut  io.Writer
	pretty  bool
}

// handle runs one unit of input and reports whether the user asked to quit.
func (r *replSession) handle(ctx context.Context, input string) bool {
	line := strings.TrimSpace(input)
	switch {
	case line == ":quit" || line == ":q" || strings.EqualFold(line, "exit"):
		return true
	case line == ":help":
		fmt.Fprint(r.out, help.Topics["repl"])
	case line == ":env":
		r.printEnv()
	case line == ":reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "environment cleared")
	case strings.HasPrefix(line, ":"):
		fmt.Fprintf(r.errOut, "unknown command %s; try :help\n", line)
	default:
		r.eval(ctx, input)
	}
	return false
}

func (r *replSession) eval(ctx context.Context, src string) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	val, err := r.session.Run(ctx, src, "<repl>")
	if err != nil {
		if d, ok := runtime.DiagnosticOf(err); ok {
			fmt.Fprintln(r.errOut, diagnostics.FormatDiagnostic(d, r.pretty))
		} else {
			fmt.Fprintln(r.errOut, err)
		}
		return
	}
	fmt.Fprintln(r.out, evaluator.Inspect(val))
}

func (r *replSession) printEnv() {
	env := r.session.Env()
	names := env.Names()
	if len(names) == 0 {
		fmt.Fprintln(r.out, "(no bindings)")
		return
	}
	for _, name := range names {
		val, _ := env.Get(name)
		fmt.Fprintf(r.out, "%s = %s\n", name, evaluator.Inspect(val))
	}
}

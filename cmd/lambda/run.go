package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/evaluator"
	"github.com/thomasrohde/lambda/pkg/runtime"
)

const sourceSuffix = ".lambda"

type runOptions struct {
	anySuffix bool
	tracePath string
	strict    bool
	json      bool
}

func (a *app) runCmd() *cobra.Command {
	var o runOptions
	cmd := &cobra.Command{
		Use:   "run FILE|-",
		Short: "Run a lambda program and print its value",
		Long: `Run parses FILE as a program, evaluates it and prints the value of its
last statement. FILE must end in .lambda unless --any-suffix is given;
use - to read the program from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), args[0], o)
		},
	}
	cmd.Flags().BoolVar(&o.anySuffix, "any-suffix", false, "accept files without the .lambda suffix")
	cmd.Flags().StringVar(&o.tracePath, "trace", "", "write trace events as JSON lines to `FILE`")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "refuse programs that fail `lambda check`")
	cmd.Flags().BoolVar(&o.json, "json", false, "print the value as JSON")
	return cmd
}

func (a *app) run(ctx context.Context, file string, o runOptions) error {
	if file != "-" && !o.anySuffix && filepath.Ext(file) != sourceSuffix {
		return a.fail(diagnostics.MakeDiag(diagnostics.EIO,
			fmt.Sprintf("file must have a %s suffix: %s", sourceSuffix, file), nil,
			"pass --any-suffix to run it anyway"))
	}
	source, filename, err := a.readSource(file)
	if err != nil {
		return err
	}

	opts := []runtime.Option{
		runtime.WithStrict(o.strict),
		runtime.WithRunID(strconv.FormatInt(time.Now().UnixNano(), 36)),
	}
	var tw *traceWriter
	if o.tracePath != "" {
		f, err := os.Create(o.tracePath)
		if err != nil {
			return a.fail(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot create trace file: %s", o.tracePath), nil, ""))
		}
		defer f.Close()
		tw = newTraceWriter(f)
		opts = append(opts, runtime.WithTrace(tw.write))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	val, err := a.newSession(opts...).Run(ctx, source, filename)
	if tw != nil && tw.err != nil {
		a.logger.Warn("trace incomplete", "path", o.tracePath, "err", tw.err)
	}
	if err != nil {
		return a.report(err)
	}

	if o.json {
		fmt.Fprintln(a.stdout, evaluator.ValueToJSONString(val))
	} else {
		fmt.Fprintln(a.stdout, evaluator.Inspect(val))
	}
	return nil
}

// traceWriter encodes trace events as JSON lines. The first write error is
// kept and later events are dropped.
type traceWriter struct {
	enc *json.Encoder
	err error
}

func newTraceWriter(w io.Writer) *traceWriter {
	return &traceWriter{enc: json.NewEncoder(w)}
}

func (t *traceWriter) write(ev evaluator.TraceEvent) {
	if t.err == nil {
		t.err = t.enc.Encode(ev)
	}
}

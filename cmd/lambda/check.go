package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/lambda/pkg/diagnostics"
	"github.com/thomasrohde/lambda/pkg/formatter"
)

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE|-",
		Short: "Report syntax errors, unbound names and duplicate parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			diags := a.newSession().Check(source, filename)
			if len(diags) > 0 {
				fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, a.pretty()))
				return &exitError{code: exitCodeForDiag(diags[0].Code)}
			}
			if a.pretty() {
				fmt.Fprintln(a.stdout, "No problems found.")
			} else {
				fmt.Fprintln(a.stdout, "[]")
			}
			return nil
		},
	}
}

func (a *app) fmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt FILE|-",
		Short: "Print a program in canonical form",
		Long: `Fmt parses FILE and prints it with canonical spacing, indentation and
the minimum parentheses. Comments are not preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			if write && file == "-" {
				return a.fail(diagnostics.MakeDiag(diagnostics.EIO, "--write needs a file, not stdin", nil, ""))
			}
			source, filename, err := a.readSource(file)
			if err != nil {
				return err
			}
			formatted, err := a.newSession().Format(source, filename)
			if err != nil {
				return a.report(err)
			}
			if formatter.HasComments(source) {
				fmt.Fprintln(a.stderr, "warning: comments are not preserved by the formatter")
			}
			if !write {
				fmt.Fprint(a.stdout, formatted)
				return nil
			}
			if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
				return a.fail(diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write file: %s", file), nil, ""))
			}
			a.logger.Info("formatted", "file", file)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite FILE in place")
	return cmd
}

// Package help holds the text shown by `lambda help`.
package help

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the language version reported by the CLI.
const Version = "v0.1"

// QUICKREF is the one-screen overview printed by `lambda help`.
const QUICKREF = `lambda ` + Version + ` - a small expression language

  defun name(a, b) { body }     named function, bound in the current scope
  lambda a, b -> expr           anonymous function (closure)
  if cond { ... } else { ... }  conditional; else is optional
  return expr                   leave the enclosing function
  f(x, y)                       call
  # comment                     to end of line

Operators, loosest first:  && ||   == != > < >= <=   + -   * / %   unary + - !
Division and modulo round toward negative infinity: -7 / 2 = -4, -7 % 2 = 1.

Commands:
  lambda                      start the REPL
  lambda run FILE.lambda      run a program (use - for stdin)
  lambda -e 'expr'            evaluate source from the command line
  lambda check FILE           report unbound names and duplicate parameters
  lambda fmt FILE [--write]   print or rewrite canonical source
  lambda trace FILE.jsonl     summarise a trace written by run --trace

Topics (lambda help <topic>):
  syntax       tokens, statements and operator precedence
  values       ints, bools, functions, truthiness
  functions    defun, lambda, closures, recursion, return
  errors       diagnostic codes and exit status
  repl         interactive commands
  config       .lambda.yaml settings
  examples     complete programs
`

// Topics maps topic names to their help text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Tokens
  integers      maximal digit runs, 64-bit signed; overflow is E_LEX
  booleans      true false
  names         start with a letter or _, then letters, digits, _
  keywords      defun lambda return if else true false
  comments      # to end of line
  whitespace    spaces, tabs and newlines only separate tokens

Statements
  defun NAME(PARAMS) { STATEMENTS }
  if EXPR { STATEMENTS } [else { STATEMENTS }]
  return EXPR
  EXPR

A program is a sequence of statements; its value is the value of the last.
There are no statement separators, so "x\n-1" is the single expression x - 1.

Precedence (loosest first)
  && ||                 left-associative, same level
  == != > < >= <=       at most one per expression; use parentheses to chain
  + -                   left-associative
  * / %                 left-associative
  + - !                 prefix
  literals, names, calls, ( expr ), lambda
`,

	"values": `VALUES

  int        64-bit signed; + - * wrap on overflow
  bool       true, false
  function   from defun or lambda; compares equal only to itself
  none       result of an empty block or an if without a taken branch

Truthiness: false, 0 and none are false; everything else is true.
&& and || return a bool and evaluate both operands unless short_circuit is
enabled. == and != accept any values (different kinds are unequal).
Ordering and arithmetic need ints (E_TYPE otherwise).
`,

	"functions": `FUNCTIONS

  defun add(a, b) { a + b }     binds add in the current scope, evaluates to it
  lambda x -> x * 2             evaluates to a function, binds nothing

Calls check arity (E_ARITY) and that the callee is a function
(E_NOT_CALLABLE). Arguments are evaluated left to right in the caller's
scope; the body runs in a new scope whose parent is the scope where the
function was defined (lexical closures).

return leaves the innermost function call, even from inside nested if
blocks. At the top level it ends the program.

Recursion depth is limited by max_depth (default 10000, E_DEPTH).
`,

	"errors": `ERRORS

  E_LEX            invalid character or integer literal
  E_PARSE          unexpected token
  E_NAME           name not bound
  E_ARITY          wrong number of arguments
  E_NOT_CALLABLE   called value is not a function
  E_TYPE           operand of the wrong kind
  E_DIV_ZERO       division or modulo by zero
  E_DEPTH          call depth limit exceeded
  E_CANCELLED      timeout or interrupt
  E_EVAL           internal evaluation fault
  E_UNBOUND        (check) name that can never be bound
  E_DUP_PARAM      (check) parameter listed twice
  E_UNREACHABLE    (check) statement after return

Exit status: 0 ok, 1 usage/IO/config, 2 lex or parse error,
3 check found problems, 4 runtime error.
`,

	"repl": `REPL

Each input line is parsed and evaluated in one session; definitions persist.
An incomplete line (open brace or parenthesis) continues on the next line.

  :help      show the quick reference
  :env       list global names
  :reset     forget all definitions
  :quit      leave (also exit, Ctrl-D)

History is kept in history_file (default ~/.lambda/history).
`,

	"config": `CONFIG

Settings are read from the first of: --config FILE, ./.lambda.yaml,
~/.lambda/config.yaml. Unknown keys are rejected.

  max_depth: 10000        call depth limit
  timeout_ms: 0           wall-clock limit per run, 0 for none
  short_circuit: false    skip the right operand of && and || when possible
  log_level: warn         debug, info, warn or error
  prompt: "lambda> "      REPL prompt
  history_file: ""        REPL history path
  pretty: true            human-readable diagnostics (false prints JSON)
`,

	"examples": `EXAMPLES

Factorial
  defun fact(n) {
    if n == 0 { 1 } else { n * fact(n - 1) }
  }
  fact(5)                                    # 120

Closures
  defun make_adder(n) { lambda x -> x + n }
  defun apply(f, x) { f(x) }
  apply(make_adder(10), 5)                   # 15

Early return
  defun sign(n) {
    if n > 0 { return 1 }
    if n < 0 { return -1 }
    0
  }
  sign(-7)                                   # -1
`,
}

// TopicList is the display order of Topics.
var TopicList = []string{"syntax", "values", "functions", "errors", "repl", "config", "examples"}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	if query != "" {
		for _, name := range TopicList {
			if strings.HasPrefix(name, query) {
				matches = append(matches, name)
			}
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q; available: %s", query, strings.Join(TopicList, ", "))
	}
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}

// operatorDocs describes every operator the interpreter evaluates.
var operatorDocs = map[string]string{
	"+":  "addition (binary), identity (prefix)",
	"-":  "subtraction (binary), negation (prefix)",
	"*":  "multiplication",
	"/":  "floor division",
	"%":  "floor modulo, sign of the divisor",
	"==": "equality, any values",
	"!=": "inequality, any values",
	">":  "greater than, ints",
	"<":  "less than, ints",
	">=": "greater or equal, ints",
	"<=": "less or equal, ints",
	"&&": "logical and, returns a bool",
	"||": "logical or, returns a bool",
	"!":  "logical not (prefix)",
}

// OperatorIndex returns a sorted table of operators.
func OperatorIndex() string {
	ops := make([]string, 0, len(operatorDocs))
	for op := range operatorDocs {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	var b strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&b, "  %-3s %s\n", op, operatorDocs[op])
	}
	fmt.Fprintf(&b, "Total: %d operators\n", len(ops))
	return b.String()
}

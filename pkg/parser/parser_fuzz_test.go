package parser_test

import (
	"errors"
	"testing"

	"github.com/thomasrohde/lambda/pkg/lexer"
	"github.com/thomasrohde/lambda/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// Invalid input must come back as a LexError or ParseError.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`42`,
		`1 + 2 * 3`,
		`-7 / 2`,
		`!(1 < 2) || false`,
		`defun fact(n) { if n == 0 { 1 } else { n * fact(n - 1) } }
fact(5)`,
		`defun make(n) { lambda x -> x + n }
make(1)(2)`,
		`lambda a, b -> a && b`,
		`if x { return 1 } else { return 2 }`,
		`# comment
1`,
		``,
		`   `,
		`defun f( { }`,
		`(((`,
		`1 < 2 < 3`,
		`lambda x y`,
		`a = 1`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		node, err := parser.Parse(input, "fuzz.lambda")
		if err != nil {
			var pe *parser.ParseError
			var le *lexer.LexError
			if !errors.As(err, &pe) && !errors.As(err, &le) {
				t.Fatalf("unexpected error type %T for %q: %v", err, input, err)
			}
			return
		}
		if node == nil {
			t.Fatalf("nil node without error for %q", input)
		}
	})
}

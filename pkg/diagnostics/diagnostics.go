// Package diagnostics defines lambda diagnostic types for lex, parse, lint
// and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/lambda/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex         = "E_LEX"
	EParse       = "E_PARSE"
	EName        = "E_NAME"
	EArity       = "E_ARITY"
	ENotCallable = "E_NOT_CALLABLE"
	EEval        = "E_EVAL"
	EType        = "E_TYPE"
	EDivZero     = "E_DIV_ZERO"
	EDepth       = "E_DEPTH"
	ECancelled   = "E_CANCELLED"
	EDupParam    = "E_DUP_PARAM"
	EUnbound     = "E_UNBOUND"
	EUnreachable = "E_UNREACHABLE"
	EIO          = "E_IO"
	EConfig      = "E_CONFIG"
)

// Diagnostic represents a lex, parse, lint or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Error lets a Diagnostic be returned directly where an error is expected.
func (d Diagnostic) Error() string {
	return d.Message
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		file := d.Span.File
		if file == "" {
			file = "<input>"
		}
		loc = fmt.Sprintf("%s:%d:%d", file, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nihei9/csrdrive/driver/lexer"
)

// Code identifies a kind of diagnostic. Codes at CodeUser and above belong to semantic actions.
type Code int

const (
	CodeSyntax        Code = 0x0001
	CodeMissingToken  Code = 0x0002
	CodeMissingTokens Code = 0x0003
	CodeLexical       Code = 0x0004
	CodeInternal      Code = 0x0005
	CodeUser          Code = 0x0100

	// CodeWarning is a flag. A diagnostic whose code has this bit never affects the result of
	// parsing and is never suppressed.
	CodeWarning Code = 0x8000
)

func (c Code) IsWarning() bool {
	return c&CodeWarning != 0
}

func (c Code) String() string {
	var name string
	switch c &^ CodeWarning {
	case CodeSyntax:
		name = "syntax error"
	case CodeMissingToken:
		name = "missing token"
	case CodeMissingTokens:
		name = "missing tokens"
	case CodeLexical:
		name = "lexical error"
	case CodeInternal:
		name = "internal error"
	default:
		name = fmt.Sprintf("code %#04x", int(c&^CodeWarning))
	}
	if c.IsWarning() {
		return "warning: " + name
	}
	return name
}

// Keys of Diagnostic.Data.
const (
	// DataToken holds the name of a token as a string.
	DataToken = "token"

	// DataTokens holds names of tokens as a []string.
	DataTokens = "tokens"

	// DataCause holds an error.
	DataCause = "cause"
)

type Diagnostic struct {
	Pos  lexer.Position
	Code Code
	Data map[string]interface{}
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: %v", d.Pos, d.Code)
	if tok, ok := d.Data[DataToken].(string); ok {
		fmt.Fprintf(&b, ": %q", tok)
	}
	if toks, ok := d.Data[DataTokens].([]string); ok {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(toks, ", "))
	}
	if cause, ok := d.Data[DataCause].(error); ok {
		fmt.Fprintf(&b, ": %v", cause)
	}
	return b.String()
}

// Reporter receives diagnostics synchronously as a parser finds them.
type Reporter interface {
	Report(d *Diagnostic)
}

type ReporterFunc func(d *Diagnostic)

func (f ReporterFunc) Report(d *Diagnostic) {
	f(d)
}

type nopReporter struct{}

func (nopReporter) Report(d *Diagnostic) {}

// SemanticError is an error a semantic action returns to report a diagnostic. When Code has the
// CodeWarning bit, the parse still succeeds.
type SemanticError struct {
	Code  Code
	Cause error
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%v: %v", e.Code, e.Cause)
}

func (e *SemanticError) Unwrap() error {
	return e.Cause
}

// ErrInconsistentTables means the tables lack an entry that a correct generator guarantees.
var ErrInconsistentTables = errors.New("inconsistent parsing tables")

// Package calc is an integer calculator driven by generated tables.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nihei9/csrdrive/driver/lexer"
	"github.com/nihei9/csrdrive/driver/parser"
)

const (
	// CodeDivideByZero is reported when a divisor is zero. The quotient is 0 and parsing fails.
	CodeDivideByZero = parser.CodeUser

	// CodeOverflow is reported with the warning flag when a result doesn't fit in 64 bits. The
	// result wraps around in two's complement.
	CodeOverflow = parser.CodeUser + 1
)

type ValueKind int

const (
	// KindNone is the kind of punctuation tokens.
	KindNone ValueKind = iota
	KindNumber
)

type Value struct {
	Kind ValueKind
	Num  int64
}

func number(n int64) Value {
	return Value{
		Kind: KindNumber,
		Num:  n,
	}
}

func lexActions() []lexer.Action[Value] {
	actions := make([]lexer.Action[Value], actionCount)
	actions[actNumber] = func(text []byte) (int, Value, error) {
		n, err := strconv.ParseInt(string(text), 10, 64)
		if err != nil {
			return 0, Value{}, err
		}
		return TokenNumber, number(n), nil
	}
	actions[actWhiteSpace] = nil
	actions[actLiteral] = lexer.EmitByte[Value]()
	return actions
}

func semanticActions() []parser.SemanticAction[Value] {
	actions := make([]parser.SemanticAction[Value], len(tables.Syntactic.RuleLengths))
	actions[ruleStatement] = func(args []Value, pos lexer.Position) (Value, error) {
		return args[0], nil
	}
	actions[ruleStatementTerminated] = func(args []Value, pos lexer.Position) (Value, error) {
		return args[0], nil
	}
	actions[ruleAdd] = binary(add)
	actions[ruleSub] = binary(sub)
	actions[ruleMul] = binary(mul)
	actions[ruleDiv] = binary(div)
	actions[ruleGroup] = func(args []Value, pos lexer.Position) (Value, error) {
		return args[1], nil
	}
	actions[ruleNumber] = func(args []Value, pos lexer.Position) (Value, error) {
		return args[0], nil
	}
	return actions
}

func binary(op func(a, b int64) (int64, error)) parser.SemanticAction[Value] {
	return func(args []Value, pos lexer.Position) (Value, error) {
		n, err := op(args[0].Num, args[2].Num)
		return number(n), err
	}
}

func overflow(op string, a, b int64) error {
	return &parser.SemanticError{
		Code:  CodeOverflow | parser.CodeWarning,
		Cause: fmt.Errorf("%v %v %v overflows", a, op, b),
	}
}

func add(a, b int64) (int64, error) {
	s := a + b
	if (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0) {
		return s, overflow("+", a, b)
	}
	return s, nil
}

func sub(a, b int64) (int64, error) {
	d := a - b
	if (a >= 0) != (b >= 0) && (d >= 0) != (a >= 0) {
		return d, overflow("-", a, b)
	}
	return d, nil
}

func mul(a, b int64) (int64, error) {
	p := a * b
	if a != 0 && (p/a != b || (a == -1 && b == math.MinInt64)) {
		return p, overflow("*", a, b)
	}
	return p, nil
}

func div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, &parser.SemanticError{
			Code:  CodeDivideByZero,
			Cause: fmt.Errorf("%v / 0", a),
		}
	}
	if a == math.MinInt64 && b == -1 {
		return a, overflow("/", a, b)
	}
	return a / b, nil
}

// NewParser returns a parser reading an expression from `src`.
func NewParser(src lexer.ByteSource, opts ...parser.ParserOption) (*parser.Parser[Value], error) {
	return parser.NewParserFromTables(tables, src, lexActions(), semanticActions(), opts...)
}

// Eval evaluates `expr`. The bool result is false when any error other than a warning occurred;
// the diagnostics are passed to `r` when it is non-nil.
func Eval(expr string, r parser.Reporter) (int64, bool, error) {
	var opts []parser.ParserOption
	if r != nil {
		opts = append(opts, parser.WithReporter(r))
	}
	p, err := NewParser(lexer.NewReaderSource(strings.NewReader(expr)), opts...)
	if err != nil {
		return 0, false, err
	}
	ok := p.Parse()
	if err := p.Err(); err != nil {
		return 0, false, err
	}
	return p.Result().Num, ok, nil
}

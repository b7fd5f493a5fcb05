package parser

import (
	"errors"
	"fmt"

	"github.com/nihei9/csrdrive/driver/lexer"
	"github.com/nihei9/csrdrive/spec"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("csrdrive.parser")
}

// Grammar is an LALR automaton. Action payloads are non-negative for shifts and `-(rule+1)` for
// reductions.
type Grammar interface {
	StartState() int
	AcceptState() int
	Action(state int, token int) (int, bool)

	// ActionRow returns the tokens having an entry in `state` in ascending order and their payloads.
	ActionRow(state int) ([]int, []int)
	GoTo(state int, lhs int) (int, bool)
	RuleCount() int
	RuleLength(rule int) int
	LHS(rule int) int
	TokenName(id int) string
}

type TokenStream[V any] interface {
	Next() (*lexer.Token[V], error)
}

// SemanticAction computes the value of a rule from the values of its right-hand side. `pos` is
// the position of the leftmost symbol. An action may return a *SemanticError to report a
// diagnostic; other errors are reported with CodeUser.
type SemanticAction[V any] func(args []V, pos lexer.Position) (V, error)

type State int

const (
	StateRunning State = iota
	StateAccepted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAccepted:
		return "accepted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const defaultMaxRecoverySteps = 32

// errorShiftCount is the number of shifts after a reported error during which further errors
// are not reported.
const errorShiftCount = 3

type parserConfig struct {
	reporter         Reporter
	maxRecoverySteps int
	lexerOpts        []lexer.LexerOption
}

func newParserConfig(opts []ParserOption) (*parserConfig, error) {
	c := &parserConfig{
		reporter:         nopReporter{},
		maxRecoverySteps: defaultMaxRecoverySteps,
	}
	for _, opt := range opts {
		err := opt(c)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

type ParserOption func(c *parserConfig) error

// WithReporter sets a reporter receiving diagnostics. By default, diagnostics are discarded.
func WithReporter(r Reporter) ParserOption {
	return func(c *parserConfig) error {
		if r == nil {
			return fmt.Errorf("a reporter must be non-nil")
		}
		c.reporter = r
		return nil
	}
}

// WithMaxRecoverySteps bounds the number of consecutive recovery steps consuming no input. When
// the bound is reached, the parser discards a token instead of repairing the input.
func WithMaxRecoverySteps(n int) ParserOption {
	return func(c *parserConfig) error {
		if n < 0 {
			return fmt.Errorf("the max recovery steps must be >=0; got: %v", n)
		}
		c.maxRecoverySteps = n
		return nil
	}
}

// WithLexerOptions passes options to the lexer that NewParserFromTables builds. NewParser ignores
// them because its token stream is already built.
func WithLexerOptions(opts ...lexer.LexerOption) ParserOption {
	return func(c *parserConfig) error {
		c.lexerOpts = append(c.lexerOpts, opts...)
		return nil
	}
}

type Parser[V any] struct {
	gram             Grammar
	toks             TokenStream[V]
	actions          []SemanticAction[V]
	reporter         Reporter
	maxRecoverySteps int

	stack *stack[V]
	state State
	err   error
	tok   *lexer.Token[V]

	// synthetic is true while `tok` was made by recovery rather than read from the stream.
	synthetic bool
	lexFailed bool

	success       bool
	hasError      bool
	errPos        lexer.Position
	errorCount    int
	recoverySteps int
	result        V
}

// NewParser returns a new parser. `actions` has one entry per rule; a nil entry yields the value
// of the leftmost symbol, or the zero value for an empty rule.
func NewParser[V any](gram Grammar, toks TokenStream[V], actions []SemanticAction[V], opts ...ParserOption) (*Parser[V], error) {
	if len(actions) != gram.RuleCount() {
		return nil, fmt.Errorf("the number of semantic actions must match the rule count; want: %v, got: %v", gram.RuleCount(), len(actions))
	}
	c, err := newParserConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Parser[V]{
		gram:             gram,
		toks:             toks,
		actions:          actions,
		reporter:         c.reporter,
		maxRecoverySteps: c.maxRecoverySteps,
	}, nil
}

// Parse runs the automaton until it accepts or fails. It returns true only when the input was
// accepted and no error other than warnings occurred. A parser runs once.
func (p *Parser[V]) Parse() bool {
	if p.stack != nil {
		return p.state == StateAccepted && p.success
	}

	p.stack = newStack[V](p.gram.StartState(), lexer.Position{})
	p.state = StateRunning
	p.success = true
	p.nextToken()
	p.stack.at(0).pos = p.tok.Pos

	for p.state == StateRunning {
		top := p.stack.top()
		if top.state == p.gram.AcceptState() {
			p.accept()
			break
		}

		act, ok := p.gram.Action(top.state, p.tok.ID)
		switch {
		case !ok:
			p.recover()
		case act >= 0:
			p.shift(act)
		default:
			p.reduce(-act - 1)
		}
	}

	return p.state == StateAccepted && p.success
}

// State returns the state of the automaton.
func (p *Parser[V]) State() State {
	return p.state
}

// Result returns the value of the topmost nonterminal when the input was accepted.
func (p *Parser[V]) Result() V {
	return p.result
}

// Err returns a fatal error that ended parsing. It wraps ErrInconsistentTables when the tables are
// defective.
func (p *Parser[V]) Err() error {
	return p.err
}

func (p *Parser[V]) accept() {
	if f, ok := p.stack.topReduced(); ok {
		p.result = f.value
	}
	p.stack.frames = nil
	p.state = StateAccepted
	tracer().Debugf("accept (success: %v)", p.success)
}

func (p *Parser[V]) shift(state int) {
	tracer().Debugf("shift %v %q -> state %v", p.gram.TokenName(p.tok.ID), p.tok.Text, state)
	p.stack.push(frame[V]{
		state: state,
		sym:   p.tok.ID,
		pos:   p.tok.Pos,
		value: p.tok.Value,
	})
	synthetic := p.synthetic
	if !synthetic && p.tok.ID != spec.TokenEOF {
		p.recoverySteps = 0
	}
	p.hasError = false
	p.nextToken()

	// Only a token read from the input counts toward leaving the error state.
	if !synthetic && p.errorCount > 0 {
		p.errorCount--
	}
}

func (p *Parser[V]) reduce(rule int) bool {
	n := p.gram.RuleLength(rule)
	lhs := p.gram.LHS(rule)
	if n >= p.stack.len() {
		p.fail(fmt.Errorf("%w: rule %v pops %v frames from a stack of %v frames", ErrInconsistentTables, rule, n, p.stack.len()))
		return false
	}
	below := p.stack.at(p.stack.len() - n - 1).state
	next, ok := p.gram.GoTo(below, lhs)
	if !ok {
		p.fail(fmt.Errorf("%w: no goto entry; state: %v, symbol: %v", ErrInconsistentTables, below, p.gram.TokenName(lhs)))
		return false
	}

	handle := p.stack.peek(n)
	pos := p.tok.Pos
	if n > 0 {
		pos = handle[0].pos
	}
	args := make([]V, n)
	for i, f := range handle {
		args[i] = f.value
	}
	v := p.runAction(rule, args, pos)

	tracer().Debugf("reduce by rule %v (%v) -> state %v", rule, p.gram.TokenName(lhs), next)
	p.stack.pop(n)
	p.stack.push(frame[V]{
		state:   next,
		sym:     lhs,
		reduced: true,
		pos:     pos,
		value:   v,
	})
	p.hasError = false
	return true
}

func (p *Parser[V]) runAction(rule int, args []V, pos lexer.Position) V {
	act := p.actions[rule]
	if act == nil {
		if len(args) > 0 {
			return args[0]
		}
		var zero V
		return zero
	}
	v, err := act(args, pos)
	if err != nil {
		var semErr *SemanticError
		if !errors.As(err, &semErr) {
			semErr = &SemanticError{
				Code:  CodeUser,
				Cause: err,
			}
		}
		tracer().Debugf("semantic action of rule %v failed: %v", rule, err)
		p.report(pos, semErr.Code, map[string]interface{}{
			DataCause: semErr.Cause,
		})
	}
	return v
}

// fail ends parsing because of a defect in the tables. The diagnostic is never suppressed.
func (p *Parser[V]) fail(err error) {
	tracer().Errorf("%v", err)
	p.success = false
	p.reporter.Report(&Diagnostic{
		Pos:  p.errorPos(),
		Code: CodeInternal,
		Data: map[string]interface{}{
			DataCause: err,
		},
	})
	p.err = err
	p.state = StateFailed
	p.stack.frames = nil
}

func (p *Parser[V]) nextToken() {
	p.synthetic = false
	if p.lexFailed {
		p.tok = &lexer.Token[V]{
			ID:  spec.TokenEOF,
			Pos: p.tok.Pos,
		}
		return
	}
	tok, err := p.toks.Next()
	if err != nil {
		var pos lexer.Position
		if p.tok != nil {
			pos = p.tok.Pos
		}
		var lexErr *lexer.LexicalError
		if errors.As(err, &lexErr) {
			pos = lexErr.Pos
		}
		p.lexFailed = true
		p.report(pos, CodeLexical, map[string]interface{}{
			DataCause: err,
		})
		p.tok = &lexer.Token[V]{
			ID:  spec.TokenEOF,
			Pos: pos,
		}
		return
	}
	p.tok = tok
}

// report passes a diagnostic to the reporter unless a preceding error suppresses it. Warnings are
// always passed.
func (p *Parser[V]) report(pos lexer.Position, code Code, data map[string]interface{}) {
	if !code.IsWarning() {
		p.success = false
		if p.errorCount > 0 {
			tracer().Debugf("suppressed: %v (remaining shifts: %v)", code, p.errorCount)
			return
		}
		p.errorCount = errorShiftCount
	}
	p.reporter.Report(&Diagnostic{
		Pos:  pos,
		Code: code,
		Data: data,
	})
}

// errorPos returns the position where the pending error was detected, or the position of the
// topmost frame.
func (p *Parser[V]) errorPos() lexer.Position {
	if p.hasError {
		return p.errPos
	}
	if p.stack.len() == 0 {
		return p.tok.Pos
	}
	return p.stack.top().pos
}

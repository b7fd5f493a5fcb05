package lexer

import (
	"errors"
	"fmt"
	"io"

	"github.com/nihei9/csrdrive/spec"
	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("csrdrive.lexer")
}

type StateID int

func (id StateID) Int() int {
	return int(id)
}

// LexSpec is a DFA over byte classes. The initial state is 0.
type LexSpec interface {
	ByteClass(b byte) (int, bool)
	NextState(state StateID, class int) (StateID, bool)

	// Action returns the raw action ID of a state. ActionCount means no action.
	Action(state StateID) int
	ActionCount() int
	KindName(action int) string
}

// Skip is a token ID telling the lexer to discard the matched text and continue scanning.
const Skip = -1

// Action converts the text matched by a rule into a token. `text` is valid only until the action
// returns.
type Action[V any] func(text []byte) (id int, value V, err error)

// Emit returns an action yielding a token `id` with a zero value.
func Emit[V any](id int) Action[V] {
	return func(text []byte) (int, V, error) {
		var v V
		return id, v, nil
	}
}

// EmitByte returns an action yielding the matched byte itself as a token ID.
func EmitByte[V any]() Action[V] {
	return func(text []byte) (int, V, error) {
		var v V
		return int(text[0]), v, nil
	}
}

// Discard returns an action skipping the matched text.
func Discard[V any]() Action[V] {
	return func(text []byte) (int, V, error) {
		var v V
		return Skip, v, nil
	}
}

type Position struct {
	Filename string

	// Line and Column are 0-based. Column is counted in bytes.
	Line   int
	Column int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%v:%v:%v", p.Filename, p.Line+1, p.Column+1)
	}
	return fmt.Sprintf("%v:%v", p.Line+1, p.Column+1)
}

// Token representes a token.
type Token[V any] struct {
	// ID is a literal byte (0-255) or a symbolic ID. spec.TokenEOF represents the end of input.
	ID int

	// Text is a byte sequence matched a rule.
	Text string

	Value V

	// Pos is a position where the first byte of Text appears.
	Pos Position
}

func (t *Token[V]) EOF() bool {
	return t.ID == spec.TokenEOF
}

type ErrorKind int

const (
	// IllegalByte means a byte had no transition from the initial state.
	IllegalByte ErrorKind = iota

	// IllegalSequence means bytes were read but no rule matched any prefix of them.
	IllegalSequence

	// ActionFailed means an action returned an error.
	ActionFailed
)

func (k ErrorKind) String() string {
	switch k {
	case IllegalByte:
		return "illegal byte"
	case IllegalSequence:
		return "illegal character sequence"
	case ActionFailed:
		return "action failed"
	}
	return "unknown error"
}

type LexicalError struct {
	Kind  ErrorKind
	Pos   Position
	Text  []byte
	Cause error
}

func (e *LexicalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v: %q: %v", e.Pos, e.Kind, e.Text, e.Cause)
	}
	return fmt.Sprintf("%v: %v: %q", e.Pos, e.Kind, e.Text)
}

func (e *LexicalError) Unwrap() error {
	return e.Cause
}

type lexerConfig struct {
	filename   string
	line       int
	condAction func(action int) int
}

type LexerOption func(c *lexerConfig) error

// WithFilename sets a file name that positions carry.
func WithFilename(name string) LexerOption {
	return func(c *lexerConfig) error {
		c.filename = name
		return nil
	}
}

// WithConditionalAction sets a hook resolving raw action IDs above the action count. The hook
// returns a declared action ID, or the action count when the state must not accept.
func WithConditionalAction(hook func(action int) int) LexerOption {
	return func(c *lexerConfig) error {
		if hook == nil {
			return fmt.Errorf("a conditional action hook must be non-nil")
		}
		c.condAction = hook
		return nil
	}
}

// lexerState is a read position. `n` counts the bytes read in the current attempt.
type lexerState struct {
	n    int
	line int
	col  int
}

type Lexer[V any] struct {
	spec       LexSpec
	src        ByteSource
	actions    []Action[V]
	condAction func(action int) int
	filename   string
	line       int
	col        int

	// ahead holds bytes read from the source and given back by a rewind. They are read before
	// the source.
	ahead  []byte
	srcEOF bool

	// pending holds bytes read in the current attempt.
	pending []byte
	text    []byte
	value   V
	abort   string
	failed  bool
}

// NewLexer returns a new lexer. `actions` has one entry per declared action; a nil entry discards
// its matches.
func NewLexer[V any](spec LexSpec, src ByteSource, actions []Action[V], opts ...LexerOption) (*Lexer[V], error) {
	if len(actions) != spec.ActionCount() {
		return nil, fmt.Errorf("the number of actions must match the action count; want: %v, got: %v", spec.ActionCount(), len(actions))
	}
	c := &lexerConfig{}
	for _, opt := range opts {
		err := opt(c)
		if err != nil {
			return nil, err
		}
	}
	condAction := c.condAction
	if condAction == nil {
		n := spec.ActionCount()
		condAction = func(action int) int {
			return n
		}
	}
	return &Lexer[V]{
		spec:       spec,
		src:        src,
		actions:    actions,
		condAction: condAction,
		filename:   c.filename,
		line:       c.line,
	}, nil
}

// Next returns a next token. After the end of input, Next keeps returning EOF tokens. When Next
// fails, it records the error as an abort message and the lexer behaves as if the input ended.
func (l *Lexer[V]) Next() (*Token[V], error) {
	for {
		if l.failed {
			return l.eofToken(), nil
		}
		tok, skipped, err := l.next()
		if err != nil {
			l.failed = true
			l.abort = err.Error()
			tracer().Errorf("lexing aborted: %v", err)
			return nil, err
		}
		if skipped {
			continue
		}
		return tok, nil
	}
}

func (l *Lexer[V]) next() (*Token[V], bool, error) {
	l.pending = l.pending[:0]
	start := l.position()
	state := StateID(0)
	act := -1
	var mark, last lexerState
	for {
		b, ok, err := l.read()
		if err != nil {
			return nil, false, fmt.Errorf("%v: failed to read a byte: %w", l.position(), err)
		}
		if !ok {
			break
		}
		l.pending = append(l.pending, b)
		next, ok := l.transition(state, b)
		if !ok {
			break
		}
		state = next
		last = lexerState{
			n:    len(l.pending),
			line: l.line,
			col:  l.col,
		}
		if a, ok := l.accept(state); ok {
			act = a
			mark = last
		}
	}

	if act >= 0 {
		l.unread(mark)
		return l.run(act, start)
	}
	if last.n == 0 {
		if len(l.pending) == 0 {
			return l.eofToken(), false, nil
		}
		// The illegal byte is consumed so that the source can be examined further after the
		// caller gives up on this token.
		return nil, false, &LexicalError{
			Kind: IllegalByte,
			Pos:  start,
			Text: copyBytes(l.pending),
		}
	}
	l.unread(last)
	return nil, false, &LexicalError{
		Kind: IllegalSequence,
		Pos:  start,
		Text: copyBytes(l.pending),
	}
}

func (l *Lexer[V]) transition(state StateID, b byte) (StateID, bool) {
	class, ok := l.spec.ByteClass(b)
	if !ok {
		return 0, false
	}
	return l.spec.NextState(state, class)
}

// accept returns the action ID of `state`, resolving a conditional action.
func (l *Lexer[V]) accept(state StateID) (int, bool) {
	n := l.spec.ActionCount()
	act := l.spec.Action(state)
	if act > n {
		act = l.condAction(act)
	}
	if act < 0 || act >= n {
		return 0, false
	}
	return act, true
}

func (l *Lexer[V]) run(act int, start Position) (*Token[V], bool, error) {
	l.text = append(l.text[:0], l.pending...)
	action := l.actions[act]
	if action == nil {
		tracer().Debugf("%v: skip %q (kind: %v)", start, l.text, l.spec.KindName(act))
		return nil, true, nil
	}
	id, v, err := action(l.text)
	if err != nil {
		return nil, false, &LexicalError{
			Kind:  ActionFailed,
			Pos:   start,
			Text:  copyBytes(l.text),
			Cause: err,
		}
	}
	if id == Skip {
		tracer().Debugf("%v: skip %q (kind: %v)", start, l.text, l.spec.KindName(act))
		return nil, true, nil
	}
	l.value = v
	tracer().Debugf("%v: token %v %q (kind: %v)", start, id, l.text, l.spec.KindName(act))
	return &Token[V]{
		ID:    id,
		Text:  string(l.text),
		Value: v,
		Pos:   start,
	}, false, nil
}

func (l *Lexer[V]) eofToken() *Token[V] {
	return &Token[V]{
		ID:  spec.TokenEOF,
		Pos: l.position(),
	}
}

func (l *Lexer[V]) read() (byte, bool, error) {
	var b byte
	if len(l.ahead) > 0 {
		b = l.ahead[0]
		l.ahead = l.ahead[1:]
	} else {
		if l.srcEOF {
			return 0, false, nil
		}
		var err error
		b, err = l.src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				l.srcEOF = true
				return 0, false, nil
			}
			return 0, false, err
		}
	}

	// 0x0A is LF.
	if b == 0x0A {
		l.line++
		l.col = 0
	} else {
		l.col++
	}

	return b, true, nil
}

// unread rewinds the read position to `st`. The bytes read after `st` are kept and replayed by
// the following reads, so the source is never asked to rewind.
func (l *Lexer[V]) unread(st lexerState) {
	if over := l.pending[st.n:]; len(over) > 0 {
		ahead := make([]byte, 0, len(over)+len(l.ahead))
		ahead = append(ahead, over...)
		l.ahead = append(ahead, l.ahead...)
	}
	l.pending = l.pending[:st.n]
	l.line = st.line
	l.col = st.col
}

func (l *Lexer[V]) position() Position {
	return Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.col,
	}
}

// SetFile sets a file name and a line number of the current position.
func (l *Lexer[V]) SetFile(name string, line int) {
	l.filename = name
	l.line = line
}

func (l *Lexer[V]) SetLine(line int) {
	l.line = line
}

func (l *Lexer[V]) Filename() string {
	return l.filename
}

func (l *Lexer[V]) Line() int {
	return l.line
}

func (l *Lexer[V]) Column() int {
	return l.col
}

// Text returns the text of the last token.
func (l *Lexer[V]) Text() string {
	return string(l.text)
}

// Value returns the value of the last token.
func (l *Lexer[V]) Value() V {
	return l.value
}

// Abort returns a message describing why lexing failed. It is empty while the lexer is healthy.
func (l *Lexer[V]) Abort() string {
	return l.abort
}

// AtSOL reports whether the next byte starts a line.
func (l *Lexer[V]) AtSOL() bool {
	return l.col == 0
}

// AtEOL reports whether the next byte is LF or the input ends.
func (l *Lexer[V]) AtEOL() bool {
	if len(l.ahead) > 0 {
		return l.ahead[0] == 0x0A
	}
	if l.srcEOF {
		return true
	}
	b, err := l.src.PeekByte()
	if err != nil {
		return true
	}
	return b == 0x0A
}

func copyBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

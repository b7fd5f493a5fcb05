package lexer

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/nihei9/csrdrive/spec"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

const (
	tokNumber = spec.TokenFirst
)

// newExprLexSpec returns tables recognizing digit sequences, single white spaces and any other
// single byte, except '@' which belongs to no class.
func newExprLexSpec(t *testing.T, stateActions []int) *lexSpec {
	t.Helper()
	classes := make([]int, 256)
	for i := range classes {
		classes[i] = 2
	}
	for b := '0'; b <= '9'; b++ {
		classes[b] = 0
	}
	for _, b := range []byte{0x09, 0x0a, 0x0b, 0x0c, 0x20} {
		classes[b] = 1
	}
	classes['@'] = spec.ByteClassNone
	if stateActions == nil {
		stateActions = []int{3, 0, 1, 2}
	}
	s, err := NewLexSpec(&spec.LexicalSpec{
		ByteClasses: classes,
		ClassCount:  3,
		StateCount:  4,
		Transition: &spec.CSR{
			IA: []int{0, 3, 4, 4, 4},
			JA: []int{0, 1, 2, 0},
			A:  []int{1, 2, 3, 1},
		},
		StateActions: stateActions,
		ActionCount:  3,
		KindNames:    []string{"number", "white_space", "literal"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func exprActions() []Action[int] {
	return []Action[int]{
		func(text []byte) (int, int, error) {
			n, err := strconv.Atoi(string(text))
			if err != nil {
				return 0, 0, err
			}
			return tokNumber, n, nil
		},
		nil,
		EmitByte[int](),
	}
}

const (
	tokA = spec.TokenFirst + iota
	tokABC
	tokB
	tokCC
)

// newABCLexSpec returns tables recognizing "a", "abc", "b" and "cc". Any byte other than 'a', 'b'
// and 'c' belongs to no class.
//
//	0 -a-> 1 (a) -b-> 2 -c-> 3 (abc)
//	0 -b-> 4 (b)
//	0 -c-> 5 -c-> 6 (cc)
func newABCLexSpec(t *testing.T) *lexSpec {
	t.Helper()
	classes := make([]int, 256)
	for i := range classes {
		classes[i] = spec.ByteClassNone
	}
	classes['a'] = 0
	classes['b'] = 1
	classes['c'] = 2
	s, err := NewLexSpec(&spec.LexicalSpec{
		ByteClasses: classes,
		ClassCount:  3,
		StateCount:  7,
		Transition: &spec.CSR{
			IA: []int{0, 3, 4, 5, 5, 5, 6, 6},
			JA: []int{0, 1, 2, 1, 2, 2},
			A:  []int{1, 4, 5, 2, 3, 6},
		},
		StateActions: []int{4, 0, 4, 1, 2, 4, 3},
		ActionCount:  4,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func abcActions() []Action[string] {
	return []Action[string]{
		Emit[string](tokA),
		Emit[string](tokABC),
		Emit[string](tokB),
		Emit[string](tokCC),
	}
}

type countingSource struct {
	src   ByteSource
	count int
}

func (s *countingSource) ReadByte() (byte, error) {
	b, err := s.src.ReadByte()
	if err == nil {
		s.count++
	}
	return b, err
}

func (s *countingSource) PeekByte() (byte, error) {
	return s.src.PeekByte()
}

func TestLexer_Next(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "csrdrive.lexer")
	defer teardown()

	type tokSpec struct {
		id   int
		text string
	}
	tests := []struct {
		caption string
		src     string
		tokens  []tokSpec
	}{
		{
			caption: "the lexer recognizes the longest match",
			src:     "abcab",
			tokens: []tokSpec{
				{id: tokABC, text: "abc"},
				{id: tokA, text: "a"},
				{id: tokB, text: "b"},
			},
		},
		{
			caption: "the lexer rewinds to the last match and replays over-read bytes",
			src:     "abab",
			tokens: []tokSpec{
				{id: tokA, text: "a"},
				{id: tokB, text: "b"},
				{id: tokA, text: "a"},
				{id: tokB, text: "b"},
			},
		},
		{
			caption: "the lexer replays over-read bytes across several rewinds",
			src:     "ababcccabc",
			tokens: []tokSpec{
				{id: tokA, text: "a"},
				{id: tokB, text: "b"},
				{id: tokABC, text: "abc"},
				{id: tokCC, text: "cc"},
				{id: tokABC, text: "abc"},
			},
		},
		{
			caption: "an empty source yields EOF only",
			src:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			src := &countingSource{
				src: NewBytesSource([]byte(tt.src)),
			}
			l, err := NewLexer(newABCLexSpec(t), src, abcActions())
			if err != nil {
				t.Fatal(err)
			}
			for _, eTok := range tt.tokens {
				tok, err := l.Next()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tok.ID != eTok.id || tok.Text != eTok.text {
					t.Fatalf("unexpected token; want: %v %q, got: %v %q", eTok.id, eTok.text, tok.ID, tok.Text)
				}
				if l.Text() != eTok.text {
					t.Fatalf("unexpected text; want: %q, got: %q", eTok.text, l.Text())
				}
			}
			for i := 0; i < 2; i++ {
				tok, err := l.Next()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !tok.EOF() {
					t.Fatalf("expected EOF; got: %v %q", tok.ID, tok.Text)
				}
			}
			if src.count != len(tt.src) {
				t.Fatalf("each byte must be read from the source once; want: %v, got: %v", len(tt.src), src.count)
			}
		})
	}
}

func TestLexer_ByteAccounting(t *testing.T) {
	var inputs []string
	var gen func(prefix string, n int)
	gen = func(prefix string, n int) {
		inputs = append(inputs, prefix)
		if n == 0 {
			return
		}
		for _, c := range []string{"a", "b", "c", "x"} {
			gen(prefix+c, n-1)
		}
	}
	gen("", 6)

	for _, input := range inputs {
		src := &countingSource{
			src: NewBytesSource([]byte(input)),
		}
		l, err := NewLexer(newABCLexSpec(t), src, abcActions())
		if err != nil {
			t.Fatal(err)
		}
		var b strings.Builder
		failed := false
		for {
			tok, err := l.Next()
			if err != nil {
				var lexErr *LexicalError
				if !errors.As(err, &lexErr) {
					t.Fatalf("%q: unexpected error: %v", input, err)
				}
				b.Write(lexErr.Text)
				failed = true
				break
			}
			if tok.EOF() {
				break
			}
			if tok.Pos.Column != b.Len() {
				t.Fatalf("%q: unexpected column of %q; want: %v, got: %v", input, tok.Text, b.Len(), tok.Pos.Column)
			}
			b.WriteString(tok.Text)
		}
		consumed := b.String()
		if failed {
			if !strings.HasPrefix(input, consumed) {
				t.Fatalf("%q: the consumed bytes must be a prefix of the input; got: %q", input, consumed)
			}
		} else if consumed != input {
			t.Fatalf("%q: the tokens must cover the input; got: %q", input, consumed)
		}
		if src.count > len(input) {
			t.Fatalf("%q: too many bytes were read; got: %v", input, src.count)
		}
	}
}

func TestLexer_Errors(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		tokens  []string
		kind    ErrorKind
		text    string
		pos     Position
	}{
		{
			caption: "a byte having no transition from the initial state is an illegal byte, not EOF",
			src:     "ab x",
			tokens:  []string{"a", "b"},
			kind:    IllegalByte,
			text:    " ",
			pos: Position{
				Line:   0,
				Column: 2,
			},
		},
		{
			caption: "an illegal leading byte is reported even at the beginning",
			src:     "xa",
			kind:    IllegalByte,
			text:    "x",
		},
		{
			caption: "bytes matching no rule are an illegal sequence",
			src:     "bcb",
			tokens:  []string{"b"},
			kind:    IllegalSequence,
			text:    "c",
			pos: Position{
				Line:   0,
				Column: 1,
			},
		},
		{
			caption: "bytes matching no rule before the end of input are an illegal sequence",
			src:     "c",
			kind:    IllegalSequence,
			text:    "c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l, err := NewLexer(newABCLexSpec(t), NewBytesSource([]byte(tt.src)), abcActions())
			if err != nil {
				t.Fatal(err)
			}
			for _, text := range tt.tokens {
				tok, err := l.Next()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tok.Text != text {
					t.Fatalf("unexpected token; want: %q, got: %q", text, tok.Text)
				}
			}
			if l.Abort() != "" {
				t.Fatalf("the abort message must be empty; got: %v", l.Abort())
			}
			_, err = l.Next()
			var lexErr *LexicalError
			if !errors.As(err, &lexErr) {
				t.Fatalf("unexpected error; want: %T, got: %v", lexErr, err)
			}
			if lexErr.Kind != tt.kind {
				t.Fatalf("unexpected error kind; want: %v, got: %v", tt.kind, lexErr.Kind)
			}
			if string(lexErr.Text) != tt.text {
				t.Fatalf("unexpected error text; want: %q, got: %q", tt.text, lexErr.Text)
			}
			if lexErr.Pos != tt.pos {
				t.Fatalf("unexpected error position; want: %v, got: %v", tt.pos, lexErr.Pos)
			}
			if l.Abort() == "" {
				t.Fatal("the abort message must be set")
			}
			tok, err := l.Next()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tok.EOF() {
				t.Fatalf("the lexer must behave as if the input ended; got: %v %q", tok.ID, tok.Text)
			}
		})
	}
}

func TestLexer_ActionError(t *testing.T) {
	actions := exprActions()
	actions[0] = func(text []byte) (int, int, error) {
		return 0, 0, fmt.Errorf("too large")
	}
	l, err := NewLexer(newExprLexSpec(t, nil), NewBytesSource([]byte("+ 99")), actions)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.ID != '+' {
		t.Fatalf("unexpected token; want: %v, got: %v", '+', tok.ID)
	}
	_, err = l.Next()
	var lexErr *LexicalError
	if !errors.As(err, &lexErr) || lexErr.Kind != ActionFailed {
		t.Fatalf("unexpected error; want: %v, got: %v", ActionFailed, err)
	}
	if string(lexErr.Text) != "99" {
		t.Fatalf("unexpected text; want: %q, got: %q", "99", lexErr.Text)
	}
	if lexErr.Unwrap() == nil {
		t.Fatal("the cause must be kept")
	}
}

func TestLexer_Positions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "csrdrive.lexer")
	defer teardown()

	type tokSpec struct {
		id    int
		text  string
		value int
		line  int
		col   int
	}
	tests := []struct {
		caption string
		src     string
		opts    []LexerOption
		tokens  []tokSpec
		file    string
	}{
		{
			caption: "LF increments the line and resets the column",
			src:     "12 +\n 3",
			tokens: []tokSpec{
				{id: tokNumber, text: "12", value: 12, line: 0, col: 0},
				{id: '+', text: "+", line: 0, col: 3},
				{id: tokNumber, text: "3", value: 3, line: 1, col: 1},
				{id: spec.TokenEOF, line: 1, col: 2},
			},
		},
		{
			caption: "positions carry a file name",
			src:     "(1)\n\n",
			opts: []LexerOption{
				WithFilename("calc.txt"),
			},
			tokens: []tokSpec{
				{id: '(', text: "(", line: 0, col: 0},
				{id: tokNumber, text: "1", value: 1, line: 0, col: 1},
				{id: ')', text: ")", line: 0, col: 2},
				{id: spec.TokenEOF, line: 2, col: 0},
			},
			file: "calc.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l, err := NewLexer(newExprLexSpec(t, nil), NewReaderSource(strings.NewReader(tt.src)), exprActions(), tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			for _, eTok := range tt.tokens {
				tok, err := l.Next()
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tok.ID != eTok.id || tok.Text != eTok.text || tok.Value != eTok.value {
					t.Fatalf("unexpected token; want: %v %q %v, got: %v %q %v", eTok.id, eTok.text, eTok.value, tok.ID, tok.Text, tok.Value)
				}
				ePos := Position{
					Filename: tt.file,
					Line:     eTok.line,
					Column:   eTok.col,
				}
				if tok.Pos != ePos {
					t.Fatalf("unexpected position of %q; want: %v, got: %v", tok.Text, ePos, tok.Pos)
				}
			}
		})
	}
}

func TestLexer_SetFile(t *testing.T) {
	l, err := NewLexer(newExprLexSpec(t, nil), NewBytesSource([]byte("1\n2")), exprActions())
	if err != nil {
		t.Fatal(err)
	}
	l.SetFile("main.calc", 10)
	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Pos.Filename != "main.calc" || tok.Pos.Line != 10 {
		t.Fatalf("unexpected position; want: main.calc:11:1, got: %v", tok.Pos)
	}
	if l.Filename() != "main.calc" {
		t.Fatalf("unexpected file name; want: %v, got: %v", "main.calc", l.Filename())
	}
	l.SetLine(20)
	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Pos.Line != 21 || tok.Pos.Column != 0 {
		t.Fatalf("unexpected position; want: line 21, column 0, got: %v", tok.Pos)
	}
	if l.Line() != 21 || l.Column() != 1 {
		t.Fatalf("unexpected current position; want: 21:1, got: %v:%v", l.Line(), l.Column())
	}
}

func TestLexer_AnchorQueries(t *testing.T) {
	l, err := NewLexer(newExprLexSpec(t, nil), NewBytesSource([]byte("1+\n2")), exprActions())
	if err != nil {
		t.Fatal(err)
	}
	if !l.AtSOL() || l.AtEOL() {
		t.Fatalf("the lexer must be at the start of a line")
	}
	_, err = l.Next() // 1
	if err != nil {
		t.Fatal(err)
	}
	if l.AtSOL() || l.AtEOL() {
		t.Fatalf("the lexer must be in the middle of a line")
	}
	_, err = l.Next() // +
	if err != nil {
		t.Fatal(err)
	}
	if !l.AtEOL() {
		t.Fatalf("the lexer must be at the end of a line")
	}
	_, err = l.Next() // 2
	if err != nil {
		t.Fatal(err)
	}
	if !l.AtEOL() {
		t.Fatalf("the end of input must be the end of a line")
	}
}

func TestLexer_ConditionalAction(t *testing.T) {
	// The state for other bytes has a raw action ID above the action count.
	stateActions := []int{3, 0, 1, 7}

	t.Run("the default hook resolves a conditional action to no action", func(t *testing.T) {
		l, err := NewLexer(newExprLexSpec(t, stateActions), NewBytesSource([]byte("1+")), exprActions())
		if err != nil {
			t.Fatal(err)
		}
		tok, err := l.Next()
		if err != nil {
			t.Fatal(err)
		}
		if tok.ID != tokNumber {
			t.Fatalf("unexpected token; want: %v, got: %v", tokNumber, tok.ID)
		}
		_, err = l.Next()
		var lexErr *LexicalError
		if !errors.As(err, &lexErr) || lexErr.Kind != IllegalSequence {
			t.Fatalf("unexpected error; want: %v, got: %v", IllegalSequence, err)
		}
	})

	t.Run("a hook can resolve a conditional action to a declared action", func(t *testing.T) {
		var called []int
		hook := func(action int) int {
			called = append(called, action)
			if action == 7 {
				return 2
			}
			return 3
		}
		l, err := NewLexer(newExprLexSpec(t, stateActions), NewBytesSource([]byte("1+")), exprActions(), WithConditionalAction(hook))
		if err != nil {
			t.Fatal(err)
		}
		var ids []int
		for {
			tok, err := l.Next()
			if err != nil {
				t.Fatal(err)
			}
			if tok.EOF() {
				break
			}
			ids = append(ids, tok.ID)
		}
		if len(ids) != 2 || ids[0] != tokNumber || ids[1] != '+' {
			t.Fatalf("unexpected tokens; got: %v", ids)
		}
		if len(called) != 1 || called[0] != 7 {
			t.Fatalf("the hook must be called with the raw action once; got: %v", called)
		}
	})

	t.Run("a nil hook is rejected", func(t *testing.T) {
		_, err := NewLexer(newExprLexSpec(t, nil), NewBytesSource(nil), exprActions(), WithConditionalAction(nil))
		if err == nil {
			t.Fatal("an expected error didn't occur")
		}
	})
}

func TestNewLexer_ActionCount(t *testing.T) {
	_, err := NewLexer(newExprLexSpec(t, nil), NewBytesSource(nil), exprActions()[:2])
	if err == nil {
		t.Fatal("an expected error didn't occur")
	}
}

type failingSource struct {
	src ByteSource
}

func (s *failingSource) ReadByte() (byte, error) {
	b, err := s.src.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("device unplugged")
	}
	return b, nil
}

func (s *failingSource) PeekByte() (byte, error) {
	return s.src.PeekByte()
}

func TestLexer_SourceError(t *testing.T) {
	l, err := NewLexer(newExprLexSpec(t, nil), &failingSource{src: NewBytesSource([]byte("12"))}, exprActions())
	if err != nil {
		t.Fatal(err)
	}
	_, err = l.Next()
	if err == nil || !strings.Contains(err.Error(), "device unplugged") {
		t.Fatalf("unexpected error; got: %v", err)
	}
	if l.Abort() == "" {
		t.Fatal("the abort message must be set")
	}
	tok, err := l.Next()
	if err != nil || !tok.EOF() {
		t.Fatalf("the lexer must behave as if the input ended; got: %v, %v", tok, err)
	}
}

func TestNewReaderSource(t *testing.T) {
	src := NewReaderSource(bytes.NewReader([]byte("ab")))
	for _, want := range []byte("ab") {
		p, err := src.PeekByte()
		if err != nil {
			t.Fatal(err)
		}
		p2, err := src.PeekByte()
		if err != nil {
			t.Fatal(err)
		}
		b, err := src.ReadByte()
		if err != nil {
			t.Fatal(err)
		}
		if p != want || p2 != want || b != want {
			t.Fatalf("peek must be idempotent and consistent with read; want: %c, got: %c %c %c", want, p, p2, b)
		}
	}
	if _, err := src.PeekByte(); err == nil {
		t.Fatal("peeking an exhausted source must fail")
	}
}

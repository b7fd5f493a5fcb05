package parser

import "github.com/nihei9/csrdrive/driver/lexer"

type frame[V any] struct {
	state int

	// sym is the symbol the frame was pushed for. The bottom frame has no symbol.
	sym     int
	reduced bool
	pos     lexer.Position
	value   V
}

// stack is never empty while a parser runs. The bottom frame holds the start state.
type stack[V any] struct {
	frames []frame[V]
}

func newStack[V any](start int, pos lexer.Position) *stack[V] {
	return &stack[V]{
		frames: []frame[V]{
			{
				state: start,
				sym:   -1,
				pos:   pos,
			},
		},
	}
}

func (s *stack[V]) len() int {
	return len(s.frames)
}

func (s *stack[V]) top() *frame[V] {
	return &s.frames[len(s.frames)-1]
}

func (s *stack[V]) at(i int) *frame[V] {
	return &s.frames[i]
}

func (s *stack[V]) push(f frame[V]) {
	s.frames = append(s.frames, f)
}

// peek returns the topmost `n` frames, the deepest first.
func (s *stack[V]) peek(n int) []frame[V] {
	return s.frames[len(s.frames)-n:]
}

func (s *stack[V]) pop(n int) {
	s.frames = s.frames[:len(s.frames)-n]
}

// truncate removes the frames above the `i`th frame.
func (s *stack[V]) truncate(i int) {
	s.frames = s.frames[:i+1]
}

// topReduced returns the topmost frame pushed by a reduction.
func (s *stack[V]) topReduced() (*frame[V], bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].reduced {
			return &s.frames[i], true
		}
	}
	return nil, false
}

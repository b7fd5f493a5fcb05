package lexer

import (
	"github.com/nihei9/csrdrive/compressor"
	"github.com/nihei9/csrdrive/spec"
)

type lexSpec struct {
	spec *spec.LexicalSpec
	tran *compressor.CSRTable
}

// NewLexSpec validates `s` and wraps it so that a lexer can drive its DFA.
func NewLexSpec(s *spec.LexicalSpec) (*lexSpec, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}
	tran, err := compressor.NewCSRTableFromArrays(s.Transition.IA, s.Transition.JA, s.Transition.A)
	if err != nil {
		return nil, err
	}
	return &lexSpec{
		spec: s,
		tran: tran,
	}, nil
}

func (s *lexSpec) ByteClass(b byte) (int, bool) {
	c := s.spec.ByteClasses[b]
	return c, c != spec.ByteClassNone
}

func (s *lexSpec) NextState(state StateID, class int) (StateID, bool) {
	next, ok := s.tran.Lookup(state.Int(), class)
	return StateID(next), ok
}

func (s *lexSpec) Action(state StateID) int {
	return s.spec.StateActions[state]
}

func (s *lexSpec) ActionCount() int {
	return s.spec.ActionCount
}

func (s *lexSpec) KindName(action int) string {
	if action < 0 || action >= len(s.spec.KindNames) {
		return ""
	}
	return s.spec.KindNames[action]
}

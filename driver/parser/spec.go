package parser

import (
	"github.com/nihei9/csrdrive/compressor"
	"github.com/nihei9/csrdrive/spec"
)

type grammarImpl struct {
	s      *spec.SyntacticSpec
	action *compressor.CSRTable
	goTo   *compressor.CSRTable
}

// NewGrammar validates `s` and wraps it so that a parser can drive its automaton.
func NewGrammar(s *spec.SyntacticSpec) (*grammarImpl, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}
	action, err := compressor.NewCSRTableFromArrays(s.Action.IA, s.Action.JA, s.Action.A)
	if err != nil {
		return nil, err
	}
	goTo, err := compressor.NewCSRTableFromArrays(s.GoTo.IA, s.GoTo.JA, s.GoTo.A)
	if err != nil {
		return nil, err
	}
	return &grammarImpl{
		s:      s,
		action: action,
		goTo:   goTo,
	}, nil
}

func (g *grammarImpl) StartState() int {
	return g.s.StartState
}

func (g *grammarImpl) AcceptState() int {
	return g.s.AcceptState
}

func (g *grammarImpl) Action(state int, token int) (int, bool) {
	return g.action.Lookup(state, token)
}

func (g *grammarImpl) ActionRow(state int) ([]int, []int) {
	return g.action.Row(state)
}

func (g *grammarImpl) GoTo(state int, lhs int) (int, bool) {
	return g.goTo.Lookup(state, lhs)
}

func (g *grammarImpl) RuleCount() int {
	return len(g.s.RuleLengths)
}

func (g *grammarImpl) RuleLength(rule int) int {
	return g.s.RuleLengths[rule]
}

func (g *grammarImpl) LHS(rule int) int {
	return g.s.RuleLHS[rule]
}

func (g *grammarImpl) TokenName(id int) string {
	return g.s.TokenName(id)
}

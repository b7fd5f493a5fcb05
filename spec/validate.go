package spec

import (
	"fmt"

	"github.com/nihei9/csrdrive/compressor"
)

type SpecError struct {
	Part  string
	Cause error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid %v: %v", e.Part, e.Cause)
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

func specErr(part string, format string, a ...interface{}) error {
	return &SpecError{
		Part:  part,
		Cause: fmt.Errorf(format, a...),
	}
}

// Validate checks the tables are internally consistent. A table set passing Validate never makes
// a lexer or a parser index out of range.
func (t *CompiledTables) Validate() error {
	if t.Lexical == nil && t.Syntactic == nil {
		return specErr("tables", "neither lexical nor syntactic tables are present")
	}
	if t.Lexical != nil {
		err := t.Lexical.Validate()
		if err != nil {
			return err
		}
	}
	if t.Syntactic != nil {
		err := t.Syntactic.Validate()
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *LexicalSpec) Validate() error {
	if len(s.ByteClasses) != 256 {
		return specErr("byte classes", "the table must cover 256 bytes; got: %v", len(s.ByteClasses))
	}
	if s.ClassCount <= 0 {
		return specErr("byte classes", "class count must be >=1; got: %v", s.ClassCount)
	}
	for b, c := range s.ByteClasses {
		if c != ByteClassNone && (c < 0 || c >= s.ClassCount) {
			return specErr("byte classes", "byte 0x%02x has an out-of-range class: %v", b, c)
		}
	}
	if s.StateCount <= 0 {
		return specErr("lexical states", "state count must be >=1; got: %v", s.StateCount)
	}
	if len(s.StateActions) != s.StateCount {
		return specErr("state actions", "want: %v entries, got: %v", s.StateCount, len(s.StateActions))
	}
	for state, act := range s.StateActions {
		if act < 0 {
			return specErr("state actions", "state %v has a negative action: %v", state, act)
		}
	}
	if s.ActionCount < 0 {
		return specErr("state actions", "action count must be >=0; got: %v", s.ActionCount)
	}
	if len(s.KindNames) != 0 && len(s.KindNames) != s.ActionCount {
		return specErr("kind names", "want: %v names, got: %v", s.ActionCount, len(s.KindNames))
	}
	return validateCSR("transition", s.Transition, s.StateCount, s.ClassCount, func(v int) bool {
		return v >= 0 && v < s.StateCount
	})
}

func (s *SyntacticSpec) Validate() error {
	if s.StateCount <= 0 {
		return specErr("parser states", "state count must be >=1; got: %v", s.StateCount)
	}
	if s.StartState < 0 || s.StartState >= s.StateCount {
		return specErr("parser states", "start state is out of range: %v", s.StartState)
	}
	if s.AcceptState < 0 || s.AcceptState >= s.StateCount {
		return specErr("parser states", "accept state is out of range: %v", s.AcceptState)
	}
	if len(s.RuleLengths) != len(s.RuleLHS) {
		return specErr("rules", "rule lengths and left-hand sides differ in length; lengths: %v, lhs: %v", len(s.RuleLengths), len(s.RuleLHS))
	}
	for rule, n := range s.RuleLengths {
		if n < 0 {
			return specErr("rules", "rule %v has a negative length: %v", rule, n)
		}
		if s.RuleLHS[rule] < TokenFirst {
			return specErr("rules", "rule %v produces a non-symbolic ID: %#x", rule, s.RuleLHS[rule])
		}
	}
	err := validateCSR("action", s.Action, s.StateCount, -1, func(v int) bool {
		if v >= 0 {
			return v < s.StateCount
		}
		return -v-1 < len(s.RuleLengths)
	})
	if err != nil {
		return err
	}
	return validateCSR("goto", s.GoTo, s.StateCount, -1, func(v int) bool {
		return v >= 0 && v < s.StateCount
	})
}

// validateCSR checks the shape of `tab`. A negative `colCount` leaves column IDs unbounded.
func validateCSR(part string, tab *CSR, rowCount, colCount int, validPayload func(v int) bool) error {
	if tab == nil {
		return specErr(part, "the table is missing")
	}
	if len(tab.IA) != rowCount+1 {
		return specErr(part, "IA must have %v elements; got: %v", rowCount+1, len(tab.IA))
	}
	_, err := compressor.NewCSRTableFromArrays(tab.IA, tab.JA, tab.A)
	if err != nil {
		return &SpecError{
			Part:  part,
			Cause: err,
		}
	}
	for i, col := range tab.JA {
		if colCount >= 0 && col >= colCount {
			return specErr(part, "column %v is out of range; column count: %v", col, colCount)
		}
		if !validPayload(tab.A[i]) {
			return specErr(part, "payload %v at column %v is out of range", tab.A[i], col)
		}
	}
	return nil
}

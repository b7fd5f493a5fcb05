package spec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cnf/structhash"
)

// Token IDs from 0 to 255 are literal bytes. Symbolic IDs start at TokenBase, which lies above
// every Unicode code point so that a generator may also emit code points as literal tokens.
const (
	TokenBase  = 0x110000
	TokenEOF   = TokenBase
	TokenError = TokenBase + 1

	// TokenFirst is the ID of the first symbolic terminal. Nonterminals follow the terminals.
	TokenFirst = TokenBase + 2
)

// ByteClassNone marks a byte that belongs to no class. The lexer treats such a byte as an illegal
// transition from any state.
const ByteClassNone = -1

// CSR is the wire form of a sparse table in the compressed sparse row format. Non-negative
// payloads in A are next states; a negative payload `v` means reducing by rule `-v-1`.
type CSR struct {
	IA []int `json:"ia"`
	JA []int `json:"ja"`
	A  []int `json:"a"`
}

type CompiledTables struct {
	Name      string         `json:"name"`
	Lexical   *LexicalSpec   `json:"lexical,omitempty"`
	Syntactic *SyntacticSpec `json:"syntactic,omitempty"`
}

type LexicalSpec struct {
	// ByteClasses has exactly 256 entries.
	ByteClasses []int `json:"byte_classes"`
	ClassCount  int   `json:"class_count"`
	StateCount  int   `json:"state_count"`

	// Transition is indexed by (state, byte class). The initial state is always 0.
	Transition *CSR `json:"transition"`

	// StateActions holds an action ID per state. ActionCount means the state has no action, and
	// an ID above ActionCount is resolved by a conditional-action hook at run time.
	StateActions []int `json:"state_actions"`
	ActionCount  int   `json:"action_count"`

	// KindNames optionally names each action.
	KindNames []string `json:"kind_names,omitempty"`
}

type SyntacticSpec struct {
	StateCount  int `json:"state_count"`
	StartState  int `json:"start_state"`
	AcceptState int `json:"accept_state"`

	// Action is indexed by (state, token ID) and GoTo by (state, nonterminal ID).
	Action *CSR `json:"action"`
	GoTo   *CSR `json:"goto"`

	RuleLengths []int `json:"rule_lengths"`
	RuleLHS     []int `json:"rule_lhs"`

	// SymbolNames names symbolic IDs; SymbolNames[0] is the name of TokenFirst.
	SymbolNames []string `json:"symbol_names"`
}

// Read decodes a JSON table document and validates it.
func Read(r io.Reader) (*CompiledTables, error) {
	tabs := &CompiledTables{}
	err := json.NewDecoder(r).Decode(tabs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	err = tabs.Validate()
	if err != nil {
		return nil, err
	}
	return tabs, nil
}

// Fingerprint returns a hash of the whole table set. Two table sets with the same fingerprint
// drive a lexer and a parser identically.
func (t *CompiledTables) Fingerprint() (string, error) {
	return structhash.Hash(t, 1)
}

// TokenName returns a printable name of a token ID. A literal byte is rendered as itself when it
// is printable ASCII.
func (s *SyntacticSpec) TokenName(id int) string {
	return TokenName(id, s.SymbolNames)
}

func TokenName(id int, symbolNames []string) string {
	switch {
	case id == TokenEOF:
		return "<eof>"
	case id == TokenError:
		return "error"
	case id >= TokenFirst:
		if n := id - TokenFirst; n < len(symbolNames) {
			return symbolNames[n]
		}
		return fmt.Sprintf("<symbol %#x>", id)
	case id >= 0x20 && id < 0x7f:
		return string(rune(id))
	case id >= 0 && id < 0x100:
		return fmt.Sprintf("0x%02x", id)
	}
	return fmt.Sprintf("<token %#x>", id)
}

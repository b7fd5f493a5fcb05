package parser

import (
	"fmt"

	"github.com/nihei9/csrdrive/driver/lexer"
	"github.com/nihei9/csrdrive/spec"
)

// NewTokenStream returns a lexer over `src` driven by the lexical tables.
func NewTokenStream[V any](s *spec.LexicalSpec, src lexer.ByteSource, actions []lexer.Action[V], opts ...lexer.LexerOption) (*lexer.Lexer[V], error) {
	lexSpec, err := lexer.NewLexSpec(s)
	if err != nil {
		return nil, err
	}
	return lexer.NewLexer(lexSpec, src, actions, opts...)
}

// NewParserFromTables builds a lexer and a parser from a table set. Options given with
// WithLexerOptions configure the lexer.
func NewParserFromTables[V any](tabs *spec.CompiledTables, src lexer.ByteSource, lexActions []lexer.Action[V], semActions []SemanticAction[V], opts ...ParserOption) (*Parser[V], error) {
	if tabs.Lexical == nil || tabs.Syntactic == nil {
		return nil, fmt.Errorf("tables %v must have both lexical and syntactic tables", tabs.Name)
	}
	c, err := newParserConfig(opts)
	if err != nil {
		return nil, err
	}
	toks, err := NewTokenStream(tabs.Lexical, src, lexActions, c.lexerOpts...)
	if err != nil {
		return nil, err
	}
	gram, err := NewGrammar(tabs.Syntactic)
	if err != nil {
		return nil, err
	}
	return NewParser[V](gram, toks, semActions, opts...)
}

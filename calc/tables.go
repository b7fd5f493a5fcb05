package calc

import "github.com/nihei9/csrdrive/spec"

const (
	TokenNumber     = spec.TokenFirst
	SymbolStatement = spec.TokenFirst + 1
	SymbolExpr      = spec.TokenFirst + 2
)

// Lexical actions.
const (
	actNumber = iota
	actWhiteSpace
	actLiteral
	actionCount
)

// Rules.
const (
	ruleStatement = iota
	ruleStatementTerminated
	ruleAdd
	ruleSub
	ruleMul
	ruleDiv
	ruleGroup
	ruleNumber
)

// The grammar with the usual precedence and left associativity:
//
//	statement : expr
//	          | expr ';'
//	expr      : expr '+' expr
//	          | expr '-' expr
//	          | expr '*' expr
//	          | expr '/' expr
//	          | '(' expr ')'
//	          | NUMBER
var tables = &spec.CompiledTables{
	Name: "calc",
	Lexical: &spec.LexicalSpec{
		ByteClasses: byteClasses(),
		ClassCount:  3,
		StateCount:  5,
		Transition: &spec.CSR{
			IA: []int{0, 3, 4, 4, 4, 5},
			JA: []int{0, 1, 2, 0, 0},
			A:  []int{1, 2, 3, 4, 4},
		},
		StateActions: []int{actionCount, actNumber, actWhiteSpace, actLiteral, actNumber},
		ActionCount:  actionCount,
		KindNames:    []string{"number", "white_space", "literal"},
	},
	Syntactic: &spec.SyntacticSpec{
		StateCount:  17,
		StartState:  0,
		AcceptState: 5,
		Action: &spec.CSR{
			IA: []int{0, 2, 3, 9, 11, 18, 18, 19, 21, 23, 25, 27, 32, 39, 46, 53, 60, 67},
			JA: []int{
				// 0
				'(', TokenNumber,
				// 1
				spec.TokenEOF,
				// 2
				'*', '+', '-', '/', ';', spec.TokenEOF,
				// 3
				'(', TokenNumber,
				// 4
				')', '*', '+', '-', '/', ';', spec.TokenEOF,
				// 6
				spec.TokenEOF,
				// 7
				'(', TokenNumber,
				// 8
				'(', TokenNumber,
				// 9
				'(', TokenNumber,
				// 10
				'(', TokenNumber,
				// 11
				')', '*', '+', '-', '/',
				// 12
				')', '*', '+', '-', '/', ';', spec.TokenEOF,
				// 13
				')', '*', '+', '-', '/', ';', spec.TokenEOF,
				// 14
				')', '*', '+', '-', '/', ';', spec.TokenEOF,
				// 15
				')', '*', '+', '-', '/', ';', spec.TokenEOF,
				// 16
				')', '*', '+', '-', '/', ';', spec.TokenEOF,
			},
			A: []int{
				// 0
				3, 4,
				// 1
				5,
				// 2
				9, 7, 8, 10, 6, -1,
				// 3
				3, 4,
				// 4
				-8, -8, -8, -8, -8, -8, -8,
				// 6
				-2,
				// 7
				3, 4,
				// 8
				3, 4,
				// 9
				3, 4,
				// 10
				3, 4,
				// 11
				16, 9, 7, 8, 10,
				// 12
				-3, 9, -3, -3, 10, -3, -3,
				// 13
				-4, 9, -4, -4, 10, -4, -4,
				// 14
				-5, -5, -5, -5, -5, -5, -5,
				// 15
				-6, -6, -6, -6, -6, -6, -6,
				// 16
				-7, -7, -7, -7, -7, -7, -7,
			},
		},
		GoTo: &spec.CSR{
			IA: []int{0, 2, 2, 2, 3, 3, 3, 3, 4, 5, 6, 7, 7, 7, 7, 7, 7, 7},
			JA: []int{SymbolStatement, SymbolExpr, SymbolExpr, SymbolExpr, SymbolExpr, SymbolExpr, SymbolExpr},
			A:  []int{1, 2, 11, 12, 13, 14, 15},
		},
		RuleLengths: []int{1, 2, 3, 3, 3, 3, 3, 1},
		RuleLHS: []int{
			SymbolStatement,
			SymbolStatement,
			SymbolExpr,
			SymbolExpr,
			SymbolExpr,
			SymbolExpr,
			SymbolExpr,
			SymbolExpr,
		},
		SymbolNames: []string{"NUMBER", "statement", "expr"},
	},
}

// byteClasses classifies digits as 0, white spaces as 1 and any other byte as 2.
func byteClasses() []int {
	classes := make([]int, 256)
	for i := range classes {
		classes[i] = 2
	}
	for b := '0'; b <= '9'; b++ {
		classes[b] = 0
	}
	for _, b := range []byte{'\t', '\n', '\v', '\f', ' '} {
		classes[b] = 1
	}
	return classes
}

// Tables returns the calculator tables. They are shared and must not be modified.
func Tables() *spec.CompiledTables {
	return tables
}

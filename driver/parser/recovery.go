package parser

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"
	"github.com/nihei9/csrdrive/driver/lexer"
	"github.com/nihei9/csrdrive/spec"
)

// maxCandidates is the largest number of expected tokens listed in a diagnostic.
const maxCandidates = 5

// recover handles a lookahead having no action in the current state. Each call either changes
// the stack, replaces the lookahead, or ends parsing.
func (p *Parser[V]) recover() {
	if !p.hasError {
		p.hasError = true
		p.errPos = p.tok.Pos
	}
	p.success = false
	state := p.stack.top().state
	tracer().Debugf("no action; state: %v, token: %v %q", state, p.gram.TokenName(p.tok.ID), p.tok.Text)

	if p.recoverySteps >= p.maxRecoverySteps {
		tracer().Debugf("recovery made no progress in %v steps", p.recoverySteps)
		p.skipToken()
		return
	}

	if p.resyncOnErrorToken() {
		return
	}

	p.recoverySteps++
	tokens, acts := p.gram.ActionRow(state)
	outcomes := treeset.NewWith(utils.IntComparator)
	candidates := treeset.NewWith(utils.IntComparator)
	for i, tok := range tokens {
		outcomes.Add(acts[i])
		if tok != spec.TokenError {
			candidates.Add(tok)
		}
	}

	if outcomes.Size() == 1 {
		act := outcomes.Values()[0].(int)
		if act >= 0 {
			p.insertToken(tokens[0], act)
			return
		}
		tracer().Debugf("reduce without a lookahead")
		p.reduce(-act - 1)
		return
	}

	if n := candidates.Size(); n >= 1 && n <= maxCandidates {
		var names []string
		for _, tok := range candidates.Values() {
			names = append(names, p.gram.TokenName(tok.(int)))
		}
		p.report(p.errorPos(), CodeMissingTokens, map[string]interface{}{
			DataTokens: names,
		})
		first := candidates.Values()[0].(int)
		tracer().Debugf("replace the lookahead %v with %v", p.gram.TokenName(p.tok.ID), p.gram.TokenName(first))
		p.tok = &lexer.Token[V]{
			ID:  first,
			Pos: p.errorPos(),
		}
		p.synthetic = true
		return
	}

	p.skipToken()
}

// resyncOnErrorToken unwinds the stack to the topmost state shifting the error token, shifts it
// and discards tokens until one has an action. It returns false when no state shifts the error
// token.
func (p *Parser[V]) resyncOnErrorToken() bool {
	for i := p.stack.len() - 1; i >= 0; i-- {
		act, ok := p.gram.Action(p.stack.at(i).state, spec.TokenError)
		if !ok || act < 0 {
			continue
		}

		tracer().Debugf("unwind to state %v and shift the error token -> state %v", p.stack.at(i).state, act)
		p.stack.truncate(i)
		p.stack.push(frame[V]{
			state: act,
			sym:   spec.TokenError,
			pos:   p.errPos,
		})
		if p.synthetic || p.tok.ID == spec.TokenEOF {
			p.recoverySteps++
		}
		for {
			if p.tok.ID == spec.TokenEOF {
				if _, ok := p.gram.Action(act, p.tok.ID); ok {
					return true
				}
				p.report(p.errorPos(), CodeSyntax, map[string]interface{}{
					DataToken: p.gram.TokenName(p.tok.ID),
				})
				p.state = StateFailed
				p.stack.frames = nil
				return true
			}
			tracer().Debugf("discard %v %q", p.gram.TokenName(p.tok.ID), p.tok.Text)
			if !p.synthetic {
				p.recoverySteps = 0
			}
			p.nextToken()
			if _, ok := p.gram.Action(act, p.tok.ID); ok {
				return true
			}
		}
	}
	return false
}

// insertToken shifts a token missing from the input. The lookahead stays pending.
func (p *Parser[V]) insertToken(tok int, state int) {
	p.report(p.errorPos(), CodeMissingToken, map[string]interface{}{
		DataToken: p.gram.TokenName(tok),
	})
	tracer().Debugf("insert %v -> state %v", p.gram.TokenName(tok), state)
	p.stack.push(frame[V]{
		state: state,
		sym:   tok,
		pos:   p.errorPos(),
	})
}

// skipToken discards the lookahead, or ends parsing at the end of input.
func (p *Parser[V]) skipToken() {
	p.report(p.errorPos(), CodeSyntax, map[string]interface{}{
		DataToken: p.gram.TokenName(p.tok.ID),
	})
	if p.tok.ID == spec.TokenEOF {
		tracer().Debugf("no more tokens")
		p.state = StateFailed
		p.stack.frames = nil
		return
	}
	tracer().Debugf("discard %v %q", p.gram.TokenName(p.tok.ID), p.tok.Text)
	if !p.synthetic {
		p.recoverySteps = 0
	}
	p.nextToken()
}

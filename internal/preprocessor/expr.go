package preprocessor

import (
	"strconv"
	"strings"
)

// maxExpansionSteps bounds the rewrites spent on one condition so that a
// self-referential macro fails instead of looping.
const maxExpansionSteps = 1 << 14

// LookupFunc resolves a macro name. It never returns nil: unknown names map
// to the notDefined sentinel.
type LookupFunc func(name string) *MacroDefinition

// evaluator expands and reduces #if/#elif conditions.
type evaluator struct {
	lookup LookupFunc
	steps  int
}

// EvaluateCondition expands macros, defined() and parenthesized
// sub-expressions in toks and reduces the result to a truth value.
func EvaluateCondition(toks Tokens, lookup LookupFunc) (bool, error) {
	e := &evaluator{lookup: lookup}
	return e.condition(toks)
}

func (e *evaluator) condition(toks Tokens) (bool, error) {
	expanded, err := e.expand(toks)
	if err != nil {
		return false, err
	}
	n, err := reduce(expanded)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// expand rewrites toks until neither a parenthesis nor an identifier is
// left. The innermost (rightmost) "(" is handled first: preceded by an
// identifier it is a macro call, otherwise a sub-expression that collapses
// to 1 or 0. Without parentheses the leftmost identifier is replaced.
func (e *evaluator) expand(toks Tokens) (Tokens, error) {
	for {
		e.steps++
		if e.steps > maxExpansionSteps {
			return nil, structuralf(toks, "recursive macro invocation")
		}
		next, changed, err := e.expandOnce(toks)
		if err != nil {
			return nil, err
		}
		if !changed {
			return toks, nil
		}
		toks = next
	}
}

func (e *evaluator) expandOnce(toks Tokens) (Tokens, bool, error) {
	open := toks.LastIndex("(")
	if open < 0 {
		return e.expandIdent(toks)
	}
	end := toks.Index(")", open+1)
	if end < 0 {
		return nil, false, structuralf(toks, "unmatched '('")
	}
	callee := open - 1
	for callee >= 0 && toks[callee].IsSpace() {
		callee--
	}
	if callee >= 0 && toks[callee].IsIdent() {
		macro := e.lookup(toks[callee].Text)
		body, err := substitute(toks[callee].Text, macro, toks[open+1:end])
		if err != nil {
			return nil, false, err
		}
		return concatTokens(toks[:callee], body, toks[end+1:]), true, nil
	}
	v, err := e.condition(toks[open+1 : end])
	if err != nil {
		return nil, false, err
	}
	return concatTokens(toks[:open], Tokens{boolToken(v)}, toks[end+1:]), true, nil
}

func (e *evaluator) expandIdent(toks Tokens) (Tokens, bool, error) {
	i := -1
	for j, t := range toks {
		if t.IsIdent() {
			i = j
			break
		}
	}
	if i < 0 {
		return toks, false, nil
	}
	macro := e.lookup(toks[i].Text)
	if macro != definedMacro {
		return concatTokens(toks[:i], macro.Value, toks[i+1:]), true, nil
	}
	m := i + 1
	for m < len(toks) && toks[m].IsSpace() {
		m++
	}
	if m == len(toks) || !toks[m].IsIdent() {
		return nil, false, structuralf(toks, "operator \"defined\" requires an identifier")
	}
	v := e.lookup(toks[m].Text) != notDefined
	return concatTokens(toks[:i], Tokens{boolToken(v)}, toks[m+1:]), true, nil
}

// substitute expands one invocation of a function-like macro whose
// argument span contains no parentheses.
func substitute(name string, macro *MacroDefinition, argToks Tokens) (Tokens, error) {
	if !macro.IsFunctionLike() {
		return nil, structuralf(argToks, "%s is not a function-like macro", name)
	}
	args := splitOnCommas(argToks)
	fixed := len(macro.Params)
	if macro.IsVariadic() {
		fixed--
	}
	switch {
	case len(macro.Params) == 0:
		if len(args) != 1 || len(args[0].TrimSpace()) != 0 {
			return nil, structuralf(argToks, "macro %s takes no arguments", name)
		}
	case macro.IsVariadic():
		if len(args) < fixed {
			return nil, structuralf(argToks, "macro %s requires at least %d arguments, got %d", name, fixed, len(args))
		}
	default:
		if len(args) != fixed {
			return nil, structuralf(argToks, "macro %s requires %d arguments, got %d", name, fixed, len(args))
		}
	}

	out := make(Tokens, 0, len(macro.Value))
	for _, t := range macro.Value {
		if t.Is("...") {
			return nil, structuralf(macro.Value, "variadic marker in body of macro %s", name)
		}
		if idx := paramIndex(macro.Params, t.Text); idx >= 0 {
			out = append(out, args[idx]...)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func paramIndex(params []string, text string) int {
	for i, p := range params {
		if p == text && p != "..." {
			return i
		}
	}
	return -1
}

func boolToken(v bool) Token {
	if v {
		return Token{Kind: TokWord, Text: "1"}
	}
	return Token{Kind: TokWord, Text: "0"}
}

// ---------------- Reduction ----------------

type reduction struct {
	op    string
	unary bool
	apply func(x, y int32) int32
}

func truth(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// reductions is applied strictly in this order, one operator kind at a
// time, each finding its leftmost occurrence. This is not C precedence.
var reductions = []reduction{
	{op: "!", unary: true, apply: func(x, _ int32) int32 { return truth(x == 0) }},
	{op: ">>", apply: func(x, y int32) int32 { return x >> (uint32(y) & 31) }},
	{op: "<", apply: func(x, y int32) int32 { return truth(x < y) }},
	{op: ">", apply: func(x, y int32) int32 { return truth(x > y) }},
	{op: "<=", apply: func(x, y int32) int32 { return truth(x <= y) }},
	{op: ">=", apply: func(x, y int32) int32 { return truth(x >= y) }},
	{op: "==", apply: func(x, y int32) int32 { return truth(x == y) }},
	{op: "!=", apply: func(x, y int32) int32 { return truth(x != y) }},
	{op: "&", apply: func(x, y int32) int32 { return x & y }},
	{op: "|", apply: func(x, y int32) int32 { return x | y }},
	{op: "&&", apply: func(x, y int32) int32 { return truth(x != 0 && y != 0) }},
	{op: "||", apply: func(x, y int32) int32 { return truth(x != 0 || y != 0) }},
}

// reduce evaluates a fully expanded expression down to one integer.
func reduce(toks Tokens) (int32, error) {
	toks = toks.WithoutSpace()
	for len(toks) > 1 {
		next, ok, err := reduceOnce(toks)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, evalf(toks, "cannot reduce expression")
		}
		toks = next
	}
	if len(toks) == 0 {
		return 0, evalf(toks, "empty expression")
	}
	return ParseInteger(toks[0].Text)
}

func reduceOnce(toks Tokens) (Tokens, bool, error) {
	for _, r := range reductions {
		i := findOperator(toks, r)
		if i < 0 {
			continue
		}
		y, err := ParseInteger(toks[i+1].Text)
		if err != nil {
			return nil, false, err
		}
		if r.unary {
			res := NewToken(strconv.Itoa(int(r.apply(y, 0))))
			return concatTokens(toks[:i], Tokens{res}, toks[i+2:]), true, nil
		}
		x, err := ParseInteger(toks[i-1].Text)
		if err != nil {
			return nil, false, err
		}
		res := NewToken(strconv.Itoa(int(r.apply(x, y))))
		return concatTokens(toks[:i-1], Tokens{res}, toks[i+2:]), true, nil
	}
	return nil, false, nil
}

// findOperator returns the index of the leftmost r.op whose operands are
// word tokens.
func findOperator(toks Tokens, r reduction) int {
	start := 1
	if r.unary {
		start = 0
	}
	for i := start; i < len(toks)-1; i++ {
		if toks[i].Text != r.op || !toks[i+1].IsWord() {
			continue
		}
		if r.unary || toks[i-1].IsWord() {
			return i
		}
	}
	return -1
}

// ParseInteger parses an expression literal: decimal or 0x hex, with any
// trailing L/l suffix removed. Hex literals are read as 32 unsigned bits.
func ParseInteger(s string) (int32, error) {
	lit := strings.TrimRight(s, "Ll")
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		u, err := strconv.ParseUint(lit[2:], 16, 32)
		if err != nil {
			return 0, evalf(Tokens{NewToken(s)}, "invalid integer literal")
		}
		return int32(uint32(u)), nil
	}
	n, err := strconv.ParseInt(lit, 10, 32)
	if err != nil {
		return 0, evalf(Tokens{NewToken(s)}, "invalid integer literal")
	}
	return int32(n), nil
}

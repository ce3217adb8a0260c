package preprocessor

import (
	"strings"
)

// ---------------- Tokens ----------------

type TokenKind int

const (
	TokSpace TokenKind = iota
	TokWord
	TokOperator
	TokUnknown
)

func (k TokenKind) String() string {
	switch k {
	case TokSpace:
		return "space"
	case TokWord:
		return "word"
	case TokOperator:
		return "operator"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a normalized line. Whitespace runs are kept
// as tokens because directive parsing depends on where they fall.
type Token struct {
	Kind TokenKind
	Text string
}

func (t Token) IsSpace() bool { return t.Kind == TokSpace }

// IsWord reports whether the token is a letters/digits/underscore run.
func (t Token) IsWord() bool { return t.Kind == TokWord }

// IsIdent reports whether the token can name a macro: a word that does not
// start with a digit.
func (t Token) IsIdent() bool {
	return t.Kind == TokWord && !isDigit(t.Text[0])
}

func (t Token) Is(text string) bool { return t.Text == text }

// Tokens is treated as immutable once built: expansion always assembles a
// fresh slice instead of splicing in place.
type Tokens []Token

func (ts Tokens) String() string {
	var b strings.Builder
	for _, t := range ts {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Index returns the position of the first token with the given text at or
// after from, or -1.
func (ts Tokens) Index(text string, from int) int {
	for i := from; i < len(ts); i++ {
		if ts[i].Text == text {
			return i
		}
	}
	return -1
}

func (ts Tokens) LastIndex(text string) int {
	for i := len(ts) - 1; i >= 0; i-- {
		if ts[i].Text == text {
			return i
		}
	}
	return -1
}

// TrimSpace drops leading and trailing whitespace tokens.
func (ts Tokens) TrimSpace() Tokens {
	i, j := 0, len(ts)
	for i < j && ts[i].IsSpace() {
		i++
	}
	for j > i && ts[j-1].IsSpace() {
		j--
	}
	return ts[i:j]
}

// WithoutSpace returns a copy with every whitespace token removed.
func (ts Tokens) WithoutSpace() Tokens {
	out := make(Tokens, 0, len(ts))
	for _, t := range ts {
		if !t.IsSpace() {
			out = append(out, t)
		}
	}
	return out
}

func concatTokens(parts ...Tokens) Tokens {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(Tokens, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// NewToken classifies text by its shape.
func NewToken(text string) Token {
	switch {
	case text == "":
		return Token{Kind: TokUnknown}
	case allBytes(text, isSpace):
		return Token{Kind: TokSpace, Text: text}
	case allBytes(text, isWordByte):
		return Token{Kind: TokWord, Text: text}
	case isOperator(text):
		return Token{Kind: TokOperator, Text: text}
	default:
		return Token{Kind: TokUnknown, Text: text}
	}
}

func allBytes(s string, pred func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !pred(s[i]) {
			return false
		}
	}
	return true
}

// ---------------- Tokenizer ----------------

// multiCharOperators is matched in order, before single characters.
var multiCharOperators = []string{
	"...", ">>=", "<<=", "?:", "##", "@#", ">>", ">=", "==", "-=", "<=", "<<",
	"+=", "++", "|=", "||", "^=", "[]", "::", "/=", "*=", "&=", "&&", "%=", "!=", "--",
}

const singleCharOperators = "#>=<+~|^/,*&%!-()"

func isOperator(s string) bool {
	if len(s) == 1 {
		return strings.IndexByte(singleCharOperators, s[0]) >= 0
	}
	for _, op := range multiCharOperators {
		if s == op {
			return true
		}
	}
	return false
}

// Tokenize splits a normalized line into tokens by maximal munch: whitespace
// runs, word runs, the fixed multi-character operators, single operator
// characters, and finally runs of anything else.
func Tokenize(line string) Tokens {
	toks := make(Tokens, 0, 16)
	for i := 0; i < len(line); {
		ch := line[i]
		if isSpace(ch) {
			j := i + 1
			for j < len(line) && isSpace(line[j]) {
				j++
			}
			toks = append(toks, Token{Kind: TokSpace, Text: line[i:j]})
			i = j
			continue
		}
		if isWordByte(ch) {
			j := i + 1
			for j < len(line) && isWordByte(line[j]) {
				j++
			}
			toks = append(toks, Token{Kind: TokWord, Text: line[i:j]})
			i = j
			continue
		}
		if op, ok := matchMultiCharOperator(line[i:]); ok {
			toks = append(toks, Token{Kind: TokOperator, Text: op})
			i += len(op)
			continue
		}
		if strings.IndexByte(singleCharOperators, ch) >= 0 {
			toks = append(toks, Token{Kind: TokOperator, Text: line[i : i+1]})
			i++
			continue
		}
		j := i + 1
		for j < len(line) && !isSpace(line[j]) && !isWordByte(line[j]) {
			j++
		}
		toks = append(toks, Token{Kind: TokUnknown, Text: line[i:j]})
		i = j
	}
	return toks
}

func matchMultiCharOperator(s string) (string, bool) {
	for _, op := range multiCharOperators {
		if strings.HasPrefix(s, op) {
			return op, true
		}
	}
	return "", false
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isHorizontalSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\f':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isWordByte(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

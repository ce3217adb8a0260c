package preprocessor

import (
	"strings"
)

// ---------------- Directive parsing ----------------

type directive struct {
	name   string
	params Tokens
}

// parseDirective splits a tokenized line starting with '#' into the
// directive name and its whitespace-trimmed parameters. A bare '#' yields an
// empty name.
func parseDirective(toks Tokens) (directive, bool) {
	if len(toks) == 0 || !toks[0].Is("#") {
		return directive{}, false
	}
	i := 1
	for i < len(toks) && toks[i].IsSpace() {
		i++
	}
	if i == len(toks) {
		return directive{}, true
	}
	d := directive{name: toks[i].Text}
	d.params = toks[i+1:].TrimSpace()
	return d, true
}

// IncludeKind records how an #include spelled its file name.
type IncludeKind int

const (
	IncludeQuoted IncludeKind = iota // "file"
	IncludeAngled                    // <file>
)

func (k IncludeKind) String() string {
	if k == IncludeAngled {
		return "angled"
	}
	return "quoted"
}

// Quote spells name the way an #include of this kind writes it.
func (k IncludeKind) Quote(name string) string {
	if k == IncludeAngled {
		return "<" + name + ">"
	}
	return `"` + name + `"`
}

// parseIncludeDirective extracts the file name of an #include. The name is
// read from the parameter text so that punctuation runs such as `"../` do
// not need to line up with token boundaries.
func parseIncludeDirective(params Tokens) (string, IncludeKind, error) {
	arg := params.String()
	switch {
	case strings.HasPrefix(arg, `"`):
		end := strings.IndexByte(arg[1:], '"')
		if end < 0 {
			return "", 0, structuralf(params, "bad #include syntax")
		}
		return arg[1 : 1+end], IncludeQuoted, nil
	case strings.HasPrefix(arg, "<"):
		rest := strings.TrimLeft(arg[1:], " \t")
		end := strings.IndexAny(rest, "> \t")
		if end <= 0 {
			return "", 0, structuralf(params, "bad #include syntax")
		}
		return rest[:end], IncludeAngled, nil
	}
	return "", 0, structuralf(params, "bad #include syntax")
}

// parseMacroDefinition parses the parameters of a #define: the name, an
// optional parameter list that must follow the name with no space between,
// and the replacement tokens.
func parseMacroDefinition(params Tokens) (MacroDefinition, error) {
	if len(params) == 0 || !params[0].IsWord() {
		return MacroDefinition{}, structuralf(params, "bad #define")
	}
	def := MacroDefinition{Name: params[0].Text}
	rest := params[1:]
	if len(rest) == 0 {
		return def, nil
	}
	if rest[0].IsSpace() {
		def.Value = valueTokens(rest)
		return def, nil
	}
	if !rest[0].Is("(") {
		def.Value = valueTokens(rest)
		return def, nil
	}
	end := rest.Index(")", 1)
	if end < 0 {
		return MacroDefinition{}, structuralf(params, "missing ')' in macro parameter list")
	}
	names, err := parseParameterList(rest[1:end])
	if err != nil {
		return MacroDefinition{}, err
	}
	def.Params = names
	def.Value = valueTokens(rest[end+1:])
	return def, nil
}

// valueTokens trims a replacement list; an empty one is stored as nil.
func valueTokens(toks Tokens) Tokens {
	toks = toks.TrimSpace()
	if len(toks) == 0 {
		return nil
	}
	return toks
}

func parseParameterList(list Tokens) ([]string, error) {
	names := []string{}
	if len(list.TrimSpace()) == 0 {
		return names, nil
	}
	for _, group := range splitOnCommas(list) {
		group = group.TrimSpace()
		if len(group) != 1 || !(group[0].IsWord() || group[0].Is("...")) {
			return nil, structuralf(list, "bad macro parameter list")
		}
		names = append(names, group[0].Text)
	}
	return names, nil
}

// splitOnCommas splits on every comma token; callers only pass spans that
// contain no nested parentheses.
func splitOnCommas(toks Tokens) []Tokens {
	groups := make([]Tokens, 0, 4)
	start := 0
	for i, t := range toks {
		if t.Is(",") {
			groups = append(groups, toks[start:i])
			start = i + 1
		}
	}
	return append(groups, toks[start:])
}

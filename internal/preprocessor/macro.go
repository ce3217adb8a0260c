package preprocessor

import (
	"strings"
)

// ---------------- Macros ----------------

// MacroDefinition is one #define. Params is nil for an object-like macro,
// empty for a function-like macro declared with "()", and ends in "..." for
// a variadic one.
type MacroDefinition struct {
	Name   string
	Params []string
	Value  Tokens
}

func (m MacroDefinition) IsFunctionLike() bool { return m.Params != nil }

func (m MacroDefinition) IsVariadic() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1] == "..."
}

// String renders the macro in its serialized form:
// name, comma-joined parameters and concatenated value, tab separated.
func (m MacroDefinition) String() string {
	return m.Name + "\t" + strings.Join(m.Params, ",") + "\t" + m.Value.String()
}

var (
	// definedMacro lets defined(X) go through the ordinary function-like
	// expansion path; it rewrites to the prefix form "defined X".
	definedMacro = &MacroDefinition{
		Name:   "defined",
		Params: []string{"arg"},
		Value:  Tokens{{Kind: TokWord, Text: "defined"}, {Kind: TokSpace, Text: " "}, {Kind: TokWord, Text: "arg"}},
	}

	// notDefined is what a lookup of an unknown name returns. Its value
	// makes an undefined name evaluate to 0.
	notDefined = &MacroDefinition{
		Value: Tokens{{Kind: TokWord, Text: "0"}},
	}
)

// Table holds the macros of one run in definition order. It is shared by
// every file the run includes.
type Table struct {
	defs  map[string]*MacroDefinition
	order []string
}

func NewTable() *Table {
	return &Table{defs: map[string]*MacroDefinition{}}
}

// Define inserts def, replacing an existing macro of the same name in place.
func (t *Table) Define(def MacroDefinition) {
	if _, ok := t.defs[def.Name]; !ok {
		t.order = append(t.order, def.Name)
	}
	t.defs[def.Name] = &def
}

// Undefine removes name; a missing name is a no-op.
func (t *Table) Undefine(name string) {
	if _, ok := t.defs[name]; !ok {
		return
	}
	delete(t.defs, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the definition of name. The pseudo-macro "defined" is
// always present; a miss returns the notDefined sentinel, never nil.
func (t *Table) Lookup(name string) *MacroDefinition {
	if name == definedMacro.Name {
		return definedMacro
	}
	if def, ok := t.defs[name]; ok {
		return def
	}
	return notDefined
}

// Macros returns a copy of every live definition in definition order.
func (t *Table) Macros() []MacroDefinition {
	out := make([]MacroDefinition, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.defs[name])
	}
	return out
}

// ParseDefine splits a command-line style NAME[=VALUE] definition. A bare
// NAME is defined as 1.
func ParseDefine(s string) (MacroDefinition, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		value = "1"
	}
	nameToks := Tokenize(name)
	if len(nameToks) != 1 || !nameToks[0].IsIdent() {
		return MacroDefinition{}, structuralf(nameToks, "invalid macro name")
	}
	return MacroDefinition{Name: name, Value: valueTokens(Tokenize(value))}, nil
}

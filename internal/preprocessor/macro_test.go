package preprocessor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func macroNames(defs []MacroDefinition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func TestTableDefineUndefine(t *testing.T) {
	tbl := tableWith(t, "A 1", "B 2", "C 3")
	tbl.Define(MacroDefinition{Name: "A", Value: Tokenize("10")})
	tbl.Undefine("B")
	tbl.Undefine("MISSING")
	tbl.Define(MacroDefinition{Name: "B", Value: Tokenize("20")})

	if diff := cmp.Diff([]string{"A", "C", "B"}, macroNames(tbl.Macros())); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if got := tbl.Lookup("A").Value.String(); got != "10" {
		t.Errorf("A = %q, want 10", got)
	}
	if n := len(tbl.Macros()); n != 3 {
		t.Errorf("%d macros, want 3", n)
	}
}

func TestTableLookupSentinels(t *testing.T) {
	tbl := NewTable()
	if tbl.Lookup("X") != notDefined {
		t.Error("missing name did not return the notDefined sentinel")
	}
	if tbl.Lookup("defined") != definedMacro {
		t.Error("defined is not the pseudo-macro")
	}
	if len(tbl.Macros()) != 0 {
		t.Error("pseudo-macro stored in the table")
	}
}

func TestMacroDefinitionString(t *testing.T) {
	tests := []struct {
		define string
		want   string
	}{
		{"A 1", "A\t\t1"},
		{"B() 1", "B\t\t1"},
		{"C(x,y) x + y", "C\tx,y\tx + y"},
		{"E", "E\t\t"},
	}
	for _, tt := range tests {
		def, err := parseMacroDefinition(Tokenize(tt.define))
		if err != nil {
			t.Fatal(err)
		}
		if got := def.String(); got != tt.want {
			t.Errorf("%q.String() = %q, want %q", tt.define, got, tt.want)
		}
	}
}

func TestParseDefine(t *testing.T) {
	tests := []struct {
		input string
		want  macroShape
	}{
		{"WIN32", macroShape{"WIN32", nil, "1"}},
		{"_WIN32_WINNT=0x0601", macroShape{"_WIN32_WINNT", nil, "0x0601"}},
		{"EMPTY=", macroShape{"EMPTY", nil, ""}},
		{"PAIR=1 2", macroShape{"PAIR", nil, "1 2"}},
	}
	for _, tt := range tests {
		def, err := ParseDefine(tt.input)
		if err != nil {
			t.Errorf("ParseDefine(%q): %v", tt.input, err)
			continue
		}
		if diff := cmp.Diff(tt.want, shape(def)); diff != "" {
			t.Errorf("ParseDefine(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
	for _, bad := range []string{"", "1X", "A B", "A-B=1"} {
		if _, err := ParseDefine(bad); err == nil {
			t.Errorf("ParseDefine(%q): expected error", bad)
		}
	}
}

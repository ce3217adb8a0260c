package include

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwessels/macroharvest/internal/preprocessor"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	writeFile(t, filepath.Join(first, "common.h"), "first")
	writeFile(t, filepath.Join(second, "common.h"), "second")
	writeFile(t, filepath.Join(second, "only.h"), "only")
	writeFile(t, filepath.Join(second, "Sub", "WinDef.H"), "windef")
	abs := filepath.Join(root, "abs.h")
	writeFile(t, abs, "abs")

	r := NewResolver(first, second)
	tests := []struct {
		name string
		want string
	}{
		{"common.h", "first"},
		{"only.h", "only"},
		{"Sub/WinDef.H", "windef"},
		{"sub/windef.h", "windef"},
		{`SUB\windef.h`, "windef"},
		{"./Only.H", "only"},
		{abs, "abs"},
	}
	for _, tt := range tests {
		path, err := r.Find(tt.name)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, string(got)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestFindMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Sub", "a.h"), "")
	r := NewResolver(root, filepath.Join(root, "does-not-exist"))
	for _, name := range []string{"missing.h", "sub/b.h", "Sub", filepath.Join(root, "nope.h")} {
		if _, err := r.Find(name); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("%s: got %v, want fs.ErrNotExist", name, err)
		}
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.h"), "#define A 1\n")
	r := NewResolver(dir)
	text, err := r.Resolve("A.h", preprocessor.IncludeAngled)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("#define A 1\n", text); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveThroughPreprocessor(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "outer.h"), "#include \"inner/inner.h\"\n#define OUTER INNER\n")
	writeFile(t, filepath.Join(dir, "inner", "inner.h"), "#define INNER 7\n")

	got, err := preprocessor.NewPreprocessor(NewResolver(dir)).Run("#include <outer.h>\n")
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range got.Macros {
		names = append(names, m.String())
	}
	want := []string{"INNER\t\t7", "OUTER\t\tINNER"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"outer.h", "inner/inner.h"}, got.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSearchList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{";;", nil},
		{`C:\sdk\include`, []string{`C:\sdk\include`}},
		{"/usr/include; /opt/include ;;/x;", []string{"/usr/include", "/opt/include", "/x"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseSearchList(tt.input)); diff != "" {
			t.Errorf("%q mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestReadSearchListFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IncludePaths.txt")
	writeFile(t, path, "/a;/b\r\n/c\n")
	got, err := ReadSearchListFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/a", "/b", "/c"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if _, err := ReadSearchListFile(path + ".missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}

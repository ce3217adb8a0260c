/*
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package macroharvest

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwessels/macroharvest/internal/preprocessor"
	"github.com/google/go-cmp/cmp"
)

func macroLines(macros []Macro) []string {
	var out []string
	for _, m := range macros {
		out = append(out, m.String())
	}
	return out
}

func TestFrameworkHeader(t *testing.T) {
	got := FrameworkHeader([]string{"windows.h", " ", `"local.h"`, "<sys/types.h>", " winsock2.h "})
	want := "#include <windows.h>\n#include \"local.h\"\n#include <sys/types.h>\n#include <winsock2.h>\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func sdk(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"windows.h": `#pragma once
#include "winver.h"
#if WINVER >= 0x0600
#define HAS_VISTA_API 1
#else
#define HAS_VISTA_API 0
#endif
#include <WinUser.h>
`,
		"winver.h": `#ifndef WINVER
#define WINVER 0x0501
#endif
`,
		"winuser.h": `/* window messages */
#define WM_NULL 0x0000
#define WM_CREATE 0x0001
#ifdef UNICODE
#define TEXT_MODE 2
#else
#define TEXT_MODE 1
#endif
#define MAKEWORD(a, b) ((a) | ((b) << 8))
`,
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestHarvest(t *testing.T) {
	dir := sdk(t)
	tests := []struct {
		name    string
		defines []string
		want    []string
	}{
		{
			"defaults",
			nil,
			[]string{
				"WINVER\t\t0x0501",
				"HAS_VISTA_API\t\t0",
				"WM_NULL\t\t0x0000",
				"WM_CREATE\t\t0x0001",
				"TEXT_MODE\t\t1",
				"MAKEWORD\ta,b\t((a) | ((b) << 8))",
			},
		},
		{
			"predefined",
			[]string{"WINVER=0x0601", "UNICODE"},
			[]string{
				"WINVER\t\t0x0601",
				"UNICODE\t\t1",
				"HAS_VISTA_API\t\t1",
				"WM_NULL\t\t0x0000",
				"WM_CREATE\t\t0x0001",
				"TEXT_MODE\t\t2",
				"MAKEWORD\ta,b\t((a) | ((b) << 8))",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Harvest([]string{"windows.h"}, Options{IncludeDirs: []string{dir}, Defines: tt.defines})
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, macroLines(got)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHarvestMissingHeader(t *testing.T) {
	_, err := Harvest([]string{"nothere.h"}, Options{IncludeDirs: []string{t.TempDir()}})
	var re *preprocessor.ResolveError
	if !errors.As(err, &re) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("got %v, want a not-found ResolveError", err)
	}
}

func TestHarvestBadDefines(t *testing.T) {
	_, err := HarvestText("", Options{Defines: []string{"OK", "1BAD", "ALSO BAD=2"}})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"-D 1BAD", "-D ALSO BAD=2"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "-D OK") {
		t.Errorf("error %q mentions a valid define", err)
	}
}

func TestHarvestResolver(t *testing.T) {
	r := preprocessor.ResolverFunc(func(name string, kind preprocessor.IncludeKind) (string, error) {
		return "#define FROM_" + strings.ToUpper(strings.TrimSuffix(name, ".h")) + " 1\n", nil
	})
	got, err := Harvest([]string{"a.h", "b.h"}, Options{Resolver: r})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"FROM_A\t\t1", "FROM_B\t\t1"}, macroLines(got)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterPrefix(t *testing.T) {
	macros, err := HarvestText("#define WM_A 1\n#define WS_B 2\n#define WM_C 3\n", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"WM_A\t\t1", "WM_C\t\t3"}, macroLines(FilterPrefix(macros, "WM_"))); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got := FilterPrefix(macros, "XX"); len(got) != 0 {
		t.Errorf("got %v, want nothing", got)
	}
	if got := FilterPrefix(macros, ""); len(got) != 3 {
		t.Errorf("empty prefix kept %d macros, want 3", len(got))
	}
}

func TestWriteReadMacros(t *testing.T) {
	macros, err := HarvestText(strings.Join([]string{
		"#define A 1",
		"#define B() 2",
		"#define C(x, y) x + y",
		"#define D",
		"#define E(fmt, ...) fmt",
		`#define F "text"`,
	}, "\n"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteMacros(&buf, macros); err != nil {
		t.Fatal(err)
	}
	want := "A\t\t1\nB\t\t2\nC\tx,y\tx + y\nD\t\t\nE\tfmt,...\tfmt\nF\t\t\"text\"\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("write mismatch (-want +got):\n%s", diff)
	}

	back, err := ReadMacros(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(macroLines(macros), macroLines(back)); diff != "" {
		t.Errorf("read mismatch (-want +got):\n%s", diff)
	}
	if back[1].IsFunctionLike() || !back[2].IsFunctionLike() || !back[4].IsVariadic() {
		t.Errorf("parameter lists did not survive: %v", back)
	}
	if back[3].Value != nil {
		t.Errorf("empty value read back as %q", back[3].Value)
	}
}

func TestReadMacrosErrors(t *testing.T) {
	for _, input := range []string{"A 1\n", "\t\t1\n", "A\t1\n"} {
		if _, err := ReadMacros(strings.NewReader(input)); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}

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


// Package macroharvest extracts the preprocessor macros that survive
// conditional compilation of a set of C/C++ headers.
package macroharvest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fwessels/macroharvest/internal/include"
	"github.com/fwessels/macroharvest/internal/preprocessor"
)

// Macro is one harvested #define.
type Macro = preprocessor.MacroDefinition

type Options struct {
	// IncludeDirs is the ordered search list for #include.
	IncludeDirs []string
	// Defines are NAME[=VALUE] macros in effect before the first header.
	Defines []string
	// Logger receives progress messages; nil is silent.
	Logger *log.Logger
	// Resolver replaces the directory search when set.
	Resolver preprocessor.FileResolver
}

// FrameworkHeader builds the root document that includes every header in
// turn. Names already written as "h" or <h> are kept as they are.
func FrameworkHeader(headers []string) string {
	var b strings.Builder
	for _, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if strings.HasPrefix(h, `"`) || strings.HasPrefix(h, "<") {
			fmt.Fprintf(&b, "#include %s\n", h)
		} else {
			fmt.Fprintf(&b, "#include <%s>\n", h)
		}
	}
	return b.String()
}

// Harvest processes headers in order and returns the macros defined at the
// end, in definition order.
func Harvest(headers []string, opts Options) ([]Macro, error) {
	return HarvestText(FrameworkHeader(headers), opts)
}

// HarvestText is Harvest for an arbitrary root document.
func HarvestText(text string, opts Options) ([]Macro, error) {
	p, err := newPreprocessor(opts)
	if err != nil {
		return nil, err
	}
	return p.Process(text)
}

func newPreprocessor(opts Options) (*preprocessor.Preprocessor, error) {
	r := opts.Resolver
	if r == nil {
		r = include.NewResolver(opts.IncludeDirs...)
	}
	p := preprocessor.NewPreprocessor(r)
	p.Logger = opts.Logger

	var errs []error
	for _, d := range opts.Defines {
		def, err := preprocessor.ParseDefine(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("-D %s: %w", d, err))
			continue
		}
		p.Define(def)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return p, nil
}

// FilterPrefix returns the macros whose name starts with prefix.
func FilterPrefix(macros []Macro, prefix string) []Macro {
	var out []Macro
	for _, m := range macros {
		if strings.HasPrefix(m.Name, prefix) {
			out = append(out, m)
		}
	}
	return out
}

// WriteMacros writes one name, parameters, value line per macro, tab
// separated.
func WriteMacros(w io.Writer, macros []Macro) error {
	bw := bufio.NewWriter(w)
	for _, m := range macros {
		if _, err := bw.WriteString(m.String() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadMacros parses the output of WriteMacros. An empty parameter field
// reads back as an object-like macro, so "B()" round-trips as "B".
func ReadMacros(r io.Reader) ([]Macro, error) {
	var out []Macro
	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 || fields[0] == "" {
			return nil, fmt.Errorf("line %d: want name, parameters and value separated by tabs", lineNo)
		}
		m := Macro{Name: fields[0]}
		if fields[1] != "" {
			m.Params = strings.Split(fields[1], ",")
		}
		if value := preprocessor.Tokenize(fields[2]).TrimSpace(); len(value) > 0 {
			m.Value = value
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

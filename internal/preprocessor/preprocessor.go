package preprocessor

import (
	"errors"
	"log"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// RootFile names the root document in diagnostics.
const RootFile = "<root>"

// FileResolver locates the text behind an #include.
type FileResolver interface {
	Resolve(name string, kind IncludeKind) (string, error)
}

// ResolverFunc adapts a function to FileResolver.
type ResolverFunc func(name string, kind IncludeKind) (string, error)

func (f ResolverFunc) Resolve(name string, kind IncludeKind) (string, error) {
	return f(name, kind)
}

// ---------------- Preprocessor ----------------

// Preprocessor harvests the macros that survive conditional compilation of
// a root document and everything it includes. It holds configuration only;
// each Run starts with a fresh macro table.
type Preprocessor struct {
	Resolver FileResolver
	Logger   *log.Logger

	predefined []MacroDefinition
}

func NewPreprocessor(r FileResolver) *Preprocessor {
	return &Preprocessor{Resolver: r}
}

// Define seeds every run with def, as if it were #defined before the root
// document.
func (p *Preprocessor) Define(def MacroDefinition) {
	p.predefined = append(p.predefined, def)
}

// Result is everything one run produces.
type Result struct {
	// Macros live at the end of the run, in definition order.
	Macros []MacroDefinition
	// Code holds the tokens of active non-directive lines, one newline
	// token per line.
	Code Tokens
	// Files lists included files in the order they were processed.
	Files []string
}

// Process runs the root document and returns the surviving macros.
func (p *Preprocessor) Process(rootText string) ([]MacroDefinition, error) {
	res, err := p.Run(rootText)
	if err != nil {
		return nil, err
	}
	return res.Macros, nil
}

func (p *Preprocessor) Run(rootText string) (*Result, error) {
	r := &run{
		p:         p,
		macros:    NewTable(),
		processed: map[string]bool{},
		cond:      newCondStack(),
		file:      RootFile,
	}
	for _, def := range p.predefined {
		r.macros.Define(def)
	}
	if err := r.processText(rootText); err != nil {
		return nil, err
	}
	if r.cond.Depth() != 1 {
		file, line := r.cond.Unclosed()
		return nil, &StructuralError{Pos: position(file, line), Msg: "unterminated conditional directive"}
	}
	return &Result{Macros: r.macros.Macros(), Code: r.code, Files: r.files}, nil
}

// run is the state of one Process call. The macro table, the processed
// file set and the conditional stack are shared by every nested include.
type run struct {
	p         *Preprocessor
	macros    *Table
	processed map[string]bool
	cond      *condStack
	code      Tokens
	files     []string

	file string
	line int
}

func position(file string, line int) lexer.Position {
	return lexer.Position{Filename: file, Line: line, Column: 1}
}

func (r *run) pos() lexer.Position { return position(r.file, r.line) }

func (r *run) logf(format string, args ...any) {
	if r.p.Logger == nil {
		return
	}
	r.p.Logger.Printf("%s: "+format, append([]any{r.pos()}, args...)...)
}

func (r *run) processText(text string) error {
	norm, err := Normalize(text)
	if err != nil {
		var se *StructuralError
		if errors.As(err, &se) && se.Pos.Filename == "" {
			se.Pos.Filename = r.file
		}
		return err
	}
	for i, line := range strings.Split(norm, "\n") {
		r.line = i + 1
		if err := r.processLine(line); err != nil {
			return locate(err, r.pos())
		}
	}
	return nil
}

func (r *run) processLine(line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	toks := Tokenize(line)
	if len(toks) == 0 {
		return structuralf(nil, "no tokens in non-blank line %q", line)
	}
	d, ok := parseDirective(toks)
	if !ok {
		if r.cond.Active() {
			r.code = append(r.code, toks...)
			r.code = append(r.code, Token{Kind: TokSpace, Text: "\n"})
		}
		return nil
	}
	return r.handleDirective(d)
}

func (r *run) handleDirective(d directive) error {
	// Conditional directives are tracked even inside skipped groups.
	switch d.name {
	case "":
		return nil

	case "ifdef", "ifndef":
		if len(d.params) == 0 {
			return structuralf(d.params, "#%s without macro name", d.name)
		}
		cond := Tokens{{Kind: TokWord, Text: "defined"}, {Kind: TokSpace, Text: " "}, d.params[0]}
		if d.name == "ifndef" {
			cond = concatTokens(Tokens{{Kind: TokOperator, Text: "!"}, {Kind: TokSpace, Text: " "}}, cond)
		}
		return r.pushIf(cond)

	case "if":
		return r.pushIf(d.params)

	case "elif":
		return r.cond.Elif(func() (bool, error) {
			return r.evaluate(d.params)
		})

	case "else":
		return r.cond.Else()

	case "endif":
		return r.cond.Pop()
	}

	if !r.cond.Active() {
		return nil
	}

	switch d.name {
	case "define":
		def, err := parseMacroDefinition(d.params)
		if err != nil {
			return err
		}
		r.macros.Define(def)
		return nil

	case "undef":
		if len(d.params) != 1 || !d.params[0].IsWord() {
			return structuralf(d.params, "bad #undef")
		}
		r.macros.Undefine(d.params[0].Text)
		return nil

	case "include":
		name, kind, err := parseIncludeDirective(d.params)
		if err != nil {
			return err
		}
		return r.include(name, kind)

	default:
		r.logf("ignoring #%s", d.name)
		return nil
	}
}

func (r *run) pushIf(cond Tokens) error {
	v := false
	if r.cond.Active() {
		var err error
		if v, err = r.evaluate(cond); err != nil {
			return err
		}
	}
	r.cond.Push(v, r.file, r.line)
	return nil
}

func (r *run) evaluate(cond Tokens) (bool, error) {
	return EvaluateCondition(cond, r.macros.Lookup)
}

// include processes a file at most once per run, keyed by its
// case-folded name, as if every header carried an include guard.
func (r *run) include(name string, kind IncludeKind) error {
	key := strings.ToLower(name)
	if r.processed[key] {
		r.logf("skipping %s, already processed", kind.Quote(name))
		return nil
	}
	r.processed[key] = true

	if r.p.Resolver == nil {
		return &ResolveError{Name: name, Kind: kind, Err: errors.New("no include resolver configured")}
	}
	text, err := r.p.Resolver.Resolve(name, kind)
	if err != nil {
		return &ResolveError{Name: name, Kind: kind, Err: err}
	}
	r.logf("include %s", kind.Quote(name))
	r.files = append(r.files, name)

	prevFile, prevLine := r.file, r.line
	r.file = name
	defer func() { r.file, r.line = prevFile, prevLine }()
	return r.processText(text)
}

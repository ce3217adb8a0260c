package preprocessor

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// StructuralError reports input the engine cannot parse: malformed
// directives, unbalanced conditionals, bad macro invocations.
type StructuralError struct {
	Pos    lexer.Position
	Msg    string
	Tokens string
}

func (e *StructuralError) Error() string {
	if e.Tokens == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %q", e.Pos, e.Msg, e.Tokens)
}

// ResolveError reports an #include that no search directory satisfies.
type ResolveError struct {
	Pos  lexer.Position
	Name string
	Kind IncludeKind
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: include %s: %v", e.Pos, e.Kind.Quote(e.Name), e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// EvalError reports a constant expression that does not reduce to a single
// integer literal.
type EvalError struct {
	Pos  lexer.Position
	Msg  string
	Expr string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s: %s: %q", e.Pos, e.Msg, e.Expr)
}

func structuralf(toks Tokens, format string, args ...any) error {
	return &StructuralError{Msg: fmt.Sprintf(format, args...), Tokens: toks.String()}
}

func evalf(toks Tokens, format string, args ...any) error {
	return &EvalError{Msg: fmt.Sprintf(format, args...), Expr: toks.String()}
}

// locate fills in the position of an error raised below the line level.
func locate(err error, pos lexer.Position) error {
	var se *StructuralError
	var ee *EvalError
	var re *ResolveError
	switch {
	case errors.As(err, &se):
		if se.Pos.Line == 0 {
			se.Pos = pos
		}
	case errors.As(err, &ee):
		if ee.Pos.Line == 0 {
			ee.Pos = pos
		}
	case errors.As(err, &re):
		if re.Pos.Line == 0 {
			re.Pos = pos
		}
	}
	return err
}

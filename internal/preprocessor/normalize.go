package preprocessor

import (
	"strings"
)

// ---------------- Normalizer ----------------

// Normalize prepares raw header text for line-by-line processing: it splices
// backslash-continued lines, strips comments and coalesces whitespace, in
// that order. The number of lines is preserved so line numbers in
// diagnostics stay accurate.
func Normalize(text string) (string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spliceLines(text)
	text, err := stripComments(text)
	if err != nil {
		return "", err
	}
	return coalesceWhitespace(text), nil
}

// spliceLines joins every line ending in a backslash with its successor and
// emits one empty line per consumed newline after the joined line.
func spliceLines(text string) string {
	if !strings.Contains(text, "\\\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		spliced := 0
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = line[:len(line)-1] + lines[i]
			spliced++
		}
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Repeat("\n", spliced))
	}
	return b.String()
}

func stripComments(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	line := 1
	for i := 0; i < len(text); {
		if end, ok := scanLiteral(text, i); ok {
			b.WriteString(text[i:end])
			line += strings.Count(text[i:end], "\n")
			i = end
			continue
		}
		if strings.HasPrefix(text[i:], "/*") {
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				return "", &StructuralError{Pos: position("", line), Msg: "unterminated comment"}
			}
			body := text[i : i+2+j+2]
			nl := strings.Count(body, "\n")
			b.WriteString(strings.Repeat("\n", nl))
			line += nl
			i += len(body)
			continue
		}
		if strings.HasPrefix(text[i:], "//") {
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				break
			}
			i += j
			continue
		}
		if text[i] == '\n' {
			line++
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String(), nil
}

// coalesceWhitespace collapses horizontal whitespace runs to a single space
// and drops indentation at the start of every line.
func coalesceWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lineStart := true
	for i := 0; i < len(text); {
		ch := text[i]
		if end, ok := scanLiteral(text, i); ok {
			b.WriteString(text[i:end])
			lineStart = false
			i = end
			continue
		}
		switch {
		case ch == '\n':
			b.WriteByte('\n')
			lineStart = true
			i++
		case isHorizontalSpace(ch) || ch == '\r':
			j := i + 1
			for j < len(text) && (isHorizontalSpace(text[j]) || text[j] == '\r') {
				j++
			}
			if !lineStart {
				b.WriteByte(' ')
			}
			i = j
		default:
			b.WriteByte(ch)
			lineStart = false
			i++
		}
	}
	return b.String()
}

// scanLiteral recognizes a quoted string, a character literal or a C++ raw
// string starting at i and returns the index just past it.
func scanLiteral(s string, i int) (int, bool) {
	switch s[i] {
	case '"', '\'':
		return scanQuoted(s, i)
	case 'R':
		if i+1 < len(s) && s[i+1] == '"' && rawStringPrefix(s, i) {
			return scanRawString(s, i+1)
		}
	}
	return 0, false
}

// scanQuoted matches a quoted literal that closes on the same line.
func scanQuoted(s string, i int) (int, bool) {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if j+1 < len(s) && s[j+1] != '\n' {
				j++
			}
		case '\n':
			return 0, false
		case quote:
			return j + 1, true
		}
	}
	return 0, false
}

// rawStringPrefix reports whether the R at i starts a raw string literal,
// optionally after an L, u, U or u8 encoding prefix.
func rawStringPrefix(s string, i int) bool {
	start := i
	switch {
	case i >= 2 && s[i-2:i] == "u8":
		start = i - 2
	case i >= 1 && (s[i-1] == 'L' || s[i-1] == 'u' || s[i-1] == 'U'):
		start = i - 1
	}
	return start == 0 || !isWordByte(s[start-1])
}

// scanRawString matches R"delim( ... )delim" with q at the opening quote.
func scanRawString(s string, q int) (int, bool) {
	open := strings.IndexByte(s[q+1:], '(')
	if open < 0 || open > 16 {
		return 0, false
	}
	delim := s[q+1 : q+1+open]
	if strings.ContainsAny(delim, " \\)\t\n") {
		return 0, false
	}
	body := q + 1 + open + 1
	closing := ")" + delim + "\""
	end := strings.Index(s[body:], closing)
	if end < 0 {
		return 0, false
	}
	return body + end + len(closing), true
}

package include

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwessels/macroharvest/internal/preprocessor"
)

// Resolver finds include files in an ordered list of directories. Both
// include kinds search the same list; the first directory holding the file
// wins.
type Resolver struct {
	Dirs []string
}

func NewResolver(dirs ...string) *Resolver {
	return &Resolver{Dirs: dirs}
}

// Resolve implements preprocessor.FileResolver.
func (r *Resolver) Resolve(name string, kind preprocessor.IncludeKind) (string, error) {
	path, err := r.Find(name)
	if err != nil {
		return "", err
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// Find returns the path behind an include name. Backslashes are accepted as
// separators. Within each directory an exact match is tried first, then a
// component-by-component case-insensitive match.
func (r *Resolver) Find(name string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(rel) {
		if fileExists(rel) {
			return filepath.Clean(rel), nil
		}
		return "", &fs.PathError{Op: "open", Path: rel, Err: fs.ErrNotExist}
	}
	for _, dir := range r.Dirs {
		cand := filepath.Join(dir, rel)
		if fileExists(cand) {
			return filepath.Clean(cand), nil
		}
		if cand, ok := foldLookup(dir, rel); ok {
			return cand, nil
		}
	}
	return "", fmt.Errorf("%s not found in %d include directories: %w", name, len(r.Dirs), fs.ErrNotExist)
}

// foldLookup walks rel below dir matching each component against the
// directory entries without regard to case.
func foldLookup(dir, rel string) (string, bool) {
	cur := dir
	for _, comp := range strings.Split(filepath.ToSlash(rel), "/") {
		switch comp {
		case "", ".":
			continue
		case "..":
			cur = filepath.Join(cur, "..")
			continue
		}
		entries, err := os.ReadDir(cur)
		if err != nil {
			return "", false
		}
		match := ""
		for _, e := range entries {
			if e.Name() == comp {
				match = comp
				break
			}
			if match == "" && strings.EqualFold(e.Name(), comp) {
				match = e.Name()
			}
		}
		if match == "" {
			return "", false
		}
		cur = filepath.Join(cur, match)
	}
	if !fileExists(cur) {
		return "", false
	}
	return filepath.Clean(cur), true
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// ParseSearchList splits a ';'-separated directory list, the format of the
// INCLUDE environment variable. Blank entries are dropped.
func ParseSearchList(s string) []string {
	var dirs []string
	for _, d := range strings.Split(s, ";") {
		d = strings.TrimSpace(d)
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// ReadSearchListFile reads a search list from a file. Line breaks count as
// separators too.
func ReadSearchListFile(path string) ([]string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("include paths: %w", err)
	}
	text := strings.NewReplacer("\r\n", ";", "\n", ";").Replace(string(bs))
	return ParseSearchList(text), nil
}

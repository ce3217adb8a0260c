package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kballard/go-shellquote"
	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
	"modernc.org/opt"

	"github.com/fwessels/macroharvest/internal/include"
)

// Environment variables read by ApplyEnv.
const (
	EnvInclude  = "INCLUDE"
	EnvCPPFlags = "MACROHARVEST_CPPFLAGS"
	EnvVerbose  = "MACROHARVEST_VERBOSE"
)

// Config collects every setting of a harvest. The zero value harvests
// nothing.
type Config struct {
	IncludeDirs      []string `yaml:"include_dirs"`
	IncludePathsFile string   `yaml:"include_paths_file"`
	Headers          []string `yaml:"headers"`
	Defines          []string `yaml:"defines"`
	Prefix           string   `yaml:"prefix"`
	Output           string   `yaml:"output"`
	Verbose          bool     `yaml:"verbose"`
}

// Load reads a YAML config file. Unknown keys are an error.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	var c Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// ApplyEnv layers the environment over c: INCLUDE and the -I flags of
// MACROHARVEST_CPPFLAGS extend the search list, its -D flags extend the
// defines and MACROHARVEST_VERBOSE turns on logging. The environment is
// reread on every call.
func (c *Config) ApplyEnv() error {
	env.Load()
	c.IncludeDirs = append(c.IncludeDirs, include.ParseSearchList(env.Str(EnvInclude))...)
	if flags := env.Str(EnvCPPFlags); flags != "" {
		dirs, defines, err := ParseCPPFlags(flags)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCPPFlags, err)
		}
		c.IncludeDirs = append(c.IncludeDirs, dirs...)
		c.Defines = append(c.Defines, defines...)
	}
	if env.Bool(EnvVerbose) {
		c.Verbose = true
	}
	return nil
}

// SearchDirs returns the include directories followed by those listed in
// IncludePathsFile.
func (c *Config) SearchDirs() ([]string, error) {
	dirs := append([]string(nil), c.IncludeDirs...)
	if c.IncludePathsFile == "" {
		return dirs, nil
	}
	more, err := include.ReadSearchListFile(c.IncludePathsFile)
	if err != nil {
		return nil, err
	}
	return append(dirs, more...), nil
}

// ParseCPPFlags picks the -I and -D options out of a shell-quoted compiler
// command line. Both the joined (-Idir) and the separate (-I dir) spelling
// are accepted; everything else is ignored.
func ParseCPPFlags(s string) (dirs, defines []string, err error) {
	args, err := shellquote.Split(s)
	if err != nil {
		return nil, nil, err
	}
	set := opt.NewSet()
	set.Arg("I", true, func(_, arg string) error { dirs = append(dirs, arg); return nil })
	set.Arg("D", true, func(_, arg string) error { defines = append(defines, arg); return nil })
	if err := set.Parse(args, func(arg string) error { return nil }); err != nil {
		return nil, nil, err
	}
	return dirs, defines, nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fwessels/macroharvest"
	"github.com/fwessels/macroharvest/internal/config"
)

// stringList is a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ";") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

const usage = `Usage: macroharvest [flags] header...

Prints the macros defined after processing the headers in order, one
name<TAB>parameters<TAB>value line each.

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("macroharvest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	var (
		dirs, defines stringList
		includePaths  = fs.String("include-paths", "", "read a semicolon-separated include search list from `file`")
		configFile    = fs.String("config", "", "read settings from YAML `file`")
		prefix        = fs.String("prefix", "", "only print macros whose name starts with `prefix`")
		output        = fs.String("o", "", "write to `file` instead of standard output")
		verbose       = fs.Bool("v", false, "log included files and ignored directives")
	)
	fs.Var(&dirs, "I", "append `dir` to the include search list (repeatable)")
	fs.Var(&defines, "D", "predefine `NAME[=VALUE]` (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := &config.Config{}
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg.IncludeDirs = append(cfg.IncludeDirs, dirs...)
	cfg.Defines = append(cfg.Defines, defines...)
	if *includePaths != "" {
		cfg.IncludePathsFile = *includePaths
	}
	if fs.NArg() > 0 {
		cfg.Headers = fs.Args()
	}
	if *prefix != "" {
		cfg.Prefix = *prefix
	}
	if *output != "" {
		cfg.Output = *output
	}
	cfg.Verbose = cfg.Verbose || *verbose

	if len(cfg.Headers) == 0 {
		fs.Usage()
		return 2
	}
	if err := harvest(cfg, stdout, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func harvest(cfg *config.Config, stdout, stderr io.Writer) (err error) {
	dirs, err := cfg.SearchDirs()
	if err != nil {
		return err
	}
	var logger *log.Logger
	if cfg.Verbose {
		logger = log.New(stderr, "macroharvest: ", 0)
	}
	macros, err := macroharvest.Harvest(cfg.Headers, macroharvest.Options{
		IncludeDirs: dirs,
		Defines:     cfg.Defines,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	if cfg.Prefix != "" {
		macros = macroharvest.FilterPrefix(macros, cfg.Prefix)
	}
	if logger != nil {
		logger.Printf("%d macros from %d headers", len(macros), len(cfg.Headers))
	}

	if cfg.Output == "" {
		return macroharvest.WriteMacros(stdout, macros)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return macroharvest.WriteMacros(f, macros)
}

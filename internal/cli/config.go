// Package cli translates process arguments into the immutable configuration
// that parameterizes the preprocessor.
//
// The accepted surface is deliberately small:
//
//	rowcat <data_file> [--buffer N] [--cache_dir PATH]
//
// Flags take either an inline value (--buffer=4) or the following token
// (--buffer 4) and may appear before or after the data file. The first token
// that is not a flag or a flag value is the data source; any later
// positional is accepted and ignored.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DefaultBufferWidth is the buffering width used when --buffer is absent or
// its value does not parse as a positive integer.
const DefaultBufferWidth = 1

// ErrMissingDataSource is returned by Parse when no positional argument
// names a data file.
var ErrMissingDataSource = errors.New("missing data file argument")

// Config is the parsed process configuration. It is built once at startup
// and never mutated afterwards.
type Config struct {
	// DataSource is the path of the file handed to the preprocessor.
	DataSource string

	// BufferWidth is the preprocessor's row buffering width, always >= 1.
	BufferWidth int

	// CacheDir is the optional preprocessor cache directory. Empty means
	// caching is disabled.
	CacheDir string
}

// Parse scans args (the process arguments without the program name) into a
// Config.
//
// The scanner has two states: in the default state it classifies each token
// as a flag, an inline flag assignment, or a positional; after a bare flag
// token it consumes exactly one more token as that flag's value. A --buffer
// value that is not a positive integer silently leaves the default in
// place; this permissive fallback is observable CLI behavior and is kept on
// purpose. The only hard error is a missing data source.
func Parse(args []string) (Config, error) {
	cfg := Config{BufferWidth: DefaultBufferWidth}
	seenDataSource := false
	pendingFlag := ""

	for _, arg := range args {
		if pendingFlag != "" {
			applyFlag(&cfg, pendingFlag, arg)
			pendingFlag = ""
			continue
		}
		switch {
		case arg == "--buffer" || arg == "--cache_dir":
			pendingFlag = arg
		case strings.HasPrefix(arg, "--buffer="):
			applyFlag(&cfg, "--buffer", strings.TrimPrefix(arg, "--buffer="))
		case strings.HasPrefix(arg, "--cache_dir="):
			applyFlag(&cfg, "--cache_dir", strings.TrimPrefix(arg, "--cache_dir="))
		default:
			if !seenDataSource {
				cfg.DataSource = arg
				seenDataSource = true
			}
			// Extra positionals are accepted and ignored.
		}
	}
	// A flag left waiting for a value at the end of the list consumes
	// nothing and keeps the default.

	if !seenDataSource {
		return Config{}, ErrMissingDataSource
	}
	return cfg, nil
}

func applyFlag(cfg *Config, flag, raw string) {
	switch flag {
	case "--buffer":
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.BufferWidth = n
		} else {
			cfg.BufferWidth = DefaultBufferWidth
		}
	case "--cache_dir":
		cfg.CacheDir = raw
	}
}

// Usage writes the usage message for the program to w.
func Usage(w io.Writer, prog string) {
	fmt.Fprintf(w, "Usage: %s <data_file> [--buffer N] [--cache_dir PATH]\n\n", prog)
	fmt.Fprintf(w, "Stream preprocessed rows of a tabular data file as JSON lines.\n\n")
	fmt.Fprintf(w, "Options:\n")
	fmt.Fprintf(w, "  --buffer N        row buffering width (default %d)\n", DefaultBufferWidth)
	fmt.Fprintf(w, "  --cache_dir PATH  directory for the preprocessor cache\n")
}

// Command rowcat streams preprocessed rows of a tabular data file to
// standard output as JSON lines, preceded by a fixed start banner.
//
// Usage:
//
//	rowcat <data_file> [--buffer N] [--cache_dir PATH]
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vegasq/rowcat/internal/cli"
	"github.com/vegasq/rowcat/internal/output"
	"github.com/vegasq/rowcat/internal/preproc"
)

func main() {
	prog := "rowcat"
	if len(os.Args) > 0 {
		prog = filepath.Base(os.Args[0])
	}
	os.Exit(run(prog, os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole program minus os.Exit and os.Args, so the binary
// surface stays testable. It returns the process exit status.
func run(prog string, args []string, stdout, stderr io.Writer) int {
	cfg, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		cli.Usage(stderr, prog)
		return 1
	}

	p := preproc.New(cfg.BufferWidth, cfg.CacheDir)
	if err := p.Open(cfg.DataSource); err != nil {
		fmt.Fprintf(stderr, "Error: cannot open %s: %v\n", cfg.DataSource, err)
		return 1
	}
	defer func() { _ = p.Close() }()

	w := output.NewWriter(stdout)
	if err := w.Banner(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for {
		row, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = w.Flush()
			fmt.Fprintf(stderr, "Error: reading %s: %v\n", cfg.DataSource, err)
			return 1
		}
		if err := w.WriteRow(row); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

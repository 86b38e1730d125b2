// Package preproc implements the buffering, caching preprocessor that turns
// a tabular data file into a lazy stream of rows.
//
// A Preprocessor is constructed from a buffering width and an optional
// cache directory, opened against one data file, and then drained through
// repeated Next calls. The row sequence is finite, forward-only and
// non-restartable; one row is materialized at a time and rows are pulled
// from the underlying decoder in windows of the buffering width.
//
// Supported inputs, selected by file extension: .csv, .tsv, .jsonl, .json
// (a single top-level array) and .parquet. The text formats may carry an
// additional .gz suffix for transparent gzip decompression.
//
// When a cache directory is configured, preprocessed rows are persisted as
// they are produced, together with a progress record. A later run over the
// same source replays cached rows before touching the source again: a
// completed run replays the whole cache, an interrupted run resumes where
// it stopped.
package preproc

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vegasq/rowcat/internal/value"
)

// Preprocessor owns the data source handle and all caching state. It is
// not safe for concurrent use; the intended shape is one owner pulling
// rows to exhaustion.
type Preprocessor struct {
	bufferWidth int
	cacheDir    string

	dec    rowDecoder
	cache  *rowCache
	window []value.Row
	skip   int
	opened bool
	eof    bool
}

// New creates a preprocessor with the given buffering width and optional
// cache directory (empty disables caching). Widths below 1 are raised to 1.
func New(bufferWidth int, cacheDir string) *Preprocessor {
	if bufferWidth < 1 {
		bufferWidth = 1
	}
	return &Preprocessor{bufferWidth: bufferWidth, cacheDir: cacheDir}
}

// Open binds the preprocessor to a data file. It must be called exactly
// once before Next; any failure here is fatal to the pipeline.
func (p *Preprocessor) Open(path string) error {
	if p.opened {
		return errors.New("preprocessor is already open")
	}

	name := strings.ToLower(filepath.Base(path))
	compressed := strings.HasSuffix(name, ".gz")
	stem := strings.TrimSuffix(name, ".gz")
	ext := strings.TrimPrefix(filepath.Ext(stem), ".")

	switch ext {
	case "csv", "tsv":
		src, closer, err := openText(path, compressed)
		if err != nil {
			return err
		}
		comma := ','
		if ext == "tsv" {
			comma = '\t'
		}
		p.dec = newCSVDecoder(src, closer, comma)
	case "jsonl":
		src, closer, err := openText(path, compressed)
		if err != nil {
			return err
		}
		p.dec = newJSONLDecoder(src, closer)
	case "json":
		src, closer, err := openText(path, compressed)
		if err != nil {
			return err
		}
		p.dec = newJSONArrayDecoder(src, closer)
	case "parquet":
		if compressed {
			return fmt.Errorf("unsupported file extension: %q (parquet cannot be gzip wrapped)", name)
		}
		dec, err := newParquetDecoder(path)
		if err != nil {
			return err
		}
		p.dec = dec
	default:
		return fmt.Errorf("unsupported file extension: %q", name)
	}

	if p.cacheDir != "" {
		cache, err := openCache(p.cacheDir, path)
		if err != nil {
			_ = p.dec.Close()
			p.dec = nil
			return err
		}
		p.cache = cache
		p.skip = cache.skipRows()
	}

	p.opened = true
	return nil
}

// Next returns the next row of the stream, or io.EOF once it is exhausted.
// Rows come back in production order, exactly once each.
func (p *Preprocessor) Next() (value.Row, error) {
	if !p.opened {
		return nil, errors.New("preprocessor is not open")
	}

	if p.cache != nil {
		row, ok, err := p.cache.nextCached()
		if err != nil {
			return nil, err
		}
		if ok {
			return row, nil
		}
	}

	if len(p.window) == 0 {
		if err := p.fill(); err != nil {
			return nil, err
		}
	}
	if len(p.window) == 0 {
		if p.cache != nil {
			if err := p.cache.finish(); err != nil {
				return nil, err
			}
		}
		return nil, io.EOF
	}

	row := p.window[0]
	p.window = p.window[1:]
	if p.cache != nil {
		if err := p.cache.append(row); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// fill tops the window up to the buffering width, discarding any source
// rows that earlier cached runs already consumed.
func (p *Preprocessor) fill() error {
	for !p.eof && len(p.window) < p.bufferWidth {
		row, err := p.dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				p.eof = true
				break
			}
			return err
		}
		if p.skip > 0 {
			p.skip--
			continue
		}
		p.window = append(p.window, row)
	}
	return nil
}

// Close releases the data source handle and any cache handles. It is safe
// to call after a failed Open.
func (p *Preprocessor) Close() error {
	var err error
	if p.dec != nil {
		err = p.dec.Close()
		p.dec = nil
	}
	if p.cache != nil {
		if err2 := p.cache.close(); err == nil {
			err = err2
		}
		p.cache = nil
	}
	return err
}

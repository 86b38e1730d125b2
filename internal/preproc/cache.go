package preproc

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/zeebo/xxh3"

	"github.com/vegasq/rowcat/internal/value"
)

// cacheMeta is the persisted progress record for one cached source file.
// ProcessedInput counts raw source rows consumed, CachedOutputs counts rows
// written to the cache, and ResumeIndex is the next cache line to replay.
// A completed run resets ResumeIndex to zero so the next run replays the
// whole cache.
type cacheMeta struct {
	ProcessedInput int  `json:"processed_input"`
	CachedOutputs  int  `json:"cached_outputs"`
	ResumeIndex    int  `json:"resume_index"`
	Completed      bool `json:"completed"`
}

// rowCache persists preprocessed rows next to a progress record so an
// interrupted run can resume and a completed run can replay without
// touching the source. Cache entries use the canonical row encoding, one
// row per line, keyed by a hash of the absolute source path.
type rowCache struct {
	rowsPath string
	metaPath string
	meta     cacheMeta

	replayFile *os.File
	scanner    *bufio.Scanner
	appendFile *os.File
	buf        []byte
}

func openCache(dir, source string) (*rowCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}
	key := fmt.Sprintf("%016x", xxh3.HashString(abs))

	c := &rowCache{
		rowsPath: filepath.Join(dir, key+".jsonl"),
		metaPath: filepath.Join(dir, key+".meta.json"),
	}

	if data, err := os.ReadFile(c.metaPath); err == nil {
		if err := json.Unmarshal(data, &c.meta); err != nil {
			// Corrupt metadata: discard the cache and rebuild.
			c.meta = cacheMeta{}
			_ = os.Remove(c.rowsPath)
		}
	}

	if c.meta.CachedOutputs > 0 {
		file, err := os.Open(c.rowsPath)
		if err != nil {
			// Metadata without cache rows is unusable; rebuild.
			c.meta = cacheMeta{}
		} else {
			scanner := bufio.NewScanner(file)
			scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
			for i := 0; i < c.meta.ResumeIndex && scanner.Scan(); i++ {
			}
			c.replayFile = file
			c.scanner = scanner
		}
	}

	return c, nil
}

// nextCached replays the next cached row, if any remain. The second return
// is false once replay is exhausted (or was never active).
func (c *rowCache) nextCached() (value.Row, bool, error) {
	if c.scanner == nil {
		return nil, false, nil
	}
	for c.scanner.Scan() {
		line := bytes.TrimSpace(c.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		row, err := decodeRowBytes(line)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt cache entry: %w", err)
		}
		c.meta.ResumeIndex++
		if err := c.saveMeta(); err != nil {
			return nil, false, err
		}
		return row, true, nil
	}
	err := c.scanner.Err()
	_ = c.replayFile.Close()
	c.replayFile = nil
	c.scanner = nil
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return nil, false, nil
}

// skipRows reports how many raw source rows were already consumed by
// earlier runs and must be skipped before producing fresh rows.
func (c *rowCache) skipRows() int {
	return c.meta.ProcessedInput
}

// append records one freshly produced row in the cache.
func (c *rowCache) append(row value.Row) error {
	if c.appendFile == nil {
		file, err := os.OpenFile(c.rowsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open cache file: %w", err)
		}
		c.appendFile = file
	}
	line := row.AppendJSON(c.buf[:0])
	line = append(line, '\n')
	c.buf = line
	if _, err := c.appendFile.Write(line); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	c.meta.ProcessedInput++
	c.meta.CachedOutputs++
	c.meta.ResumeIndex++
	return c.saveMeta()
}

// finish marks the stream as fully consumed and rewinds the replay cursor
// so later runs serve the whole cache.
func (c *rowCache) finish() error {
	if c.meta.Completed && c.meta.ResumeIndex == 0 {
		return nil
	}
	c.meta.ResumeIndex = 0
	c.meta.Completed = true
	return c.saveMeta()
}

// saveMeta rewrites the metadata file atomically: a uniquely named temp
// file in the same directory, then a rename over the old one.
func (c *rowCache) saveMeta() error {
	data, err := json.Marshal(&c.meta)
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}
	tmp := c.metaPath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	if err := os.Rename(tmp, c.metaPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace cache metadata: %w", err)
	}
	return nil
}

func (c *rowCache) close() error {
	var err error
	if c.replayFile != nil {
		err = c.replayFile.Close()
		c.replayFile = nil
		c.scanner = nil
	}
	if c.appendFile != nil {
		if err2 := c.appendFile.Close(); err == nil {
			err = err2
		}
		c.appendFile = nil
	}
	return err
}

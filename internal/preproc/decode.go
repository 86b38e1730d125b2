package preproc

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/rowcat/internal/value"
)

// maxLineBytes bounds a single jsonl input or cache line.
const maxLineBytes = 16 << 20

// rowDecoder produces rows from one data source, front to back. Next
// returns io.EOF once the source is exhausted.
type rowDecoder interface {
	Next() (value.Row, error)
	Close() error
}

// openText opens a text-format data file, transparently decompressing a
// gzip stream. The returned closer tears down the whole chain.
func openText(path string, compressed bool) (io.Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	if !compressed {
		return f, f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	return zr, &chainCloser{first: zr, second: f}, nil
}

type chainCloser struct {
	first, second io.Closer
}

func (c *chainCloser) Close() error {
	err := c.first.Close()
	if err2 := c.second.Close(); err == nil {
		err = err2
	}
	return err
}

// parsePrimitive maps one delimited-text cell to a Value. Booleans win over
// everything, then canonical base-10 integers, then finite floats; anything
// else stays the original untrimmed text.
func parsePrimitive(text string) value.Value {
	trimmed := strings.TrimSpace(text)
	switch strings.ToLower(trimmed) {
	case "true":
		return value.BoolValue(true)
	case "false":
		return value.BoolValue(false)
	}
	if trimmed == "" {
		return value.StringValue("")
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		// "-0" is integer zero; other non-canonical spellings ("007",
		// "+5") fall through to the float parse.
		if strconv.FormatInt(i, 10) == trimmed || trimmed == "-0" {
			return value.IntValue(i)
		}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return value.FloatValue(f)
	}
	return value.StringValue(text)
}

// csvDecoder reads comma or tab separated files. The first record is the
// header and defines both the column names and their order; short data
// records pad the missing trailing cells with empty strings.
type csvDecoder struct {
	r      *csv.Reader
	closer io.Closer
	header []string
	read   bool
}

func newCSVDecoder(src io.Reader, closer io.Closer, comma rune) *csvDecoder {
	r := csv.NewReader(src)
	r.Comma = comma
	r.FieldsPerRecord = -1
	return &csvDecoder{r: r, closer: closer}
}

func (d *csvDecoder) Next() (value.Row, error) {
	if !d.read {
		d.read = true
		header, err := d.r.Read()
		if err != nil {
			return nil, err
		}
		d.header = header
	}
	record, err := d.r.Read()
	if err != nil {
		return nil, err
	}
	row := make(value.Row, 0, len(d.header))
	for i, name := range d.header {
		cell := value.StringValue("")
		if i < len(record) {
			cell = parsePrimitive(record[i])
		}
		row = append(row, value.Field{Name: name, Value: cell})
	}
	return row, nil
}

func (d *csvDecoder) Close() error {
	return d.closer.Close()
}

// jsonlDecoder reads one JSON object per line, skipping blank lines.
type jsonlDecoder struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

func newJSONLDecoder(src io.Reader, closer io.Closer) *jsonlDecoder {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &jsonlDecoder{scanner: scanner, closer: closer}
}

func (d *jsonlDecoder) Next() (value.Row, error) {
	for d.scanner.Scan() {
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return decodeRowBytes(line)
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (d *jsonlDecoder) Close() error {
	return d.closer.Close()
}

// jsonArrayDecoder streams objects out of a single top-level JSON array
// without materializing the array.
type jsonArrayDecoder struct {
	dec     *json.Decoder
	closer  io.Closer
	started bool
	done    bool
}

func newJSONArrayDecoder(src io.Reader, closer io.Closer) *jsonArrayDecoder {
	dec := json.NewDecoder(src)
	dec.UseNumber()
	return &jsonArrayDecoder{dec: dec, closer: closer}
}

func (d *jsonArrayDecoder) Next() (value.Row, error) {
	if d.done {
		return nil, io.EOF
	}
	if !d.started {
		d.started = true
		tok, err := d.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.done = true
				return nil, io.EOF
			}
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			return nil, fmt.Errorf("invalid json: expected top-level array, got %v", tok)
		}
	}
	if !d.dec.More() {
		d.done = true
		if _, err := d.dec.Token(); err != nil { // closing bracket
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		return nil, io.EOF
	}
	return decodeRowTokens(d.dec)
}

func (d *jsonArrayDecoder) Close() error {
	return d.closer.Close()
}

// decodeRowBytes decodes a single JSON object, preserving key order.
func decodeRowBytes(data []byte) (value.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return decodeRowTokens(dec)
}

// decodeRowTokens walks the decoder's token stream through one object.
// Token-level decoding is what keeps the column order; decoding into a Go
// map would lose it.
func decodeRowTokens(dec *json.Decoder) (value.Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("invalid json: expected object, got %v", tok)
	}
	row := value.Row{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid json: expected object key, got %v", keyTok)
		}
		v, err := decodeScalarToken(dec, key)
		if err != nil {
			return nil, err
		}
		row = append(row, value.Field{Name: key, Value: v})
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return row, nil
}

func decodeScalarToken(dec *json.Decoder, column string) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value.Value{}, fmt.Errorf("invalid json: %w", err)
	}
	switch x := tok.(type) {
	case nil:
		return value.NullValue(), nil
	case bool:
		return value.BoolValue(x), nil
	case string:
		return value.StringValue(x), nil
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := x.Int64(); err == nil {
				return value.IntValue(i), nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return value.Value{}, fmt.Errorf("invalid json number %q in column %q", x.String(), column)
		}
		return value.FloatValue(f), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported non-scalar value in column %q", column)
	}
}

// parquetDecoder reads parquet files one row at a time. Column order comes
// from the file schema, since the row maps handed back by the parquet
// reader are unordered.
type parquetDecoder struct {
	file   *os.File
	reader *parquet.Reader
	fields []string
}

func newParquetDecoder(path string) (*parquetDecoder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	fields := pqFile.Schema().Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name())
	}

	return &parquetDecoder{
		file:   file,
		reader: parquet.NewReader(pqFile),
		fields: names,
	}, nil
}

func (d *parquetDecoder) Next() (value.Row, error) {
	record := make(map[string]interface{})
	if err := d.reader.Read(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	row := make(value.Row, 0, len(d.fields))
	for _, name := range d.fields {
		row = append(row, value.Field{Name: name, Value: value.FromAny(record[name])})
	}
	return row, nil
}

func (d *parquetDecoder) Close() error {
	err := d.reader.Close()
	if err2 := d.file.Close(); err == nil {
		err = err2
	}
	return err
}

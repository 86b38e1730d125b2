// Package output writes the row stream protocol: a fixed start banner
// followed by one JSON object per line, in row production order.
package output

import (
	"bufio"
	"io"

	"github.com/vegasq/rowcat/internal/value"
)

// banner marks the start of the pipeline output. It is written exactly
// once, before any row, whether or not the stream turns out to be empty.
const banner = "---\nSTARTING\n---\n"

// Writer emits the banner-plus-JSON-lines stream. Output is buffered;
// callers must Flush when the stream ends.
type Writer struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriter creates a stream writer on top of w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Banner writes the start banner.
func (w *Writer) Banner() error {
	_, err := w.w.WriteString(banner)
	return err
}

// WriteRow writes one row as a newline-terminated JSON object.
func (w *Writer) WriteRow(row value.Row) error {
	w.buf = row.AppendJSON(w.buf[:0])
	w.buf = append(w.buf, '\n')
	_, err := w.w.Write(w.buf)
	return err
}

// Flush pushes any buffered output to the destination.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

package preproc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/vegasq/rowcat/internal/value"
)

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// writeFile drops content into a fresh temp dir and returns the file path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

// writeGzipFile is writeFile with gzip compression applied.
func writeGzipFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write gzip data: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close test file: %v", err)
	}
	return path
}

// assertEncoded compares the canonical encoding of each row against want,
// which doubles as an order check on both rows and columns.
func assertEncoded(t *testing.T, rows []value.Row, want []string) {
	t.Helper()
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if got := row.EncodeJSON(); got != want[i] {
			t.Errorf("row %d = %s, want %s", i, got, want[i])
		}
	}
}

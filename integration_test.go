package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCapture(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run("rowcat", args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeDataFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	path := writeDataFile(t, "data.csv", "id,name\n1,x\n2,y\n")

	code, stdout, stderr := runCapture(t, path)
	if code != 0 {
		t.Fatalf("run() = %d, want 0 (stderr: %s)", code, stderr)
	}

	want := "---\nSTARTING\n---\n" +
		"{\"id\": 1, \"name\": \"x\"}\n" +
		"{\"id\": 2, \"name\": \"y\"}\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

func TestRunMissingArgumentIsAUsageError(t *testing.T) {
	code, stdout, stderr := runCapture(t)
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty (no banner on usage errors)", stdout)
	}
	if !strings.Contains(stderr, "Usage: rowcat") {
		t.Errorf("stderr = %q, want a usage line", stderr)
	}
}

// The usage message names whatever program name the caller hands in; run
// never reaches for os.Args itself.
func TestRunUsageUsesGivenProgramName(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run("tablestream", nil, &out, &errOut); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "Usage: tablestream") {
		t.Errorf("stderr = %q, want usage line naming tablestream", errOut.String())
	}
}

func TestRunOpenFailureIsFatal(t *testing.T) {
	code, stdout, stderr := runCapture(t, filepath.Join(t.TempDir(), "absent.csv"))
	if code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "cannot open") {
		t.Errorf("stderr = %q, want an open failure message", stderr)
	}
}

func TestRunEmptySourceStillPrintsBanner(t *testing.T) {
	path := writeDataFile(t, "data.csv", "")

	code, stdout, _ := runCapture(t, path)
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	if stdout != "---\nSTARTING\n---\n" {
		t.Errorf("stdout = %q, want banner only", stdout)
	}
}

func TestRunUnparseableBufferFallsBackSilently(t *testing.T) {
	path := writeDataFile(t, "data.csv", "n\n1\n")

	code, stdout, stderr := runCapture(t, path, "--buffer=abc")
	if code != 0 {
		t.Fatalf("run() = %d, want 0 (stderr: %s)", code, stderr)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want empty (bad buffer values are silent)", stderr)
	}
	want := "---\nSTARTING\n---\n{\"n\": 1}\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestRunJSONLSource(t *testing.T) {
	path := writeDataFile(t, "data.jsonl",
		`{"b": 2, "a": "first"}`+"\n"+`{"b": 3, "a": "second"}`+"\n")

	code, stdout, _ := runCapture(t, path, "--buffer", "2")
	if code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}
	want := "---\nSTARTING\n---\n" +
		"{\"b\": 2, \"a\": \"first\"}\n" +
		"{\"b\": 3, \"a\": \"second\"}\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestRunWithCacheDirIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	cacheDir := filepath.Join(dir, "cache")
	if err := os.WriteFile(path, []byte("id,name\n1,x\n2,y\n"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	code, first, stderr := runCapture(t, path, "--cache_dir", cacheDir)
	if code != 0 {
		t.Fatalf("first run = %d, want 0 (stderr: %s)", code, stderr)
	}

	code, second, stderr := runCapture(t, path, "--cache_dir", cacheDir)
	if code != 0 {
		t.Fatalf("second run = %d, want 0 (stderr: %s)", code, stderr)
	}
	if first != second {
		t.Errorf("cached run output differs:\nfirst:  %q\nsecond: %q", first, second)
	}
}

package atomicfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFile_CreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.bib")

	if err := WriteFile(path, []byte("first"), 0); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteFile(path, []byte("second"), 0); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp files left behind)", len(entries))
	}
}

func TestWriteReader_CountsBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")

	n, err := WriteReader(path, strings.NewReader("%PDF-1.4 body"), 0o600)
	if err != nil {
		t.Fatalf("WriteReader() error = %v", err)
	}
	if n != 13 {
		t.Errorf("WriteReader() = %d bytes, want 13", n)
	}
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "ref.bib")
	if err := WriteFile(path, []byte("x"), 0); err == nil {
		t.Error("WriteFile() into missing directory should fail")
	}
}

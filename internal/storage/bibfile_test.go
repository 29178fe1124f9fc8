package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/refman/internal/bibtex"
)

const sampleBib = `% personal additions
@string{nat = "Nature"}

@article{Smith_2020_a1b2c3d,
  title = {First},
}

@book{handwritten,
    title  = "Kept   As   Is",
    year   = 1999
}

@misc{Jones_2021_e4f5a6b,
  title = {Third},
}
`

func writeBib(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ref.bib")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadBibFile_Missing(t *testing.T) {
	b, err := ReadBibFile(filepath.Join(t.TempDir(), "ref.bib"))
	if err != nil {
		t.Fatalf("ReadBibFile() error = %v", err)
	}
	if len(b.Keys()) != 0 || b.String() != "" {
		t.Errorf("missing file read as %q", b.String())
	}
}

func TestBibFile_LosslessRoundTrip(t *testing.T) {
	path := writeBib(t, sampleBib)
	b, err := ReadBibFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := b.String(); got != sampleBib {
		t.Errorf("round trip changed the file:\n%s", got)
	}
	keys := b.Keys()
	want := []string{"Smith_2020_a1b2c3d", "handwritten", "Jones_2021_e4f5a6b"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestBibFile_PutReplaces(t *testing.T) {
	b, _ := ReadBibFile(writeBib(t, sampleBib))
	b.Put("Smith_2020_a1b2c3d", "@article{Smith_2020_a1b2c3d,\n  title = {Replaced},\n}\n")

	want := `% personal additions
@string{nat = "Nature"}

@article{Smith_2020_a1b2c3d,
  title = {Replaced},
}

@book{handwritten,
    title  = "Kept   As   Is",
    year   = 1999
}

@misc{Jones_2021_e4f5a6b,
  title = {Third},
}
`
	if got := b.String(); got != want {
		t.Errorf("Put(existing) =\n%s\nwant\n%s", got, want)
	}
}

func TestBibFile_PutAppends(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		want    string
	}{
		{"empty", "", "@misc{New,\n  title = {N},\n}\n"},
		{"trailing newline", "@misc{A,\n  x = 1,\n}\n", "@misc{A,\n  x = 1,\n}\n\n@misc{New,\n  title = {N},\n}\n"},
		{"no trailing newline", "@misc{A,\n  x = 1,\n}", "@misc{A,\n  x = 1,\n}\n\n@misc{New,\n  title = {N},\n}\n"},
		{"blank line", "@misc{A,\n  x = 1,\n}\n\n", "@misc{A,\n  x = 1,\n}\n\n@misc{New,\n  title = {N},\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BibFile{chunks: bibtex.Split(tt.initial)}
			b.Put("New", "@misc{New,\n  title = {N},\n}\n")
			if got := b.String(); got != tt.want {
				t.Errorf("Put() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBibFile_Remove(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"first", "A", "@misc{B,\n  x = 2,\n}\n\n@misc{C,\n  x = 3,\n}\n"},
		{"middle", "B", "@misc{A,\n  x = 1,\n}\n\n@misc{C,\n  x = 3,\n}\n"},
		{"last", "C", "@misc{A,\n  x = 1,\n}\n\n@misc{B,\n  x = 2,\n}\n"},
	}
	initial := "@misc{A,\n  x = 1,\n}\n\n@misc{B,\n  x = 2,\n}\n\n@misc{C,\n  x = 3,\n}\n"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &BibFile{chunks: bibtex.Split(initial)}
			if !b.Remove(tt.key) {
				t.Fatalf("Remove(%q) = false", tt.key)
			}
			if got := b.String(); got != tt.want {
				t.Errorf("Remove(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}

	b := &BibFile{chunks: bibtex.Split(initial)}
	if b.Remove("missing") {
		t.Error("Remove(missing) = true")
	}
}

func TestBibFile_RemoveKeepsComments(t *testing.T) {
	b, _ := ReadBibFile(writeBib(t, sampleBib))
	b.Remove("Smith_2020_a1b2c3d")
	got := b.String()
	if _, ok := b.Entry("handwritten"); !ok {
		t.Error("unrelated entry lost")
	}
	if want := "% personal additions\n@string{nat = \"Nature\"}\n\n@book{handwritten,"; got[:len(want)] != want {
		t.Errorf("Remove() disturbed the preamble:\n%s", got)
	}
}

func TestBibFile_Rename(t *testing.T) {
	b, _ := ReadBibFile(writeBib(t, sampleBib))
	if err := b.Rename("handwritten", "Knuth_1999_fffffff"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	text, ok := b.Entry("Knuth_1999_fffffff")
	if !ok {
		t.Fatal("renamed entry not found")
	}
	want := "@book{Knuth_1999_fffffff,\n    title  = \"Kept   As   Is\",\n    year   = 1999\n}"
	if text != want {
		t.Errorf("renamed entry = %q, want %q", text, want)
	}
	if err := b.Rename("missing", "x"); err == nil {
		t.Error("Rename(missing) succeeded")
	}
}

func TestBibFile_ResetAndUnknown(t *testing.T) {
	b, _ := ReadBibFile(writeBib(t, sampleBib))
	unknown := b.Unknown(map[string]bool{"Smith_2020_a1b2c3d": true, "Jones_2021_e4f5a6b": true})
	if len(unknown) != 1 || unknown[0] != "handwritten" {
		t.Errorf("Unknown() = %v", unknown)
	}

	b.Reset([]bibtex.Chunk{
		{Key: "A", Text: "@misc{A,\n  x = 1,\n}\n"},
		{Key: "B", Text: "@misc{B,\n  x = 2,\n}"},
	})
	if got, want := b.String(), "@misc{A,\n  x = 1,\n}\n\n@misc{B,\n  x = 2,\n}\n"; got != want {
		t.Errorf("Reset() = %q, want %q", got, want)
	}
}

func TestBibFile_Save(t *testing.T) {
	path := writeBib(t, sampleBib)
	b, _ := ReadBibFile(path)
	b.Put("New", "@misc{New,\n  title = {N},\n}")
	if err := b.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != b.String() {
		t.Error("saved file differs from memory")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

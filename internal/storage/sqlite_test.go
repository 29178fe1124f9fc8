package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matsen/refman/internal/reference"
)

// setupTestDB opens a cache in a temp dir loaded with testRecords.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Rebuild(testRecords()); err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}
	return db
}

func keysOf(records []reference.Record) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Key
	}
	return keys
}

func TestOpenDB_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("OpenDB() did not create database file")
	}
	count, err := db.Count()
	if err != nil || count != 0 {
		t.Errorf("Count() = %d, %v; want 0", count, err)
	}
}

func TestDB_Rebuild(t *testing.T) {
	db := setupTestDB(t)

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}

	// rebuild replaces everything
	if err := db.Rebuild(testRecords()[:1]); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	count, _ = db.Count()
	if count != 1 {
		t.Errorf("Count() after rebuild = %d, want 1", count)
	}
	results, err := db.Search("genomics", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale FTS rows after rebuild: %v", keysOf(results))
	}
}

func TestDB_GetByKey(t *testing.T) {
	db := setupTestDB(t)

	r, err := db.GetByKey("Smith_2020_a1b2c3d")
	if err != nil {
		t.Fatalf("GetByKey() error = %v", err)
	}
	if r == nil {
		t.Fatal("GetByKey() returned nil")
	}
	if r.DOI != "10.1234/Smith" || len(r.Authors) != 2 || !r.Verified {
		t.Errorf("GetByKey() = %+v", r)
	}

	r, err = db.GetByKey("missing")
	if err != nil || r != nil {
		t.Errorf("GetByKey(missing) = %v, %v; want nil, nil", r, err)
	}
}

func TestDB_ListAll(t *testing.T) {
	db := setupTestDB(t)

	all, err := db.ListAll(0)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	want := []string{"Smith_2020_a1b2c3d", "Jones_2021_e4f5a6b", "Brown_2019_0c0ffee"}
	got := keysOf(all)
	if len(got) != len(want) {
		t.Fatalf("ListAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListAll()[%d] = %q, want %q (index order)", i, got[i], want[i])
		}
	}

	limited, _ := db.ListAll(2)
	if len(limited) != 2 {
		t.Errorf("ListAll(2) returned %d records", len(limited))
	}
}

func TestDB_Search(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"learning", []string{"Smith_2020_a1b2c3d", "Jones_2021_e4f5a6b"}},
		{"protein", []string{"Jones_2021_e4f5a6b"}},
		{"Doe", []string{"Smith_2020_a1b2c3d"}},
		{"stat genom", []string{"Brown_2019_0c0ffee"}},
		{"2019", []string{"Brown_2019_0c0ffee"}},
		{"Jones_2021", []string{"Jones_2021_e4f5a6b"}},
		{`"learning" biology`, []string{"Smith_2020_a1b2c3d"}},
		{"nonexistent", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := db.Search(tt.query, 10)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.query, err)
			}
			got := map[string]bool{}
			for _, k := range keysOf(results) {
				got[k] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, keysOf(results), tt.want)
			}
			for _, k := range tt.want {
				if !got[k] {
					t.Errorf("Search(%q) missing %s", tt.query, k)
				}
			}
		})
	}
}

func TestDB_SearchField(t *testing.T) {
	db := setupTestDB(t)

	results, err := db.SearchField("author", "white", 10)
	if err != nil {
		t.Fatalf("SearchField() error = %v", err)
	}
	if len(results) != 1 || results[0].Key != "Brown_2019_0c0ffee" {
		t.Errorf("SearchField(author, white) = %v", keysOf(results))
	}

	// "Smith" is an author, not a title word
	results, _ = db.SearchField("title", "smith", 10)
	if len(results) != 0 {
		t.Errorf("SearchField(title, smith) = %v", keysOf(results))
	}

	if _, err := db.SearchField("venue", "x", 10); err == nil {
		t.Error("SearchField(venue) should fail")
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"deep learning", `"deep"* AND "learning"*`},
		{`"quoted"`, `"quoted"*`},
		{`a"b`, `"a""b"*`},
		{"prefix*", `"prefix"*`},
	}
	for _, tt := range tests {
		if got := prepareFTSQuery(tt.in); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/refman/internal/reference"
	_ "modernc.org/sqlite"
)

// DB is the SQLite query cache. It is derived from the index and can be
// deleted and rebuilt at any time.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			doi TEXT,
			arxiv_id TEXT,
			pmid TEXT,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			year TEXT,
			entry_type TEXT NOT NULL,
			document_filename TEXT,
			verified INTEGER NOT NULL,
			position INTEGER NOT NULL,
			record_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_doi ON records(lower(doi)) WHERE doi IS NOT NULL;

		-- Standalone FTS table, rebuilt together with records
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			key,
			title,
			authors_text,
			year
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the cache and loads records, keeping their index order.
func (d *DB) Rebuild(records []reference.Record) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("starting rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("clearing records table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM records_fts"); err != nil {
		return fmt.Errorf("clearing records_fts table: %w", err)
	}

	recStmt, err := tx.Prepare(`
		INSERT INTO records (
			key, doi, arxiv_id, pmid, title, author, year, entry_type,
			document_filename, verified, position, record_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing records insert: %w", err)
	}
	defer recStmt.Close()

	ftsStmt, err := tx.Prepare(`INSERT INTO records_fts (key, title, authors_text, year) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for i, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encoding record %s: %w", r.Key, err)
		}
		_, err = recStmt.Exec(
			r.Key, nullableString(r.DOI), nullableString(r.Identifiers.ArXiv), nullableString(r.Identifiers.PMID),
			r.Title, r.Author, nullableString(r.Year), r.EntryType,
			nullableString(r.DocumentFilename), r.Verified, i, string(data),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", r.Key, err)
		}
		if _, err := ftsStmt.Exec(r.Key, r.Title, formatAuthorsText(r.Authors), r.Year); err != nil {
			return fmt.Errorf("inserting fts for %s: %w", r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}
	return nil
}

func formatAuthorsText(authors []reference.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.First != "" {
			names = append(names, a.First+" "+a.Last)
		} else {
			names = append(names, a.Last)
		}
	}
	return strings.Join(names, ", ")
}

// GetByKey retrieves a record by key. A missing key yields nil, nil.
func (d *DB) GetByKey(key string) (*reference.Record, error) {
	var data string
	err := d.db.QueryRow(`SELECT record_json FROM records WHERE key = ?`, key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r reference.Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", key, err)
	}
	return &r, nil
}

// Search runs a full-text query over key, title, authors and year.
// Results are ranked by relevance.
func (d *DB) Search(query string, limit int) ([]reference.Record, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT r.record_json
		FROM records_fts JOIN records r ON r.key = records_fts.key
		WHERE records_fts MATCH ?
		ORDER BY records_fts.rank
		LIMIT ?`, ftsQuery, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SearchField searches the author or title column only.
func (d *DB) SearchField(field, value string, limit int) ([]reference.Record, error) {
	var column string
	switch field {
	case "author":
		column = "authors_text"
	case "title":
		column = "title"
	default:
		return nil, fmt.Errorf("unknown search field: %s", field)
	}
	ftsQuery := prepareFTSQuery(value)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.Query(`
		SELECT r.record_json
		FROM records_fts JOIN records r ON r.key = records_fts.key
		WHERE records_fts MATCH ?
		ORDER BY records_fts.rank
		LIMIT ?`, column+": ("+ftsQuery+")", limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", field, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListAll returns records in index order, optionally limited.
func (d *DB) ListAll(limit int) ([]reference.Record, error) {
	rows, err := d.db.Query(`SELECT record_json FROM records ORDER BY position LIMIT ?`, limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Count returns the number of cached records.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&count)
	return count, err
}

func scanRecords(rows *sql.Rows) ([]reference.Record, error) {
	var records []reference.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r reference.Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// limitArg maps "no limit" (<= 0) to SQLite's -1.
func limitArg(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// nullableString converts a string to sql.NullString, treating empty as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery turns free text into an FTS5 query: every word becomes a
// quoted prefix term and all terms must match.
func prepareFTSQuery(query string) string {
	var terms []string
	for _, word := range strings.Fields(query) {
		word = strings.Trim(word, `"*`)
		if word == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(word, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " AND ")
}

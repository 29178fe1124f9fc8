// Package config resolves the store root and holds the global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvDataRoot names the store root environment variable.
	EnvDataRoot = "REFMAN_DATA"
	// DefaultDataRoot is used when nothing else names a store root.
	DefaultDataRoot = "refman_data"

	IndexFile    = "records.jsonl"
	BibFile      = "ref.bib"
	DocumentsDir = "papers"
	CacheDir     = ".cache"
	DBFile       = "records.db"
	LockFile     = ".refman.lock"
)

// Root source names, reported with the resolved root.
const (
	RootFromFlag    = "flag"
	RootFromEnv     = "env"
	RootFromConfig  = "config"
	RootFromDefault = "default"
)

// ResolveRoot picks the store root: the flag value, then $REFMAN_DATA, then
// the global data_path, then ./refman_data. It returns the root and where
// it came from.
func ResolveRoot(flag string) (string, string, error) {
	if flag != "" {
		return absRoot(flag, RootFromFlag)
	}
	if env := os.Getenv(EnvDataRoot); env != "" {
		return absRoot(env, RootFromEnv)
	}
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return "", "", err
	}
	if cfg.DataPath != "" {
		return absRoot(cfg.DataPath, RootFromConfig)
	}
	return absRoot(DefaultDataRoot, RootFromDefault)
}

func absRoot(path, source string) (string, string, error) {
	abs, err := filepath.Abs(ExpandPath(path))
	if err != nil {
		return "", "", fmt.Errorf("resolving store root %s: %w", path, err)
	}
	return abs, source, nil
}

// Paths locates the files of one store.
type Paths struct {
	Root string
}

// IndexPath returns the path to records.jsonl.
func (p Paths) IndexPath() string {
	return filepath.Join(p.Root, IndexFile)
}

// BibPath returns the path to ref.bib.
func (p Paths) BibPath() string {
	return filepath.Join(p.Root, BibFile)
}

// DocumentsPath returns the path to the papers directory.
func (p Paths) DocumentsPath() string {
	return filepath.Join(p.Root, DocumentsDir)
}

// DocumentPath returns the path of a document file.
func (p Paths) DocumentPath(filename string) string {
	return filepath.Join(p.Root, DocumentsDir, filename)
}

// CachePath returns the path to the cache directory.
func (p Paths) CachePath() string {
	return filepath.Join(p.Root, CacheDir)
}

// DBPath returns the path to the SQLite cache.
func (p Paths) DBPath() string {
	return filepath.Join(p.Root, CacheDir, DBFile)
}

// LockPath returns the path to the store lock file.
func (p Paths) LockPath() string {
	return filepath.Join(p.Root, LockFile)
}

// EnsureDirs creates the store root and its subdirectories.
func (p Paths) EnsureDirs() error {
	for _, dir := range []string{p.Root, p.DocumentsPath(), p.CachePath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if path != "~" && (len(path) < 2 || path[0] != '~' || !os.IsPathSeparator(path[1])) {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}

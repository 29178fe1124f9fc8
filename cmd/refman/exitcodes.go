package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error, or an identifier failed to resolve
	ExitConfigError = 2 // Configuration error (bad config file, unusable data directory)
	ExitDataError   = 3 // Data error (malformed BibTeX, invalid key, unreadable store)
	ExitNotFound    = 4 // No record with the given key or identifier
	ExitConflict    = 5 // Target key already exists
	ExitLocked      = 6 // Another refman process holds the store lock
)

package backend

import (
	"context"
	"time"

	"vye/internal/store"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// PostgREST specific
	URL     string
	Key     string
	Schema  string
	Timeout time.Duration

	// SQLite specific
	SQLiteDBPath string
	// Seed loads the demo data set into an empty SQLite database.
	Seed bool
}

// BackendType represents the type of backend.
type BackendType string

const (
	PostgRESTBackend BackendType = "postgrest"
	SQLiteBackend    BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case PostgRESTBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

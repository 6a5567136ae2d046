package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vye/internal/store/postgrest"
	"vye/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, now: time.Now}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case PostgRESTBackend:
		return f.createPostgRESTBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createPostgRESTBackend(config Config) (*BackendResult, error) {
	client, err := postgrest.New(postgrest.Config{
		URL:     config.URL,
		Key:     config.Key,
		Schema:  config.Schema,
		Timeout: config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgREST client: %w", err)
	}

	f.logger.Info("Initialized PostgREST backend", "schema", config.Schema, "timeout", config.Timeout)

	st := postgrest.NewStore(client, f.logger)
	return &BackendResult{Store: st, Cleanup: st.Close}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	st, err := sqlite.Open(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	if config.Seed {
		seeded, err := st.Seed(ctx, f.now())
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("seed SQLite store: %w", err)
		}
		f.logger.Info("Demo data", "seeded", seeded)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: st, Cleanup: st.Close}, nil
}

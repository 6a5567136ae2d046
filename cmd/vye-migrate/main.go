package main

import (
	"context"
	"flag"

	"vye/internal/cli"
	"vye/internal/config"
	"vye/internal/log"
)

func main() {
	seed := flag.Bool("seed", false, "load the demo data set into an empty database")
	flag.Parse()

	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(log.ComponentMigrate)

	// Only the local store carries its own schema.
	cfg.DataBackend = config.BackendSQLite
	cli.MustValidate(logger, cfg)

	res := cli.OpenBackend(context.Background(), logger, cfg, *seed)
	if err := res.Cleanup(); err != nil {
		logger.Warn("Failed to close store", log.FieldError, err)
	}
	logger.Info("Migrations applied", "path", cfg.SQLiteDBPath, "seed", *seed)
}

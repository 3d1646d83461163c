// Package app wires a workspace directory into a ready engine.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"wineinventory/internal/config"
	"wineinventory/internal/db"
	"wineinventory/internal/engine"
	"wineinventory/internal/migrate"
)

// Open loads the workspace config (defaults when absent), opens and migrates
// the database and returns an engine over it. The caller closes the returned
// connection.
func Open(ctx context.Context, workspace string) (engine.Engine, *sql.DB, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return engine.Engine{}, nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return engine.Engine{}, nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("open %s: %w", db.Path(workspace), err)
	}
	if _, err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, err
	}
	return engine.New(conn, cfg), conn, nil
}

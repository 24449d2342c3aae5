// Package database opens the SQL handle backing the governance store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver (no CGO)

	"condo/internal/governance/store/sqlstore"
	"condo/internal/platform/config"
)

// Open connects to the configured database and verifies it answers.
// SQLite handles are limited to one connection so writers never see
// "database is locked".
func Open(ctx context.Context, cfg config.Storage) (*sql.DB, sqlstore.Dialect, error) {
	var (
		driver  string
		dialect sqlstore.Dialect
	)
	switch cfg.Driver {
	case "postgres":
		driver, dialect = "postgres", sqlstore.DialectPostgres
	case "pgx":
		driver, dialect = "pgx", sqlstore.DialectPostgres
	case "sqlite":
		driver, dialect = "sqlite", sqlstore.DialectSQLite
	default:
		return nil, "", fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", driver, err)
	}
	if dialect == sqlstore.DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s database: %w", driver, err)
	}
	return db, dialect, nil
}

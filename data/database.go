package data

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MariaDB/MySQL driver, registered for side effects
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver, used for local runs and tests

	"user_server_go/config"
)

// Open connects to the database described by cfg and applies the pool settings.
// The connection is verified with a ping bounded by the pool's connection timeout;
// on failure the pool is closed and the error returned.
func Open(ctx context.Context, cfg *config.DatabaseConfig, pool *config.PoolConfig) (*sqlx.DB, error) {
	if pool == nil {
		pool = config.DefaultPoolConfig()
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if isMemorySQLite(cfg) {
		// Every connection to an in-memory SQLite database sees its own empty
		// database, and closing the only one drops the data.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(pool.MaximumPoolSize)
		db.SetMaxIdleConns(min(pool.MinimumIdle, pool.MaximumPoolSize))
		db.SetConnMaxIdleTime(pool.IdleTimeout())
		db.SetConnMaxLifetime(pool.MaxLifetime())
	}

	pingCtx := ctx
	if d := pool.ConnectTimeout(); d > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

func isMemorySQLite(cfg *config.DatabaseConfig) bool {
	return cfg.Driver == config.DriverSQLite && strings.Contains(cfg.Database, ":memory:")
}

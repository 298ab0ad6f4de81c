package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx database/sql driver
	"github.com/klokku/calmcash/internal/config"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // register sqlite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const pingTimeout = 5 * time.Second

// Open opens the SQL database backing the sqlite or postgres session store.
func Open(cfg config.Store) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case config.StoreSQLite:
		path := cfg.ResolvedPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, "", fmt.Errorf("creating database dir: %w", err)
		}
		db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, "", fmt.Errorf("opening sqlite database: %w", err)
		}
		return db, SQLite, nil
	case config.StorePostgres:
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse database config: %w", err)
		}
		db.SetMaxOpenConns(5)

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, "", fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, Postgres, nil
	default:
		return nil, "", fmt.Errorf("store driver %q is not SQL backed", cfg.Driver)
	}
}

// Migrate applies the embedded migrations to db using golang-migrate.
func Migrate(db *sql.DB, dialect Dialect) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case SQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	case Postgres:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migration driver: %w", dialect, err)
	}

	// m is not closed: closing it would close db as well.
	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, _, _ := m.Version()
	log.Debugf("%s session store schema at version %d", dialect, version)
	return nil
}

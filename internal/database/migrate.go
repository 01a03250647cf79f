package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// borrowedDriver leaves the underlying handle open when migrate closes it.
type borrowedDriver struct {
	migratedb.Driver
}

func (borrowedDriver) Close() error { return nil }

// runMigrations applies the embedded migrations for dialect ("postgres" or
// "sqlite"). Unless keepOpen is set db is consumed: the migrate driver
// closes it.
func runMigrations(db *sql.DB, dialect string, keepOpen bool, logger *zap.Logger) error {
	release := func() {
		if !keepOpen {
			db.Close()
		}
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		release()
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var driver migratedb.Driver
	switch dialect {
	case "postgres":
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	case "sqlite":
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unknown dialect %q", dialect)
	}
	if err != nil {
		src.Close()
		release()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	if keepOpen {
		driver = borrowedDriver{driver}
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Warn("Could not get migration version", zap.Error(err))
	} else {
		logger.Info("Migration completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	return nil
}

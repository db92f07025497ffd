// Package migration applies versioned SQL migrations with golang-migrate.
//
// Migration files follow the VERSION_name.up.sql / VERSION_name.down.sql
// pattern and are read from any fs.FS, usually an embed.FS owned by the
// package whose tables they create:
//
//	//go:embed migrations/*.sql
//	var migrationsFS embed.FS
//
//	err := migration.Up(gormDB, migrationsFS, "migrations", migration.DriverFor("sqlite"))
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

// DriverFunc creates a migrate database driver from sql.DB.
type DriverFunc func(*sql.DB) (database.Driver, error)

// DriverFor returns the migrate driver for a database driver name.
// Unknown names yield a DriverFunc that always fails.
func DriverFor(name string) DriverFunc {
	switch name {
	case "sqlite", "sqlite3":
		return func(db *sql.DB) (database.Driver, error) {
			return migratesqlite.WithInstance(db, &migratesqlite.Config{})
		}
	case "mysql":
		return func(db *sql.DB) (database.Driver, error) {
			return migratemysql.WithInstance(db, &migratemysql.Config{})
		}
	default:
		return func(*sql.DB) (database.Driver, error) {
			return nil, fmt.Errorf("no migration driver for %q", name)
		}
	}
}

// Up runs all pending migrations. migrate.ErrNoChange is not an error.
func Up(gormDB *gorm.DB, fsys fs.FS, path string, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, fsys, path, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back all applied migrations.
func Down(gormDB *gorm.DB, fsys fs.FS, path string, driverFunc DriverFunc) error {
	m, err := newMigrator(gormDB, fsys, path, driverFunc)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Version returns the current migration version and dirty flag.
// A database without applied migrations reports version 0.
func Version(gormDB *gorm.DB, fsys fs.FS, path string, driverFunc DriverFunc) (uint, bool, error) {
	m, err := newMigrator(gormDB, fsys, path, driverFunc)
	if err != nil {
		return 0, false, err
	}
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// newMigrator must not be followed by m.Close(): that would close the
// sql.DB shared with GORM.
func newMigrator(gormDB *gorm.DB, fsys fs.FS, path string, driverFunc DriverFunc) (*migrate.Migrate, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	driver, err := driverFunc(sqlDB)
	if err != nil {
		return nil, fmt.Errorf("create database driver: %w", err)
	}

	source, err := iofs.New(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "database", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

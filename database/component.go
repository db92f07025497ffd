package database

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/kbukum/licensing/component"
	"github.com/kbukum/licensing/database/migration"
	"github.com/kbukum/licensing/logger"
)

// Component wraps DB and implements component.Component for lifecycle management.
type Component struct {
	db     *DB
	cfg    Config
	log    *logger.Logger
	models []interface{}

	migrations     fs.FS
	migrationsPath string
}

var _ component.Component = (*Component)(nil)

// NewComponent creates a database component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{
		cfg: cfg,
		log: log.WithComponent("database"),
	}
}

// WithAutoMigrate registers models for GORM auto-migration on Start.
func (c *Component) WithAutoMigrate(models ...interface{}) *Component {
	c.models = append(c.models, models...)
	return c
}

// WithMigrations registers versioned SQL migrations applied on Start when
// Config.Migrate is set.
func (c *Component) WithMigrations(fsys fs.FS, path string) *Component {
	c.migrations = fsys
	c.migrationsPath = path
	return c
}

// DB returns the underlying *DB, or nil if not started.
func (c *Component) DB() *DB {
	return c.db
}

// Name returns the component name.
func (c *Component) Name() string { return "database" }

// Start connects to the database and runs the configured migrations.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("Database disabled")
		return nil
	}

	db, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("database start: %w", err)
	}
	c.db = db

	if c.cfg.Migrate && c.migrations != nil {
		if err := migration.Up(db.GormDB, c.migrations, c.migrationsPath, migration.DriverFor(c.cfg.Driver)); err != nil {
			return fmt.Errorf("database migrate: %w", err)
		}
		c.log.Info("Versioned migrations applied", logger.Fields("path", c.migrationsPath))
	}
	if c.cfg.AutoMigrate && len(c.models) > 0 {
		if err := db.AutoMigrate(c.models...); err != nil {
			return fmt.Errorf("database auto-migrate: %w", err)
		}
	}
	return nil
}

// Stop closes the connection pool.
func (c *Component) Stop(_ context.Context) error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Health pings the database.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: "disabled"}
	}
	if c.db == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "database not initialized"}
	}

	status := c.db.CheckHealth(ctx)
	if !status.Connected {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %s", status.Error),
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the startup log.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s pool=%d/%d", c.cfg.Driver, c.cfg.MaxOpenConns, c.cfg.MaxIdleConns)
	if c.cfg.Migrate {
		details += " migrate=on"
	}
	if c.cfg.AutoMigrate {
		details += " auto-migrate=on"
	}
	return component.Description{
		Name:    "Database",
		Type:    "database",
		Details: details,
	}
}

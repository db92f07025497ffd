// Package database provides a GORM-based database component with connection
// pooling, health checks, transactions and migrations.
//
// The driver is chosen by Config.Driver: "sqlite" (gorm.io/driver/sqlite) or
// "mysql" (gorm.io/driver/mysql). Schemas are created either by GORM
// auto-migration of registered models or by versioned SQL files applied with
// the migration subpackage.
//
//	comp := database.NewComponent(cfg.Database, log).
//	    WithMigrations(license.Migrations, "migrations").
//	    WithAutoMigrate(&license.License{})
//	registry.Register(comp)
//
// FromDatabase translates GORM errors into AppErrors so repository callers
// see NOT_FOUND, ALREADY_EXISTS or DATABASE_ERROR.
package database

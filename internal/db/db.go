// Package db opens the SQL database behind the sqlite and postgres store
// backends and applies its migrations.
package db

import (
	"fmt"
	"time"

	"github.com/diewo77/cobbler-crm/internal/config"
	"github.com/diewo77/cobbler-crm/internal/store"
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectWait     = 2 * time.Second
)

// Open connects to the database selected by cfg.Store.Backend ("sqlite"
// or "postgres"), retrying while the server starts up.
func Open(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Store.Backend {
	case "sqlite":
		dialector = sqlite.Open(cfg.Store.SQLitePath)
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		return nil, fmt.Errorf("db: backend %q is not a SQL backend", cfg.Store.Backend)
	}

	logLevel := logger.Silent
	if cfg.Database.Debug {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gcfg)
		if err == nil {
			break
		}
		log.WithFields(logrus.Fields{"module": "db", "attempt": i + 1, "backend": cfg.Store.Backend}).
			WithError(err).Warn("database connection failed, retrying")
		time.Sleep(connectWait)
	}
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	return db, nil
}

// Migrate applies the schema migrations. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20240501_create_kv_entries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&store.Entry{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&store.Entry{})
			},
		},
		{
			ID: "20240612_index_kv_entries_updated_at",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_kv_entries_updated_at ON kv_entries (updated_at)").Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_kv_entries_updated_at").Error
			},
		},
	})
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

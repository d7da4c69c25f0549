package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bankcards/internal/config"
	"bankcards/internal/logging"
	"bankcards/internal/model"
	"bankcards/internal/repository"
	"bankcards/internal/repository/memory"
)

// Open returns a connected GORM DB for the configured driver.
func Open(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(logging.GormWriter{Logger: log}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("access %s pool: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return gormDB, nil
}

// Models lists every table owned by the service, in creation order.
func Models() []interface{} {
	return []interface{}{
		&model.Card{},
		&model.TransferRecord{},
	}
}

// Migrate creates or updates the schema. With reset the tables are dropped first.
func Migrate(gormDB *gorm.DB, reset bool, log logrus.FieldLogger) error {
	if reset {
		log.Warn("database.reset is set, dropping all tables")
		models := Models()
		for i := len(models) - 1; i >= 0; i-- {
			if err := gormDB.Migrator().DropTable(models[i]); err != nil {
				log.WithError(err).Warn("drop table failed (may not exist)")
			}
		}
	}
	if err := gormDB.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// OpenStore builds the Store for the configured driver. The memory driver
// needs no connection and keeps data for the life of the process.
func OpenStore(cfg config.DatabaseConfig, log logrus.FieldLogger) (repository.Store, error) {
	if cfg.Driver == "memory" {
		log.Warn("using in-memory store, data is lost on exit")
		return memory.New(), nil
	}

	gormDB, err := Open(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(gormDB, cfg.Reset, log); err != nil {
		return nil, err
	}
	return repository.NewStore(gormDB), nil
}

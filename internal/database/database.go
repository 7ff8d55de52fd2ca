package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pageza/recipe-api/backend/config"
)

// Open connects to the database selected by cfg.DBDriver. Postgres
// connections go through lib/pq so migrations can run multi-statement
// scripts.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: NewGormLogger(log, gormlogger.Warn),
	}

	switch cfg.DBDriver {
	case config.DriverPostgres:
		log.Info("connecting to database",
			zap.String("host", cfg.DBHost),
			zap.String("port", cfg.DBPort),
			zap.String("user", cfg.DBUser),
			zap.String("database", cfg.DBName))

		sqlDB, err := sql.Open("postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("error opening database: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error connecting to the database: %w", err)
		}

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("error initializing gorm: %w", err)
		}
		log.Info("successfully connected to database")
		return db, nil

	case config.DriverSQLite:
		log.Info("opening sqlite database", zap.String("path", cfg.SQLitePath))
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath+"?_foreign_keys=on"), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("error opening sqlite database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Infof(format, args...)
}

// NewGormLogger routes GORM's slow-query and error output through zap.
func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(zapWriter{log: log.Named("gorm").Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

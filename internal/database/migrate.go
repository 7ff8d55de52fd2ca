package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/model"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// MigrationStatus describes one migration and whether it has been applied.
type MigrationStatus struct {
	Name      string
	AppliedAt *time.Time
}

type migrationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	AppliedAt time.Time `gorm:"not null"`
}

func (migrationRecord) TableName() string {
	return "schema_migrations"
}

// RunMigrations brings the schema up to date. SQLite databases are migrated
// with GORM's AutoMigrate; Postgres runs the embedded SQL files in order,
// each in its own transaction, skipping ones already recorded.
func RunMigrations(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("using GORM auto-migration for SQLite")
		return db.WithContext(ctx).AutoMigrate(&model.Recipe{}, &model.Ingredient{})
	}

	if err := db.WithContext(ctx).AutoMigrate(&migrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}

	for _, name := range names {
		if _, ok := applied[name]; ok {
			log.Debug("skipping migration (already applied)", zap.String("migration", name))
			continue
		}

		content, err := migrationFS.ReadFile("migrations/" + name + upSuffix)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", name, err)
			}
			return tx.Create(&migrationRecord{Name: name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return err
		}
		log.Info("applied migration", zap.String("migration", name))
	}
	return nil
}

// Rollback reverts the most recently applied migration and returns its name.
// It returns an empty name when nothing is applied.
func Rollback(ctx context.Context, db *gorm.DB, log *zap.Logger) (string, error) {
	if db.Dialector.Name() == "sqlite" {
		log.Info("dropping SQLite tables")
		return "automigrate", db.WithContext(ctx).Migrator().DropTable(&model.Ingredient{}, &model.Recipe{})
	}

	if err := db.WithContext(ctx).AutoMigrate(&migrationRecord{}); err != nil {
		return "", fmt.Errorf("failed to create migrations table: %w", err)
	}

	var last migrationRecord
	result := db.WithContext(ctx).Order("id DESC").Limit(1).Find(&last)
	if result.Error != nil {
		return "", fmt.Errorf("failed to get last migration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", nil
	}

	content, err := migrationFS.ReadFile("migrations/" + last.Name + downSuffix)
	if err != nil {
		return "", fmt.Errorf("rollback file not found for %s: %w", last.Name, err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to execute rollback of %s: %w", last.Name, err)
		}
		return tx.Delete(&migrationRecord{}, last.ID).Error
	})
	if err != nil {
		return "", err
	}
	log.Info("rolled back migration", zap.String("migration", last.Name))
	return last.Name, nil
}

// Status lists every embedded migration with its applied time, if any.
func Status(ctx context.Context, db *gorm.DB) ([]MigrationStatus, error) {
	if db.Dialector.Name() == "sqlite" {
		return nil, fmt.Errorf("migration status is not tracked for sqlite")
	}
	if err := db.WithContext(ctx).AutoMigrate(&migrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(names))
	for _, name := range names {
		st := MigrationStatus{Name: name}
		if at, ok := applied[name]; ok {
			at := at
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

// migrationNames returns the embedded migration names, without suffix, sorted.
func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), upSuffix); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func appliedMigrations(ctx context.Context, db *gorm.DB) (map[string]time.Time, error) {
	var records []migrationRecord
	if err := db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	applied := make(map[string]time.Time, len(records))
	for _, r := range records {
		applied[r.Name] = r.AppliedAt
	}
	return applied, nil
}

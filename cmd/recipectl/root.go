package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logger"
	"github.com/pageza/recipe-api/backend/internal/service"
)

// app holds what every subcommand needs. Fields that are already set are
// left alone by setup.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB

	ownsDB bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "recipectl",
		Short:        "Maintenance tasks for the recipe API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup() error {
	if a.cfg == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		a.cfg = cfg
	}
	if a.log == nil {
		log, err := logger.New(a.cfg.LogLevel, a.cfg.LogFormat)
		if err != nil {
			return err
		}
		a.log = log
	}
	if a.db == nil {
		db, err := database.Open(a.cfg, a.log)
		if err != nil {
			return err
		}
		a.db = db
		a.ownsDB = true
	}
	return nil
}

func (a *app) teardown() error {
	if a.log != nil {
		logger.Sync(a.log)
	}
	if a.ownsDB && a.db != nil {
		return database.Close(a.db)
	}
	return nil
}

func (a *app) recipeService() *service.RecipeService {
	return service.NewRecipeService(a.db, nil, a.log)
}

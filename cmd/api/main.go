package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipe-api/backend/config"
	"github.com/pageza/recipe-api/backend/internal/cache"
	"github.com/pageza/recipe-api/backend/internal/database"
	"github.com/pageza/recipe-api/backend/internal/logger"
	"github.com/pageza/recipe-api/backend/internal/openapi"
	"github.com/pageza/recipe-api/backend/internal/router"
	"github.com/pageza/recipe-api/backend/internal/server"
	"github.com/pageza/recipe-api/backend/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "recipe-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync(log)

	log.Info("starting recipe-api",
		zap.String("environment", string(cfg.Environment)),
		zap.String("db_driver", cfg.DBDriver),
	)

	if _, err := openapi.Load(context.Background()); err != nil {
		return err
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(context.Background(), db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var recipeCache cache.RecipeCache = cache.Nop{}
	if cfg.CacheEnabled() {
		client, err := database.NewRedisClient(cfg, log)
		if err != nil {
			log.Warn("recipe cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			recipeCache = cache.NewRedisCache(client, cache.DefaultKeyPrefix, cfg.CacheTTL)
		}
	}

	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	recipeService := service.NewRecipeService(db, recipeCache, log)

	handler := router.SetupRouter(router.Options{
		DB:             db,
		RecipeService:  recipeService,
		Logger:         log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return server.New(cfg.Addr(), handler, log).Start()
}

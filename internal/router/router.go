package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/recipe-api/backend/internal/api"
	"github.com/pageza/recipe-api/backend/internal/middleware"
	"github.com/pageza/recipe-api/backend/internal/openapi"
	"github.com/pageza/recipe-api/backend/internal/service"
)

// Options carries everything SetupRouter wires together.
type Options struct {
	DB             *gorm.DB
	RecipeService  service.IRecipeService
	Logger         *zap.Logger
	AllowedOrigins []string
	// Registry receives the HTTP metrics. A fresh registry with the Go and
	// process collectors is used when nil.
	Registry *prometheus.Registry
}

// SetupRouter configures the application routes
func SetupRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := middleware.NewMetrics(reg)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		metrics.Middleware(),
	)
	if len(opts.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(opts.AllowedOrigins))
	}

	api.NewHealthHandler(opts.DB, log).RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/openapi.yaml", openapi.Handler)

	api.NewRecipeHandler(opts.RecipeService, log).RegisterRoutes(router.Group(""))

	return router
}

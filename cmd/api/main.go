package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-crm-import/internal/common/api"
	"go-crm-import/internal/config"
	"go-crm-import/internal/database"
	import_feature "go-crm-import/internal/features/import"
	"go-crm-import/internal/features/system"
	"go-crm-import/internal/frappe"
	"go-crm-import/internal/logger"
	"go-crm-import/internal/middleware"
	"go-crm-import/pkg/utils"

	_ "go-crm-import/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every route in the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, historyRepo import_feature.HistoryRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := historyRepo.EnsureIndexes(ctx); err != nil {
					log.Printf("Failed to ensure import history indexes: %v", err)
				}
			}()
			return nil
		},
	})
}

func NewPollerConfig(cfg *config.Config) import_feature.PollerConfig {
	return import_feature.PollerConfig{
		Interval:   cfg.PollInterval,
		RetryDelay: cfg.PollRetryDelay,
		MaxRetries: cfg.PollMaxRetries,
	}
}

func NewSessionSweeper(service import_feature.ImportService, cfg *config.Config, log *zap.Logger) (*import_feature.SessionSweeper, error) {
	return import_feature.NewSessionSweeper(service, cfg.SessionSweepSchedule, cfg.SessionTTL, log)
}

// @title           CRM Import API
// @version         1.0
// @description     Bulk data import workflow for Attendance and Contact records.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Database
			database.NewDatabase,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Metrics
			system.NewRegistry,
			func(reg *prometheus.Registry) *import_feature.Metrics { return import_feature.NewMetrics(reg) },

			// Document backend
			frappe.NewClientFromConfig,
			import_feature.NewBackend,
			func(b import_feature.Backend) import_feature.StatusBackend { return b },

			// Initialize Repository
			import_feature.NewHistoryRepository,

			// Initialize Service
			NewPollerConfig,
			import_feature.NewPoller,
			import_feature.DefaultSynonyms,
			import_feature.NewImportService,
			NewSessionSweeper,

			// Initialize Controller
			import_feature.NewImportController,
			system.NewHealthController,

			// Initialize API Routes
			AsRoute(import_feature.NewImportApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewMetricsApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			import_feature.RegisterSweeper,
			InitializeIndexes,
		),
	)

	app.Run()
}

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spring-change/core/config"
	"spring-change/core/database"
	"spring-change/core/loader"
	"spring-change/core/logger"
	"spring-change/core/middleware/auth"
	"spring-change/core/middleware/rayid"
	"spring-change/core/storage"
	"spring-change/feature/analysis"
	"spring-change/feature/integrity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the spring change server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (Optional)
		var db *gorm.DB
		if cfg.Database.Enabled {
			if conn, err := database.Connect(cfg.Database); err != nil {
				logg.Warn("Optional database connection failed", zap.Error(err))
			} else if err := database.NewRunRepository(conn).Migrate(); err != nil {
				logg.Warn("Run history migration failed", zap.Error(err))
			} else {
				db = conn
				logg.Info("Connected to run history database")
			}
		}

		// 4. Initialize Storage (Optional)
		var (
			store   storage.Client
			archive *storage.Archive
		)
		if cfg.Storage.Enabled {
			store, err = storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			archive = storage.NewArchive(store, cfg.Storage.Bucket, cfg.Storage.ReportPrefix)

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Storage.TimeoutSeconds)*time.Second)
			if err := archive.EnsureBucket(ctx); err != nil {
				logg.Warn("Report archive unavailable", zap.Error(err))
				archive = nil
			}
			cancel()
		}

		// 5. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		// 6. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(analysis.NewFeature(cfg.Analysis, logg, db, archive))
		mgr.Register(integrity.NewFeature(store, cfg.Storage.Bucket, cfg.Storage.ReportPrefix, logg, db))

		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Panics surface as 500 responses through the request logger above
		app.Use(recover.New())

		if cfg.Server.AuthEnabled() {
			app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
		} else {
			logg.Warn("API key not configured, endpoints are unprotected")
		}

		// 7. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}

package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"record-manager/core/config"
	"record-manager/core/loader"
	"record-manager/core/logger"
	"record-manager/core/middleware/auth"
	"record-manager/core/middleware/rayid"

	"record-manager/feature/records"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "record-manager/docs/swagger"
)

// @title Record Manager API
// @version 1.0
// @description API for paging through and editing a large record dataset.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the record manager server",
	Long:  `Starts the HTTP server over the configured data service and initializes all enabled features.`,
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

		// 3. Connect the data service and build the collection
		b, err := buildBackend(cmd.Context(), cfg, logg)
		if err != nil {
			logg.Fatal("Failed to initialize data service", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager(logg)

		recordsFeature := records.NewFeature(b.records, b.source, logg)
		if err := recordsFeature.Service().Load(cmd.Context()); err != nil {
			logg.Fatal("Failed to load records", zap.Error(err))
		}
		mgr.Register(recordsFeature)

		// RayID first so every later log line carries it
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

		// Swagger stays public
		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 6. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
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

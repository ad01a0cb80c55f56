package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/oakrise/docstamp/internal/api"
	"github.com/oakrise/docstamp/internal/batch"
	"github.com/oakrise/docstamp/internal/compositor"
	"github.com/oakrise/docstamp/internal/config"
	"github.com/oakrise/docstamp/internal/configstore"
	"github.com/oakrise/docstamp/internal/datasource"
	"github.com/oakrise/docstamp/internal/delivery"
	"github.com/oakrise/docstamp/internal/docstore"
	"github.com/oakrise/docstamp/internal/formatter"
	"github.com/oakrise/docstamp/internal/generation"
	"github.com/oakrise/docstamp/internal/preview"
	"github.com/oakrise/docstamp/pkg/database"
	"github.com/oakrise/docstamp/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting DocStamp server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	store, err := docstore.NewLocalStore(cfg.Storage.TemplatesDir, cfg.Storage.OutputDir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize document store", zap.Error(err))
	}

	configs := configstore.NewSQLiteStore(db, logger)
	source := datasource.NewExcelSource(cfg.Storage.SourcesDir, logger)
	comp := compositor.New(formatter.New(cfg.Location(), cfg.Formatter.DateFormat), logger)

	var deliverer batch.Deliverer
	if cfg.Delivery.Enabled {
		deliverer = delivery.NewLarkDeliverer(delivery.LarkConfig{
			AppID:     cfg.Delivery.LarkAppID,
			AppSecret: cfg.Delivery.LarkAppSecret,
		}, logger)
	}

	orchestrator := batch.NewOrchestrator(comp, store, deliverer, logger)
	service := generation.NewService(configs, store, source, orchestrator, generation.DeliveryDefaults{
		Subject: cfg.Delivery.DefaultSubject,
		Body:    cfg.Delivery.DefaultBody,
	}, logger)

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := api.NewHandler(source, store, configs, preview.NewRenderer(logger), service, logger)
	handler.Register(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenyy/work-report/internal/auth"
	"github.com/chenyy/work-report/internal/config"
	"github.com/chenyy/work-report/internal/export"
	"github.com/chenyy/work-report/internal/mes"
	"github.com/chenyy/work-report/internal/report"
	"github.com/chenyy/work-report/internal/server"
	"github.com/chenyy/work-report/internal/workorder"
	"github.com/chenyy/work-report/pkg/database"
	"github.com/chenyy/work-report/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env before viper reads the environment
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
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

	logger.Info("Starting work report service",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
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

	// Initialize token store and auth resolver
	tokenStore, err := auth.NewSQLiteStore(db.DB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize token store", zap.Error(err))
	}

	resolver := auth.NewResolver(auth.Config{
		BaseURL:      cfg.Backend.BaseURL,
		AppKey:       cfg.Backend.AppKey,
		ExternalCode: cfg.Auth.Code,
		TokenKey:     cfg.Auth.TokenKey,
		TokenTTL:     cfg.Auth.TokenTTL,
		Login: auth.Credentials{
			Type:     cfg.Login.Type,
			Username: cfg.Login.Username,
			Code:     cfg.Login.Code,
			Password: cfg.Login.Password,
		},
	}, tokenStore, logger)

	// Acquire the token up front. A failure is not fatal: work order
	// listing degrades to sample data and the client refreshes on demand.
	startupCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := resolver.Ensure(startupCtx); err != nil {
		logger.Warn("Token acquisition failed at startup", zap.Error(err))
	}
	cancel()

	// Initialize the MES client and business services
	apiClient := mes.NewClient(mes.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.APITimeout,
	}, resolver, logger)

	workOrders := workorder.NewService(apiClient, logger)
	paramResolver := report.NewResolver(apiClient, logger)

	history, err := report.NewHistoryRepository(db.DB, logger)
	if err != nil {
		logger.Fatal("Failed to initialize history repository", zap.Error(err))
	}

	submitter := report.NewSubmitter(apiClient, paramResolver, history, logger)
	records := report.NewRecords(apiClient, logger)
	exporter := export.NewExporter(logger)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := server.NewHandler(workOrders, submitter, records, history, exporter, logger)
	router := server.NewRouter(handler, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

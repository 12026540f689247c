package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/ai"
	"github.com/spenddesk/receipt-pipeline/internal/config"
	"github.com/spenddesk/receipt-pipeline/internal/export"
	"github.com/spenddesk/receipt-pipeline/internal/extraction"
	"github.com/spenddesk/receipt-pipeline/internal/ocr"
	"github.com/spenddesk/receipt-pipeline/internal/repository"
	"github.com/spenddesk/receipt-pipeline/internal/server"
	"github.com/spenddesk/receipt-pipeline/pkg/database"
	"github.com/spenddesk/receipt-pipeline/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
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

	logger.Info("Starting receipt extraction service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

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
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	receiptRepo := repository.NewReceiptRepository(db, logger)

	pool := ocr.NewPool(cfg.OCR.PoolSize, func() ocr.Recognizer {
		return ocr.NewTesseractRecognizer(ocr.TesseractConfig{
			Binary:              cfg.OCR.Tesseract,
			Language:            cfg.OCR.Language,
			TessdataDir:         cfg.OCR.TessdataDir,
			PSM:                 cfg.OCR.PSM,
			OEM:                 cfg.OCR.OEM,
			EnableTSVConfidence: cfg.OCR.EnableTSVConfidence,
		}, logger)
	})
	primary := ocr.NewExtractor(pool, logger)

	structured := ai.NewExtractor(ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	}, logger)

	pipeline := extraction.NewPipeline(primary, structured, extraction.Options{
		Provider:          cfg.Extraction.PrimaryProvider,
		AccuracyThreshold: cfg.Extraction.AccuracyThreshold,
		AITimeout:         cfg.Extraction.Timeout,
		EnableCaching:     cfg.Extraction.EnableCaching,
		CostThreshold:     cfg.Extraction.CostThreshold,
	}, logger)

	exporter := export.NewService(logger)

	handlers := server.NewHandlers(pipeline, receiptRepo, exporter, cfg.Extraction.ReviewThreshold, logger)
	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxUploadMB:  cfg.Server.MaxUploadMB,
	}, handlers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

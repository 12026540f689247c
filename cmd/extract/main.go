// Command extract runs the pipeline once over a single file and prints the
// result as JSON. Useful for smoke-testing recognizer setup without the
// server or database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/subosito/gotenv"

	"github.com/spenddesk/receipt-pipeline/internal/ai"
	"github.com/spenddesk/receipt-pipeline/internal/extraction"
	"github.com/spenddesk/receipt-pipeline/internal/ocr"
	"github.com/spenddesk/receipt-pipeline/pkg/utils"
)

func main() {
	var (
		inputPath = flag.String("input", "", "path to a receipt image or PDF (required)")
		threshold = flag.Float64("threshold", extraction.DefaultAccuracyThreshold, "confidence threshold below which the AI stage runs")
		noAI      = flag.Bool("no-ai", false, "disable the AI stage even when OPENAI_API_KEY is set")
		timeout   = flag.Duration("timeout", 2*time.Minute, "overall processing timeout")
		logLevel  = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	if *inputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = gotenv.Load()

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      *logLevel,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	mimeType := "application/octet-stream"
	if byExt := mime.TypeByExtension(filepath.Ext(*inputPath)); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			mimeType = parsed
		}
	}

	pool := ocr.NewPool(1, func() ocr.Recognizer {
		return ocr.NewTesseractRecognizer(ocr.TesseractConfig{
			Binary:              os.Getenv("TESSERACT_PATH"),
			EnableTSVConfidence: true,
		}, logger)
	})
	primary := ocr.NewExtractor(pool, logger)

	var structured extraction.StructuredExtractor
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && !*noAI {
		structured = ai.NewExtractor(ai.Config{APIKey: apiKey}, logger)
	}

	pipeline := extraction.NewPipeline(primary, structured, extraction.Options{
		AccuracyThreshold: *threshold,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rec, meta, err := pipeline.Process(ctx, data, mimeType)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		os.Exit(1)
	}

	out := struct {
		Receipt     *extraction.ExtractedReceipt `json:"receipt"`
		Diagnostics *extraction.RunMetadata      `json:"diagnostics"`
	}{rec, meta}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
}

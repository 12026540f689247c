package ocr

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// TesseractConfig configures the tesseract-based recognizer.
type TesseractConfig struct {
	Binary              string // binary name or absolute path; default "tesseract"
	Language            string // default "eng"
	TessdataDir         string
	PSM                 int // 6 works well for a uniform block of text
	OEM                 int // 1 = LSTM; 0 = engine default
	EnableTSVConfidence bool
}

// TesseractRecognizer shells out to the tesseract binary. A second TSV pass
// supplies the mean word-level confidence when enabled; otherwise a cheap
// text heuristic stands in.
type TesseractRecognizer struct {
	cfg    TesseractConfig
	runner Runner
	logger *zap.Logger
}

// NewTesseractRecognizer creates a recognizer backed by the tesseract CLI.
func NewTesseractRecognizer(cfg TesseractConfig, logger *zap.Logger) *TesseractRecognizer {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &TesseractRecognizer{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Recognize runs OCR over a single raster image.
func (t *TesseractRecognizer) Recognize(ctx context.Context, image []byte) (Result, error) {
	tmp, err := os.CreateTemp("", "receipt-page-*.png")
	if err != nil {
		return Result{}, fmt.Errorf("%w: temp file: %v", extraction.ErrRecognition, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("%w: write temp file: %v", extraction.ErrRecognition, err)
	}
	tmp.Close()

	out, _, err := t.runner.Run(ctx, t.cfg.Binary, t.args(tmpPath, false)...)
	if err != nil {
		return Result{}, fmt.Errorf("%w: tesseract: %v", extraction.ErrRecognition, err)
	}
	text := string(out)

	conf := 0.0
	if t.cfg.EnableTSVConfidence {
		if c, err := t.tsvConfidence(ctx, tmpPath); err == nil {
			conf = c
		} else {
			t.logger.Warn("tsv confidence pass failed, using heuristic", zap.Error(err))
		}
	}
	if conf == 0 {
		conf = heuristicConfidence(text)
	}

	return Result{Text: text, Confidence: conf}, nil
}

func (t *TesseractRecognizer) args(path string, tsv bool) []string {
	args := []string{path, "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	if tsv {
		args = append(args, "tsv")
	}
	return args
}

// tsvConfidence runs tesseract in TSV mode and returns the mean word
// confidence on a 0-100 scale. The conf column sits just before the text
// column; header and -1 (non-word) rows are skipped.
func (t *TesseractRecognizer) tsvConfidence(ctx context.Context, path string) (float64, error) {
	out, _, err := t.runner.Run(ctx, t.cfg.Binary, t.args(path, true)...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w", err)
	}

	var sum, n float64
	for i, ln := range strings.Split(string(out), "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[len(cols)-2]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

var (
	reConfDate   = regexp.MustCompile(`\b20\d{2}\b`)
	reConfCurr   = regexp.MustCompile(`(?i)\b(usd|eur|gbp|cad|aud)\b|\$`)
	reConfAmount = regexp.MustCompile(`\b\d+\.\d{2}\b`)
)

// heuristicConfidence scores text legibility from common receipt artifacts
// when no word-level confidence is available.
func heuristicConfidence(text string) float64 {
	score := 20.0
	if reConfDate.MatchString(text) {
		score += 20
	}
	if reConfCurr.MatchString(text) {
		score += 15
	}
	if reConfAmount.MatchString(text) {
		score += 15
	}
	if len(text) > 120 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

package ocr

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is the raw output of one recognition pass.
type Result struct {
	Text       string
	Confidence float64 // 0-100, mean word-level confidence
}

// Recognizer turns a raster image into text. Implementations carry no state
// between documents, so instances are safe to reuse and pool.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}

// Runner executes external commands; it exists so tests can stub the
// tesseract binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *zap.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("exec failed",
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Duration("duration", time.Since(start)),
			zap.String("stderr", truncate(errb.String(), 8<<10)),
			zap.Error(err))
	}
	return out.Bytes(), errb.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

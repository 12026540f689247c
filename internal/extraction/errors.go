package extraction

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Rasterization and recognition failures abort the
// run; AI extraction failures (schema validation included) are recovered by
// the orchestrator, which falls back to the primary result.
var (
	// ErrRasterization marks a PDF-to-image conversion failure.
	ErrRasterization = errors.New("pdf rasterization failed")

	// ErrRecognition marks a primary OCR engine failure.
	ErrRecognition = errors.New("ocr recognition failed")

	// ErrAIExtraction marks any failure of the structured AI extractor.
	ErrAIExtraction = errors.New("ai extraction failed")

	// ErrSchemaValidation marks an AI response that does not conform to the
	// required JSON shape. It wraps ErrAIExtraction, so errors.Is against
	// either sentinel matches.
	ErrSchemaValidation = fmt.Errorf("schema validation: %w", ErrAIExtraction)
)

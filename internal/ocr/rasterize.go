package ocr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
)

// RasterizePDF renders PDF pages to PNG images via mupdf. A malformed or
// unreadable document is a hard failure; there is no text-layer fallback
// because receipts are almost always scans.
func RasterizePDF(data []byte, maxPages int) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open document: %v", extraction.ErrRasterization, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", extraction.ErrRasterization)
	}
	if maxPages > 0 && pageCount > maxPages {
		pageCount = maxPages
	}

	pages := make([][]byte, 0, pageCount)
	for n := 0; n < pageCount; n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, fmt.Errorf("%w: render page %d: %v", extraction.ErrRasterization, n, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encode page %d: %v", extraction.ErrRasterization, n, err)
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}

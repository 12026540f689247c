package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/models"
)

// Service renders stored receipts as an XLSX workbook for download.
type Service struct {
	logger *zap.Logger
}

// NewService creates an export service.
func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

const sheetName = "Receipts"

var headers = []string{
	"ID", "Vendor", "Date", "Total", "Subtotal", "Tax", "Currency",
	"Category", "Confidence", "Method", "Items", "Needs Review", "Created At",
}

// Workbook renders the given receipts to an in-memory XLSX file.
func (s *Service) Workbook(ctx context.Context, receipts []*models.Receipt) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", endHeader, headerStyle)

	for row, receipt := range receipts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values := []interface{}{
			receipt.ID,
			receipt.Vendor,
			receipt.Date,
			receipt.TotalAmount,
			receipt.Subtotal,
			receipt.Tax,
			receipt.Currency,
			receipt.Category,
			receipt.Confidence,
			receipt.ProcessingMethod,
			itemsSummary(receipt),
			receipt.NeedsReview,
			receipt.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 24)
	_ = f.SetColWidth(sheetName, "K", "K", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Receipts exported", zap.Int("count", len(receipts)))
	return buf, nil
}

// itemsSummary flattens line items into "desc x qty @ price" entries.
func itemsSummary(receipt *models.Receipt) string {
	if len(receipt.LineItems) == 0 {
		return ""
	}
	parts := make([]string, 0, len(receipt.LineItems))
	for _, item := range receipt.LineItems {
		parts = append(parts, fmt.Sprintf("%s x%.0f @ %.2f", item.Description, item.Quantity, item.UnitPrice))
	}
	return strings.Join(parts, "; ")
}

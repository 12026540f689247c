package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spenddesk/receipt-pipeline/internal/extraction"
	"github.com/spenddesk/receipt-pipeline/internal/models"
	"github.com/spenddesk/receipt-pipeline/pkg/database"
)

// ErrNotFound is returned when a receipt does not exist.
var ErrNotFound = fmt.Errorf("receipt not found")

// ReceiptRepository persists extraction results.
type ReceiptRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewReceiptRepository creates a receipt repository.
func NewReceiptRepository(db *database.DB, logger *zap.Logger) *ReceiptRepository {
	return &ReceiptRepository{db: db, logger: logger}
}

const receiptColumns = `id, vendor, receipt_date, total_amount, subtotal, tax, currency,
	category, confidence, processing_method, line_items, raw_text,
	provider, duration_ms, estimated_cost, escalated, needs_review, created_at`

// Create inserts a receipt record.
func (r *ReceiptRepository) Create(ctx context.Context, receipt *models.Receipt) error {
	items, err := json.Marshal(receipt.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO receipts (
			id, vendor, receipt_date, total_amount, subtotal, tax, currency,
			category, confidence, processing_method, line_items, raw_text,
			provider, duration_ms, estimated_cost, escalated, needs_review, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.Vendor, receipt.Date, receipt.TotalAmount,
		receipt.Subtotal, receipt.Tax, receipt.Currency, receipt.Category,
		receipt.Confidence, receipt.ProcessingMethod, string(items), receipt.RawText,
		receipt.Provider, receipt.DurationMS, receipt.EstimatedCost,
		receipt.Escalated, receipt.NeedsReview, receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	r.logger.Info("Receipt created",
		zap.String("id", receipt.ID),
		zap.String("vendor", receipt.Vendor),
		zap.Float64("total", receipt.TotalAmount))
	return nil
}

// GetByID fetches one receipt.
func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*models.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE id = ?", id)

	receipt, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}
	return receipt, nil
}

// List returns receipts ordered newest first. needsReview, when non-nil,
// filters on the review flag.
func (r *ReceiptRepository) List(ctx context.Context, needsReview *bool, limit, offset int) ([]*models.Receipt, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + receiptColumns + " FROM receipts"
	args := []interface{}{}
	if needsReview != nil {
		query += " WHERE needs_review = ?"
		args = append(args, *needsReview)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*models.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReceipt(s scanner) (*models.Receipt, error) {
	var receipt models.Receipt
	var items string

	err := s.Scan(
		&receipt.ID, &receipt.Vendor, &receipt.Date, &receipt.TotalAmount,
		&receipt.Subtotal, &receipt.Tax, &receipt.Currency, &receipt.Category,
		&receipt.Confidence, &receipt.ProcessingMethod, &items, &receipt.RawText,
		&receipt.Provider, &receipt.DurationMS, &receipt.EstimatedCost,
		&receipt.Escalated, &receipt.NeedsReview, &receipt.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if items != "" {
		if err := json.Unmarshal([]byte(items), &receipt.LineItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}
	if receipt.LineItems == nil {
		receipt.LineItems = []extraction.LineItem{}
	}
	return &receipt, nil
}

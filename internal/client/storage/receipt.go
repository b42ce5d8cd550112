package storage

import (
	"context"
	"time"
)

//go:generate moq -out receipt_mock.go . ReceiptStorage

// Receipt локальная отметка об успешной отправке формы.
// Сами данные формы не сохраняются.
type Receipt struct {
	SubmittedAt time.Time `json:"submitted_at"`
	RecordID    string    `json:"record_id"`
	Concept     string    `json:"concept"`
	FullName    string    `json:"full_name"`
	ItemsTotal  string    `json:"items_total"` // decimal строкой, без ошибки float
	// SignatureHash отпечаток отправленной подписи, сама подпись не хранится
	SignatureHash string  `json:"signature_hash,omitempty"`
	Value         float64 `json:"value"`
	ItemCount     int     `json:"item_count"`
}

// ReceiptStorage defines interface for storing submission receipts
type ReceiptStorage interface {
	// SaveReceipt stores a receipt for a successful submission
	SaveReceipt(ctx context.Context, r *Receipt) error

	// ListReceipts returns receipts newest first; limit <= 0 returns all
	ListReceipts(ctx context.Context, limit int) ([]*Receipt, error)

	// Close closes the storage
	Close() error
}

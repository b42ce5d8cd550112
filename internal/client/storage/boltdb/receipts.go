package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/signform/internal/client/storage"
)

var _ storage.ReceiptStorage = (*Storage)(nil)

// receiptKey: 8 байт времени отправки (big endian, нс) + record id.
// Ключи упорядочены по времени, обход с конца дает новые первыми.
func receiptKey(r *storage.Receipt) []byte {
	key := make([]byte, 8, 8+len(r.RecordID))
	binary.BigEndian.PutUint64(key, uint64(r.SubmittedAt.UnixNano()))
	return append(key, r.RecordID...)
}

// SaveReceipt stores a receipt. Zero SubmittedAt is replaced with the current time.
func (s *Storage) SaveReceipt(ctx context.Context, r *storage.Receipt) error {
	if r == nil || r.RecordID == "" {
		return storage.ErrInvalidReceipt
	}
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketReceipts)
		if bucket == nil {
			return fmt.Errorf("receipts bucket not found")
		}

		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal receipt: %w", err)
		}

		if err := bucket.Put(receiptKey(r), data); err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}
		return nil
	})
}

// ListReceipts returns receipts newest first; limit <= 0 returns all.
func (s *Storage) ListReceipts(ctx context.Context, limit int) ([]*storage.Receipt, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	receipts := make([]*storage.Receipt, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketReceipts)
		if bucket == nil {
			return fmt.Errorf("receipts bucket not found")
		}

		c := bucket.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(receipts) >= limit {
				break
			}
			var r storage.Receipt
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("failed to unmarshal receipt: %w", err)
			}
			receipts = append(receipts, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipts, nil
}

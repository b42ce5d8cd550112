package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/signform/internal/server/storage"
)

// recordIDLen длина суффикса ID, как у записей Airtable ("rec" + 14 символов)
const recordIDLen = 14

// CreateRecord сохраняет одну запись и возвращает ее ID.
// Дедупликации нет: одинаковые поля дают разные записи.
func (s *Storage) CreateRecord(ctx context.Context, fields storage.Fields) (string, error) {
	if fields == nil {
		fields = storage.Fields{}
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fields: %w", err)
	}

	id := newRecordID()

	query := `
		INSERT INTO records (id, table_name, fields, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := s.db.ExecContext(ctx, query, id, s.table, string(data), time.Now().UnixMilli()); err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	return id, nil
}

// GetRecord retrieves a single record by ID
// Returns ErrRecordNotFound if record doesn't exist
func (s *Storage) GetRecord(ctx context.Context, id string) (*storage.Record, error) {
	query := `
		SELECT id, table_name, fields, created_at
		FROM records
		WHERE id = ?
	`

	var (
		rec       storage.Record
		data      string
		createdAt int64
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&rec.ID, &rec.Table, &data, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &rec.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt)

	return &rec, nil
}

func newRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:recordIDLen]
}

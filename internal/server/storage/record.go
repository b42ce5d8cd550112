package storage

import (
	"context"
	"time"
)

// Fields значения колонок одной записи, ключ это имя колонки в таблице
type Fields map[string]any

// Record запись, прочитанная из хранилища
type Record struct {
	CreatedAt time.Time `json:"created_at"`
	Fields    Fields    `json:"fields"`
	ID        string    `json:"id"`
	Table     string    `json:"table"`
}

// RecordStore defines the single write the submission handler needs from the
// external table store.
type RecordStore interface {
	// CreateRecord creates exactly one record with the given fields and
	// returns the identifier assigned by the store.
	CreateRecord(ctx context.Context, fields Fields) (string, error)
}

// Pinger is implemented by stores that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/signform/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:", "Formularios")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func TestStorage_CreateRecord(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	fields := storage.Fields{
		"Concepto": "Cobro",
		"Valor":    12.5,
		"Items":    `[{"description":"a","value":1}]`,
	}

	id, err := s.CreateRecord(ctx, fields)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "rec"))
	assert.Len(t, id, 3+recordIDLen)

	rec, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Formularios", rec.Table)
	assert.Equal(t, "Cobro", rec.Fields["Concepto"])
	assert.Equal(t, 12.5, rec.Fields["Valor"])
	assert.Equal(t, `[{"description":"a","value":1}]`, rec.Fields["Items"])
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestStorage_CreateRecord_NoDeduplication(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	fields := storage.Fields{"Concepto": "Cobro", "Nombres": "Ana", "Apellidos": "Gómez"}

	id1, err := s.CreateRecord(ctx, fields)
	require.NoError(t, err)
	id2, err := s.CreateRecord(ctx, fields)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestStorage_CreateRecord_NilFields(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	id, err := s.CreateRecord(ctx, nil)
	require.NoError(t, err)

	rec, err := s.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.Fields)
}

func TestStorage_GetRecord_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetRecord(ctx, "recMISSING")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestStorage_ClosedDatabase(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, filepath.Join(t.TempDir(), "records.db"), "Formularios")
	require.NoError(t, err)

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	assert.Error(t, s.Ping(ctx))
	_, err = s.CreateRecord(ctx, storage.Fields{"Concepto": "x"})
	assert.Error(t, err)
}

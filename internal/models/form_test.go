package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormRecord_Defaults(t *testing.T) {
	r := NewFormRecord()

	assert.Empty(t, r.Concept)
	assert.Zero(t, r.Value)
	assert.Equal(t, AccountSavings, r.AccountType)
	assert.NotNil(t, r.CollectionItems)
	assert.Empty(t, r.CollectionItems)
	assert.Nil(t, r.AttachedFile)
	assert.Empty(t, r.Signature)
}

func TestAccountType_Valid(t *testing.T) {
	assert.True(t, AccountSavings.Valid())
	assert.True(t, AccountChecking.Valid())
	assert.False(t, AccountType("").Valid())
	assert.False(t, AccountType("credit").Valid())
}

func TestFormRecord_ItemsTotal(t *testing.T) {
	r := NewFormRecord()
	r.CollectionItems = []CollectionItem{
		{Description: "a", Value: 0.1},
		{Description: "b", Value: 0.2},
	}

	// 0.1 + 0.2 в float дает 0.30000000000000004
	assert.Equal(t, "0.3", r.ItemsTotal().String())
}

func TestFormRecord_Clone(t *testing.T) {
	r := NewFormRecord()
	r.CollectionItems = append(r.CollectionItems, CollectionItem{Description: "a", Value: 1})
	r.AttachedFile = &AttachedFile{Name: "x.pdf"}

	c := r.Clone()
	c.CollectionItems[0].Value = 99
	c.AttachedFile.Name = "y.pdf"

	assert.Equal(t, 1.0, r.CollectionItems[0].Value)
	assert.Equal(t, "x.pdf", r.AttachedFile.Name)
}

func TestFormRecord_FullName(t *testing.T) {
	r := FormRecord{FirstName: "Ana", LastName: "Gómez"}
	assert.Equal(t, "Ana Gómez", r.FullName())

	r.LastName = ""
	assert.Equal(t, "Ana", r.FullName())
}

func TestNewAttachedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factura.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0600))

	f, err := NewAttachedFile(path)
	require.NoError(t, err)

	assert.Equal(t, "factura.pdf", f.Name)
	assert.Equal(t, "application/pdf", f.MimeType)
	assert.Equal(t, int64(13), f.Size)
}

func TestNewAttachedFile_Errors(t *testing.T) {
	_, err := NewAttachedFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)

	_, err = NewAttachedFile(t.TempDir())
	assert.Error(t, err)
}

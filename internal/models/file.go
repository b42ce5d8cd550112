package models

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// AttachedFile ссылка на выбранный пользователем файл.
// Файл не читается целиком и не отправляется на сервер.
type AttachedFile struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// NewAttachedFile stats the file at path and sniffs its MIME type.
func NewAttachedFile(path string) (*AttachedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}

	// DetectContentType смотрит максимум на первые 512 байт
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	return &AttachedFile{
		Path:     path,
		Name:     filepath.Base(path),
		MimeType: http.DetectContentType(head[:n]),
		Size:     info.Size(),
	}, nil
}

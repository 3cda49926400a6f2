package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// BlobStore abstracts photo blob persistence with store/url/delete semantics.
type BlobStore interface {
	// Store saves the uploaded file under the given directory and returns its public URL.
	Store(dir string, file *multipart.FileHeader) (string, error)
	// Delete removes a previously stored blob identified by its public URL.
	// Unknown URLs are ignored.
	Delete(url string) error
}

// LocalStorage stores blobs on the local filesystem and serves them under a
// static base URL.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Store saves the file under baseDir/dir with a random name and returns its URL.
func (s *LocalStorage) Store(dir string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	fullDir := filepath.Join(s.baseDir, dir)
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(fullDir, name))
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}

	return s.baseURL + "/" + path.Join(dir, name), nil
}

// Delete maps the public URL back to a filesystem path and removes the blob.
func (s *LocalStorage) Delete(url string) error {
	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return nil
	}
	// Refuse anything that escapes the base directory.
	rel = filepath.Clean(rel)
	if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return nil
	}
	err := os.Remove(filepath.Join(s.baseDir, rel))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

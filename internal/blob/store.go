// Package blob stores uploaded images and hands back a public reference.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"same-inventory/internal/session"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge = errors.New("file exceeds the upload limit")
	ErrNotImage = errors.New("file is not an image")
	ErrEmpty    = errors.New("file is empty")
)

type Store interface {
	// PutImage stores an image for the scope's tenant and returns its URL.
	PutImage(ctx context.Context, scope session.Scope, r io.Reader) (string, error)
}

// LocalStore writes files below dir; they are served under baseURL/blobs.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalStore(dir, baseURL string, maxBytes int64) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

func (s *LocalStore) PutImage(ctx context.Context, scope session.Scope, r io.Reader) (string, error) {
	if !scope.Valid() {
		return "", errors.New("blob: missing tenant scope")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("blob: read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + mtype.Extension()
	tenantDir := filepath.Join(s.dir, scope.String())
	if err := os.MkdirAll(tenantDir, 0o755); err != nil {
		return "", fmt.Errorf("blob: create dir: %w", err)
	}
	if err := writeFile(filepath.Join(tenantDir, name), data); err != nil {
		return "", err
	}

	return s.baseURL + "/" + path.Join("blobs", scope.String(), name), nil
}

// writeFile writes through a temp file so readers never see a partial image.
func writeFile(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("blob: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return fmt.Errorf("blob: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("blob: close: %w", err)
	}
	return os.Rename(tmp.Name(), dst)
}

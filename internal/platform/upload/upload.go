// Package upload stores report files attached to records. Only PDF and PNG
// are accepted; anything else is rejected before a byte reaches the store.
package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// AllowedContentTypes maps accepted MIME types to the extension stored files
// get on disk.
var AllowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
}

var (
	pdfMagic = []byte("%PDF")
	pngMagic = []byte{0x89, 'P', 'N', 'G'}
)

// FileMeta describes a stored upload.
type FileMeta struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the contract for upload backends.
type Store interface {
	Save(ctx context.Context, fileName, contentType string, content io.Reader) (*FileMeta, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *FileMeta, error)
	Delete(ctx context.Context, id string) error
}

// validate checks file name, declared content type and the leading bytes of
// the content. Returns the buffered content on success.
func validate(fileName, contentType string, content io.Reader, maxBytes int64) ([]byte, error) {
	if fileName == "" {
		return nil, ErrMissingFileName
	}
	if _, ok := AllowedContentTypes[contentType]; !ok {
		return nil, ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrFileTooLarge
	}

	// The declared type must match the actual payload.
	switch contentType {
	case "application/pdf":
		if !bytes.HasPrefix(data, pdfMagic) {
			return nil, ErrInvalidContentType
		}
	case "image/png":
		if !bytes.HasPrefix(data, pngMagic) {
			return nil, ErrInvalidContentType
		}
	}

	return data, nil
}

// DiskStore writes uploads to a directory, one file per upload, named by a
// generated id plus the extension for the content type.
type DiskStore struct {
	dir      string
	maxBytes int64

	mu    sync.RWMutex
	files map[string]*FileMeta
}

func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, maxBytes: maxBytes, files: make(map[string]*FileMeta)}, nil
}

func (s *DiskStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (*FileMeta, error) {
	data, err := validate(fileName, contentType, content, s.maxBytes)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	path := filepath.Join(s.dir, id+AllowedContentTypes[contentType])
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return nil, fmt.Errorf("write upload %s: %w", path, err)
	}

	h := sha256.Sum256(data)
	meta := &FileMeta{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", h),
		Path:        path,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.files[id] = meta
	s.mu.Unlock()

	return meta, nil
}

// lookup resolves an id to its metadata. The in-memory index only covers
// files saved by this process; after a restart the entry is rebuilt from the
// file on disk, whose name is the id plus the content-type extension.
func (s *DiskStore) lookup(id string) (*FileMeta, error) {
	s.mu.RLock()
	meta, ok := s.files[id]
	s.mu.RUnlock()
	if ok {
		return meta, nil
	}
	if id == "" || id != filepath.Base(id) {
		return nil, os.ErrNotExist
	}
	for contentType, ext := range AllowedContentTypes {
		path := filepath.Join(s.dir, id+ext)
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		meta = &FileMeta{
			ID:          id,
			FileName:    id + ext,
			ContentType: contentType,
			Size:        fi.Size(),
			Path:        path,
			CreatedAt:   fi.ModTime().UTC(),
		}
		s.mu.Lock()
		s.files[id] = meta
		s.mu.Unlock()
		return meta, nil
	}
	return nil, os.ErrNotExist
}

func (s *DiskStore) Open(_ context.Context, id string) (io.ReadCloser, *FileMeta, error) {
	meta, err := s.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(meta.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, os.ErrNotExist
		}
		return nil, nil, fmt.Errorf("open upload %s: %w", meta.Path, err)
	}
	return f, meta, nil
}

func (s *DiskStore) Delete(_ context.Context, id string) error {
	meta, err := s.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.files, id)
	s.mu.Unlock()
	return os.Remove(meta.Path)
}

// MemStore is a thread-safe, in-memory Store for tests.
type MemStore struct {
	maxBytes int64

	mu      sync.RWMutex
	files   map[string]*FileMeta
	content map[string][]byte
}

func NewMemStore(maxBytes int64) *MemStore {
	return &MemStore{
		maxBytes: maxBytes,
		files:    make(map[string]*FileMeta),
		content:  make(map[string][]byte),
	}
}

func (s *MemStore) Save(_ context.Context, fileName, contentType string, content io.Reader) (*FileMeta, error) {
	data, err := validate(fileName, contentType, content, s.maxBytes)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	h := sha256.Sum256(data)
	meta := &FileMeta{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        int64(len(data)),
		Hash:        fmt.Sprintf("%x", h),
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.files[id] = meta
	s.content[id] = data
	s.mu.Unlock()

	return meta, nil
}

func (s *MemStore) Open(_ context.Context, id string) (io.ReadCloser, *FileMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.files[id]
	if !ok {
		return nil, nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(s.content[id])), meta, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return os.ErrNotExist
	}
	delete(s.files, id)
	delete(s.content, id)
	return nil
}

package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func pdfContent() *bytes.Reader {
	return bytes.NewReader([]byte("%PDF-1.4 fake report body"))
}

func pngContent() *bytes.Reader {
	return bytes.NewReader([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 1, 2, 3})
}

func TestMemStore_SaveAndOpen(t *testing.T) {
	s := NewMemStore(1 << 20)

	meta, err := s.Save(context.Background(), "report.pdf", "application/pdf", pdfContent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.ID == "" {
		t.Error("expected generated id")
	}
	if meta.Size == 0 {
		t.Error("expected non-zero size")
	}

	rc, got, err := s.Open(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	if got.FileName != "report.pdf" {
		t.Errorf("unexpected file name: %s", got.FileName)
	}
	data, _ := io.ReadAll(rc)
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected stored content back")
	}
}

func TestSave_RejectsDisallowedType(t *testing.T) {
	s := NewMemStore(1 << 20)

	_, err := s.Save(context.Background(), "nasty.exe", "application/octet-stream", strings.NewReader("MZ..."))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestSave_RejectsMismatchedMagic(t *testing.T) {
	s := NewMemStore(1 << 20)

	// Declared as PDF but the payload is not one.
	_, err := s.Save(context.Background(), "report.pdf", "application/pdf", strings.NewReader("<html>"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestSave_RejectsOversize(t *testing.T) {
	s := NewMemStore(8)

	_, err := s.Save(context.Background(), "report.pdf", "application/pdf", pdfContent())
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestSave_RequiresFileName(t *testing.T) {
	s := NewMemStore(1 << 20)

	_, err := s.Save(context.Background(), "", "image/png", pngContent())
	if !errors.Is(err, ErrMissingFileName) {
		t.Fatalf("expected ErrMissingFileName, got %v", err)
	}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta, err := s.Save(context.Background(), "scan.png", "image/png", pngContent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(meta.Path, ".png") {
		t.Errorf("expected .png extension, got %s", meta.Path)
	}

	rc, _, err := s.Open(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rc.Close()

	if err := s.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := s.Open(context.Background(), meta.ID); err == nil {
		t.Error("expected error opening deleted upload")
	}
}

func TestDiskStore_OpenAfterRestart(t *testing.T) {
	dir := t.TempDir()
	first, err := NewDiskStore(dir, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta, err := first.Save(context.Background(), "scan.pdf", "application/pdf", pdfContent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh store over the same directory stands in for a restarted process.
	second, err := NewDiskStore(dir, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rc, got, err := second.Open(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rc.Close()
	if got.ContentType != "application/pdf" {
		t.Errorf("unexpected content type: %s", got.ContentType)
	}
	if got.Size != meta.Size {
		t.Errorf("size = %d, want %d", got.Size, meta.Size)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("expected stored pdf content")
	}

	if err := second.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDiskStore_OpenMissingID(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := s.Open(context.Background(), "no-such-id"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
	if _, _, err := s.Open(context.Background(), "../escape"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/pradiptarakha/corpusindex/pkg/errors"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "index.json")
	s := NewFileStore(path)
	ctx := context.Background()

	data := []byte(`{"index": {}, "num_docs": 0}`)
	if err := s.Save(ctx, data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Load = %s, want %s", got, data)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	_, err := s.Load(context.Background())
	if !errors.Is(err, apperrors.ErrSnapshotNotFound) {
		t.Fatalf("error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.Save(ctx, []byte("first")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, []byte("second")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Load = %q, want the latest write", got)
	}
}

func TestFileStoreLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "index.json"))
	if err := s.Save(context.Background(), []byte("data")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "index.json" {
		t.Errorf("directory holds %v, want only index.json", entries)
	}
}

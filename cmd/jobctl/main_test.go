package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenStoreRejectsMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "typo", "data")
	if _, err := openStore(missing); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("openStore = %v, want ErrNotExist", err)
	}
	if _, err := os.Stat(missing); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("stat after openStore = %v, directory should not be created", err)
	}
}

func TestOpenStoreRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := openStore(file); err == nil {
		t.Fatal("openStore on a file should fail")
	}
}

func TestOpenStoreExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := openStore(dir)
	if err != nil {
		t.Fatalf("openStore error: %v", err)
	}
	if store.BasePath() != dir {
		t.Fatalf("BasePath = %q, want %q", store.BasePath(), dir)
	}
}

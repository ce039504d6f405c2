package fileutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")

	if Exists(path) {
		t.Error("Exists returned true for missing file")
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Error("Exists returned false for existing file")
	}
}

func TestWriteTmpThenMove(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "nested", "summary.json")

	content := []byte(`{"total_size":0}`)
	err := WriteTmpThenMove(outPath, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
	if err != nil {
		t.Fatalf("WriteTmpThenMove failed: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Content mismatch: got %q, want %q", got, content)
	}

	leftovers, _ := filepath.Glob(outPath + ".*.tmp")
	if len(leftovers) != 0 {
		t.Errorf("tmp files left behind: %v", leftovers)
	}
}

func TestWriteTmpThenMoveError(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "summary.json")
	if err := os.WriteFile(outPath, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := WriteTmpThenMove(outPath, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, _ := os.ReadFile(outPath)
	if string(got) != "previous" {
		t.Errorf("existing output was modified: %q", got)
	}
	leftovers, _ := filepath.Glob(outPath + ".*.tmp")
	if len(leftovers) != 0 {
		t.Errorf("tmp files left behind: %v", leftovers)
	}
}

func TestCleanupTmpFiles(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.parquet")
	stale := filepath.Join(dir, "out.parquet.12345.tmp")
	unrelated := filepath.Join(dir, "other.tmp")

	for _, path := range []string{stale, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := CleanupTmpFiles(outPath); err != nil {
		t.Fatalf("CleanupTmpFiles failed: %v", err)
	}
	if Exists(stale) {
		t.Error("stale tmp file still exists")
	}
	if !Exists(unrelated) {
		t.Error("unrelated tmp file was removed")
	}
}

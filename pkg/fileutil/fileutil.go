// Package fileutil writes output files with tmp+rename semantics so that a
// failed or interrupted run never leaves a truncated result behind.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Justice4Joffrey/log-parser/pkg/logging"
)

const tmpSuffix = ".tmp"

// Exists returns true if the file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteTmpThenMove writes outPath atomically. writeFunc receives a temporary
// file created next to outPath; on success the file is synced and renamed
// over outPath. On failure the temporary file is removed and outPath is left
// untouched.
func WriteTmpThenMove(outPath string, writeFunc func(w io.Writer) error) error {
	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(outDir, filepath.Base(outPath)+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	fail := func(err error) error {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := writeFunc(f); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(fmt.Errorf("sync temp file: %w", err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp to final: %w", err)
	}
	return nil
}

// CleanupTmpFiles removes leftover temporary files for outPath, such as those
// left by a killed process.
func CleanupTmpFiles(outPath string) error {
	matches, err := filepath.Glob(outPath + ".*" + tmpSuffix)
	if err != nil {
		return fmt.Errorf("glob tmp files: %w", err)
	}

	var removed int
	for _, path := range matches {
		if !strings.HasSuffix(path, tmpSuffix) {
			continue
		}
		if rmErr := os.Remove(path); rmErr == nil {
			removed++
		}
	}
	if removed > 0 {
		logging.L().Debug().Int("files_removed", removed).Str("out", outPath).Msg("cleaned up tmp files")
	}
	return nil
}

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/Justice4Joffrey/log-parser/pkg/fileutil"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
	"github.com/Justice4Joffrey/log-parser/pkg/summary"
)

// render prints snap in the configured format. Diagnostics go to stderr in
// red before a text summary; structured formats omit them.
func (a *app) render(snap summary.Snapshot, diagnostics []string) error {
	switch a.settings.format {
	case formatJSON:
		return a.write(snap.WriteJSON)
	case formatParquet:
		return a.write(snap.WriteParquet)
	default:
		red := color.New(color.FgRed)
		for _, line := range diagnostics {
			if _, err := red.Fprintln(a.stderr, line); err != nil {
				return err
			}
		}
		return a.write(snap.WriteTable)
	}
}

// write sends the rendering to stdout, or atomically to --out.
func (a *app) write(fn func(io.Writer) error) error {
	out := a.settings.out
	if out == "" {
		return fn(a.stdout)
	}

	start := time.Now()
	if err := fileutil.CleanupTmpFiles(out); err != nil {
		logging.L().Warn().Err(err).Str("path", out).Msg("failed to remove stale temp files")
	}
	if err := fileutil.WriteTmpThenMove(out, fn); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logging.FileCreated(*logging.L(), "render", time.Since(start)).
		Str("path", out).
		Str("format", a.settings.format).
		Log("summary written")
	return nil
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/Justice4Joffrey/log-parser/pkg/benchutil"
	"github.com/Justice4Joffrey/log-parser/pkg/fileutil"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
)

const (
	keyRecords   = "n"
	keyMaxKeys   = "p"
	keySeed      = "seed"
	keyMalformed = "malformed"
	keyForce     = "force"
)

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate OUT",
		Short: "Write a synthetic log file to OUT (- for stdout, .gz to compress)",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runGenerate,
	}
	f := cmd.Flags()
	f.Int(keyRecords, 1_000_000, "number of records")
	f.Int(keyMaxKeys, 10, "maximum extra keys per record")
	f.Int64(keySeed, 42, "random seed")
	f.Float64(keyMalformed, 0, "fraction of records written without a type")
	f.Bool(keyForce, false, "overwrite OUT if it exists")
	return cmd
}

func (a *app) runGenerate(_ *cobra.Command, args []string) error {
	cfg := benchutil.GeneratorConfig{
		Records:       a.v.GetInt(keyRecords),
		MaxKeys:       a.v.GetInt(keyMaxKeys),
		MalformedRate: a.v.GetFloat64(keyMalformed),
		Seed:          a.v.GetInt64(keySeed),
	}
	if cfg.Records < 0 {
		return fmt.Errorf("invalid --n %d: must not be negative", cfg.Records)
	}
	if cfg.MaxKeys < 0 {
		return fmt.Errorf("invalid --p %d: must not be negative", cfg.MaxKeys)
	}
	if cfg.MalformedRate < 0 || cfg.MalformedRate > 1 {
		return fmt.Errorf("invalid --malformed %g: must be between 0 and 1", cfg.MalformedRate)
	}

	out := args[0]
	gen := benchutil.NewGenerator(cfg)
	compress := strings.HasSuffix(strings.ToLower(out), ".gz")

	var exp benchutil.Expected
	write := func(w io.Writer) error {
		if !compress {
			var err error
			exp, err = gen.WriteTo(w)
			return err
		}
		zw := gzip.NewWriter(w)
		var err error
		if exp, err = gen.WriteTo(zw); err != nil {
			return err
		}
		return zw.Close()
	}

	start := time.Now()
	if out == "-" {
		return write(a.stdout)
	}
	if fileutil.Exists(out) && !a.v.GetBool(keyForce) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}
	if err := fileutil.CleanupTmpFiles(out); err != nil {
		logging.L().Warn().Err(err).Str("path", out).Msg("failed to remove stale temp files")
	}
	if err := fileutil.WriteTmpThenMove(out, write); err != nil {
		return fmt.Errorf("generate %s: %w", out, err)
	}

	logging.FileCreated(*logging.L(), "generate", time.Since(start)).
		Str("path", out).
		Count("records", int64(exp.Records)).
		Count("malformed", int64(exp.Errors)).
		Bytes("bytes", exp.TotalBytes).
		Log("log file generated")
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Justice4Joffrey/log-parser/internal/logctx"
	"github.com/Justice4Joffrey/log-parser/pkg/humanfmt"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
	"github.com/Justice4Joffrey/log-parser/pkg/memdiag"
	"github.com/Justice4Joffrey/log-parser/pkg/source"
	"github.com/Justice4Joffrey/log-parser/pkg/summarize"
)

func (a *app) syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync FILE",
		Short: "Summarize FILE one record at a time, reporting failed line numbers",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runSync,
	}
	cmd.Flags().StringP(keyBufferCap, "b", "1024", "size of the read buffer")
	return cmd
}

func (a *app) asyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "async FILE",
		Short: "Summarize FILE in parallel batches, reporting the failure count",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runAsync,
	}
	f := cmd.Flags()
	f.StringP(keyBatchSize, "b", "1MiB", "size in bytes of each read batch")
	f.IntP(keyQueueSize, "r", summarize.DefaultQueueSize, "maximum batch summaries waiting for the reducer")
	f.Int(keyWorkers, 0, "maximum batches parsed at once, 0 for no limit")
	f.String(keyMemBudget, "", "maximum batch bytes held in memory (default 50% of RAM)")
	return cmd
}

func (a *app) runSync(cmd *cobra.Command, args []string) error {
	bufCap, err := parseSize(a.v.GetString(keyBufferCap))
	if err != nil {
		return fmt.Errorf("invalid --buffer-capacity: %w", err)
	}

	ctx := logctx.WithRun(cmd.Context(), logging.WithPhase("summarize"))
	tracker := memdiag.NewTracker(memdiag.ConfigFromEnv(), nil)
	tracker.Start()
	defer tracker.Stop()

	s := summarize.NewSequential(a.settings.parser)
	s.BufferCapacity = bufCap
	s.Delimiter = a.settings.delimiter
	s.MaxRecordSize = a.settings.maxRecordSize

	sum, err := s.SummarizeOpen(ctx, a.open(args[0]))
	if err != nil {
		return err
	}
	return a.render(sum.Snapshot(), sum.Errors().Diagnostics())
}

func (a *app) runAsync(cmd *cobra.Command, args []string) error {
	batchSize, err := parseSize(a.v.GetString(keyBatchSize))
	if err != nil {
		return fmt.Errorf("invalid --batch-size: %w", err)
	}
	if batchSize == 0 {
		return errors.New("invalid --batch-size: must be positive")
	}
	queueSize := a.v.GetInt(keyQueueSize)
	if queueSize <= 0 {
		return fmt.Errorf("invalid --reducer-channel-size %d: must be positive", queueSize)
	}
	workers := a.v.GetInt(keyWorkers)
	if workers < 0 {
		return fmt.Errorf("invalid --workers %d: must not be negative", workers)
	}

	cliBudget := ""
	if cmd.Flags().Changed(keyMemBudget) {
		cliBudget, _ = cmd.Flags().GetString(keyMemBudget)
	}
	budget, err := determineMemoryBudget(cliBudget, a.v.GetString(keyMemBudget))
	if err != nil {
		return err
	}

	ctx := logctx.WithRun(cmd.Context(), logging.WithPhase("summarize"))
	log := logctx.FromContext(ctx)
	log.Info().
		Str("budget", humanfmt.Bytes(budget.Total())).
		Str("budget_source", string(budget.Source())).
		Int("batch_size", batchSize).
		Int("workers", workers).
		Msg("starting async summary")

	tracker := memdiag.NewTracker(memdiag.ConfigFromEnv(), budget)
	tracker.Start()
	defer tracker.Stop()

	c := summarize.NewConcurrent(a.settings.parser)
	c.BatchSize = batchSize
	c.QueueSize = queueSize
	c.Workers = workers
	c.Delimiter = a.settings.delimiter
	c.MaxRecordSize = a.settings.maxRecordSize
	c.Budget = budget

	sum, err := c.Summarize(ctx, a.open(args[0]))
	if err != nil {
		return err
	}
	return a.render(sum.Snapshot(), sum.Errors().Diagnostics())
}

// open defers opening path to the summarizer, which owns the input.
func (a *app) open(path string) summarize.OpenFunc {
	return func(ctx context.Context) (source.Input, error) {
		return a.opener.Open(ctx, path)
	}
}

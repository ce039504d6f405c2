package summarize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Justice4Joffrey/log-parser/internal/logctx"
	"github.com/Justice4Joffrey/log-parser/pkg/batch"
	"github.com/Justice4Joffrey/log-parser/pkg/lines"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
	"github.com/Justice4Joffrey/log-parser/pkg/membudget"
	"github.com/Justice4Joffrey/log-parser/pkg/parser"
	"github.com/Justice4Joffrey/log-parser/pkg/source"
	"github.com/Justice4Joffrey/log-parser/pkg/summary"
)

// OpenFunc opens the input. It is called from the reader goroutine, which
// owns the input until the last batch has been read.
type OpenFunc func(ctx context.Context) (source.Input, error)

// Concurrent summarizes with one reader goroutine producing
// delimiter-aligned batches, one mapper goroutine per batch, and a single
// reducer folding mapper results from a bounded queue.
//
// Record positions are unknown across batches, so failures are only counted.
type Concurrent struct {
	Parser parser.Parser
	// BatchSize is the number of bytes requested per batch.
	BatchSize int
	// QueueSize is the capacity of the queue between mappers and the reducer.
	QueueSize int
	Delimiter byte
	// MaxRecordSize bounds a single record, delimiter included. Zero or
	// negative means unlimited.
	MaxRecordSize int
	// Workers limits concurrently running mappers. Zero means no limit.
	Workers int
	// Budget, when set, bounds the bytes of batches read but not yet parsed.
	Budget *membudget.Budget
}

// NewConcurrent returns a Concurrent with default settings.
func NewConcurrent(p parser.Parser) *Concurrent {
	return &Concurrent{
		Parser:        p,
		BatchSize:     DefaultBatchSize,
		QueueSize:     DefaultQueueSize,
		Delimiter:     DefaultDelimiter,
		MaxRecordSize: DefaultMaxRecordSize,
	}
}

type countSummary = summary.Summary[*summary.CountErrors]

// readStats is written by the reader goroutine and read after it exits.
type readStats struct {
	batches   int64
	bytesRead int64
}

// SummarizeReader summarizes r. The caller keeps ownership of r.
func (c *Concurrent) SummarizeReader(ctx context.Context, r io.Reader) (*countSummary, error) {
	return c.Summarize(ctx, func(context.Context) (source.Input, error) {
		return source.Input{ReadCloser: io.NopCloser(r), Name: "reader", Size: source.SizeUnknown}, nil
	})
}

// Summarize opens the input with open and summarizes it. On error no partial
// summary is returned.
func (c *Concurrent) Summarize(ctx context.Context, open OpenFunc) (*countSummary, error) {
	cfg := c.withDefaults()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	results := make(chan *countSummary, cfg.QueueSize)
	final := summary.NewCounts()
	var stats readStats

	g.Go(func() error {
		return cfg.read(gctx, open, results, &stats)
	})

	g.Go(func() error {
		for {
			select {
			case s, ok := <-results:
				if !ok {
					return nil
				}
				final.Combine(s)
			case <-gctx.Done():
				return &Error{Kind: KindOther, Op: "reduce", Err: gctx.Err()}
			}
		}
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	logging.RunComplete(logctx.FromContext(ctx), "summarize", elapsed).
		Str("mode", "async").
		Bytes("bytes_read", stats.bytesRead).
		Count("batches", stats.batches).
		Count("types", int64(final.Len())).
		Count("errors", int64(final.Errors().Total())).
		Throughput(stats.bytesRead).
		Log("summary complete")
	return final, nil
}

func (c *Concurrent) withDefaults() *Concurrent {
	cfg := *c
	if cfg.Parser == nil {
		cfg.Parser = parser.Window{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	return &cfg
}

// read owns the input. It closes results once every mapper has returned.
func (c *Concurrent) read(ctx context.Context, open OpenFunc, results chan<- *countSummary, stats *readStats) error {
	defer close(results)

	in, err := open(ctx)
	if err != nil {
		return classify("open input", err)
	}
	defer in.Close()

	ctx = logctx.WithStr(ctx, "input", in.Name)
	log := logctx.FromContext(ctx)

	var progress *logging.ProgressTracker
	if in.Size > 0 {
		total := (in.Size + int64(c.BatchSize) - 1) / int64(c.BatchSize)
		progress = logging.NewProgressTracker("summarize", total, log)
	}

	reserve := int64(0)
	if c.Budget != nil {
		reserve = min(int64(c.BatchSize), c.Budget.Total())
	}

	br := batch.NewReader(in, batch.Config{
		BatchSize:     c.BatchSize,
		Delimiter:     c.Delimiter,
		MaxRecordSize: c.MaxRecordSize,
	})

	mg, mctx := errgroup.WithContext(ctx)
	if c.Workers > 0 {
		mg.SetLimit(c.Workers)
	}

	readErr := func() error {
		for index := int64(0); ; index++ {
			if err := mctx.Err(); err != nil {
				return classify("read batch", err)
			}
			if reserve > 0 {
				if err := c.Budget.Reserve(mctx, reserve); err != nil {
					return classify("reserve batch memory", err)
				}
			}

			buf, err := br.Next()
			if err != nil {
				c.release(reserve)
				if errors.Is(err, io.EOF) {
					return nil
				}
				return classify("read batch", err)
			}

			mg.Go(func() error {
				return c.mapBatch(mctx, index, buf, reserve, results, progress)
			})
		}
	}()

	mapErr := mg.Wait()
	stats.batches = br.Batches()
	stats.bytesRead = br.BytesRead()

	if readErr != nil && !isContextErr(readErr) {
		return readErr
	}
	if mapErr != nil {
		return mapErr
	}
	return readErr
}

func (c *Concurrent) release(n int64) {
	if c.Budget != nil && n > 0 {
		c.Budget.Release(n)
	}
}

// mapBatch parses one batch into a local summary and hands it to the reducer.
func (c *Concurrent) mapBatch(
	ctx context.Context,
	index int64,
	buf []byte,
	reserved int64,
	results chan<- *countSummary,
	progress *logging.ProgressTracker,
) (err error) {
	released := false
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Kind: KindTask, Op: fmt.Sprintf("map batch %d", index), Err: fmt.Errorf("panic: %v", r)}
		}
		if !released {
			c.release(reserved)
		}
	}()

	start := time.Now()
	local := summary.NewCounts()
	for rec := range lines.All(buf, c.Delimiter) {
		if c.MaxRecordSize > 0 && len(rec) > c.MaxRecordSize {
			return recordTooLong(c.MaxRecordSize, len(rec))
		}
		md, perr := c.Parser.Parse(rec)
		if perr != nil {
			local.RegisterError(0)
			continue
		}
		local.Accumulate(md)
	}

	released = true
	c.release(reserved)

	select {
	case results <- local:
	case <-ctx.Done():
		return &Error{Kind: KindTask, Op: fmt.Sprintf("send batch %d", index), Err: ctx.Err()}
	}

	elapsed := time.Since(start)
	log := logctx.FromContext(logctx.WithBatch(ctx, index))
	if progress != nil {
		progress.RecordCompletion(int64(len(buf)), elapsed)
	}
	if log.GetLevel() <= zerolog.DebugLevel {
		ev := logging.BatchComplete(log, "summarize", elapsed).
			Bytes("bytes", int64(len(buf))).
			Count("records", int64(lines.Count(buf, c.Delimiter)))
		if progress != nil {
			ev = ev.ProgressFromTracker(progress)
		}
		ev.LogDebug("batch parsed")
	}
	return nil
}

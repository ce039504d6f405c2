// Package summarize turns a stream of delimiter-separated records into a
// summary.Summary, either sequentially or with a concurrent map-reduce over
// independently read batches.
package summarize

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/Justice4Joffrey/log-parser/internal/logctx"
	"github.com/Justice4Joffrey/log-parser/pkg/batch"
	"github.com/Justice4Joffrey/log-parser/pkg/logging"
	"github.com/Justice4Joffrey/log-parser/pkg/parser"
	"github.com/Justice4Joffrey/log-parser/pkg/source"
	"github.com/Justice4Joffrey/log-parser/pkg/summary"
)

// Defaults shared by both summarizers.
const (
	DefaultBufferCapacity = 1024
	DefaultBatchSize      = batch.DefaultBatchSize
	DefaultQueueSize      = 1024
	DefaultDelimiter      = batch.DefaultDelimiter
	DefaultMaxRecordSize  = batch.DefaultMaxRecordSize
)

// ctxCheckInterval is how many records are read between cancellation checks.
const ctxCheckInterval = 1024

// Sequential reads records one at a time and keeps the index of every record
// that fails to parse.
type Sequential struct {
	Parser parser.Parser
	// BufferCapacity is the size of the read buffer. Records longer than it
	// are still read whole.
	BufferCapacity int
	Delimiter      byte
	// MaxRecordSize bounds a single record, delimiter included. Zero or
	// negative means unlimited.
	MaxRecordSize int
}

// NewSequential returns a Sequential with default settings.
func NewSequential(p parser.Parser) *Sequential {
	return &Sequential{
		Parser:         p,
		BufferCapacity: DefaultBufferCapacity,
		Delimiter:      DefaultDelimiter,
		MaxRecordSize:  DefaultMaxRecordSize,
	}
}

// Summarize reads r to the end.
func (s *Sequential) Summarize(ctx context.Context, r io.Reader) (*summary.Summary[*summary.LineErrors], error) {
	sum, _, err := s.summarize(ctx, r)
	return sum, err
}

// SummarizeOpen opens the input with open and summarizes it like
// SummarizeSource. A failure to open is reported as KindIO.
func (s *Sequential) SummarizeOpen(ctx context.Context, open OpenFunc) (*summary.Summary[*summary.LineErrors], error) {
	in, err := open(ctx)
	if err != nil {
		return nil, classify("open input", err)
	}
	return s.SummarizeSource(ctx, in)
}

// SummarizeSource reads in to the end, closes it, and logs a completion event.
func (s *Sequential) SummarizeSource(ctx context.Context, in source.Input) (*summary.Summary[*summary.LineErrors], error) {
	defer in.Close()

	log := logctx.FromContext(logctx.WithStr(ctx, "input", in.Name))
	start := time.Now()
	sum, n, err := s.summarize(ctx, in)
	if err != nil {
		return nil, err
	}

	logging.RunComplete(log, "summarize", time.Since(start)).
		Str("mode", "sync").
		Bytes("bytes_read", n).
		Count("types", int64(sum.Len())).
		Count("errors", int64(sum.Errors().Total())).
		Throughput(n).
		Log("summary complete")
	return sum, nil
}

func (s *Sequential) summarize(ctx context.Context, r io.Reader) (*summary.Summary[*summary.LineErrors], int64, error) {
	p := s.Parser
	if p == nil {
		p = parser.Window{}
	}
	bufSize := s.BufferCapacity
	if bufSize <= 0 {
		bufSize = DefaultBufferCapacity
	}

	br := bufio.NewReaderSize(r, bufSize)
	sum := summary.NewLines()
	var (
		rec       []byte
		bytesRead int64
	)

	for index := 0; ; index++ {
		if index%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, bytesRead, classify("summarize", err)
			}
		}

		var err error
		rec, err = readRecord(br, rec[:0], s.Delimiter, s.MaxRecordSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, bytesRead, err
		}
		if len(rec) == 0 {
			return sum, bytesRead, nil
		}
		bytesRead += int64(len(rec))

		md, perr := p.Parse(rec)
		if perr != nil {
			sum.RegisterError(index)
		} else {
			sum.Accumulate(md)
		}

		if err != nil {
			return sum, bytesRead, nil
		}
	}
}

// readRecord appends the next record, delimiter included, to rec.
func readRecord(br *bufio.Reader, rec []byte, delim byte, limit int) ([]byte, error) {
	for {
		frag, err := br.ReadSlice(delim)
		rec = append(rec, frag...)
		if limit > 0 && len(rec) > limit {
			return rec, recordTooLong(limit, len(rec))
		}
		switch {
		case err == nil:
			return rec, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return rec, io.EOF
		default:
			return rec, classify("read record", err)
		}
	}
}

// Package batch reads a stream in large delimiter-aligned chunks so that no
// record is ever split across two batches.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
)

// Defaults for Config fields left at zero.
const (
	DefaultBatchSize     = 1 << 20
	DefaultDelimiter     = '\n'
	DefaultMaxRecordSize = 64 << 20
)

// ErrRecordTooLong is returned when a single record exceeds MaxRecordSize.
var ErrRecordTooLong = errors.New("record exceeds maximum record size")

// Config controls batch sizing.
type Config struct {
	// BatchSize is the number of bytes requested per batch. Batches are cut
	// at the last delimiter, so most are slightly shorter.
	BatchSize int
	// Delimiter separates records.
	Delimiter byte
	// MaxRecordSize bounds how far a batch may grow while looking for a
	// delimiter. Zero or negative means unlimited.
	MaxRecordSize int
}

// DefaultConfig returns a Config with default batch size, newline delimiter
// and a 64 MiB record limit.
func DefaultConfig() Config {
	return Config{
		BatchSize:     DefaultBatchSize,
		Delimiter:     DefaultDelimiter,
		MaxRecordSize: DefaultMaxRecordSize,
	}
}

// Reader produces delimiter-aligned batches from an io.Reader.
//
// Reader is not safe for concurrent use; it is meant to be driven by a single
// goroutine that hands each batch off to a worker.
type Reader struct {
	r   io.Reader
	cfg Config

	rem []byte
	eof bool

	batches   int64
	bytesRead int64
}

// NewReader creates a Reader. A non-positive BatchSize selects DefaultBatchSize.
func NewReader(r io.Reader, cfg Config) *Reader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Reader{r: r, cfg: cfg}
}

// Next returns the next batch. Every batch but the last ends with the
// delimiter; the last holds whatever followed the final delimiter. The
// returned slice is owned by the caller. Next returns io.EOF once the input
// and any carried remainder are exhausted.
func (r *Reader) Next() ([]byte, error) {
	buf := r.rem
	r.rem = nil

	target := r.cfg.BatchSize
	if len(buf) >= target {
		target = len(buf) + r.cfg.BatchSize
	}
	searched := 0

	for {
		if !r.eof && len(buf) < target {
			buf = slices.Grow(buf, target-len(buf))
			n, err := io.ReadFull(r.r, buf[len(buf):target])
			buf = buf[:len(buf)+n]
			r.bytesRead += int64(n)
			switch {
			case err == io.EOF || err == io.ErrUnexpectedEOF:
				r.eof = true
			case err != nil:
				return nil, fmt.Errorf("read batch: %w", err)
			}
		}

		if len(buf) == 0 {
			return nil, io.EOF
		}

		if r.eof {
			r.batches++
			return buf[:len(buf):len(buf)], nil
		}

		if i := bytes.LastIndexByte(buf[searched:], r.cfg.Delimiter); i >= 0 {
			cut := searched + i + 1
			if cut < len(buf) {
				r.rem = append([]byte(nil), buf[cut:]...)
			}
			r.batches++
			return buf[:cut:cut], nil
		}

		if r.cfg.MaxRecordSize > 0 && len(buf) > r.cfg.MaxRecordSize {
			return nil, fmt.Errorf("%w: more than %d bytes without a delimiter", ErrRecordTooLong, r.cfg.MaxRecordSize)
		}
		searched = len(buf)
		target = len(buf) + r.cfg.BatchSize
	}
}

// Batches returns the number of batches returned so far.
func (r *Reader) Batches() int64 { return r.batches }

// BytesRead returns the number of bytes consumed from the underlying reader.
func (r *Reader) BytesRead() int64 { return r.bytesRead }

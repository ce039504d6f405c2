package summarize

import (
	"context"
	"errors"
	"fmt"

	"github.com/Justice4Joffrey/log-parser/pkg/batch"
)

// ErrRecordTooLong is returned (wrapped in *Error) when a record exceeds the
// configured maximum size.
var ErrRecordTooLong = batch.ErrRecordTooLong

// Kind classifies a fatal summarizer error.
type Kind int

const (
	// KindOther covers cancellation and anything not classified below.
	KindOther Kind = iota
	// KindIO is a failure opening or reading the input.
	KindIO
	// KindTask is a failure coordinating concurrent work: a panicking worker
	// or a result that could not be delivered.
	KindTask
	// KindRecordTooLong means a single record exceeded the maximum size.
	KindRecordTooLong
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindTask:
		return "task"
	case KindRecordTooLong:
		return "record_too_long"
	default:
		return "other"
	}
}

// Error is a fatal summarizer error. Per-record parse failures are never
// reported this way; they are tallied in the Summary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindOther if err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, ErrRecordTooLong) {
		return KindRecordTooLong
	}
	return KindOther
}

// classify wraps an error from reading the input.
func classify(op string, err error) error {
	var se *Error
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, ErrRecordTooLong):
		return &Error{Kind: KindRecordTooLong, Op: op, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindOther, Op: op, Err: err}
	default:
		return &Error{Kind: KindIO, Op: op, Err: err}
	}
}

func recordTooLong(limit int, got int) error {
	return &Error{
		Kind: KindRecordTooLong,
		Op:   "read record",
		Err:  fmt.Errorf("%w: %d bytes, limit %d", ErrRecordTooLong, got, limit),
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

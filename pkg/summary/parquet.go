package summary

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// Key/value metadata stored in the Parquet footer.
const (
	metaTotalSize   = "log_parser.total_size"
	metaTotalErrors = "log_parser.total_errors"
)

// WriteParquet writes one row per type ({type, bytes, records}) ordered by
// bytes descending. The total size and error count go into the file's
// key/value metadata.
func (s Snapshot) WriteParquet(w io.Writer) error {
	pw := parquet.NewGenericWriter[TypeRow](w,
		parquet.KeyValueMetadata(metaTotalSize, strconv.FormatInt(s.TotalSize, 10)),
		parquet.KeyValueMetadata(metaTotalErrors, strconv.Itoa(s.TotalErrors)),
	)

	rows := s.Rows()
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			pw.Close()
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads a snapshot written by WriteParquet.
func ReadParquet(r io.ReaderAt, size int64) (Snapshot, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open parquet file: %w", err)
	}

	snap := Snapshot{
		TypeSize:    make(map[string]int64),
		TypeRecords: make(map[string]int64),
	}
	if v, ok := f.Lookup(metaTotalSize); ok {
		if snap.TotalSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			return Snapshot{}, fmt.Errorf("parse %s: %w", metaTotalSize, err)
		}
	}
	if v, ok := f.Lookup(metaTotalErrors); ok {
		if snap.TotalErrors, err = strconv.Atoi(v); err != nil {
			return Snapshot{}, fmt.Errorf("parse %s: %w", metaTotalErrors, err)
		}
	}

	reader := parquet.NewGenericReader[TypeRow](f)
	defer reader.Close()

	buf := make([]TypeRow, 256)
	for {
		n, err := reader.Read(buf)
		for _, row := range buf[:n] {
			snap.TypeSize[row.Type] += row.Bytes
			snap.TypeRecords[row.Type] += row.Records
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return snap, nil
}

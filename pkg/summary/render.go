package summary

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/Justice4Joffrey/log-parser/pkg/humanfmt"
)

// Snapshot is the serializable result of a run.
type Snapshot struct {
	TotalSize   int64            `json:"total_size"`
	TypeSize    map[string]int64 `json:"type_size"`
	TotalErrors int              `json:"total_errors"`

	// TypeRecords is the per-type record count. It is carried by the table
	// and Parquet renderings but not by the JSON document.
	TypeRecords map[string]int64 `json:"-"`
}

// Rows returns the snapshot's types sorted by bytes descending, then name.
func (s Snapshot) Rows() []TypeRow {
	rows := make([]TypeRow, 0, len(s.TypeSize))
	for name, b := range s.TypeSize {
		rows = append(rows, TypeRow{Type: name, Bytes: b, Records: s.TypeRecords[name]})
	}
	sortRows(rows)
	return rows
}

// WriteTable writes one aligned "<type> <size>" line per type, largest first,
// followed by a "Total:" line.
func (s Snapshot) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range s.Rows() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", strings.ToValidUTF8(row.Type, "�"), humanfmt.Bytes(row.Bytes)); err != nil {
			return fmt.Errorf("write table row: %w", err)
		}
	}
	if _, err := fmt.Fprintf(tw, "Total:\t%s\n", humanfmt.Bytes(s.TotalSize)); err != nil {
		return fmt.Errorf("write table total: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return nil
}

// WriteJSON writes the snapshot as an indented JSON document.
func (s Snapshot) WriteJSON(w io.Writer) error {
	typeSize := s.TypeSize
	if typeSize == nil {
		typeSize = map[string]int64{}
	}
	out := s
	out.TypeSize = typeSize

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshotJSON decodes a document written by WriteJSON.
func ReadSnapshotJSON(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.TypeSize == nil {
		snap.TypeSize = map[string]int64{}
	}
	return snap, nil
}

// WriteTable renders s as a table. See Snapshot.WriteTable.
func (s *Summary[E]) WriteTable(w io.Writer) error {
	return s.Snapshot().WriteTable(w)
}

// WriteJSON renders s as JSON. See Snapshot.WriteJSON.
func (s *Summary[E]) WriteJSON(w io.Writer) error {
	return s.Snapshot().WriteJSON(w)
}

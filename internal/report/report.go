// Package report writes the two side-channel outputs the generator
// produces alongside a harness: a GraphViz .dot snapshot of the
// dependence graph at a checkpoint, and a timing-results CSV. Adapted
// from the teacher's internal/reporting exportCSV, which uses
// encoding/csv the same way: open the file, wrap it in csv.NewWriter,
// write a header row, then one row per record.
package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/maroar/psyche-harness/internal/depgraph"
)

// WriteDot writes g's GraphViz rendering, labeled name, to path.
func WriteDot(path string, g *depgraph.Graph, name string) error {
	return os.WriteFile(path, []byte(g.DOT(name)), 0o644)
}

// TimingRow is one line of a test/call/elapsed_ns timing CSV. The emitted
// harness does not write this format: with --csv it creates its own file
// with an INVALID_RAND column and one execution-time column per test.
type TimingRow struct {
	Test     int
	Call     int
	ElapsedNS int64
}

// WriteCSVHeader creates path and writes only the TimingRow header row.
func WriteCSVHeader(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	return w.Write([]string{"test", "call", "elapsed_ns"})
}

// WriteCSV writes a complete timing CSV (header plus one row per
// TimingRow) from in-process rows.
func WriteCSV(path string, rows []TimingRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"test", "call", "elapsed_ns"}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{strconv.Itoa(r.Test), strconv.Itoa(r.Call), strconv.FormatInt(r.ElapsedNS, 10)}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Package report writes the simulator's output: the per-level CSV
// reports named in the trace-file formats, and, optionally, a SQLite
// result store for runs that want their history kept queryable.
package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/bmyjacks/memsim/internal/memsim"
)

// MultiLevelHeader is the header row of the multi-level CSV report.
var MultiLevelHeader = []string{
	"Level", "NumReads", "NumWrites", "NumHits", "NumMisses", "MissRate", "TotalCycles",
}

// SweepHeader is the header row of the single-level sweep CSV report.
var SweepHeader = []string{
	"cacheSize", "blockSize", "associativity", "missRate", "totalCycles",
}

// CSVReport wraps encoding/csv with the register-an-atexit-hook shape of
// the teacher's CSVTraceWriter. Open writes and flushes the header, and
// WriteRow flushes every row as soon as it is written, so rows already
// written stay on disk if a run stops early; Flush and the atexit hook
// registered in Open flush whatever the csv.Writer still holds.
type CSVReport struct {
	path string
	file *os.File
	w    *csv.Writer
}

// NewCSVReport creates a report that will write to path once Open is
// called. If path is empty, Open synthesizes one from a fresh run ID.
func NewCSVReport(path string) *CSVReport {
	return &CSVReport{path: path}
}

// Open creates the CSV file, writes header, and registers an atexit
// flush-and-close hook. It panics (I/O error, per the error taxonomy) if
// the file cannot be created.
func (r *CSVReport) Open(header []string) {
	if r.path == "" {
		r.path = "memsim_" + xid.New().String() + ".csv"
	}

	file, err := os.Create(r.path)
	if err != nil {
		panic(fmt.Errorf("report: cannot create %s: %w", r.path, err))
	}
	r.file = file
	r.w = csv.NewWriter(file)

	if err := r.w.Write(header); err != nil {
		panic(fmt.Errorf("report: cannot write header to %s: %w", r.path, err))
	}
	r.w.Flush()

	atexit.Register(func() {
		r.Flush()
		_ = r.file.Close()
	})
}

// Path returns the file path the report writes to (resolved after Open).
func (r *CSVReport) Path() string {
	return r.path
}

// WriteRow appends one row of already-formatted fields and flushes it.
// Flushing eagerly, rather than buffering, keeps the already-written
// rows intact if a later record in the trace turns out to be malformed.
func (r *CSVReport) WriteRow(fields []string) {
	if err := r.w.Write(fields); err != nil {
		panic(fmt.Errorf("report: cannot write row to %s: %w", r.path, err))
	}
	r.w.Flush()
}

// Flush flushes any buffered rows to disk.
func (r *CSVReport) Flush() {
	r.w.Flush()
}

// WriteMultiLevelRow writes one row of the multi-level report for a
// single level's statistics.
func (r *CSVReport) WriteMultiLevelRow(level string, s memsim.Statistics) {
	r.WriteRow([]string{
		level,
		fmt.Sprintf("%d", s.NumRead),
		fmt.Sprintf("%d", s.NumWrite),
		fmt.Sprintf("%d", s.NumHit),
		fmt.Sprintf("%d", s.NumMiss),
		fmt.Sprintf("%.2f", s.MissRate()*100),
		fmt.Sprintf("%d", s.TotalCycles),
	})
}

// WriteSweepRow writes one row of the single-level sweep report.
func (r *CSVReport) WriteSweepRow(res memsim.SweepResult) {
	r.WriteRow([]string{
		fmt.Sprintf("%d", res.CacheSize),
		fmt.Sprintf("%d", res.BlockSize),
		fmt.Sprintf("%d", res.Associativity),
		fmt.Sprintf("%.6f", res.MissRate),
		fmt.Sprintf("%d", res.TotalCycles),
	})
}

// NewRunID mints a fresh run identifier, used to tag the SQLite rows of
// one invocation. A CSV path synthesized by Open uses its own, separate
// xid, not this one.
func NewRunID() xid.ID {
	return xid.New()
}

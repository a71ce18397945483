package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmyjacks/memsim/internal/memsim"
	"github.com/bmyjacks/memsim/internal/report"
	"github.com/bmyjacks/memsim/internal/trace"
)

var sweepFlags struct {
	fifo        bool
	hitLatency  uint64
	missLatency uint64
	csvPath     string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep <trace>",
	Short: "Replay a multi-level trace against a grid of single-level cache geometries.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().BoolVarP(&sweepFlags.fifo, "fifo", "f", false, "use FIFO replacement instead of LRU")
	sweepCmd.Flags().Uint64Var(&sweepFlags.hitLatency, "hit-latency", 1, "hit latency applied to every geometry in the sweep")
	sweepCmd.Flags().Uint64Var(&sweepFlags.missLatency, "miss-latency", 8, "miss latency applied to every geometry in the sweep")
	sweepCmd.Flags().StringVar(&sweepFlags.csvPath, "csv", "", "output CSV path (default: <trace>_sweep.csv)")

	rootCmd.AddCommand(sweepCmd)
}

// sweepCacheSizes, sweepBlockSizes and sweepAssociativities are the grid
// the sweep subcommand explores; every combination that yields a valid
// Policy (power-of-two set count included) is run.
var (
	sweepCacheSizes      = []uint32{8 * 1024, 16 * 1024, 32 * 1024, 64 * 1024}
	sweepBlockSizes      = []uint32{16, 32, 64}
	sweepAssociativities = []uint32{1, 2, 4, 8}
)

func runSweep(cmd *cobra.Command, args []string) error {
	tracePath := args[0]

	accesses, err := loadAccesses(tracePath)
	if err != nil {
		return err
	}

	csvPath := sweepFlags.csvPath
	if csvPath == "" {
		csvPath = tracePath + "_sweep.csv"
	}
	csvReport := report.NewCSVReport(csvPath)
	csvReport.Open(report.SweepHeader)

	for _, cacheSize := range sweepCacheSizes {
		for _, blockSize := range sweepBlockSizes {
			for _, assoc := range sweepAssociativities {
				result := runOneSweepPoint(cacheSize, blockSize, assoc, accesses)
				if result == nil {
					continue
				}
				csvReport.WriteSweepRow(*result)
			}
		}
	}
	csvReport.Flush()

	fmt.Printf("memsim: wrote %s\n", csvReport.Path())
	return nil
}

// runOneSweepPoint runs one geometry in the sweep grid, discarding it
// (returning nil) if the geometry violates a Policy construction
// invariant rather than letting an invalid combination panic the whole
// sweep.
func runOneSweepPoint(cacheSize, blockSize, assoc uint32, accesses []memsim.Access) *memsim.SweepResult {
	blockNum := cacheSize / blockSize
	if blockNum == 0 || blockNum%assoc != 0 {
		return nil
	}

	var result *memsim.SweepResult
	func() {
		defer func() {
			if recover() != nil {
				result = nil
			}
		}()

		policy := memsim.Policy{
			CacheSize:     cacheSize,
			BlockSize:     blockSize,
			Associativity: assoc,
			HitLatency:    sweepFlags.hitLatency,
			MissLatency:   sweepFlags.missLatency,
		}
		stats := memsim.RunSingleLevel(policy, sweepFlags.fifo, accesses)
		result = &memsim.SweepResult{
			CacheSize:     cacheSize,
			BlockSize:     blockSize,
			Associativity: assoc,
			MissRate:      stats.MissRate(),
			TotalCycles:   stats.TotalCycles,
		}
	}()

	return result
}

// loadAccesses reads an entire multi-level trace file into memory as a
// fixed access sequence, so the sweep can replay it against many
// independent cache geometries without re-parsing the file each time.
func loadAccesses(path string) ([]memsim.Access, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memsim: cannot open trace %s: %w", path, err)
	}
	defer file.Close()

	var accesses []memsim.Access
	reader := trace.NewReader(file)
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "memsim: %v, stopping trace processing\n", err)
			break
		}
		accesses = append(accesses, memsim.Access{Op: rec.Op, Addr: rec.Addr})
	}
	return accesses, nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bmyjacks/memsim/internal/config"
	"github.com/bmyjacks/memsim/internal/memsim"
	"github.com/bmyjacks/memsim/internal/monitor"
	"github.com/bmyjacks/memsim/internal/report"
	"github.com/bmyjacks/memsim/internal/trace"
)

var runFlags struct {
	prefetch    bool
	fifo        bool
	victim      bool
	step        bool
	verbose     bool
	csvPath     string
	dbPath      string
	serve       bool
	port        int
	openBrowser bool
}

var runCmd = &cobra.Command{
	Use:   "run <trace>",
	Short: "Simulate a multi-level hierarchy over a multi-level trace file.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runFlags.prefetch, "prefetch", "p",
		config.Bool("MEMSIM_PREFETCH", false), "enable the L1 stride prefetcher")
	runCmd.Flags().BoolVarP(&runFlags.fifo, "fifo", "f",
		config.Bool("MEMSIM_FIFO", false), "use FIFO replacement instead of LRU")
	runCmd.Flags().BoolVarP(&runFlags.victim, "victim", "i",
		config.Bool("MEMSIM_VICTIM", false), "attach an 8 KiB victim cache behind L1")
	runCmd.Flags().BoolVarP(&runFlags.step, "step", "s", false, "print per-access debug info")
	runCmd.Flags().BoolVarP(&runFlags.verbose, "verbose", "v", false, "print verbose cache state in debug info")
	runCmd.Flags().StringVar(&runFlags.csvPath, "csv", "", "output CSV path (default: <trace>_multi_level.csv)")
	runCmd.Flags().StringVar(&runFlags.dbPath, "db", "", "optional SQLite database to also record results into")
	runCmd.Flags().BoolVar(&runFlags.serve, "serve", false, "serve live statistics over HTTP while running")
	runCmd.Flags().IntVar(&runFlags.port, "port", 0, "port for --serve (0 picks a random free port)")
	runCmd.Flags().BoolVar(&runFlags.openBrowser, "open-browser", false, "open the stats page in a browser with --serve")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	tracePath := args[0]
	logger := log.New(os.Stderr, "memsim: ", log.LstdFlags)

	h := memsim.NewHierarchyBuilder().
		WithFIFO(runFlags.fifo).
		WithPrefetch(runFlags.prefetch).
		WithVictim(runFlags.victim).
		WithLogger(logger).
		Build()

	if runFlags.serve {
		mon := monitor.NewMonitor().WithPort(runFlags.port).RegisterHierarchy(h)
		addr, err := mon.Serve(runFlags.openBrowser)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "memsim: serving stats at %s\n", addr)
	}

	file, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("memsim: cannot open trace %s: %w", tracePath, err)
	}
	defer file.Close()

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

		h.Process(rec.Op, rec.Addr)

		if runFlags.step {
			h.L1().PrintInfo(runFlags.verbose)
		}
	}

	if runFlags.step {
		h.PrintStatistics()
	}

	csvPath := runFlags.csvPath
	if csvPath == "" {
		csvPath = tracePath + "_multi_level.csv"
	}
	csvReport := report.NewCSVReport(csvPath)
	csvReport.Open(report.MultiLevelHeader)

	var store *report.SQLiteStore
	runID := report.NewRunID()
	if runFlags.dbPath != "" {
		store, err = report.OpenSQLiteStore(runFlags.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	for _, lv := range h.Levels() {
		csvReport.WriteMultiLevelRow(lv.Level, lv.Statistics)
		if store != nil {
			if err := store.InsertLevel(runID, lv.Level, lv.Statistics); err != nil {
				return err
			}
		}
	}
	csvReport.Flush()

	fmt.Printf("memsim: wrote %s\n", csvReport.Path())
	return nil
}

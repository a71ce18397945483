package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bmyjacks/memsim/internal/matmul"
)

var genmatmulFlags struct {
	base uint32
}

var genmatmulCmd = &cobra.Command{
	Use:   "genmatmul <n> <trace-out>",
	Short: "Generate a multi-level trace for an n x n naive matrix multiply.",
	Args:  cobra.ExactArgs(2),
	RunE:  runGenmatmul,
}

func init() {
	genmatmulCmd.Flags().Uint32Var(&genmatmulFlags.base, "base", 0x1000, "base address of the first matrix")

	rootCmd.AddCommand(genmatmulCmd)
}

func runGenmatmul(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return fmt.Errorf("memsim: matrix size must be a positive integer, got %q", args[0])
	}
	outPath := args[1]

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("memsim: cannot create %s: %w", outPath, err)
	}
	defer file.Close()

	if err := matmul.Generate(file, n, genmatmulFlags.base); err != nil {
		return fmt.Errorf("memsim: cannot generate trace: %w", err)
	}

	fmt.Printf("memsim: wrote %s\n", outPath)
	return nil
}

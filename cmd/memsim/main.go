// Command memsim replays a byte-granular memory access trace through a
// simulated multi-level cache hierarchy and reports per-level access
// counts, hit/miss counts, miss rates, and cycle totals.
package main

import "github.com/bmyjacks/memsim/cmd/memsim/internal/cli"

func main() {
	cli.Execute()
}

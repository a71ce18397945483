// Package matmul generates a multi-level memory trace by running a
// naive n×n matrix multiply over a simulated address space and emitting
// one "op addr" record per byte touched, for each element read or
// written — the standalone trace-generating driver named as an
// out-of-scope external collaborator in the simulator's core design.
package matmul

import (
	"bufio"
	"fmt"
	"io"
)

const wordSize = 8 // bytes per float64 element

// Generate writes an n×n naive matrix multiply's trace (C = A * B) to w,
// addressing three n*n-element arrays laid out back to back starting at
// base, in row-major order.
func Generate(w io.Writer, n int, base uint32) error {
	bw := bufio.NewWriter(w)
	defer bw.Flush()

	matrixBytes := uint32(n * n * wordSize)
	aBase := base
	bBase := aBase + matrixBytes
	cBase := bBase + matrixBytes

	elemAddr := func(matrixBase uint32, row, col int) uint32 {
		return matrixBase + uint32((row*n+col)*wordSize)
	}

	emit := func(op byte, addr uint32) error {
		_, err := fmt.Fprintf(bw, "%c %x\n", op, addr)
		return err
	}

	emitWord := func(op byte, addr uint32) error {
		for i := 0; i < wordSize; i++ {
			if err := emit(op, addr+uint32(i)); err != nil {
				return err
			}
		}
		return nil
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				if err := emitWord('r', elemAddr(aBase, i, k)); err != nil {
					return err
				}
				if err := emitWord('r', elemAddr(bBase, k, j)); err != nil {
					return err
				}
				if err := emitWord('r', elemAddr(cBase, i, j)); err != nil {
					return err
				}
				if err := emitWord('w', elemAddr(cBase, i, j)); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

package memsim

import (
	"log"
	"os"
)

// defaultLogger is the debug channel used when a component is built
// without an explicit logger. It mirrors the *log.Logger fields the
// teacher codebase threads through its tracers.
func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "memsim: ", log.LstdFlags)
}

// Package config loads optional default simulation parameters from a
// .env file before the CLI's own flags are parsed, so a workload's
// preferred run options (prefetch, FIFO, victim cache, split-run
// database path) can be checked into a repository instead of retyped on
// every invocation.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// init loads the default ".env" file, in the style of godotenv's own
// autoload package, before any importing package's init functions run —
// and therefore before cobra's subcommand init functions register flags
// with config.Bool/Uint32/String-sourced defaults. Without this, a
// default baked into a flag at registration time could never see a key
// that only exists in ".env", since Go runs every package's init before
// main (and Execute's PersistentPreRunE) ever gets to call Load again
// for an explicit --env path.
func init() {
	Load("")
}

// Load reads path (defaulting to ".env" in the working directory) into
// the process environment. A missing or unreadable file is not an error:
// the error godotenv.Load returns for it is discarded, so this is safe to
// call unconditionally before flag parsing.
func Load(path string) {
	if path == "" {
		path = ".env"
	}
	_ = godotenv.Load(path)
}

// Uint32 reads key from the environment, falling back to def if it is
// unset or does not parse as an unsigned integer.
func Uint32(key string, def uint32) uint32 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return def
	}
	return uint32(n)
}

// Bool reads key from the environment, falling back to def if it is
// unset or does not parse as a boolean.
func Bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// String reads key from the environment, falling back to def if unset.
func String(key string, def string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return v
}

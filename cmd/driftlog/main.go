// Command driftlog is the driftlog CLI — create, append to, inspect, and
// merge a replicated, content-addressed append-only log.
package main

import (
	"fmt"
	"os"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultDB = ".driftlog/blocks.db"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h", "help":
		printUsage()
		return
	case "--version", "-v", "version":
		fmt.Printf("driftlog %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	a, err := newApp()
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	case "init":
		os.Exit(a.cmdInit(os.Args[2:]))
	case "append":
		os.Exit(a.cmdAppend(os.Args[2:]))
	case "heads":
		os.Exit(a.cmdHeads(os.Args[2:]))
	case "values":
		os.Exit(a.cmdValues(os.Args[2:]))
	case "log":
		os.Exit(a.cmdLog(os.Args[2:]))
	case "export":
		os.Exit(a.cmdExport(os.Args[2:]))
	case "import":
		os.Exit(a.cmdImport(os.Args[2:]))
	case "join":
		os.Exit(a.cmdJoin(os.Args[2:]))
	case "status":
		os.Exit(a.cmdStatus(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "driftlog: unknown command %q\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Run 'driftlog --help' for usage.")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`driftlog — a replicated, content-addressed append-only log

Lamport clocks for causal ordering. Content-addressed entries for a
conflict-free, coordination-free merge.

Usage:
  driftlog <command> [flags]

Commands:
  init    [--id ID]                create a log, print its id
  append  <payload> [--pointers N] append, print the new entry hash
  heads   [--json]                 list current heads
  values  [--json]                 list values in LastWriteWins order
  log     [--json]                 render the log as an indented tree
  export  [--out FILE]             write a {id, heads} snapshot
  import  <file>                   load a snapshot, replacing local state
  join    <other-db>               merge in another replica's store
  status  [--json]                 id, length, heads, clock

Environment:
  DRIFTLOG_DB       sqlite path (default: .driftlog/blocks.db)
  DRIFTLOG_ID       log id, used by init
  DRIFTLOG_REPLICA  identity ID for a freshly created identity

Commands marked [--json] accept --json for machine-readable output.

Exit codes:
  0  success
  1  error
  2  append or join denied by access control
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "driftlog: "+format+"\n", args...)
	os.Exit(1)
}

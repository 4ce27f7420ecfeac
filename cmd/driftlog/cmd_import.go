package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ardnt/driftlog/pkg/dlog"
)

// cmdImport reconstructs a log from a {id, heads} snapshot and adopts it as
// this replica's current state. The entries it points at must already be
// present in the local block store — import does not fetch remote bytes,
// it only resolves a snapshot against blocks already on disk (run 'driftlog
// join' first to pull blocks in from another replica's store).
func (a *app) cmdImport(args []string) int {
	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "driftlog: import: missing <file>")
		return 1
	}

	data, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: import: %v\n", err)
		return 1
	}

	ctx := context.Background()
	l, err := dlog.FromJSON(ctx, a.collaborators(), data, -1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: import: %v\n", err)
		return 1
	}
	if err := a.saveLog(l); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: import: %v\n", err)
		return 1
	}

	fmt.Printf("imported log %q (%d entries)\n", l.ID(), l.Length())
	return 0
}

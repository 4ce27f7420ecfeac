package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ardnt/driftlog/pkg/dlog"
)

func (a *app) cmdInit(args []string) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	id := flags.String("id", "", "log id (defaults to DRIFTLOG_ID or a generated id)")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	if _, err := os.Stat(headPath(a.dir)); err == nil {
		fmt.Fprintf(os.Stderr, "driftlog: init: already initialized at %s\n", a.dir)
		return 1
	}

	logID := *id
	if logID == "" {
		logID = envOr("DRIFTLOG_ID", "")
	}

	l, err := dlog.New(a.store, a.signer, &dlog.Options{ID: logID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: init: %v\n", err)
		return 1
	}
	if err := a.saveLog(l); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: init: %v\n", err)
		return 1
	}

	fmt.Printf("initialized driftlog %q (db: %s, replica: %s)\n", l.ID(), a.dbPath, a.signer.Identity().ID)
	return 0
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdHeads(args []string) int {
	flags := flag.NewFlagSet("heads", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: heads: %v\n", err)
		return 1
	}

	heads := l.Heads()
	if *jsonOut {
		printJSON(heads)
		return 0
	}
	if len(heads) == 0 {
		fmt.Println("no heads")
		return 0
	}
	for _, h := range heads {
		fmt.Printf("%s  clock=%s/%d  %q\n", h.Hash, h.Clock.ReplicaID, h.Clock.Time, h.Payload)
	}
	return 0
}

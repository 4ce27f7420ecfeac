package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdStatus(args []string) int {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: status: %v\n", err)
		return 1
	}

	count, err := a.store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: status: %v\n", err)
		return 1
	}

	heads := l.Heads()
	headHashes := make([]string, len(heads))
	for i, h := range heads {
		headHashes[i] = h.Hash.String()
	}

	if *jsonOut {
		printJSON(map[string]interface{}{
			"id":           l.ID(),
			"replica":      a.signer.Identity().ID,
			"length":       l.Length(),
			"heads":        headHashes,
			"clock":        l.Clock(),
			"blocks_total": count,
		})
		return 0
	}

	fmt.Printf("id:       %s\n", l.ID())
	fmt.Printf("replica:  %s\n", a.signer.Identity().ID)
	fmt.Printf("length:   %d\n", l.Length())
	fmt.Printf("clock:    %s/%d\n", l.Clock().ReplicaID, l.Clock().Time)
	fmt.Printf("blocks:   %d\n", count)
	fmt.Println("heads:")
	for _, h := range headHashes {
		fmt.Printf("  %s\n", h)
	}
	return 0
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdValues(args []string) int {
	flags := flag.NewFlagSet("values", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: values: %v\n", err)
		return 1
	}

	values := l.Values()
	if *jsonOut {
		printJSON(values)
		return 0
	}
	if len(values) == 0 {
		fmt.Println("no values")
		return 0
	}
	for _, v := range values {
		fmt.Printf("%s  clock=%s/%d  %q\n", v.Hash, v.Clock.ReplicaID, v.Clock.Time, v.Payload)
	}
	return 0
}

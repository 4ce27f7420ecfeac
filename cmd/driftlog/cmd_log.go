package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdLog(args []string) int {
	flags := flag.NewFlagSet("log", flag.ContinueOnError)
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: log: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(l.ToSnapshot())
		return 0
	}
	fmt.Println(l.ToString(nil))
	return 0
}

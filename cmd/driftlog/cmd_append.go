package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ardnt/driftlog/pkg/dlog"
)

func (a *app) cmdAppend(args []string) int {
	flags := flag.NewFlagSet("append", flag.ContinueOnError)
	pointers := flags.Int("pointers", 1, "number of entries to reference, walked back from the current heads (heads included)")
	jsonOut := flags.Bool("json", false, "JSON output")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "driftlog: append: missing <payload>")
		return 1
	}
	payload := flags.Arg(0)

	ctx := context.Background()
	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: append: %v\n", err)
		return 1
	}

	e, err := dlog.Append(ctx, l, []byte(payload), *pointers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: append: %v\n", err)
		if err == dlog.ErrAppendDenied {
			return 2
		}
		return 1
	}
	if err := a.saveLog(l); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: append: %v\n", err)
		return 1
	}

	if *jsonOut {
		printJSON(map[string]interface{}{"hash": e.Hash.String(), "clock": e.Clock})
	} else {
		fmt.Println(e.Hash.String())
	}
	return 0
}

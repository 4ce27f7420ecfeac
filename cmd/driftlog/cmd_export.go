package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func (a *app) cmdExport(args []string) int {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	out := flags.String("out", "", "file to write the snapshot to (default: stdout)")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx := context.Background()
	l, err := a.openLog(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: export: %v\n", err)
		return 1
	}

	data, err := l.ToJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: export: %v\n", err)
		return 1
	}

	if *out == "" {
		fmt.Println(string(data))
		return 0
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "driftlog: export: %v\n", err)
		return 1
	}
	fmt.Printf("wrote snapshot to %s\n", *out)
	return 0
}

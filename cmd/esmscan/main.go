// Command esmscan is a thin command-line wrapper around the parse,
// decode, store, and diff packages: it is not part of the core pipeline
// contract, only a convenient driver for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/xerrors"
)

func funcmain() error {
	flag.Parse()

	type cmd struct {
		fn func(ctx context.Context, args []string) error
	}
	verbs := map[string]cmd{
		"snapshot": {cmdSnapshot},
		"list":     {cmdList},
		"stats":    {cmdStats},
		"diff":     {cmdDiff},
		"search":   {cmdSearch},
		"purge":    {cmdPurge},
		"clear":    {cmdClear},
		"compact":  {cmdCompact},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "esmscan <command> [-flags] [args]\n")
		fmt.Fprintf(os.Stderr, "commands: snapshot, list, stats, diff, search, purge, clear, compact\n")
		os.Exit(2)
	}
	verb, rest := args[0], args[1:]

	v, ok := verbs[verb]
	if !ok {
		return xerrors.Errorf("unknown command %q", verb)
	}
	return v.fn(context.Background(), rest)
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

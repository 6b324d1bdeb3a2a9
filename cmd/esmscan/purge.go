package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/esmscan/esmscan/internal/store"
)

func cmdPurge(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("purge", flag.ExitOnError)
	db := fset.String("db", "esmscan.db", "path to the snapshot database file")
	keep := fset.Int("keep", 5, "number of most recent snapshots to retain")
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.PurgeOldSnapshots(*keep)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d snapshot(s), kept the %d most recent\n", n, *keep)
	return nil
}

func cmdClear(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("clear", flag.ExitOnError)
	db := fset.String("db", "esmscan.db", "path to the snapshot database file")
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.ClearAllSnapshots()
	if err != nil {
		return err
	}
	fmt.Printf("cleared %d snapshot(s)\n", n)
	return nil
}

func cmdCompact(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("compact", flag.ExitOnError)
	db := fset.String("db", "esmscan.db", "path to the snapshot database file")
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	before, err := s.Size()
	if err != nil {
		return err
	}
	if err := s.Compact(); err != nil {
		return err
	}
	after, err := s.Size()
	if err != nil {
		return err
	}
	fmt.Printf("compacted %s: %.1f MB -> %.1f MB\n", *db, float64(before)/1024/1024, float64(after)/1024/1024)
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/esmscan/esmscan/internal/store"
)

func cmdList(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("list", flag.ExitOnError)
	db := fset.String("db", "esmscan.db", "path to the snapshot database file")
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	snaps, err := s.ListSnapshots()
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		fmt.Printf("#%d  %-30s  %s  records=%d strings=%d full=%v\n",
			snap.ID, snap.Label, snap.CreatedAt.Format("2006-01-02 15:04:05"),
			snap.RecordCount, snap.StringCount, snap.HasSubrecords)
	}
	return nil
}

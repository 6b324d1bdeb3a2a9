package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/esmscan/esmscan/internal/store"
)

func cmdStats(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("stats", flag.ExitOnError)
	var (
		db         = fset.String("db", "esmscan.db", "path to the snapshot database file")
		snapshotID = fset.Int64("snapshot", 0, "snapshot id (default: latest)")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.GetLatestSnapshot()
	if err != nil {
		return err
	}
	if *snapshotID != 0 {
		snap, err = s.GetSnapshot(*snapshotID)
		if err != nil {
			return err
		}
	}
	if snap == nil {
		fmt.Println("no snapshots found")
		return nil
	}

	size, err := s.Size()
	if err != nil {
		return err
	}

	fmt.Printf("snapshot #%d: %s (%s)\n", snap.ID, snap.Label, snap.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("records: %d  strings: %d\n", snap.RecordCount, snap.StringCount)
	fmt.Printf("db size: %.1f MB\n\n", float64(size)/1024/1024)

	counts, err := s.GetRecordTypeCounts(snap.ID)
	if err != nil {
		return err
	}
	fmt.Printf("%-8s  %8s\n", "type", "count")
	fmt.Println("------------------")
	for _, c := range counts {
		fmt.Printf("%-8s  %8d\n", c.Type, c.Count)
	}
	return nil
}

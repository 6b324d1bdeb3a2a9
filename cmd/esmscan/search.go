package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/esmscan/esmscan/internal/store"
)

func cmdSearch(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("search", flag.ExitOnError)
	var (
		db         = fset.String("db", "esmscan.db", "path to the snapshot database file")
		snapshotID = fset.Int64("snapshot", 0, "snapshot id (default: latest)")
		query      = fset.String("q", "", "free-text query against full name, editor id, or an exact form id")
		recordType = fset.String("type", "", "restrict to one record type")
		editorID   = fset.String("edid", "", "editor-id glob pattern, e.g. \"ATX_*\"")
		strQuery   = fset.String("strings", "", "search the string table instead of records")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	if *snapshotID == 0 {
		latest, err := s.GetLatestSnapshot()
		if err != nil {
			return err
		}
		if latest == nil {
			return fmt.Errorf("no snapshots in %s", *db)
		}
		*snapshotID = latest.ID
	}

	if *strQuery != "" {
		entries, err := s.SearchStrings(*snapshotID, *strQuery)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%d: %q\n", e.ID, e.Text)
		}
		return nil
	}

	records, err := s.SearchRecords(*snapshotID, *query, *recordType, *editorID)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("%s %s %-24s %q\n", r.FormID, r.Type, r.EditorID, r.FullName)
	}
	return nil
}

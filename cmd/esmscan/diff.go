package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/esmscan/esmscan/internal/diff"
	"github.com/esmscan/esmscan/internal/store"
)

func cmdDiff(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("diff", flag.ExitOnError)
	var (
		db         = fset.String("db", "esmscan.db", "path to the snapshot database file")
		oldID      = fset.Int64("old", 0, "older snapshot id (default: second-newest)")
		newID      = fset.Int64("new", 0, "newer snapshot id (default: newest)")
		recordType = fset.String("type", "", "restrict the diff to one record type")
		save       = fset.Bool("save", false, "persist this diff's summary and entries in the store")
		unreleased = fset.Bool("unreleased", false, "also scan the newer snapshot for unreleased-content heuristics")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	if *oldID == 0 || *newID == 0 {
		older, newer, err := s.GetTwoLatestSnapshots()
		if err != nil {
			return err
		}
		if older == nil || newer == nil {
			return fmt.Errorf("need at least two snapshots to diff; use -old/-new to select explicitly")
		}
		if *oldID == 0 {
			*oldID = older.ID
		}
		if *newID == 0 {
			*newID = newer.ID
		}
	}

	engine := diff.NewEngine(s)
	result, err := engine.Compare(*oldID, *newID, *recordType)
	if err != nil {
		return err
	}

	fmt.Printf("diff #%d -> #%d: %d added, %d removed, %d modified\n",
		result.OldSnapshotID, result.NewSnapshotID, len(result.Added), len(result.Removed), len(result.Modified))
	for _, r := range result.Added {
		fmt.Printf("  + %s %s %q\n", r.FormID, r.Type, r.EditorID)
	}
	for _, r := range result.Removed {
		fmt.Printf("  - %s %s %q\n", r.FormID, r.Type, r.EditorID)
	}
	for _, m := range result.Modified {
		fmt.Printf("  ~ %s %s %q\n", m.New.FormID, m.New.Type, m.New.EditorID)
		for _, c := range result.FieldChanges[m.New.FormID] {
			fmt.Printf("      %s: %q -> %q\n", c.Name, c.OldValue, c.NewValue)
		}
	}

	if *save {
		entries := buildDiffEntries(result)
		diffID, err := s.SaveDiff(*oldID, *newID, entries)
		if err != nil {
			return err
		}
		fmt.Printf("saved as diff #%d\n", diffID)
	}

	if *unreleased {
		report, err := diff.FindUnreleased(s, *newID)
		if err != nil {
			return err
		}
		fmt.Printf("\nunreleased-content heuristics for snapshot #%d:\n", *newID)
		fmt.Printf("  Atomic Shop (ATX_): %d\n", len(report.AtomicShop))
		fmt.Printf("  Cut/Test Content:   %d\n", len(report.CutTest))
		fmt.Printf("  High FormIDs:       %d\n", len(report.HighFormIDs))
		fmt.Printf("  Disabled Quests:    %d\n", len(report.DisabledQuest))
	}

	return nil
}

func buildDiffEntries(result *diff.Result) []store.DiffChangeEntry {
	var entries []store.DiffChangeEntry
	for _, r := range result.Added {
		entries = append(entries, store.DiffChangeEntry{
			FormID: r.FormID, ChangeType: "added", Type: r.Type,
			EditorID: r.EditorID, FullName: r.FullName, NewHash: r.DataHash,
		})
	}
	for _, r := range result.Removed {
		entries = append(entries, store.DiffChangeEntry{
			FormID: r.FormID, ChangeType: "removed", Type: r.Type,
			EditorID: r.EditorID, FullName: r.FullName, OldHash: r.DataHash,
		})
	}
	for _, m := range result.Modified {
		entries = append(entries, store.DiffChangeEntry{
			FormID: m.New.FormID, ChangeType: "modified", Type: m.New.Type,
			EditorID: m.New.EditorID, FullName: m.New.FullName,
			OldHash: m.Old.DataHash, NewHash: m.New.DataHash,
		})
	}
	return entries
}

package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/esmscan/esmscan/internal/pipeline"
	"github.com/esmscan/esmscan/internal/store"
)

func cmdSnapshot(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("snapshot", flag.ExitOnError)
	var (
		esm   = fset.String("esm", "", "path to the master archive (.esm)")
		ba2   = fset.String("ba2", "", "path to the general packed archive holding string tables (.ba2)")
		db    = fset.String("db", "esmscan.db", "path to the snapshot database file")
		label = fset.String("label", "", "snapshot label (default: derived from the archive name and a timestamp)")
		lang  = fset.String("lang", "en", "string-table language")
		full  = fset.Bool("full", false, "persist raw subrecord payloads (increases database size significantly)")
		quiet = fset.Bool("quiet", false, "suppress progress output")
	)
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *esm == "" || *ba2 == "" {
		return fmt.Errorf("-esm and -ba2 are required")
	}

	s, err := store.Open(*db)
	if err != nil {
		return err
	}
	defer s.Close()

	report := func(p pipeline.Progress) {
		if !*quiet {
			fmt.Printf("%s: %s\n", p.Stage, p.Detail)
		}
	}

	id, err := pipeline.Build(s, pipeline.Options{
		MasterArchivePath:  *esm,
		StringsArchivePath: *ba2,
		Label:              *label,
		Language:           *lang,
		Full:               *full,
	}, report)
	if err != nil {
		return err
	}

	size, err := s.Size()
	if err != nil {
		return err
	}
	fmt.Printf("snapshot #%d complete. database size: %.1f MB\n", id, float64(size)/1024/1024)
	return nil
}

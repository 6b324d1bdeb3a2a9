// Package pipeline orchestrates one full snapshot build: parse the
// master archive, load the localization string table, resolve names and
// descriptions, decode type-specific fields, and batch-insert everything
// into a store. It is the only package that wires parse, decode, and
// store together; callers (cmd/esmscan) never touch the parse and decode
// packages directly.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan"
	"github.com/esmscan/esmscan/internal/archive"
	"github.com/esmscan/esmscan/internal/decode"
	"github.com/esmscan/esmscan/internal/record"
	"github.com/esmscan/esmscan/internal/store"
	"github.com/esmscan/esmscan/internal/strtab"
)

// BatchSize is the default number of rows per batch-insert transaction,
// matching the spec's stated ≈50,000 acceptable batch size.
const BatchSize = store.DefaultBatchSize

// Options configures one snapshot build.
type Options struct {
	MasterArchivePath  string // path to the .esm file
	StringsArchivePath string // path to the general .ba2 holding string tables
	Label              string // snapshot label; auto-generated if empty
	Language           string // string-table language; defaults to "en"
	Full               bool   // persist raw subrecord payloads
	BatchSize          int    // rows per insert transaction; 0 uses BatchSize
}

// Progress reports incremental status during a build, for callers that
// want to print progress (the CLI) without the pipeline depending on any
// particular output format.
type Progress struct {
	Stage  string
	Detail string
}

// Build parses a master archive and its companion string tables and
// writes a complete snapshot into s. It returns the new snapshot id.
// report, if non-nil, receives a Progress update after each stage.
func Build(s *store.Store, opts Options, report func(Progress)) (int64, error) {
	notify := func(stage, detail string) {
		if report != nil {
			report(Progress{Stage: stage, Detail: detail})
		}
	}

	label := opts.Label
	if label == "" {
		base := filepath.Base(opts.MasterArchivePath)
		ext := filepath.Ext(base)
		label = fmt.Sprintf("%s-%s", base[:len(base)-len(ext)], timestamp())
	}

	archiveHash, archiveSize, err := fingerprint(opts.MasterArchivePath)
	if err != nil {
		return 0, xerrors.Errorf("fingerprinting master archive: %w", err)
	}

	snapshotID, err := s.CreateSnapshot(label, archiveHash, archiveSize)
	if err != nil {
		return 0, xerrors.Errorf("creating snapshot: %w", err)
	}

	notify("parse", "reading master archive")
	buf, err := os.ReadFile(opts.MasterArchivePath)
	if err != nil {
		return 0, xerrors.Errorf("reading master archive: %w", err)
	}
	records, err := record.Parse(buf)
	if err != nil {
		return 0, xerrors.Errorf("parsing master archive: %w", err)
	}
	notify("parse", fmt.Sprintf("%d records", len(records)))

	notify("strings", "loading string tables")
	gen, err := archive.Open(opts.StringsArchivePath)
	if err != nil {
		return 0, xerrors.Errorf("opening strings archive: %w", err)
	}
	defer gen.Close()

	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	stringMap, counts, err := strtab.Load(gen, lang)
	if err != nil {
		return 0, xerrors.Errorf("loading string tables: %w", err)
	}
	notify("strings", fmt.Sprintf("%d strings from %d sources", len(stringMap), len(counts)))

	notify("decode", "building rows")
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = BatchSize
	}

	// Decoding one record is pure (it only reads rec and the shared,
	// read-only stringMap), so the per-record work below is sharded across
	// a bounded worker pool: a large .esm carries hundreds of thousands of
	// records and type-dispatch decoding dominates build time.
	type rowSet struct {
		records    []store.RecordInsert
		keywords   []store.KeywordEntry
		subrecords []store.SubrecordEntry
		decoded    []store.DecodedField
	}

	workers := runtime.NumCPU()
	if workers > len(records) {
		workers = len(records)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	results := make([]rowSet, workers)

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var rs rowSet
			for i := range jobs {
				rec := &records[i]

				var fullName string
				var fullNameID *uint32
				if s, ok := rec.Find("FULL"); ok && len(s.Data) == 4 {
					id := leUint32(s.Data)
					fullNameID = &id
					fullName = stringMap[id]
				}

				var descText string
				var descID *uint32
				if s, ok := rec.Find("DESC"); ok && len(s.Data) == 4 {
					id := leUint32(s.Data)
					descID = &id
					descText = stringMap[id]
				}

				rs.records = append(rs.records, store.RecordInsert{
					FormID:     rec.FormID,
					Type:       rec.Tag.String(),
					EditorID:   rec.EditorID(),
					FullName:   fullName,
					FullNameID: fullNameID,
					DescText:   descText,
					DescID:     descID,
					DataHash:   rec.ContentHashHex(),
					Flags:      rec.Flags,
					DataSize:   subrecordsSize(rec),
				})

				if rec.Tag.String() == "KYWD" {
					if edid := rec.EditorID(); edid != "" {
						rs.keywords = append(rs.keywords, store.KeywordEntry{FormID: rec.FormID, EditorID: edid})
					}
				}

				if opts.Full {
					for idx, sub := range rec.Subrecords {
						rs.subrecords = append(rs.subrecords, store.SubrecordEntry{
							FormID: rec.FormID,
							Type:   sub.Tag.String(),
							Index:  idx,
							Data:   sub.Data,
						})
					}
				}

				for _, f := range decode.Decode(rec) {
					// ACTI's VNAM carries a string id; replace the decoder's
					// placeholder with the localized text when the table has it.
					if f.Name == "verb_override_string_id" {
						if v, ok := rec.Find("VNAM"); ok && len(v.Data) >= 4 {
							if text, ok := stringMap[leUint32(v.Data)]; ok {
								f.Name, f.Value, f.Kind = "verb_override", text, esmscan.KindString
							}
						}
					}
					rs.decoded = append(rs.decoded, store.DecodedField{
						FormID: f.FormID,
						Name:   f.Name,
						Value:  f.Value,
						Kind:   f.Kind.String(),
					})
				}
			}
			results[w] = rs
			return nil
		})
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return 0, xerrors.Errorf("decoding records: %w", err)
	}

	var recordRows []store.RecordInsert
	var keywordRows []store.KeywordEntry
	var subrecordRows []store.SubrecordEntry
	var decodedRows []store.DecodedField
	for _, rs := range results {
		recordRows = append(recordRows, rs.records...)
		keywordRows = append(keywordRows, rs.keywords...)
		subrecordRows = append(subrecordRows, rs.subrecords...)
		decodedRows = append(decodedRows, rs.decoded...)
	}

	notify("store", "writing records")
	if err := s.InsertRecords(snapshotID, recordRows, batchSize); err != nil {
		return 0, xerrors.Errorf("inserting records: %w", err)
	}
	if len(keywordRows) > 0 {
		if err := s.InsertKeywords(snapshotID, keywordRows, batchSize); err != nil {
			return 0, xerrors.Errorf("inserting keywords: %w", err)
		}
	}

	stringRows := make([]store.StringEntry, 0, len(stringMap))
	for id, text := range stringMap {
		stringRows = append(stringRows, store.StringEntry{ID: id, Text: text})
	}
	if err := s.InsertStrings(snapshotID, stringRows, batchSize); err != nil {
		return 0, xerrors.Errorf("inserting strings: %w", err)
	}

	if len(subrecordRows) > 0 {
		if err := s.InsertSubrecords(snapshotID, subrecordRows, batchSize); err != nil {
			return 0, xerrors.Errorf("inserting subrecords: %w", err)
		}
	}

	notify("decode", fmt.Sprintf("%d fields", len(decodedRows)))
	if len(decodedRows) > 0 {
		if err := s.InsertDecodedFields(snapshotID, decodedRows, batchSize); err != nil {
			return 0, xerrors.Errorf("inserting decoded fields: %w", err)
		}
	}

	if err := s.UpdateSnapshotCounts(snapshotID, len(recordRows), len(stringRows), opts.Full); err != nil {
		return 0, xerrors.Errorf("finalizing snapshot counts: %w", err)
	}

	notify("done", fmt.Sprintf("snapshot #%d", snapshotID))
	return snapshotID, nil
}

func subrecordsSize(rec *record.Record) int {
	n := 0
	for _, s := range rec.Subrecords {
		n += len(s.Data)
	}
	return n
}

func leUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// fingerprint hashes the first megabyte of path and returns the hash
// alongside the file's total size, matching the store's cheap
// archive-identity marker.
func fingerprint(path string) (hash string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", 0, err
	}

	const mebibyte = 1024 * 1024
	buf := make([]byte, mebibyte)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", 0, err
	}

	return esmscan.HashBytes(buf[:n]), fi.Size(), nil
}

func timestamp() string {
	return time.Now().Format("20060102-150405")
}

// Package store is the snapshot persistence layer: a SQLite-backed
// relational store keyed by snapshot id, holding one snapshot's parsed
// records, decoded fields, merged strings, keyword index, and (for
// "full" snapshots) raw subrecord payloads. Batch insert operations run
// one prepared statement per row and commit in chunks of batchSize rows,
// one transaction per chunk.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/xerrors"

	"github.com/esmscan/esmscan"
)

// DefaultBatchSize is the number of rows per batch-insert transaction
// chunk, matching the pipeline's default snapshot-build batching.
const DefaultBatchSize = 50000

// Store is a handle to one snapshot database file.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens (creating if absent) the SQLite database at path, applies
// pragmas tuned for a bulk-write workload, and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.Errorf("creating database directory: %w", err)
		}
	}
	// foreign_keys is a per-connection pragma, not a database-wide setting:
	// applying it with a one-off db.Exec only affects whichever connection
	// happens to run that statement, and database/sql pools and opens more
	// connections on demand. Setting it via the DSN makes the driver apply
	// it to every connection it opens, so cascading deletes stay enforced
	// under concurrent access too.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, xerrors.Errorf("opening %s: %w", path, err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA cache_size=-64000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, xerrors.Errorf("applying %q: %w", pragma, err)
		}
	}
	s := &Store{path: path, db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return xerrors.Errorf("creating schema: %w", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := s.db.Exec("INSERT INTO schema_version VALUES (?)", schemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// -- Snapshots --

// CreateSnapshot inserts a new snapshot row and returns its id.
func (s *Store) CreateSnapshot(label, archiveHash string, archiveSize int64) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO snapshots (label, archive_hash, archive_size) VALUES (?, ?, ?)",
		label, archiveHash, archiveSize,
	)
	if err != nil {
		return 0, xerrors.Errorf("creating snapshot: %w", err)
	}
	return res.LastInsertId()
}

// UpdateSnapshotCounts finalizes a snapshot's record/string counts once
// the parse-and-load pipeline has finished.
func (s *Store) UpdateSnapshotCounts(id int64, recordCount, stringCount int, hasSubrecords bool) error {
	_, err := s.db.Exec(
		"UPDATE snapshots SET record_count=?, string_count=?, has_subrecords=? WHERE id=?",
		recordCount, stringCount, boolToInt(hasSubrecords), id,
	)
	return err
}

func (s *Store) scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var snap Snapshot
	var createdAt string
	var hasSub int
	if err := row.Scan(&snap.ID, &snap.Label, &createdAt, &snap.ArchiveHash,
		&snap.ArchiveSize, &snap.RecordCount, &snap.StringCount, &hasSub); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	snap.HasSubrecords = hasSub != 0
	snap.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return &snap, nil
}

const snapshotColumns = "id, label, created_at, archive_hash, archive_size, record_count, string_count, has_subrecords"

// GetSnapshot fetches one snapshot by id, or nil if it does not exist.
func (s *Store) GetSnapshot(id int64) (*Snapshot, error) {
	row := s.db.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE id=?", id)
	return s.scanSnapshot(row)
}

// GetLatestSnapshot returns the most recently created snapshot.
func (s *Store) GetLatestSnapshot() (*Snapshot, error) {
	row := s.db.QueryRow("SELECT " + snapshotColumns + " FROM snapshots ORDER BY id DESC LIMIT 1")
	return s.scanSnapshot(row)
}

// GetTwoLatestSnapshots returns (older, newer), or (nil, nil) if fewer
// than two snapshots exist.
func (s *Store) GetTwoLatestSnapshots() (older, newer *Snapshot, err error) {
	rows, err := s.db.Query("SELECT " + snapshotColumns + " FROM snapshots ORDER BY id DESC LIMIT 2")
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		var hasSub int
		if err := rows.Scan(&snap.ID, &snap.Label, &createdAt, &snap.ArchiveHash,
			&snap.ArchiveSize, &snap.RecordCount, &snap.StringCount, &hasSub); err != nil {
			return nil, nil, err
		}
		snap.HasSubrecords = hasSub != 0
		snap.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		snaps = append(snaps, &snap)
	}
	if len(snaps) < 2 {
		return nil, nil, nil
	}
	return snaps[1], snaps[0], nil
}

// ListSnapshots returns every snapshot, oldest first.
func (s *Store) ListSnapshots() ([]*Snapshot, error) {
	rows, err := s.db.Query("SELECT " + snapshotColumns + " FROM snapshots ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		var hasSub int
		if err := rows.Scan(&snap.ID, &snap.Label, &createdAt, &snap.ArchiveHash,
			&snap.ArchiveSize, &snap.RecordCount, &snap.StringCount, &hasSub); err != nil {
			return nil, err
		}
		snap.HasSubrecords = hasSub != 0
		snap.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, &snap)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes one snapshot and everything that cascades from it.
func (s *Store) DeleteSnapshot(id int64) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE id=?", id)
	return err
}

// -- Batch inserts --

// InsertRecords batch-inserts records for a snapshot, chunked to
// batchSize rows per transaction. A batchSize of 0 uses DefaultBatchSize.
func (s *Store) InsertRecords(snapshotID int64, records []RecordInsert, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	const stmt = `INSERT OR REPLACE INTO records
		(snapshot_id, form_id, record_type, editor_id, full_name, full_name_id,
		 desc_text, desc_id, data_hash, flags, data_size)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.withTx(func(tx *sql.Tx) error {
			prepared, err := tx.Prepare(stmt)
			if err != nil {
				return err
			}
			defer prepared.Close()
			for _, r := range records[start:end] {
				if _, err := prepared.Exec(snapshotID, uint32(r.FormID), r.Type, nullString(r.EditorID),
					nullString(r.FullName), nullUint32(r.FullNameID), nullString(r.DescText),
					nullUint32(r.DescID), r.DataHash, r.Flags, r.DataSize); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return xerrors.Errorf("inserting records %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// InsertDecodedFields batch-inserts a snapshot's decoded fields.
func (s *Store) InsertDecodedFields(snapshotID int64, fields []DecodedField, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	const stmt = `INSERT OR REPLACE INTO decoded_fields
		(snapshot_id, form_id, field_name, field_value, field_type) VALUES (?, ?, ?, ?, ?)`

	for start := 0; start < len(fields); start += batchSize {
		end := start + batchSize
		if end > len(fields) {
			end = len(fields)
		}
		if err := s.withTx(func(tx *sql.Tx) error {
			prepared, err := tx.Prepare(stmt)
			if err != nil {
				return err
			}
			defer prepared.Close()
			for _, f := range fields[start:end] {
				if _, err := prepared.Exec(snapshotID, uint32(f.FormID), f.Name, f.Value, f.Kind); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return xerrors.Errorf("inserting decoded fields %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// InsertStrings batch-inserts a snapshot's merged string table.
func (s *Store) InsertStrings(snapshotID int64, entries []StringEntry, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	const stmt = `INSERT OR REPLACE INTO strings (snapshot_id, string_id, text, source) VALUES (?, ?, ?, ?)`

	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.withTx(func(tx *sql.Tx) error {
			prepared, err := tx.Prepare(stmt)
			if err != nil {
				return err
			}
			defer prepared.Close()
			for _, e := range entries[start:end] {
				if _, err := prepared.Exec(snapshotID, e.ID, e.Text, e.Source); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return xerrors.Errorf("inserting strings %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// InsertKeywords batch-inserts the KYWD keyword denormalization.
func (s *Store) InsertKeywords(snapshotID int64, entries []KeywordEntry, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	const stmt = `INSERT OR REPLACE INTO keywords (snapshot_id, form_id, editor_id) VALUES (?, ?, ?)`

	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.withTx(func(tx *sql.Tx) error {
			prepared, err := tx.Prepare(stmt)
			if err != nil {
				return err
			}
			defer prepared.Close()
			for _, e := range entries[start:end] {
				if _, err := prepared.Exec(snapshotID, uint32(e.FormID), e.EditorID); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return xerrors.Errorf("inserting keywords %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// InsertSubrecords batch-inserts raw subrecord payloads; only populated
// when the caller asked for a "full" snapshot.
func (s *Store) InsertSubrecords(snapshotID int64, entries []SubrecordEntry, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	const stmt = `INSERT INTO subrecords (snapshot_id, form_id, sub_type, sub_index, data) VALUES (?, ?, ?, ?, ?)`

	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := s.withTx(func(tx *sql.Tx) error {
			prepared, err := tx.Prepare(stmt)
			if err != nil {
				return err
			}
			defer prepared.Close()
			for _, e := range entries[start:end] {
				if _, err := prepared.Exec(snapshotID, uint32(e.FormID), e.Type, e.Index, e.Data); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return xerrors.Errorf("inserting subrecords %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error fn returns.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// -- Queries --

// GetRecordsByType returns every record of a given type in a snapshot,
// ordered by form id.
func (s *Store) GetRecordsByType(snapshotID int64, recordType string) ([]Record, error) {
	rows, err := s.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE snapshot_id=? AND record_type=? ORDER BY form_id",
		snapshotID, recordType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetMaxFormID returns the highest form id present in the snapshot, or
// ok=false if the snapshot has no records.
func (s *Store) GetMaxFormID(snapshotID int64) (formID esmscan.FormID, ok bool, err error) {
	var max sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(form_id) FROM records WHERE snapshot_id=?", snapshotID).Scan(&max); err != nil {
		return 0, false, err
	}
	if !max.Valid {
		return 0, false, nil
	}
	return esmscan.FormID(uint32(max.Int64)), true, nil
}

// GetRecordsAboveFormID fetches records of the given types whose form id
// exceeds threshold, ordered by descending form id.
func (s *Store) GetRecordsAboveFormID(snapshotID int64, recordTypes []string, threshold esmscan.FormID) ([]Record, error) {
	if len(recordTypes) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(recordTypes))
	args := make([]interface{}, 0, len(recordTypes)+2)
	args = append(args, snapshotID)
	for i, t := range recordTypes {
		placeholders[i] = "?"
		args = append(args, t)
	}
	args = append(args, uint32(threshold))
	query := "SELECT " + recordColumns + " FROM records WHERE snapshot_id=? AND record_type IN (" +
		strings.Join(placeholders, ",") + ") AND form_id > ? ORDER BY form_id DESC"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// GetRecord fetches one record by snapshot and form id, or nil.
func (s *Store) GetRecord(snapshotID int64, formID esmscan.FormID) (*Record, error) {
	row := s.db.QueryRow(
		"SELECT "+recordColumns+" FROM records WHERE snapshot_id=? AND form_id=?",
		snapshotID, uint32(formID),
	)
	var r Record
	var fid uint32
	var editorID, fullName, descText sql.NullString
	var fullNameID, descID sql.NullInt64
	if err := row.Scan(&r.SnapshotID, &fid, &r.Type, &editorID, &fullName, &fullNameID,
		&descText, &descID, &r.DataHash, &r.Flags, &r.DataSize); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	r.FormID = esmscan.FormID(fid)
	r.EditorID = editorID.String
	r.FullName = fullName.String
	r.DescText = descText.String
	if fullNameID.Valid {
		v := uint32(fullNameID.Int64)
		r.FullNameID = &v
	}
	if descID.Valid {
		v := uint32(descID.Int64)
		r.DescID = &v
	}
	return &r, nil
}

const recordColumns = "snapshot_id, form_id, record_type, editor_id, full_name, full_name_id, " +
	"desc_text, desc_id, data_hash, flags, data_size"

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var fid uint32
		var editorID, fullName, descText sql.NullString
		var fullNameID, descID sql.NullInt64
		if err := rows.Scan(&r.SnapshotID, &fid, &r.Type, &editorID, &fullName, &fullNameID,
			&descText, &descID, &r.DataHash, &r.Flags, &r.DataSize); err != nil {
			return nil, err
		}
		r.FormID = esmscan.FormID(fid)
		r.EditorID = editorID.String
		r.FullName = fullName.String
		r.DescText = descText.String
		if fullNameID.Valid {
			v := uint32(fullNameID.Int64)
			r.FullNameID = &v
		}
		if descID.Valid {
			v := uint32(descID.Int64)
			r.DescID = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchRecords looks up records by free-text query (matched against
// full name, editor id, or an exact form-id parse), optionally narrowed
// by record type and an editor-id glob pattern. Results are capped at
// 500 rows, ordered by record type and then by form id.
func (s *Store) SearchRecords(snapshotID int64, query, recordType, editorIDPattern string) ([]Record, error) {
	conditions := []string{"snapshot_id = ?"}
	args := []interface{}{snapshotID}

	if recordType != "" {
		conditions = append(conditions, "record_type = ?")
		args = append(args, recordType)
	}
	if editorIDPattern != "" {
		like := strings.NewReplacer("*", "%", "?", "_").Replace(editorIDPattern)
		conditions = append(conditions, "editor_id LIKE ?")
		args = append(args, like)
	}
	if query != "" {
		if formID, ok := parseFormIDQuery(query); ok {
			conditions = append(conditions, "(full_name LIKE ? OR editor_id LIKE ? OR form_id = ?)")
			args = append(args, "%"+query+"%", "%"+query+"%", formID)
		} else {
			conditions = append(conditions, "(full_name LIKE ? OR editor_id LIKE ?)")
			args = append(args, "%"+query+"%", "%"+query+"%")
		}
	}

	where := strings.Join(conditions, " AND ")
	rows, err := s.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE "+where+" ORDER BY record_type, form_id LIMIT 500",
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// parseFormIDQuery accepts either a "0x"-prefixed hex form id or a plain
// decimal/hex literal (Go's strconv base-0 parsing), matching the
// original tool's `int(query, 16 if 0x-prefixed else 0)` heuristic.
func parseFormIDQuery(query string) (uint32, bool) {
	v, err := strconv.ParseUint(query, 0, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// GetIconPaths batch-fetches the "icon" decoded field for a set of form
// ids, chunked to respect SQLite's bound-parameter ceiling.
func (s *Store) GetIconPaths(snapshotID int64, formIDs []esmscan.FormID) (map[esmscan.FormID]string, error) {
	return s.getFieldValues(snapshotID, formIDs, "icon")
}

// GetModelPaths batch-fetches the "model" decoded field for a set of
// form ids.
func (s *Store) GetModelPaths(snapshotID int64, formIDs []esmscan.FormID) (map[esmscan.FormID]string, error) {
	return s.getFieldValues(snapshotID, formIDs, "model")
}

func (s *Store) getFieldValues(snapshotID int64, formIDs []esmscan.FormID, fieldName string) (map[esmscan.FormID]string, error) {
	out := make(map[esmscan.FormID]string)
	if len(formIDs) == 0 {
		return out, nil
	}
	const batch = 500
	for start := 0; start < len(formIDs); start += batch {
		end := start + batch
		if end > len(formIDs) {
			end = len(formIDs)
		}
		chunk := formIDs[start:end]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]interface{}, 0, len(chunk)+2)
		args = append(args, snapshotID, fieldName)
		for _, fid := range chunk {
			args = append(args, uint32(fid))
		}
		rows, err := s.db.Query(
			fmt.Sprintf("SELECT form_id, field_value FROM decoded_fields WHERE snapshot_id=? AND field_name=? AND form_id IN (%s)", placeholders),
			args...,
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var fid uint32
			var value string
			if err := rows.Scan(&fid, &value); err != nil {
				rows.Close()
				return nil, err
			}
			out[esmscan.FormID(fid)] = value
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// GetDecodedFields returns every decoded field for one record.
func (s *Store) GetDecodedFields(snapshotID int64, formID esmscan.FormID) ([]DecodedField, error) {
	rows, err := s.db.Query(
		"SELECT form_id, field_name, field_value, field_type FROM decoded_fields WHERE snapshot_id=? AND form_id=?",
		snapshotID, uint32(formID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DecodedField
	for rows.Next() {
		var fid uint32
		var f DecodedField
		if err := rows.Scan(&fid, &f.Name, &f.Value, &f.Kind); err != nil {
			return nil, err
		}
		f.FormID = esmscan.FormID(fid)
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetRecordHashes returns every form-id-to-content-hash pair in a
// snapshot, the sole input the diff engine needs to find added, removed,
// and modified records.
func (s *Store) GetRecordHashes(snapshotID int64) (map[esmscan.FormID]string, error) {
	rows, err := s.db.Query("SELECT form_id, data_hash FROM records WHERE snapshot_id=?", snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[esmscan.FormID]string)
	for rows.Next() {
		var fid uint32
		var hash string
		if err := rows.Scan(&fid, &hash); err != nil {
			return nil, err
		}
		out[esmscan.FormID(fid)] = hash
	}
	return out, rows.Err()
}

// RecordTypeCount is one row of a per-type record tally.
type RecordTypeCount struct {
	Type  string
	Count int
}

// GetRecordTypeCounts returns the number of records of each type in a
// snapshot, most common type first.
func (s *Store) GetRecordTypeCounts(snapshotID int64) ([]RecordTypeCount, error) {
	rows, err := s.db.Query(
		"SELECT record_type, COUNT(*) FROM records WHERE snapshot_id=? GROUP BY record_type ORDER BY COUNT(*) DESC",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecordTypeCount
	for rows.Next() {
		var c RecordTypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetString looks up one localized string by id.
func (s *Store) GetString(snapshotID int64, stringID uint32) (string, bool, error) {
	var text string
	err := s.db.QueryRow(
		"SELECT text FROM strings WHERE snapshot_id=? AND string_id=?", snapshotID, stringID,
	).Scan(&text)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// SearchStrings finds up to 200 strings whose text contains query,
// case-insensitively (SQLite's default LIKE collation for ASCII).
func (s *Store) SearchStrings(snapshotID int64, query string) ([]StringEntry, error) {
	rows, err := s.db.Query(
		"SELECT string_id, text FROM strings WHERE snapshot_id=? AND text LIKE ? LIMIT 200",
		snapshotID, "%"+query+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StringEntry
	for rows.Next() {
		var e StringEntry
		if err := rows.Scan(&e.ID, &e.Text); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Size returns the database file's size in bytes.
func (s *Store) Size() (int64, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	return fi.Size(), nil
}

// -- Diff storage --

// DiffChangeEntry is one row to persist in diff_entries.
type DiffChangeEntry struct {
	FormID     esmscan.FormID
	ChangeType string // "added", "removed", "modified"
	Type       string
	EditorID   string
	FullName   string
	OldHash    string
	NewHash    string
}

// SaveDiff persists a diff run's summary and per-record entries, and
// returns the new diff id.
func (s *Store) SaveDiff(oldID, newID int64, entries []DiffChangeEntry) (int64, error) {
	var added, removed, modified int
	for _, e := range entries {
		switch e.ChangeType {
		case "added":
			added++
		case "removed":
			removed++
		case "modified":
			modified++
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(
		"INSERT INTO diffs (old_snapshot_id, new_snapshot_id, added_count, removed_count, modified_count) VALUES (?, ?, ?, ?, ?)",
		oldID, newID, added, removed, modified,
	)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	diffID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	prepared, err := tx.Prepare(
		`INSERT INTO diff_entries (diff_id, form_id, change_type, record_type, editor_id, full_name, old_hash, new_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for _, e := range entries {
		if _, err := prepared.Exec(diffID, uint32(e.FormID), e.ChangeType, e.Type, nullString(e.EditorID),
			nullString(e.FullName), nullString(e.OldHash), nullString(e.NewHash)); err != nil {
			prepared.Close()
			tx.Rollback()
			return 0, err
		}
	}
	prepared.Close()
	return diffID, tx.Commit()
}

// PurgeOldSnapshots deletes every snapshot but the keep most recent ones
// and reclaims disk space. It returns the number of snapshots removed.
func (s *Store) PurgeOldSnapshots(keep int) (int, error) {
	rows, err := s.db.Query("SELECT id FROM snapshots ORDER BY id DESC LIMIT -1 OFFSET ?", keep)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	for _, table := range []string{"snapshots", "records", "decoded_fields", "strings", "keywords", "subrecords"} {
		col := "id"
		if table != "snapshots" {
			col = "snapshot_id"
		}
		if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", table, col, placeholders), args...); err != nil {
			return 0, err
		}
	}
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ClearAllSnapshots deletes every snapshot and all related data,
// returning the number of snapshots that existed beforehand.
func (s *Store) ClearAllSnapshots() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	for _, table := range []string{"diff_entries", "diffs", "decoded_fields", "strings", "keywords", "subrecords", "records", "snapshots"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return 0, err
		}
	}
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return 0, err
	}
	return count, nil
}

// Compact rewrites the database file to a fresh, defragmented copy and
// atomically replaces the original, so a reader never observes a
// partially-vacuumed file.
func (s *Store) Compact() error {
	tmpPath := s.path + ".compact"
	os.Remove(tmpPath)
	if _, err := s.db.Exec("VACUUM INTO ?", tmpPath); err != nil {
		return xerrors.Errorf("vacuum into temp copy: %w", err)
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	f, err := renameio.TempFile("", s.path)
	if err != nil {
		return err
	}
	defer f.Cleanup()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.CloseAtomicallyReplace()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullUint32(v *uint32) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
